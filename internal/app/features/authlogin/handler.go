// internal/app/features/authlogin/handler.go
package authlogin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	loginstore "github.com/lumenlms/admission/internal/app/store/logins"
	"github.com/lumenlms/admission/internal/app/system/auth"
	"github.com/lumenlms/admission/internal/app/system/timeouts"
	"github.com/lumenlms/admission/internal/app/workflow/admission"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const stateCookie = "oauth_state"

// Handler handles the Google OAuth login flow. The callback runs session
// bootstrap, so a first-time login provisions the user and their
// memberships before the session cookie is written.
type Handler struct {
	Admission *admission.Service
	Logins    *loginstore.Store
	Log       *zap.Logger

	// OAuth configuration
	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g. "https://lumen.example.edu/auth/google/callback"

	// stateCodec signs the short-lived state cookie so the callback can
	// verify the round trip without a server-side state store.
	stateCodec *securecookie.SecureCookie
}

// NewHandler creates a new login handler. hashKey signs the OAuth state
// cookie; reuse the session key unless a dedicated key is configured.
func NewHandler(svc *admission.Service, logins *loginstore.Store, clientID, clientSecret, baseURL, hashKey string, logger *zap.Logger) *Handler {
	return &Handler{
		Admission:    svc,
		Logins:       logins,
		Log:          logger,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  baseURL + "/auth/google/callback",
		stateCodec:   securecookie.New([]byte(hashKey), nil),
	}
}

// oauth2Config returns the Google OAuth2 configuration.
func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

// IsConfigured returns true if Google OAuth is configured.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

// ServeLogin initiates the OAuth flow.
// GET /auth/google
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("Google OAuth not configured")
		http.Redirect(w, r, "/login?error=google_not_configured", http.StatusSeeOther)
		return
	}

	state := uuid.NewString()
	encoded, err := h.stateCodec.Encode(stateCookie, state)
	if err != nil {
		h.Log.Error("failed to sign OAuth state", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    encoded,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	url := h.oauth2Config().AuthCodeURL(state, oauth2.AccessTypeOffline)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// ServeCallback completes the flow: verifies state, exchanges the code,
// fetches the identity, runs session bootstrap, and writes the session.
// GET /auth/google/callback
func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.Log.Warn("Google OAuth error",
			zap.String("error", errParam),
			zap.String("description", r.URL.Query().Get("error_description")))
		http.Redirect(w, r, "/login?error=google_denied", http.StatusSeeOther)
		return
	}

	if !h.validState(r) {
		h.Log.Warn("invalid or missing OAuth state")
		http.Redirect(w, r, "/login?error=invalid_state", http.StatusSeeOther)
		return
	}
	clearStateCookie(w)

	code := r.URL.Query().Get("code")
	if code == "" {
		h.Log.Warn("missing OAuth code parameter")
		http.Redirect(w, r, "/login?error=invalid_code", http.StatusSeeOther)
		return
	}

	token, err := h.oauth2Config().Exchange(ctx, code)
	if err != nil {
		h.Log.Error("failed to exchange OAuth code", zap.Error(err))
		http.Redirect(w, r, "/login?error=token_exchange", http.StatusSeeOther)
		return
	}

	googleUser, err := fetchGoogleUserInfo(ctx, token)
	if err != nil {
		h.Log.Error("failed to fetch Google user info", zap.Error(err))
		http.Redirect(w, r, "/login?error=user_info", http.StatusSeeOther)
		return
	}

	bctx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()

	res, err := h.Admission.Bootstrap(bctx, admission.Principal{
		ID:    googleUser.ID,
		Email: googleUser.Email,
		Name:  googleUser.Name,
	})
	if err != nil {
		h.Log.Error("session bootstrap failed",
			zap.Error(err),
			zap.String("email", googleUser.Email))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	if h.Logins != nil {
		if err := h.Logins.CreateFrom(bctx, r, res.User.ID, res.User.Email); err != nil {
			h.Log.Warn("failed to record login", zap.Error(err), zap.String("user_id", res.User.ID))
		}
	}

	u := &auth.SessionUser{
		ID:            res.User.ID,
		Name:          res.User.FullName,
		Email:         res.User.Email,
		Role:          res.User.Role,
		InstitutionID: res.User.InstitutionID,
		IsExternal:    res.User.IsExternal,
	}
	if err := auth.SignIn(w, r, u); err != nil {
		h.Log.Error("save session failed", zap.Error(err), zap.String("user_id", u.ID))
		http.Redirect(w, r, "/login?error=session", http.StatusSeeOther)
		return
	}

	h.Log.Info("user logged in via Google OAuth",
		zap.String("user_id", u.ID),
		zap.Bool("provisioned", res.Created),
		zap.Int("memberships_healed", res.Healed))

	http.Redirect(w, r, "/session/me", http.StatusSeeOther)
}

// validState checks the callback's state parameter against the signed
// state cookie set when the flow started.
func (h *Handler) validState(r *http.Request) bool {
	state := r.URL.Query().Get("state")
	if state == "" {
		return false
	}
	c, err := r.Cookie(stateCookie)
	if err != nil {
		return false
	}
	var want string
	if err := h.stateCodec.Decode(stateCookie, c.Value, &want); err != nil {
		return false
	}
	return want == state
}

func clearStateCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// googleUserInfo represents user info returned from Google.
type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
}

// fetchGoogleUserInfo retrieves user information from Google's userinfo endpoint.
func fetchGoogleUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	return &info, nil
}
