// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Severities
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityHigh    = "high"
)

// Action names, dot-namespaced by subsystem.
const (
	ActionUserProvisioned     = "user.provisioned"
	ActionMembershipRequested = "membership.request"
	ActionMembershipApproved  = "membership.approve"
	ActionMembershipRejected  = "membership.reject"
	ActionMembershipTransfer  = "membership.transfer"
	ActionMembershipAssigned  = "membership.assign"
	ActionMembershipBackfill  = "membership.backfill"
	ActionInstitutionCreated  = "institution.create"
	ActionInstitutionDisabled = "institution.deactivate"
	ActionInviteCodeRotated   = "institution.invite_code_rotate"
)

// Event represents an audit event: who did what to which resource, with the
// actor's role at the time of action.
type Event struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Timestamp     time.Time          `bson:"timestamp"`
	InstitutionID string             `bson:"institution_id,omitempty"`

	Action string `bson:"action"`

	// Who
	ActorID   string `bson:"actor_id,omitempty"`
	ActorRole string `bson:"actor_role,omitempty"`

	// What was acted on (a user id, membership pair, institution slug)
	Resource string `bson:"resource,omitempty"`

	Severity string            `bson:"severity,omitempty"`
	Note     string            `bson:"note,omitempty"`
	Details  map[string]string `bson:"details,omitempty"`
}

// QueryFilter defines filters for querying audit events.
type QueryFilter struct {
	InstitutionID string
	ActorID       string
	Action        string
	StartTime     *time.Time
	EndTime       *time.Time
	Limit         int64
	Offset        int64
}

// Store manages audit event records.
type Store struct {
	c *mongo.Collection
}

// New creates a new audit Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// EnsureIndexes creates necessary indexes for efficient querying.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		// Query by time range (most recent first)
		{
			Keys: bson.D{{Key: "timestamp", Value: -1}},
		},
		// Query by institution
		{
			Keys: bson.D{
				{Key: "institution_id", Value: 1},
				{Key: "timestamp", Value: -1},
			},
		},
		// Query by actor
		{
			Keys: bson.D{
				{Key: "actor_id", Value: 1},
				{Key: "timestamp", Value: -1},
			},
		},
		// Query by action
		{
			Keys: bson.D{
				{Key: "action", Value: 1},
				{Key: "timestamp", Value: -1},
			},
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Log records an audit event.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Severity == "" {
		event.Severity = SeverityInfo
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

func (s *Store) buildQuery(filter QueryFilter) bson.M {
	query := bson.M{}
	if filter.InstitutionID != "" {
		query["institution_id"] = filter.InstitutionID
	}
	if filter.ActorID != "" {
		query["actor_id"] = filter.ActorID
	}
	if filter.Action != "" {
		query["action"] = filter.Action
	}
	if filter.StartTime != nil || filter.EndTime != nil {
		timeQuery := bson.M{}
		if filter.StartTime != nil {
			timeQuery["$gte"] = *filter.StartTime
		}
		if filter.EndTime != nil {
			timeQuery["$lte"] = *filter.EndTime
		}
		query["timestamp"] = timeQuery
	}
	return query
}

// Query retrieves audit events matching the given filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit).
		SetSkip(filter.Offset)

	cursor, err := s.c.Find(ctx, s.buildQuery(filter), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// CountByFilter returns the count of events matching the filter.
func (s *Store) CountByFilter(ctx context.Context, filter QueryFilter) (int64, error) {
	return s.c.CountDocuments(ctx, s.buildQuery(filter))
}
