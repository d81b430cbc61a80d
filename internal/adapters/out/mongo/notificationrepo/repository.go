// Package notificationrepo stores notifications as MongoDB documents. It is the
// alternative inbox selected with NOTIFICATION_STORE=mongo.
package notificationrepo

import (
	"context"
	"errors"
	"time"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/notification"
	"robodelivery/internal/pkg/errs"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "notifications"
	defaultTimeout = 3 * time.Second
)

type notificationDocument struct {
	ID              string     `bson:"_id"`
	RecipientID     string     `bson:"recipient_id"`
	Type            string     `bson:"type"`
	Title           string     `bson:"title"`
	Message         string     `bson:"message"`
	Payload         string     `bson:"payload"`
	Read            bool       `bson:"read"`
	CreatedAt       time.Time  `bson:"created_at"`
	PublishedAt     *time.Time `bson:"published_at"`
	PublishAttempts int        `bson:"publish_attempts"`
}

// MongoNotificationRepository is the document store alternative for
// notifications, selected with NOTIFICATION_STORE=mongo.
type MongoNotificationRepository struct {
	collection *mongo.Collection
	timeout    time.Duration
}

// NewMongoNotificationRepository uses the notifications collection of db.
func NewMongoNotificationRepository(db *mongo.Database, timeout time.Duration) *MongoNotificationRepository {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &MongoNotificationRepository{collection: db.Collection(CollectionName), timeout: timeout}
}

// EnsureIndexes creates the inbox and outbox indexes. It is idempotent.
func (r *MongoNotificationRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "recipient_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "published_at", Value: 1}, {Key: "created_at", Value: 1}}},
	})
	return translate(err, "indexes")
}

func (r *MongoNotificationRepository) Add(ctx context.Context, n *notification.Notification) error {
	if err := n.Validate(); err != nil {
		return err
	}
	payload, err := notification.EncodePayload(n.Payload())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err = r.collection.InsertOne(ctx, notificationDocument{
		ID:              n.ID().String(),
		RecipientID:     n.RecipientID(),
		Type:            string(n.Type()),
		Title:           n.Title(),
		Message:         n.Message(),
		Payload:         string(payload),
		Read:            n.IsRead(),
		CreatedAt:       n.CreatedAt(),
		PublishedAt:     n.PublishedAt(),
		PublishAttempts: n.PublishAttempts(),
	})
	return translate(err, n.ID().String())
}

func (r *MongoNotificationRepository) Update(ctx context.Context, n *notification.Notification) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	result, err := r.collection.UpdateByID(ctx, n.ID().String(), bson.M{"$set": bson.M{
		"read":             n.IsRead(),
		"published_at":     n.PublishedAt(),
		"publish_attempts": n.PublishAttempts(),
	}})
	if err != nil {
		return translate(err, n.ID().String())
	}
	if result.MatchedCount == 0 {
		return errs.NewObjectNotFoundError("notification", n.ID().String())
	}
	return nil
}

func (r *MongoNotificationRepository) Get(ctx context.Context, id kernel.UUID) (*notification.Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var doc notificationDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc); err != nil {
		return nil, translate(err, id.String())
	}
	return toDomain(doc)
}

// ListByRecipient returns newest first.
func (r *MongoNotificationRepository) ListByRecipient(
	ctx context.Context,
	recipientID string,
	unreadOnly bool,
	limit int,
) ([]*notification.Notification, error) {
	filter := bson.M{"recipient_id": recipientID}
	if unreadOnly {
		filter["read"] = false
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return r.find(ctx, filter, opts)
}

func (r *MongoNotificationRepository) ListUnpublished(
	ctx context.Context,
	maxAttempts, limit int,
) ([]*notification.Notification, error) {
	filter := bson.M{
		"published_at":     nil,
		"publish_attempts": bson.M{"$lt": maxAttempts},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return r.find(ctx, filter, opts)
}

func (r *MongoNotificationRepository) find(
	ctx context.Context,
	filter bson.M,
	opts *options.FindOptions,
) ([]*notification.Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, translate(err, "list")
	}
	defer cursor.Close(ctx)

	var docs []notificationDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, translate(err, "list")
	}

	out := make([]*notification.Notification, 0, len(docs))
	for _, doc := range docs {
		n, convErr := toDomain(doc)
		if convErr != nil {
			return nil, convErr
		}
		out = append(out, n)
	}
	return out, nil
}

func toDomain(doc notificationDocument) (*notification.Notification, error) {
	id, err := kernel.UUIDFromString(doc.ID)
	if err != nil {
		return nil, err
	}
	payload, err := notification.DecodePayload([]byte(doc.Payload))
	if err != nil {
		return nil, err
	}

	var publishedAt *time.Time
	if doc.PublishedAt != nil {
		t := doc.PublishedAt.UTC()
		publishedAt = &t
	}

	return notification.RestoreNotification(notification.Snapshot{
		ID:          id,
		RecipientID: doc.RecipientID,
		Title:       doc.Title,
		Message:     doc.Message,
		Payload:     payload,
		Read:        doc.Read,
		CreatedAt:   doc.CreatedAt.UTC(),
		PublishedAt: publishedAt,
		Attempts:    doc.PublishAttempts,
	})
}

func translate(err error, id string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return errs.NewObjectNotFoundError("notification", id)
	case mongo.IsDuplicateKeyError(err):
		return errs.NewConflictErrorWithCause("notification", id, err)
	case mongo.IsTimeout(err), errors.Is(err, context.DeadlineExceeded):
		return errs.NewUnavailableError("mongo", err)
	default:
		return err
	}
}
