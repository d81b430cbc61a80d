// Package notificationrepo is the relational notification inbox and outbox.
package notificationrepo

import (
	"context"
	"time"

	"robodelivery/internal/adapters/out/postgres/dbutil"
	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/notification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationDTO keeps the payload as its tagged JSON envelope in a jsonb column.
type NotificationDTO struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	RecipientID     string     `gorm:"size:128;not null;index:idx_notifications_recipient,priority:1"`
	Type            string     `gorm:"size:32;not null"`
	Title           string     `gorm:"size:256;not null"`
	Message         string     `gorm:"type:text"`
	Payload         string     `gorm:"type:jsonb;not null"`
	Read            bool       `gorm:"not null;default:false"`
	CreatedAt       time.Time  `gorm:"not null;index:idx_notifications_recipient,priority:2"`
	PublishedAt     *time.Time `gorm:"index"`
	PublishAttempts int        `gorm:"not null;default:0"`
}

func (NotificationDTO) TableName() string {
	return "notifications"
}

func fromDomain(n *notification.Notification) (NotificationDTO, error) {
	payload, err := notification.EncodePayload(n.Payload())
	if err != nil {
		return NotificationDTO{}, err
	}

	return NotificationDTO{
		ID:              n.ID().Bytes(),
		RecipientID:     n.RecipientID(),
		Type:            string(n.Type()),
		Title:           n.Title(),
		Message:         n.Message(),
		Payload:         string(payload),
		Read:            n.IsRead(),
		CreatedAt:       n.CreatedAt(),
		PublishedAt:     n.PublishedAt(),
		PublishAttempts: n.PublishAttempts(),
	}, nil
}

func toDomain(dto NotificationDTO) (*notification.Notification, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	payload, err := notification.DecodePayload([]byte(dto.Payload))
	if err != nil {
		return nil, err
	}

	return notification.RestoreNotification(notification.Snapshot{
		ID:          id,
		RecipientID: dto.RecipientID,
		Title:       dto.Title,
		Message:     dto.Message,
		Payload:     payload,
		Read:        dto.Read,
		CreatedAt:   dto.CreatedAt,
		PublishedAt: dto.PublishedAt,
		Attempts:    dto.PublishAttempts,
	})
}

// GormNotificationRepository stores notifications in the notifications table.
type GormNotificationRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewGormNotificationRepository creates the repository. timeout bounds each statement.
func NewGormNotificationRepository(db *gorm.DB, timeout time.Duration) *GormNotificationRepository {
	return &GormNotificationRepository{db: db, timeout: timeout}
}

func (r *GormNotificationRepository) Add(ctx context.Context, n *notification.Notification) error {
	if err := n.Validate(); err != nil {
		return err
	}
	dto, err := fromDomain(n)
	if err != nil {
		return err
	}

	ctx, cancel := dbutil.Bound(ctx, r.timeout)
	defer cancel()

	return dbutil.Translate(r.db.WithContext(ctx).Create(&dto).Error, "notification", n.ID().String())
}

// Update writes the read flag and publish bookkeeping only.
func (r *GormNotificationRepository) Update(ctx context.Context, n *notification.Notification) error {
	if err := n.Validate(); err != nil {
		return err
	}

	ctx, cancel := dbutil.Bound(ctx, r.timeout)
	defer cancel()

	result := r.db.WithContext(ctx).
		Model(&NotificationDTO{}).
		Where("id = ?", n.ID().Bytes()).
		Updates(map[string]any{
			"read":             n.IsRead(),
			"published_at":     n.PublishedAt(),
			"publish_attempts": n.PublishAttempts(),
		})
	if result.Error != nil {
		return dbutil.Translate(result.Error, "notification", n.ID().String())
	}
	if result.RowsAffected == 0 {
		return dbutil.Translate(gorm.ErrRecordNotFound, "notification", n.ID().String())
	}
	return nil
}

func (r *GormNotificationRepository) Get(ctx context.Context, id kernel.UUID) (*notification.Notification, error) {
	ctx, cancel := dbutil.Bound(ctx, r.timeout)
	defer cancel()

	var dto NotificationDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		return nil, dbutil.Translate(err, "notification", id.String())
	}
	return toDomain(dto)
}

func (r *GormNotificationRepository) ListByRecipient(
	ctx context.Context,
	recipientID string,
	unreadOnly bool,
	limit int,
) ([]*notification.Notification, error) {
	ctx, cancel := dbutil.Bound(ctx, r.timeout)
	defer cancel()

	query := r.db.WithContext(ctx).Where("recipient_id = ?", recipientID)
	if unreadOnly {
		query = query.Where("read = ?", false)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var dtos []NotificationDTO
	if err := query.Order("created_at DESC, id").Find(&dtos).Error; err != nil {
		return nil, dbutil.Translate(err, "notification", recipientID)
	}
	return toDomainList(dtos)
}

// ListUnpublished feeds the republish job, oldest first.
func (r *GormNotificationRepository) ListUnpublished(
	ctx context.Context,
	maxAttempts, limit int,
) ([]*notification.Notification, error) {
	ctx, cancel := dbutil.Bound(ctx, r.timeout)
	defer cancel()

	query := r.db.WithContext(ctx).
		Where("published_at IS NULL AND publish_attempts < ?", maxAttempts).
		Order("created_at, id")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var dtos []NotificationDTO
	if err := query.Find(&dtos).Error; err != nil {
		return nil, dbutil.Translate(err, "notification", "unpublished")
	}
	return toDomainList(dtos)
}

func toDomainList(dtos []NotificationDTO) ([]*notification.Notification, error) {
	out := make([]*notification.Notification, 0, len(dtos))
	for _, dto := range dtos {
		n, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
