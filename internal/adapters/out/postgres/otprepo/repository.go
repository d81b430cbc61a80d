// Package otprepo stores one-time code hashes. Plaintext codes never reach it.
package otprepo

import (
	"context"
	"time"

	"robodelivery/internal/adapters/out/postgres/dbutil"
	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/otp"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CodeDTO maps otp_codes. Only the hash of a code is stored.
type CodeDTO struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	SubjectID string    `gorm:"size:128;not null;index:idx_otp_codes_subject,priority:1"`
	Purpose   string    `gorm:"size:64;not null;index:idx_otp_codes_subject,priority:2"`
	CodeHash  []byte    `gorm:"not null"`
	ExpiresAt time.Time `gorm:"not null"`
	Used      bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"not null"`
}

func (CodeDTO) TableName() string {
	return "otp_codes"
}

// GormOTPRepository implements ports.OTPRepository on postgres.
type GormOTPRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewGormOTPRepository creates the repository. timeout bounds each statement.
func NewGormOTPRepository(db *gorm.DB, timeout time.Duration) *GormOTPRepository {
	return &GormOTPRepository{db: db, timeout: timeout}
}

func (r *GormOTPRepository) Add(ctx context.Context, code *otp.Code) error {
	if err := code.Validate(); err != nil {
		return err
	}

	ctx, cancel := dbutil.Bound(ctx, r.timeout)
	defer cancel()

	dto := CodeDTO{
		ID:        code.ID().Bytes(),
		SubjectID: code.SubjectID(),
		Purpose:   string(code.Purpose()),
		CodeHash:  code.Hash(),
		ExpiresAt: code.ExpiresAt(),
		Used:      code.IsUsed(),
		CreatedAt: code.CreatedAt(),
	}
	return dbutil.Translate(r.db.WithContext(ctx).Create(&dto).Error, "otp", code.ID().String())
}

// InvalidateActive marks every unused code for the pair as used.
func (r *GormOTPRepository) InvalidateActive(ctx context.Context, subjectID string, purpose otp.Purpose) error {
	ctx, cancel := dbutil.Bound(ctx, r.timeout)
	defer cancel()

	err := r.db.WithContext(ctx).
		Model(&CodeDTO{}).
		Where("subject_id = ? AND purpose = ? AND used = ?", subjectID, string(purpose), false).
		Update("used", true).Error
	return dbutil.Translate(err, "otp", subjectID)
}

func (r *GormOTPRepository) GetActive(
	ctx context.Context,
	subjectID string,
	purpose otp.Purpose,
	now time.Time,
) (*otp.Code, error) {
	ctx, cancel := dbutil.Bound(ctx, r.timeout)
	defer cancel()

	var dto CodeDTO
	err := r.db.WithContext(ctx).
		Where("subject_id = ? AND purpose = ? AND used = ? AND expires_at > ?", subjectID, string(purpose), false, now).
		Order("created_at DESC").
		First(&dto).Error
	if err != nil {
		return nil, dbutil.Translate(err, "otp", subjectID)
	}

	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	return otp.RestoreCode(id, dto.SubjectID, otp.Purpose(dto.Purpose), dto.CodeHash, dto.ExpiresAt, dto.Used, dto.CreatedAt)
}

// MarkUsed is a compare-and-set on the used flag.
func (r *GormOTPRepository) MarkUsed(ctx context.Context, id kernel.UUID) (bool, error) {
	ctx, cancel := dbutil.Bound(ctx, r.timeout)
	defer cancel()

	result := r.db.WithContext(ctx).
		Model(&CodeDTO{}).
		Where("id = ? AND used = ?", id.Bytes(), false).
		Update("used", true)
	if result.Error != nil {
		return false, dbutil.Translate(result.Error, "otp", id.String())
	}
	return result.RowsAffected == 1, nil
}
