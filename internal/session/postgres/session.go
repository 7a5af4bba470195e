package postgres

import (
	"context"
	"errors"
	"time"

	sessionDatamodel "github.com/frahmantamala/timeclock/internal/core/datamodel/session"
	"github.com/frahmantamala/timeclock/internal/session"
	"gorm.io/gorm"
)

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) session.Store {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, s *sessionDatamodel.Session) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *SessionRepository) GetByID(ctx context.Context, id string) (*sessionDatamodel.Session, error) {
	var s sessionDatamodel.Session
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, session.ErrNoSession
		}
		return nil, err
	}
	return &s, nil
}

func (r *SessionRepository) Update(ctx context.Context, s *sessionDatamodel.Session) error {
	return r.db.WithContext(ctx).Model(&sessionDatamodel.Session{}).
		Where("id = ?", s.ID).
		Updates(map[string]interface{}{
			"company_id":   s.CompanyID,
			"employee_id":  s.EmployeeID,
			"csrf_token":   s.CSRFToken,
			"expires_at":   s.ExpiresAt,
			"last_seen_at": s.LastSeenAt,
		}).Error
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&sessionDatamodel.Session{}).Error
}

func (r *SessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("expires_at <= ?", before).Delete(&sessionDatamodel.Session{})
	return result.RowsAffected, result.Error
}
