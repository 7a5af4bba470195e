package session

import "time"

type Session struct {
	ID         string    `gorm:"primaryKey;size:36"`
	UserID     int64     `gorm:"column:user_id;index;not null"`
	CSRFToken  string    `gorm:"column:csrf_token;size:64;not null"`
	CompanyID  *int64    `gorm:"column:company_id"`
	EmployeeID *int64    `gorm:"column:employee_id"`
	ExpiresAt  time.Time `gorm:"column:expires_at;index;not null"`
	LastSeenAt time.Time `gorm:"column:last_seen_at;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Session) TableName() string {
	return "sessions"
}
