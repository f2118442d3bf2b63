package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"

	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// User is an administrative account. Ticket buyers never authenticate; they
// hold capability URLs instead.
type User struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Email         string    `gorm:"unique;not null" json:"email"`
	Username      string    `gorm:"not null" json:"username"`
	Password      string    `gorm:"not null" json:"-"`
	Role          string    `gorm:"not null;default:'user'" json:"role"`
	Status        string    `gorm:"not null;default:'active'" json:"status"`
	ContactMethod string    `gorm:"not null;default:'email'" json:"contactMethod"`
	ContactInfo   string    `json:"contactInfo"`
	IPAddress     string    `json:"-"`
	UserAgent     string    `json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (user *User) BeforeCreate(tx *gorm.DB) (err error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	return
}

func (user *User) IsAdmin() bool {
	return user.Role == RoleAdmin
}

func (user *User) IsActive() bool {
	return user.Status == UserStatusActive
}
