package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	EventStatusUpcoming = "upcoming"
	EventStatusLive     = "live"
	EventStatusEnded    = "ended"
)

type Event struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Title            string    `gorm:"not null" json:"title"`
	Description      string    `gorm:"not null" json:"description"`
	ShortDescription string    `gorm:"not null" json:"shortDescription"`
	Image            string    `json:"image"`
	Date             time.Time `gorm:"not null" json:"date"`
	Time             string    `json:"time"`
	Venue            string    `gorm:"not null" json:"venue"`
	Status           string    `gorm:"not null;default:'upcoming'" json:"status"`
	Organizer        string    `json:"organizer"`
	Featured         bool      `gorm:"not null;default:false" json:"featured"`
	Tickets          []Ticket  `json:"tickets,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func (event *Event) BeforeCreate(tx *gorm.DB) (err error) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	return
}
