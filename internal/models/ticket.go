package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TicketTypeStandard  = "standard"
	TicketTypeVIP       = "vip"
	TicketTypeMember    = "member"
	TicketTypeEarlyBird = "early_bird"
)

// Ticket belongs to exactly one Event. Available is the only field the
// purchase workflow mutates; everything else is administrative.
type Ticket struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	EventID          uuid.UUID `gorm:"type:uuid;not null;index" json:"eventId"`
	Event            *Event    `json:"event,omitempty"`
	Name             string    `gorm:"not null" json:"name"`
	Description      string    `json:"description"`
	Price            int       `gorm:"not null" json:"price"`
	OriginalPrice    *int      `json:"originalPrice,omitempty"`
	AllowCustomPrice bool      `gorm:"not null;default:false" json:"allowCustomPrice"`
	MinPrice         int       `gorm:"not null;default:0" json:"minPrice"`
	// MaxPrice of 0 means no upper bound on custom pricing.
	MaxPrice      int       `gorm:"not null;default:0" json:"maxPrice"`
	Currency      string    `gorm:"not null;default:'HKD'" json:"currency"`
	Type          string    `gorm:"not null;default:'standard'" json:"type"`
	Restrictions  []string  `gorm:"serializer:json" json:"restrictions"`
	Available     int       `gorm:"not null" json:"available"`
	Total         int       `gorm:"not null" json:"total"`
	SaleStartDate time.Time `gorm:"not null" json:"saleStartDate"`
	SaleEndDate   time.Time `gorm:"not null" json:"saleEndDate"`
	IsActive      bool      `gorm:"not null;default:true" json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (ticket *Ticket) BeforeCreate(tx *gorm.DB) (err error) {
	if ticket.ID == uuid.Nil {
		ticket.ID = uuid.New()
	}
	return
}

// ReserveStock decrements available by quantity in a single conditional
// update, so two concurrent purchases can never both take the last seats.
// Returns false when the remaining stock is insufficient.
func ReserveStock(tx *gorm.DB, ticketID uuid.UUID, quantity int) (bool, error) {
	result := tx.Model(&Ticket{}).
		Where("id = ? AND available >= ?", ticketID, quantity).
		UpdateColumn("available", gorm.Expr("available - ?", quantity))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// RestoreStock returns quantity to the ticket, capped at total. Written as
// two conditional updates instead of LEAST() so it runs on both Postgres and
// the sqlite driver used in tests.
func RestoreStock(tx *gorm.DB, ticketID uuid.UUID, quantity int) error {
	result := tx.Model(&Ticket{}).
		Where("id = ? AND available + ? <= total", ticketID, quantity).
		UpdateColumn("available", gorm.Expr("available + ?", quantity))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}
	return tx.Model(&Ticket{}).
		Where("id = ?", ticketID).
		UpdateColumn("available", gorm.Expr("total")).Error
}
