package models

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Event{}, &Ticket{}, &Purchase{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedTicket(t *testing.T, db *gorm.DB, available, total int) *Ticket {
	t.Helper()
	event := Event{
		Title:            "Benefit Concert",
		Description:      "A benefit concert",
		ShortDescription: "Concert",
		Date:             time.Now().Add(30 * 24 * time.Hour),
		Venue:            "City Hall",
	}
	if err := db.Create(&event).Error; err != nil {
		t.Fatalf("create event: %v", err)
	}
	ticket := Ticket{
		EventID:       event.ID,
		Name:          "Standard",
		Price:         500,
		Available:     available,
		Total:         total,
		SaleStartDate: time.Now().Add(-time.Hour),
		SaleEndDate:   time.Now().Add(24 * time.Hour),
		IsActive:      true,
	}
	if err := db.Create(&ticket).Error; err != nil {
		t.Fatalf("create ticket: %v", err)
	}
	return &ticket
}

func ticketAvailable(t *testing.T, db *gorm.DB, ticket *Ticket) int {
	t.Helper()
	var reloaded Ticket
	if err := db.First(&reloaded, "id = ?", ticket.ID).Error; err != nil {
		t.Fatalf("reload ticket: %v", err)
	}
	return reloaded.Available
}

func TestReserveStock(t *testing.T) {
	db := openTestDB(t)
	ticket := seedTicket(t, db, 3, 5)

	reserved, err := ReserveStock(db, ticket.ID, 2)
	if err != nil {
		t.Fatalf("ReserveStock() error: %v", err)
	}
	if !reserved {
		t.Fatal("ReserveStock() = false, want true")
	}
	if got := ticketAvailable(t, db, ticket); got != 1 {
		t.Errorf("available = %d, want 1", got)
	}

	// Not enough left: the update must not fire and the count must hold.
	reserved, err = ReserveStock(db, ticket.ID, 2)
	if err != nil {
		t.Fatalf("ReserveStock() error: %v", err)
	}
	if reserved {
		t.Error("ReserveStock() = true with insufficient stock")
	}
	if got := ticketAvailable(t, db, ticket); got != 1 {
		t.Errorf("available = %d after failed reserve, want 1", got)
	}
}

func TestRestoreStock(t *testing.T) {
	db := openTestDB(t)
	ticket := seedTicket(t, db, 1, 5)

	if err := RestoreStock(db, ticket.ID, 2); err != nil {
		t.Fatalf("RestoreStock() error: %v", err)
	}
	if got := ticketAvailable(t, db, ticket); got != 3 {
		t.Errorf("available = %d, want 3", got)
	}

	// Restoring past total clamps to total.
	if err := RestoreStock(db, ticket.ID, 10); err != nil {
		t.Fatalf("RestoreStock() error: %v", err)
	}
	if got := ticketAvailable(t, db, ticket); got != 5 {
		t.Errorf("available = %d after over-restore, want 5", got)
	}
}
