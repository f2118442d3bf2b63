package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yuenlok/eventpass/internal/helpers"
	"github.com/yuenlok/eventpass/internal/models"
)

type EventRequest struct {
	Title            string    `json:"title" binding:"required"`
	Description      string    `json:"description" binding:"required"`
	ShortDescription string    `json:"shortDescription" binding:"required"`
	Image            string    `json:"image"`
	Date             time.Time `json:"date" binding:"required"`
	Time             string    `json:"time"`
	Venue            string    `json:"venue" binding:"required"`
	Status           string    `json:"status"`
	Organizer        string    `json:"organizer"`
	Featured         *bool     `json:"featured"`
}

func ListEvents(c *gin.Context) {
	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	query := gormDB.Model(&models.Event{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if c.Query("featured") == "true" {
		query = query.Where("featured = ?", true)
	}

	var events []models.Event
	if err := query.Preload("Tickets").Order("date ASC").Find(&events).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving events.")
		return
	}

	helpers.RespondWithData(c, http.StatusOK, events, "")
}

func GetEvent(c *gin.Context) {
	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid event ID.")
		return
	}

	var event models.Event
	if err := gormDB.Preload("Tickets").First(&event, "id = ?", eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving event.")
		return
	}

	helpers.RespondWithData(c, http.StatusOK, event, "")
}

func CreateEvent(c *gin.Context) {
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	event := models.Event{
		Title:            req.Title,
		Description:      req.Description,
		ShortDescription: req.ShortDescription,
		Image:            req.Image,
		Date:             req.Date,
		Time:             req.Time,
		Venue:            req.Venue,
		Status:           models.EventStatusUpcoming,
		Organizer:        req.Organizer,
	}
	if req.Status != "" {
		event.Status = req.Status
	}
	if req.Featured != nil {
		event.Featured = *req.Featured
	}

	if err := gormDB.Create(&event).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create event.")
		return
	}

	helpers.RespondWithData(c, http.StatusCreated, event, "Event created.")
}

func UpdateEvent(c *gin.Context) {
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid event ID.")
		return
	}

	var event models.Event
	if err := gormDB.First(&event, "id = ?", eventID).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
		return
	}

	event.Title = req.Title
	event.Description = req.Description
	event.ShortDescription = req.ShortDescription
	event.Image = req.Image
	event.Date = req.Date
	event.Time = req.Time
	event.Venue = req.Venue
	event.Organizer = req.Organizer
	if req.Status != "" {
		event.Status = req.Status
	}
	if req.Featured != nil {
		event.Featured = *req.Featured
	}

	if err := gormDB.Save(&event).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to update event.")
		return
	}

	helpers.RespondWithData(c, http.StatusOK, event, "Event updated.")
}

// DeleteEvent removes the event and cascades to its tickets. Purchases keep
// their denormalized event reference for historical reporting.
func DeleteEvent(c *gin.Context) {
	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid event ID.")
		return
	}

	err = gormDB.Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.Event{}, "id = ?", eventID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Delete(&models.Ticket{}, "event_id = ?", eventID).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to delete event.")
		return
	}

	helpers.RespondWithData(c, http.StatusOK, nil, "Event deleted.")
}
