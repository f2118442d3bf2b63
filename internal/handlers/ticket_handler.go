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

type TicketRequest struct {
	EventID          uuid.UUID `json:"eventId" binding:"required"`
	Name             string    `json:"name" binding:"required"`
	Description      string    `json:"description"`
	Price            int       `json:"price"`
	OriginalPrice    *int      `json:"originalPrice"`
	AllowCustomPrice bool      `json:"allowCustomPrice"`
	MinPrice         int       `json:"minPrice"`
	MaxPrice         int       `json:"maxPrice"`
	Currency         string    `json:"currency"`
	Type             string    `json:"type"`
	Restrictions     []string  `json:"restrictions"`
	Available        int       `json:"available"`
	Total            int       `json:"total" binding:"required"`
	SaleStartDate    time.Time `json:"saleStartDate" binding:"required"`
	SaleEndDate      time.Time `json:"saleEndDate" binding:"required"`
	IsActive         *bool     `json:"isActive"`
}

func (req *TicketRequest) validate() string {
	if req.Price < 0 {
		return "Price must not be negative."
	}
	if req.Available < 0 || req.Available > req.Total {
		return "Available count must be between 0 and the total."
	}
	if req.SaleEndDate.Before(req.SaleStartDate) {
		return "Sale end date must not be before the sale start date."
	}
	return ""
}

func ListTickets(c *gin.Context) {
	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var tickets []models.Ticket
	if err := gormDB.Preload("Event").Order("price ASC").Find(&tickets).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving tickets.")
		return
	}

	helpers.RespondWithData(c, http.StatusOK, tickets, "")
}

// GetTicketsByEvent returns the active tickets for one event, cheapest first.
func GetTicketsByEvent(c *gin.Context) {
	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	eventID, err := uuid.Parse(c.Param("eventId"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid event ID.")
		return
	}

	var tickets []models.Ticket
	err = gormDB.Where("event_id = ? AND is_active = ?", eventID, true).
		Order("price ASC").
		Find(&tickets).Error
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving tickets.")
		return
	}

	helpers.RespondWithData(c, http.StatusOK, tickets, "")
}

func GetTicket(c *gin.Context) {
	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	ticketID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid ticket ID.")
		return
	}

	var ticket models.Ticket
	if err := gormDB.Preload("Event").First(&ticket, "id = ?", ticketID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			helpers.RespondWithError(c, http.StatusNotFound, "Ticket not found.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving ticket.")
		return
	}

	helpers.RespondWithData(c, http.StatusOK, ticket, "")
}

func CreateTicket(c *gin.Context) {
	var req TicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}
	if msg := req.validate(); msg != "" {
		helpers.RespondWithError(c, http.StatusBadRequest, msg)
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var event models.Event
	if err := gormDB.First(&event, "id = ?", req.EventID).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
		return
	}

	ticket := models.Ticket{
		EventID:          req.EventID,
		Name:             req.Name,
		Description:      req.Description,
		Price:            req.Price,
		OriginalPrice:    req.OriginalPrice,
		AllowCustomPrice: req.AllowCustomPrice,
		MinPrice:         req.MinPrice,
		MaxPrice:         req.MaxPrice,
		Currency:         "HKD",
		Type:             models.TicketTypeStandard,
		Restrictions:     req.Restrictions,
		Available:        req.Available,
		Total:            req.Total,
		SaleStartDate:    req.SaleStartDate,
		SaleEndDate:      req.SaleEndDate,
		IsActive:         true,
	}
	if req.Currency != "" {
		ticket.Currency = req.Currency
	}
	if req.Type != "" {
		ticket.Type = req.Type
	}
	if req.IsActive != nil {
		ticket.IsActive = *req.IsActive
	}

	if err := gormDB.Create(&ticket).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create ticket.")
		return
	}

	helpers.RespondWithData(c, http.StatusCreated, ticket, "Ticket created.")
}

func UpdateTicket(c *gin.Context) {
	var req TicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}
	if msg := req.validate(); msg != "" {
		helpers.RespondWithError(c, http.StatusBadRequest, msg)
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	ticketID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid ticket ID.")
		return
	}

	var ticket models.Ticket
	if err := gormDB.First(&ticket, "id = ?", ticketID).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Ticket not found.")
		return
	}

	ticket.Name = req.Name
	ticket.Description = req.Description
	ticket.Price = req.Price
	ticket.OriginalPrice = req.OriginalPrice
	ticket.AllowCustomPrice = req.AllowCustomPrice
	ticket.MinPrice = req.MinPrice
	ticket.MaxPrice = req.MaxPrice
	ticket.Restrictions = req.Restrictions
	ticket.Available = req.Available
	ticket.Total = req.Total
	ticket.SaleStartDate = req.SaleStartDate
	ticket.SaleEndDate = req.SaleEndDate
	if req.Currency != "" {
		ticket.Currency = req.Currency
	}
	if req.Type != "" {
		ticket.Type = req.Type
	}
	if req.IsActive != nil {
		ticket.IsActive = *req.IsActive
	}

	if err := gormDB.Save(&ticket).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to update ticket.")
		return
	}

	helpers.RespondWithData(c, http.StatusOK, ticket, "Ticket updated.")
}

func DeleteTicket(c *gin.Context) {
	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	ticketID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid ticket ID.")
		return
	}

	result := gormDB.Delete(&models.Ticket{}, "id = ?", ticketID)
	if result.Error != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to delete ticket.")
		return
	}
	if result.RowsAffected == 0 {
		helpers.RespondWithError(c, http.StatusNotFound, "Ticket not found.")
		return
	}

	helpers.RespondWithData(c, http.StatusOK, nil, "Ticket deleted.")
}
