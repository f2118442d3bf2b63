package handlers

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yuenlok/eventpass/internal/helpers"
	"github.com/yuenlok/eventpass/internal/models"
)

type RegisterRequest struct {
	Email         string `json:"email" binding:"required"`
	Username      string `json:"username" binding:"required"`
	Password      string `json:"password" binding:"required,min=6"`
	ContactMethod string `json:"contactMethod"`
	ContactInfo   string `json:"contactInfo"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	if !helpers.IsValidEmail(req.Email) {
		helpers.RespondWithError(c, http.StatusBadRequest, "Please enter a valid email address.")
		return
	}

	if req.ContactMethod != "" && !helpers.IsValidContactMethod(req.ContactMethod) {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid contact method.")
		return
	}
	if helpers.RequiresInternationalNumber(req.ContactMethod) && !helpers.IsE164(req.ContactInfo) {
		helpers.RespondWithError(c, http.StatusBadRequest, "Phone numbers must be in international format, e.g. +85212345678.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	email := strings.ToLower(req.Email)
	var existingUser models.User
	if result := gormDB.Where("email = ?", email).First(&existingUser); result.Error == nil {
		helpers.RespondWithError(c, http.StatusConflict, "This email address is already registered.")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to hash the password.")
		return
	}

	user := models.User{
		Email:         email,
		Username:      req.Username,
		Password:      string(hashedPassword),
		Role:          models.RoleUser,
		ContactMethod: models.ContactMethodEmail,
		ContactInfo:   req.ContactInfo,
		IPAddress:     c.ClientIP(),
		UserAgent:     c.Request.UserAgent(),
	}
	if req.ContactMethod != "" {
		user.ContactMethod = req.ContactMethod
	}

	if err := gormDB.Create(&user).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create user.")
		return
	}

	token, err := signToken(user.ID)
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to generate token.")
		return
	}

	helpers.RespondWithData(c, http.StatusCreated, gin.H{
		"user":  user,
		"token": token,
	}, "Registered successfully.")
}

func Login(c *gin.Context) {
	var req LoginRequest
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

	var user models.User
	if err := gormDB.Where("email = ?", strings.ToLower(req.Email)).First(&user).Error; err != nil {
		helpers.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials.")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		helpers.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials.")
		return
	}

	if !user.IsActive() {
		helpers.RespondWithError(c, http.StatusUnauthorized, "Account has been deactivated.")
		return
	}

	token, err := signToken(user.ID)
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to generate token.")
		return
	}

	helpers.RespondWithData(c, http.StatusOK, gin.H{
		"user":  user,
		"token": token,
	}, "Logged in successfully.")
}

func GetProfile(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User not authenticated.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var user models.User
	if err := gormDB.First(&user, "id = ?", userID).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "User not found.")
		return
	}

	helpers.RespondWithData(c, http.StatusOK, user, "")
}

func signToken(userID uuid.UUID) (string, error) {
	secret := os.Getenv("JWT_SECRET")
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID.String(),
		"exp":     time.Now().Add(7 * 24 * time.Hour).Unix(),
	})
	return token.SignedString([]byte(secret))
}
