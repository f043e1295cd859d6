package controllers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/studycrew/studyroom_backend/database"
	"github.com/studycrew/studyroom_backend/models"
)

func setupAuthRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.User{}))
	database.DB = db

	router := gin.New()
	router.POST("/api/register", Register)
	router.POST("/api/login", Login)
	return router
}

func TestRegisterAndLogin(t *testing.T) {
	router := setupAuthRouter(t)

	w := postJSON(router, "/api/register", gin.H{
		"nickname":           "nightowl",
		"email":              "owl@example.com",
		"password":           "very-secret-1",
		"daily_goal_minutes": 120,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		User  models.User `json:"user"`
		Token string      `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "nightowl", resp.User.Nickname)
	assert.Equal(t, 120, resp.User.DailyGoalMinutes)
	assert.NotEmpty(t, resp.Token)
	// The password hash must never leave the server.
	assert.NotContains(t, w.Body.String(), "password")

	w = postJSON(router, "/api/login", gin.H{
		"email":    "owl@example.com",
		"password": "very-secret-1",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	router := setupAuthRouter(t)

	body := gin.H{
		"nickname": "nightowl",
		"email":    "owl@example.com",
		"password": "very-secret-1",
	}
	w := postJSON(router, "/api/register", body)
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(router, "/api/register", body)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	router := setupAuthRouter(t)

	w := postJSON(router, "/api/register", gin.H{
		"nickname": "nightowl",
		"email":    "owl@example.com",
		"password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	router := setupAuthRouter(t)

	w := postJSON(router, "/api/register", gin.H{
		"nickname": "nightowl",
		"email":    "owl@example.com",
		"password": "very-secret-1",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(router, "/api/login", gin.H{
		"email":    "owl@example.com",
		"password": "not-the-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = postJSON(router, "/api/login", gin.H{
		"email":    "nobody@example.com",
		"password": "very-secret-1",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
