// Package testutil provides shared fixtures for package tests: an
// in-memory database with the full schema, a test config, and seeded
// domain records.
package testutil

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/modelmart/backend/internal/config"
	"github.com/modelmart/backend/internal/database"
	"github.com/modelmart/backend/internal/models"
)

// NewDB opens an isolated in-memory SQLite database with all tables
// migrated. Connections are capped at one so every query sees the same
// memory database.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

// NewConfig returns a config suitable for tests.
func NewConfig() *config.Config {
	return &config.Config{
		JWTSecret:        "test-secret",
		JWTAccessExpiry:  15 * time.Minute,
		JWTRefreshExpiry: 24 * time.Hour,
		Port:             "0",
		CORSOrigins:      "*",
	}
}

// CreateUser inserts a user with the given email. The password is always
// "password123" (hashed with the minimum bcrypt cost to keep tests fast).
func CreateUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		ID:          uuid.New(),
		Email:       email,
		Password:    string(hash),
		DisplayName: "Test User",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateListing inserts a listing owned by developerEmail.
func CreateListing(t *testing.T, db *gorm.DB, developerEmail string) *models.Listing {
	t.Helper()

	listing := &models.Listing{
		ID:             ulid.Make().String(),
		ModelName:      "Sentiment Classifier",
		Category:       "NLP",
		Framework:      "PyTorch",
		UseCase:        "Sentiment analysis for product reviews",
		Dataset:        "IMDB reviews",
		Description:    "A fine-tuned transformer for sentiment classification.",
		ImageURL:       "https://example.com/model.png",
		DeveloperEmail: developerEmail,
	}
	require.NoError(t, db.Create(listing).Error)
	return listing
}
