package repository

import (
	"fmt"
	"testing"

	"gatherly/internal/database"
	"gatherly/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newTestDB returns a fresh in-memory database per test so cases never see
// each other's rows.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.ConnectTest()
	require.NoError(t, err)
	return db
}

var userSeq int

func seedUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	userSeq++
	user := &models.User{
		Name:            name,
		Email:           fmt.Sprintf("%s%d@example.com", name, userSeq),
		Phone:           "555-0100",
		PhoneNormalized: fmt.Sprintf("+1555%07d", userSeq),
		Password:        "hash",
		ReminderDays:    []string{},
	}
	require.NoError(t, db.Create(user).Error)
	return user
}
