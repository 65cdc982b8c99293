package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"prepvault/internal/models"
)

// NewDB opens a fresh in-memory database and migrates the full schema.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Company{},
		&models.Question{},
		&models.OwnershipTransfer{},
		&models.Claim{},
		&models.VisitedQuestion{},
		&models.CompanyTip{},
		&models.ActivityLog{},
	))
	return db
}

// NewUser inserts a user with the given role and a unique enrollment number.
func NewUser(t *testing.T, db *gorm.DB, role string) *models.User {
	t.Helper()

	u := &models.User{
		EnrollmentNumber: "EN" + uuid.NewString()[:8],
		FullName:         "Test User",
		Email:            uuid.NewString()[:8] + "@example.edu",
		Role:             role,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// NewCompany inserts a company with the given display name.
func NewCompany(t *testing.T, db *gorm.DB, name string) *models.Company {
	t.Helper()

	c := &models.Company{Name: name, NameKey: strings.ToLower(name)}
	require.NoError(t, db.Create(c).Error)
	return c
}
