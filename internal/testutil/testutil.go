// Package testutil holds helpers shared by package tests.
package testutil

import (
	"fmt"
	"path/filepath"
	"testing"

	"anoa.com/kopilka/internal/bootstrap"
	"anoa.com/kopilka/internal/entity"
	"anoa.com/kopilka/pkg/logger"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewDB opens a migrated sqlite database in the test's temp dir.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kopilka.db")
	db, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, bootstrap.Migrate(db))
	require.NoError(t, bootstrap.SeedRoles(db))
	return db
}

func Logger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	require.NoError(t, err)
	t.Cleanup(log.Sync)
	return log
}

// CreateUser inserts a member with a unique username.
func CreateUser(t *testing.T, db *gorm.DB, name string) entity.User {
	t.Helper()
	var role entity.Role
	require.NoError(t, db.Where("name = ?", entity.RoleMember).First(&role).Error)

	u := entity.User{
		Username:     name,
		Email:        fmt.Sprintf("%s@example.com", name),
		PasswordHash: "x",
		RoleID:       &role.ID,
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func CreateAdmin(t *testing.T, db *gorm.DB, name string) entity.User {
	t.Helper()
	var role entity.Role
	require.NoError(t, db.Where("name = ?", entity.RoleAdmin).First(&role).Error)

	u := entity.User{
		Username:     name,
		Email:        fmt.Sprintf("%s@example.com", name),
		PasswordHash: "x",
		RoleID:       &role.ID,
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}
