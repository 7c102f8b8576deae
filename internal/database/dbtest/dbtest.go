// Package dbtest opens a throwaway PostgreSQL schema for integration tests.
// Tests are skipped unless CRMS_TEST_DATABASE_URL points at a server.
package dbtest

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ahmetcoskunkizilkaya/crms/internal/database"
	"github.com/ahmetcoskunkizilkaya/crms/internal/models"
	"github.com/ahmetcoskunkizilkaya/crms/internal/roles"
)

const EnvURL = "CRMS_TEST_DATABASE_URL"

// Open creates a fresh schema, migrates the shared models plus extra and
// seeds the built-in roles. The schema is dropped when the test ends.
func Open(t testing.TB, extra ...interface{}) *gorm.DB {
	t.Helper()
	dsn := os.Getenv(EnvURL)
	if dsn == "" {
		t.Skip(EnvURL + " not set")
	}
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}

	admin, err := gorm.Open(postgres.Open(dsn), cfg)
	if err != nil {
		t.Skipf("db unavailable: %v", err)
	}
	schema := "crms_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	if err := admin.Exec("CREATE SCHEMA " + schema).Error; err != nil {
		t.Skipf("db unavailable: %v", err)
	}

	db, err := gorm.Open(postgres.Open(withSearchPath(dsn, schema)), cfg)
	if err != nil {
		t.Fatalf("open schema %s: %v", schema, err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
		admin.Exec("DROP SCHEMA " + schema + " CASCADE")
		if sqlDB, err := admin.DB(); err == nil {
			sqlDB.Close()
		}
	})

	if err := db.AutoMigrate(append(database.SharedModels(), extra...)...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := database.SeedRoles(db, roles.Builtin()); err != nil {
		t.Fatalf("seed roles: %v", err)
	}
	return db
}

func withSearchPath(dsn, schema string) string {
	if u, err := url.Parse(dsn); err == nil && u.Scheme != "" {
		q := u.Query()
		q.Set("search_path", schema)
		u.RawQuery = q.Encode()
		return u.String()
	}
	return dsn + " search_path=" + schema
}

// User inserts an active, approved account with the given role.
func User(t testing.TB, db *gorm.DB, role, email string, dept *uuid.UUID) models.User {
	t.Helper()
	var r models.Role
	if err := db.Where("name = ?", roles.Normalize(role)).First(&r).Error; err != nil {
		t.Fatalf("role %s: %v", role, err)
	}
	u := models.User{
		RoleID:       r.ID,
		DepartmentID: dept,
		Email:        email,
		PasswordHash: "x",
		FirstName:    strings.Split(email, "@")[0],
		LastName:     "Test",
		IsActive:     true,
	}
	if err := db.Omit("Role", "Approval", "Student").Create(&u).Error; err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	u.Role = r
	return u
}

// Student inserts a student account with its student row.
func Student(t testing.TB, db *gorm.DB, email, number string, program *uuid.UUID) models.User {
	t.Helper()
	u := User(t, db, roles.Student, email, nil)
	st := models.Student{UserID: u.ID, StudentNumber: number, ProgramID: program, YearLevel: 1}
	if err := db.Omit("User", "Profile").Create(&st).Error; err != nil {
		t.Fatalf("create student %s: %v", number, err)
	}
	u.Student = &st
	return u
}

// Catalog is a department with one program and one course.
type Catalog struct {
	Department models.Department
	Program    models.Program
	Course     models.Course
}

// NewCatalog inserts a catalog whose codes start with code.
func NewCatalog(t testing.TB, db *gorm.DB, code string) Catalog {
	t.Helper()
	c := Catalog{Department: models.Department{Code: code, Name: code + " Department"}}
	if err := db.Create(&c.Department).Error; err != nil {
		t.Fatalf("create department: %v", err)
	}
	c.Program = models.Program{DepartmentID: c.Department.ID, Code: "BS" + code, Name: "BS " + code}
	if err := db.Create(&c.Program).Error; err != nil {
		t.Fatalf("create program: %v", err)
	}
	c.Course = models.Course{DepartmentID: &c.Department.ID, Code: fmt.Sprintf("%s101", code), Title: code + " Fundamentals", Units: 3}
	if err := db.Create(&c.Course).Error; err != nil {
		t.Fatalf("create course: %v", err)
	}
	return c
}
