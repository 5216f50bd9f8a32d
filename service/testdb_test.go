package service

import (
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ahmedy167-eng/learn-dash-audit-sub000/entity"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(entity.All()...); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func seedStudent(t *testing.T, db *gorm.DB, name, code string, sectionID uint, active bool) *entity.Student {
	t.Helper()
	s := &entity.Student{FullName: name, StudentCode: code, SectionID: sectionID, Active: active}
	if err := db.Create(s).Error; err != nil {
		t.Fatalf("seed student: %v", err)
	}
	return s
}

func seedUser(t *testing.T, db *gorm.DB, name, role string) *entity.User {
	t.Helper()
	u := &entity.User{Name: name, Email: strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@school.test", Role: role, Active: true}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func seedSection(t *testing.T, db *gorm.DB, name string, teacherID uint) *entity.Section {
	t.Helper()
	sec := &entity.Section{Name: name, TeacherID: teacherID}
	if err := db.Create(sec).Error; err != nil {
		t.Fatalf("seed section: %v", err)
	}
	return sec
}
