package service

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/ahmedy167-eng/learn-dash-audit-sub000/entity"
)

var (
	ErrUserExists   = errors.New("user already exists")
	ErrInvalidCreds = errors.New("invalid credentials")
	ErrUserNotFound = errors.New("user not found")
)

// UserService covers staff (teacher/admin) accounts.
type UserService interface {
	CreateUser(name, email, password, role string) (*entity.User, error)
	Authenticate(email, password string) (*entity.User, error)
	GetByID(id uint) (*entity.User, error)
	Admins() ([]entity.User, error)
	IsAdmin(id uint) (bool, error)
}

type DBUserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *DBUserService {
	return &DBUserService{db: db}
}

func (s *DBUserService) CreateUser(name, email, password, role string) (*entity.User, error) {
	var cnt int64
	if err := s.db.Model(&entity.User{}).Where("email = ?", email).Count(&cnt).Error; err != nil {
		return nil, err
	}
	if cnt > 0 {
		return nil, ErrUserExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	if role != entity.RoleAdmin {
		role = entity.RoleTeacher
	}
	u := &entity.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Active:       true,
	}
	if err := s.db.Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

func (s *DBUserService) Authenticate(email, password string) (*entity.User, error) {
	var u entity.User
	if err := s.db.Where("email = ? AND active = ?", email, true).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCreds
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCreds
	}
	return &u, nil
}

func (s *DBUserService) GetByID(id uint) (*entity.User, error) {
	var u entity.User
	if err := s.db.First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *DBUserService) Admins() ([]entity.User, error) {
	var admins []entity.User
	err := s.db.Where("role = ? AND active = ?", entity.RoleAdmin, true).Find(&admins).Error
	return admins, err
}

func (s *DBUserService) IsAdmin(id uint) (bool, error) {
	var cnt int64
	err := s.db.Model(&entity.User{}).
		Where("id = ? AND role = ? AND active = ?", id, entity.RoleAdmin, true).
		Count(&cnt).Error
	return cnt > 0, err
}
