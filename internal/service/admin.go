package service

import (
	"context"
	"errors"
	"strings"

	"foodcourt-service/internal/model"
	"foodcourt-service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AdminService manages back-office accounts
type AdminService struct {
	db *gorm.DB
}

// NewAdminService creates an admin service on the given connection
func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{db: db}
}

// AdminProfileInput changes the display name and optionally the password
type AdminProfileInput struct {
	Name            *string `json:"name"`
	CurrentPassword string  `json:"currentPassword"`
	NewPassword     string  `json:"newPassword"`
}

// Authenticate checks username and password of an admin
func (s *AdminService) Authenticate(ctx context.Context, username, password string) (*model.Admin, error) {
	var admin model.Admin
	err := s.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !CheckPassword(admin.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return &admin, nil
}

// Get loads an admin by id
func (s *AdminService) Get(ctx context.Context, id uint) (*model.Admin, error) {
	var admin model.Admin
	if err := s.db.WithContext(ctx).First(&admin, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAdminNotFound
		}
		return nil, err
	}
	return &admin, nil
}

// List returns every admin ordered by username
func (s *AdminService) List(ctx context.Context) ([]model.Admin, error) {
	var admins []model.Admin
	if err := s.db.WithContext(ctx).Order("username ASC").Find(&admins).Error; err != nil {
		return nil, err
	}
	return admins, nil
}

// Create adds an admin with a unique username
func (s *AdminService) Create(ctx context.Context, username, password, name string) (*model.Admin, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, Invalid("username is required")
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Unscoped().Model(&model.Admin{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, &ConflictError{Message: "username is already taken"}
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = username
	}
	admin := model.Admin{Username: username, PasswordHash: hash, Name: name}
	if err := db.Create(&admin).Error; err != nil {
		return nil, err
	}
	logger.FromStdContext(ctx).Info("Admin created", zap.Uint("admin_id", admin.ID), zap.String("username", username))
	return &admin, nil
}

// EnsureAdmin creates the configured admin once; an existing username is left untouched
func (s *AdminService) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Unscoped().Model(&model.Admin{}).
		Where("username = ?", strings.TrimSpace(username)).
		Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	if _, err := s.Create(ctx, username, password, "Administrator"); err != nil {
		return false, err
	}
	return true, nil
}

// UpdateProfile renames an admin and changes the password when a new one is given
func (s *AdminService) UpdateProfile(ctx context.Context, id uint, in AdminProfileInput) (*model.Admin, error) {
	admin, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, Invalid("name is required")
		}
		updates["name"] = name
	}
	if in.NewPassword != "" {
		if !CheckPassword(admin.PasswordHash, in.CurrentPassword) {
			return nil, Invalid("current password is incorrect")
		}
		hash, err := HashPassword(in.NewPassword)
		if err != nil {
			return nil, err
		}
		updates["password_hash"] = hash
	}
	if len(updates) == 0 {
		return admin, nil
	}

	if err := s.db.WithContext(ctx).Model(admin).Updates(updates).Error; err != nil {
		return nil, err
	}
	logger.FromStdContext(ctx).Info("Admin profile updated", zap.Uint("admin_id", id))
	return s.Get(ctx, id)
}
