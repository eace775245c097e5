package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"foodcourt-service/internal/model"
	"foodcourt-service/pkg/logger"
	"foodcourt-service/prometheus"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MerchantService manages merchant accounts
type MerchantService struct {
	db *gorm.DB
}

// NewMerchantService creates a merchant service on the given connection
func NewMerchantService(db *gorm.DB) *MerchantService {
	return &MerchantService{db: db}
}

// RegisterInput is the payload of a merchant registration
type RegisterInput struct {
	PhoneNumber string `json:"phoneNumber"`
	Password    string `json:"password"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
}

// ProfileInput carries editable merchant fields; nil fields are left unchanged
type ProfileInput struct {
	PhoneNumber *string `json:"phoneNumber"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
	ImageURL    *string `json:"imageUrl"`
	IsAvailable *bool   `json:"isAvailable"`
}

// MerchantFilter narrows a merchant listing
type MerchantFilter struct {
	Search        string
	AvailableOnly bool
}

// Register creates a merchant with the next sequential merchant number
func (s *MerchantService) Register(ctx context.Context, in RegisterInput) (*model.Merchant, error) {
	log := logger.FromStdContext(ctx)
	defer prometheus.TrackDBOperation("insert")(time.Now())

	phone := strings.TrimSpace(in.PhoneNumber)
	name := strings.TrimSpace(in.Name)
	if phone == "" {
		return nil, Invalid("phoneNumber is required")
	}
	if name == "" {
		return nil, Invalid("name is required")
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	merchant := model.Merchant{
		PhoneNumber:  phone,
		PasswordHash: hash,
		Name:         name,
		Description:  strings.TrimSpace(in.Description),
		ImageURL:     strings.TrimSpace(in.ImageURL),
		IsAvailable:  true,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkPhoneAvailable(tx, phone, 0); err != nil {
			return err
		}

		var maxNumber int
		if err := tx.Unscoped().Model(&model.Merchant{}).
			Select("COALESCE(MAX(merchant_number), 0)").
			Scan(&maxNumber).Error; err != nil {
			return err
		}
		merchant.MerchantNumber = maxNumber + 1

		return tx.Create(&merchant).Error
	})
	if err != nil {
		return nil, err
	}

	log.Info("Merchant registered",
		zap.Uint("merchant_id", merchant.ID),
		zap.Int("merchant_number", merchant.MerchantNumber))
	return &merchant, nil
}

// Authenticate checks phone and password of a merchant
func (s *MerchantService) Authenticate(ctx context.Context, phone, password string) (*model.Merchant, error) {
	var merchant model.Merchant
	err := s.db.WithContext(ctx).Where("phone_number = ?", strings.TrimSpace(phone)).First(&merchant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !CheckPassword(merchant.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return &merchant, nil
}

// Get loads a non-deleted merchant; availableOnly hides merchants that closed their stall
func (s *MerchantService) Get(ctx context.Context, id uint, availableOnly bool) (*model.Merchant, error) {
	query := s.db.WithContext(ctx).Where("id = ?", id)
	if availableOnly {
		query = query.Where("is_available = ?", true)
	}

	var merchant model.Merchant
	if err := query.First(&merchant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMerchantNotFound
		}
		return nil, err
	}
	return &merchant, nil
}

// List returns every matching merchant ordered by merchant number
func (s *MerchantService) List(ctx context.Context, filter MerchantFilter) ([]model.Merchant, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var merchants []model.Merchant
	if err := s.filtered(ctx, filter).Order("merchant_number ASC").Find(&merchants).Error; err != nil {
		return nil, err
	}
	return merchants, nil
}

// ListPage returns one page of matching merchants
func (s *MerchantService) ListPage(ctx context.Context, filter MerchantFilter, page Page) ([]model.Merchant, Pagination, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	page = page.Normalize()
	var total int64
	if err := s.filtered(ctx, filter).Model(&model.Merchant{}).Count(&total).Error; err != nil {
		return nil, Pagination{}, err
	}

	var merchants []model.Merchant
	if err := s.filtered(ctx, filter).
		Order("merchant_number ASC").
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&merchants).Error; err != nil {
		return nil, Pagination{}, err
	}
	return merchants, NewPagination(page, total), nil
}

func (s *MerchantService) filtered(ctx context.Context, filter MerchantFilter) *gorm.DB {
	query := s.db.WithContext(ctx)
	if filter.AvailableOnly {
		query = query.Where("is_available = ?", true)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR phone_number LIKE ?", like, like)
	}
	return query
}

// UpdateProfile applies the non-nil fields of in
func (s *MerchantService) UpdateProfile(ctx context.Context, id uint, in ProfileInput) (*model.Merchant, error) {
	defer prometheus.TrackDBOperation("update")(time.Now())

	merchant, err := s.Get(ctx, id, false)
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
	if in.Description != nil {
		updates["description"] = strings.TrimSpace(*in.Description)
	}
	if in.ImageURL != nil {
		updates["image_url"] = strings.TrimSpace(*in.ImageURL)
	}
	if in.IsAvailable != nil {
		updates["is_available"] = *in.IsAvailable
	}
	if in.PhoneNumber != nil {
		phone := strings.TrimSpace(*in.PhoneNumber)
		if phone == "" {
			return nil, Invalid("phoneNumber is required")
		}
		if err := checkPhoneAvailable(s.db.WithContext(ctx), phone, id); err != nil {
			return nil, err
		}
		updates["phone_number"] = phone
	}
	if len(updates) == 0 {
		return merchant, nil
	}

	if err := s.db.WithContext(ctx).Model(merchant).Updates(updates).Error; err != nil {
		return nil, err
	}
	logger.FromStdContext(ctx).Info("Merchant profile updated", zap.Uint("merchant_id", id))
	return s.Get(ctx, id, false)
}

// ChangePassword replaces the password after verifying the current one
func (s *MerchantService) ChangePassword(ctx context.Context, id uint, current, next string) error {
	merchant, err := s.Get(ctx, id, false)
	if err != nil {
		return err
	}
	if !CheckPassword(merchant.PasswordHash, current) {
		return Invalid("current password is incorrect")
	}
	return s.ResetPassword(ctx, id, next)
}

// ResetPassword sets a new password without checking the old one
func (s *MerchantService) ResetPassword(ctx context.Context, id uint, password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	result := s.db.WithContext(ctx).Model(&model.Merchant{}).Where("id = ?", id).Update("password_hash", hash)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMerchantNotFound
	}
	logger.FromStdContext(ctx).Info("Merchant password changed", zap.Uint("merchant_id", id))
	return nil
}

// Delete soft-deletes a merchant
func (s *MerchantService) Delete(ctx context.Context, id uint) error {
	defer prometheus.TrackDBOperation("delete")(time.Now())

	result := s.db.WithContext(ctx).Delete(&model.Merchant{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMerchantNotFound
	}
	logger.FromStdContext(ctx).Info("Merchant deleted", zap.Uint("merchant_id", id))
	return nil
}

// checkPhoneAvailable also counts soft-deleted rows since the unique index covers them
func checkPhoneAvailable(db *gorm.DB, phone string, exceptID uint) error {
	query := db.Unscoped().Model(&model.Merchant{}).Where("phone_number = ?", phone)
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return &ConflictError{Message: "phone number is already registered"}
	}
	return nil
}
