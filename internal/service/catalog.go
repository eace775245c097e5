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

const maxCategoryNameLength = 100

// CatalogService manages menu categories and menus of merchants
type CatalogService struct {
	db *gorm.DB
}

// NewCatalogService creates a catalog service on the given connection
func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

// MenuInput carries the writable fields of a menu; nil fields are left unchanged on update
type MenuInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Price       *int64  `json:"price"`
	CategoryID  *uint   `json:"categoryId"`
	ImageURL    *string `json:"imageUrl"`
	IsAvailable *bool   `json:"isAvailable"`
}

// MenuFilter narrows a menu listing; zero values mean no filter
type MenuFilter struct {
	MerchantID    uint
	CategoryID    uint
	Search        string
	AvailableOnly bool
}

// GetCategory loads a non-deleted category
func (s *CatalogService) GetCategory(ctx context.Context, categoryID uint) (*model.MenuCategory, error) {
	var category model.MenuCategory
	if err := s.db.WithContext(ctx).First(&category, categoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

// ListCategories returns categories with their menu counts; merchantID 0 lists every merchant
func (s *CatalogService) ListCategories(ctx context.Context, merchantID uint) ([]model.MenuCategory, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	db := s.db.WithContext(ctx)
	query := db.Order("name ASC")
	if merchantID != 0 {
		query = query.Where("merchant_id = ?", merchantID)
	}

	var categories []model.MenuCategory
	if err := query.Find(&categories).Error; err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		return categories, nil
	}

	ids := make([]uint, len(categories))
	for i, c := range categories {
		ids[i] = c.ID
	}
	var counts []struct {
		CategoryID uint
		Total      int64
	}
	if err := db.Model(&model.Menu{}).
		Select("category_id, COUNT(*) AS total").
		Where("category_id IN ?", ids).
		Group("category_id").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	byCategory := make(map[uint]int64, len(counts))
	for _, c := range counts {
		byCategory[c.CategoryID] = c.Total
	}
	for i := range categories {
		categories[i].MenuCount = byCategory[categories[i].ID]
	}
	return categories, nil
}

// CreateCategory adds a category, rejecting names that differ only in case from an existing one
func (s *CatalogService) CreateCategory(ctx context.Context, merchantID uint, name string) (*model.MenuCategory, error) {
	log := logger.FromStdContext(ctx)
	defer prometheus.TrackDBOperation("insert")(time.Now())

	name, err := normalizeCategoryName(name)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	if err := ensureMerchant(db, merchantID); err != nil {
		return nil, err
	}
	if err := s.checkDuplicateCategory(db, merchantID, name, 0); err != nil {
		return nil, err
	}

	category := model.MenuCategory{MerchantID: merchantID, Name: name}
	if err := db.Create(&category).Error; err != nil {
		return nil, err
	}

	log.Info("Category created",
		zap.Uint("category_id", category.ID),
		zap.Uint("merchant_id", merchantID),
		zap.String("name", name))
	return &category, nil
}

// UpdateCategory renames a category owned by merchantID
func (s *CatalogService) UpdateCategory(ctx context.Context, merchantID, categoryID uint, name string) (*model.MenuCategory, error) {
	defer prometheus.TrackDBOperation("update")(time.Now())

	name, err := normalizeCategoryName(name)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	category, err := s.ownedCategory(db, merchantID, categoryID)
	if err != nil {
		return nil, err
	}
	if err := s.checkDuplicateCategory(db, merchantID, name, category.ID); err != nil {
		return nil, err
	}

	if err := db.Model(category).Update("name", name).Error; err != nil {
		return nil, err
	}
	logger.FromStdContext(ctx).Info("Category updated",
		zap.Uint("category_id", category.ID),
		zap.String("name", name))
	return category, nil
}

// DeleteCategory soft-deletes a category that no menu references
func (s *CatalogService) DeleteCategory(ctx context.Context, merchantID, categoryID uint) error {
	defer prometheus.TrackDBOperation("delete")(time.Now())

	db := s.db.WithContext(ctx)
	category, err := s.ownedCategory(db, merchantID, categoryID)
	if err != nil {
		return err
	}

	var menuCount int64
	if err := db.Model(&model.Menu{}).Where("category_id = ?", category.ID).Count(&menuCount).Error; err != nil {
		return err
	}
	if menuCount > 0 {
		return &CategoryInUseError{MenuCount: menuCount}
	}

	if err := db.Delete(category).Error; err != nil {
		return err
	}
	logger.FromStdContext(ctx).Info("Category deleted", zap.Uint("category_id", category.ID))
	return nil
}

func (s *CatalogService) ownedCategory(db *gorm.DB, merchantID, categoryID uint) (*model.MenuCategory, error) {
	var category model.MenuCategory
	err := db.Where("id = ? AND merchant_id = ?", categoryID, merchantID).First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (s *CatalogService) checkDuplicateCategory(db *gorm.DB, merchantID uint, name string, exceptID uint) error {
	query := db.Model(&model.MenuCategory{}).
		Where("merchant_id = ? AND LOWER(name) = LOWER(?)", merchantID, name)
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return &ConflictError{Message: "category with this name already exists"}
	}
	return nil
}

func normalizeCategoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", Invalid("name is required")
	}
	if len(name) > maxCategoryNameLength {
		return "", Invalid("name must be at most %d characters", maxCategoryNameLength)
	}
	return name, nil
}

// ListMenus returns non-deleted menus with their category
func (s *CatalogService) ListMenus(ctx context.Context, filter MenuFilter) ([]model.Menu, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	query := s.db.WithContext(ctx).Preload("Category").Order("name ASC")
	if filter.MerchantID != 0 {
		query = query.Where("merchant_id = ?", filter.MerchantID)
	}
	if filter.CategoryID != 0 {
		query = query.Where("category_id = ?", filter.CategoryID)
	}
	if filter.AvailableOnly {
		query = query.Where("is_available = ?", true)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	var menus []model.Menu
	if err := query.Find(&menus).Error; err != nil {
		return nil, err
	}
	return menus, nil
}

// GetMenu loads a menu; merchantID 0 skips the ownership filter
func (s *CatalogService) GetMenu(ctx context.Context, merchantID, menuID uint) (*model.Menu, error) {
	query := s.db.WithContext(ctx).Preload("Category").Where("id = ?", menuID)
	if merchantID != 0 {
		query = query.Where("merchant_id = ?", merchantID)
	}

	var menu model.Menu
	if err := query.First(&menu).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMenuNotFound
		}
		return nil, err
	}
	return &menu, nil
}

// CreateMenu adds a menu for merchantID; name and price are required
func (s *CatalogService) CreateMenu(ctx context.Context, merchantID uint, in MenuInput) (*model.Menu, error) {
	defer prometheus.TrackDBOperation("insert")(time.Now())

	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, Invalid("name is required")
	}
	if in.Price == nil {
		return nil, Invalid("price is required")
	}

	db := s.db.WithContext(ctx)
	if err := ensureMerchant(db, merchantID); err != nil {
		return nil, err
	}

	menu := model.Menu{MerchantID: merchantID, IsAvailable: true}
	if err := s.applyMenuInput(db, &menu, in); err != nil {
		return nil, err
	}
	if err := db.Create(&menu).Error; err != nil {
		return nil, err
	}

	logger.FromStdContext(ctx).Info("Menu created",
		zap.Uint("menu_id", menu.ID),
		zap.Uint("merchant_id", merchantID),
		zap.Int64("price", menu.Price))
	return s.GetMenu(ctx, merchantID, menu.ID)
}

// UpdateMenu applies the non-nil fields of in to a menu owned by merchantID
func (s *CatalogService) UpdateMenu(ctx context.Context, merchantID, menuID uint, in MenuInput) (*model.Menu, error) {
	defer prometheus.TrackDBOperation("update")(time.Now())

	db := s.db.WithContext(ctx)
	var menu model.Menu
	if err := db.Where("id = ? AND merchant_id = ?", menuID, merchantID).First(&menu).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMenuNotFound
		}
		return nil, err
	}

	if err := s.applyMenuInput(db, &menu, in); err != nil {
		return nil, err
	}
	if err := db.Model(&menu).Updates(map[string]interface{}{
		"name":         menu.Name,
		"description":  menu.Description,
		"price":        menu.Price,
		"category_id":  menu.CategoryID,
		"image_url":    menu.ImageURL,
		"is_available": menu.IsAvailable,
	}).Error; err != nil {
		return nil, err
	}

	logger.FromStdContext(ctx).Info("Menu updated", zap.Uint("menu_id", menu.ID))
	return s.GetMenu(ctx, merchantID, menu.ID)
}

// DeleteMenu soft-deletes a menu and drops it from every cart
func (s *CatalogService) DeleteMenu(ctx context.Context, merchantID, menuID uint) error {
	defer prometheus.TrackDBOperation("delete")(time.Now())

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var menu model.Menu
		if err := tx.Where("id = ? AND merchant_id = ?", menuID, merchantID).First(&menu).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMenuNotFound
			}
			return err
		}
		if err := tx.Where("menu_id = ?", menu.ID).Delete(&model.CartItem{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&menu).Error; err != nil {
			return err
		}
		logger.FromStdContext(ctx).Info("Menu deleted", zap.Uint("menu_id", menu.ID))
		return nil
	})
}

func (s *CatalogService) applyMenuInput(db *gorm.DB, menu *model.Menu, in MenuInput) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Invalid("name is required")
		}
		menu.Name = name
	}
	if in.Description != nil {
		menu.Description = strings.TrimSpace(*in.Description)
	}
	if in.Price != nil {
		if *in.Price < 0 {
			return Invalid("price must be a non-negative integer")
		}
		menu.Price = *in.Price
	}
	if in.ImageURL != nil {
		menu.ImageURL = strings.TrimSpace(*in.ImageURL)
	}
	if in.IsAvailable != nil {
		menu.IsAvailable = *in.IsAvailable
	}
	if in.CategoryID != nil {
		if *in.CategoryID == 0 {
			menu.CategoryID = nil
			menu.Category = nil
			return nil
		}
		var count int64
		if err := db.Model(&model.MenuCategory{}).
			Where("id = ? AND merchant_id = ?", *in.CategoryID, menu.MerchantID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrCategoryNotFound
		}
		categoryID := *in.CategoryID
		menu.CategoryID = &categoryID
		menu.Category = nil
	}
	return nil
}

func ensureMerchant(db *gorm.DB, merchantID uint) error {
	var count int64
	if err := db.Model(&model.Merchant{}).Where("id = ?", merchantID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrMerchantNotFound
	}
	return nil
}
