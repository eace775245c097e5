package service

import (
	"context"
	"time"

	"foodcourt-service/internal/model"
	"foodcourt-service/prometheus"

	"gorm.io/gorm"
)

// StatsService aggregates dashboard figures
type StatsService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewStatsService creates a stats service on the given connection
func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{db: db, now: time.Now}
}

// MerchantStats is the dashboard summary of one merchant
type MerchantStats struct {
	TodayOrders     int64                       `json:"todayOrders"`
	TodayRevenue    int64                       `json:"todayRevenue"`
	PendingOrders   int64                       `json:"pendingOrders"`
	ActiveOrders    int64                       `json:"activeOrders"`
	CompletedOrders int64                       `json:"completedOrders"`
	TotalOrders     int64                       `json:"totalOrders"`
	TotalRevenue    int64                       `json:"totalRevenue"`
	OrdersByStatus  map[model.OrderStatus]int64 `json:"ordersByStatus"`
	TotalMenus      int64                       `json:"totalMenus"`
	AvailableMenus  int64                       `json:"availableMenus"`
	TotalCategories int64                       `json:"totalCategories"`
}

// AdminStats is the platform wide dashboard summary
type AdminStats struct {
	TotalMerchants     int64                       `json:"totalMerchants"`
	AvailableMerchants int64                       `json:"availableMerchants"`
	TotalMenus         int64                       `json:"totalMenus"`
	TotalCategories    int64                       `json:"totalCategories"`
	TotalOrders        int64                       `json:"totalOrders"`
	TodayOrders        int64                       `json:"todayOrders"`
	OrdersByStatus     map[model.OrderStatus]int64 `json:"ordersByStatus"`
	TotalRevenue       int64                       `json:"totalRevenue"`
	PaidPayments       int64                       `json:"paidPayments"`
	UnpaidPayments     int64                       `json:"unpaidPayments"`
}

// ForMerchant computes the dashboard of one merchant; revenue counts completed orders
func (s *StatsService) ForMerchant(ctx context.Context, merchantID uint) (*MerchantStats, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	db := s.db.WithContext(ctx)
	startOfDay := s.startOfDay()
	orders := func() *gorm.DB {
		return db.Model(&model.Order{}).Where("merchant_id = ?", merchantID)
	}

	stats := &MerchantStats{}
	byStatus, err := countByStatus(orders())
	if err != nil {
		return nil, err
	}
	stats.OrdersByStatus = byStatus
	for status, n := range byStatus {
		stats.TotalOrders += n
		if status.IsActive() {
			stats.ActiveOrders += n
		}
	}
	stats.PendingOrders = byStatus[model.OrderStatusPending]
	stats.CompletedOrders = byStatus[model.OrderStatusCompleted]

	if err := orders().Where("created_at >= ?", startOfDay).Count(&stats.TodayOrders).Error; err != nil {
		return nil, err
	}
	if err := sumTotals(orders().Where("status = ?", model.OrderStatusCompleted), &stats.TotalRevenue); err != nil {
		return nil, err
	}
	if err := sumTotals(orders().Where("status = ? AND created_at >= ?", model.OrderStatusCompleted, startOfDay), &stats.TodayRevenue); err != nil {
		return nil, err
	}

	menus := db.Model(&model.Menu{}).Where("merchant_id = ?", merchantID)
	if err := menus.Count(&stats.TotalMenus).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Menu{}).Where("merchant_id = ? AND is_available = ?", merchantID, true).
		Count(&stats.AvailableMenus).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.MenuCategory{}).Where("merchant_id = ?", merchantID).
		Count(&stats.TotalCategories).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

// ForAdmin computes platform totals; revenue counts paid payments
func (s *StatsService) ForAdmin(ctx context.Context) (*AdminStats, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	db := s.db.WithContext(ctx)
	stats := &AdminStats{}

	if err := db.Model(&model.Merchant{}).Count(&stats.TotalMerchants).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Merchant{}).Where("is_available = ?", true).Count(&stats.AvailableMerchants).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Menu{}).Count(&stats.TotalMenus).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.MenuCategory{}).Count(&stats.TotalCategories).Error; err != nil {
		return nil, err
	}

	byStatus, err := countByStatus(db.Model(&model.Order{}))
	if err != nil {
		return nil, err
	}
	stats.OrdersByStatus = byStatus
	for _, n := range byStatus {
		stats.TotalOrders += n
	}
	if err := db.Model(&model.Order{}).Where("created_at >= ?", s.startOfDay()).Count(&stats.TodayOrders).Error; err != nil {
		return nil, err
	}

	paid := db.Model(&model.OrderPayment{}).Where("status = ?", model.PaymentStatusPaid)
	if err := paid.Count(&stats.PaidPayments).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.OrderPayment{}).Where("status = ?", model.PaymentStatusPaid).
		Select("COALESCE(SUM(amount), 0)").Scan(&stats.TotalRevenue).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.OrderPayment{}).Where("status = ?", model.PaymentStatusUnpaid).
		Count(&stats.UnpaidPayments).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *StatsService) startOfDay() time.Time {
	now := s.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

func countByStatus(query *gorm.DB) (map[model.OrderStatus]int64, error) {
	var rows []struct {
		Status model.OrderStatus
		Total  int64
	}
	if err := query.Select("status, COUNT(*) AS total").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}

	byStatus := make(map[model.OrderStatus]int64, len(model.OrderStatuses))
	for _, s := range model.OrderStatuses {
		byStatus[s] = 0
	}
	for _, r := range rows {
		byStatus[r.Status] = r.Total
	}
	return byStatus, nil
}

func sumTotals(query *gorm.DB, out *int64) error {
	return query.Select("COALESCE(SUM(total_amount), 0)").Scan(out).Error
}
