package service

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/sharperly/logistics-api/internal/cache"
	"github.com/sharperly/logistics-api/internal/config"
	"github.com/sharperly/logistics-api/internal/constants"
	"github.com/sharperly/logistics-api/internal/metrics"
	"github.com/sharperly/logistics-api/internal/models"
	"github.com/sharperly/logistics-api/internal/repository"

	"github.com/xuri/excelize/v2"
)

const (
	defaultDashboardCacheTTL      = 45 * time.Second
	defaultRecentShipmentsLimit   = 10
	defaultHistoryLimit           = 20
	defaultDashboardMaxPageSize   = 100
	defaultHistoryExportMaxRows   = 5000
	historyExportSheet            = "History"
	dashboardDateLayout           = "2006-01-02"
	dashboardExportDateTimeLayout = "2006-01-02 15:04"
)

// DashboardService 调度员仪表盘服务
// 说明：只读聚合订单与配送单数据，统计与趋势结果短时缓存。
type DashboardService struct {
	repo            repository.DashboardRepository
	orderRepo       repository.OrderRepository
	shipmentRepo    repository.ShipmentRepository
	userRepo        repository.UserRepository
	businessService *BusinessService
	cfg             config.DashboardConfig
	metrics         *metrics.DashboardMetrics
}

// NewDashboardService 创建仪表盘服务
func NewDashboardService(
	repo repository.DashboardRepository,
	orderRepo repository.OrderRepository,
	shipmentRepo repository.ShipmentRepository,
	userRepo repository.UserRepository,
	businessService *BusinessService,
	cfg config.DashboardConfig,
	dashboardMetrics *metrics.DashboardMetrics,
) *DashboardService {
	return &DashboardService{
		repo:            repo,
		orderRepo:       orderRepo,
		shipmentRepo:    shipmentRepo,
		userRepo:        userRepo,
		businessService: businessService,
		cfg:             cfg,
		metrics:         dashboardMetrics,
	}
}

// DashboardStats 订单汇总计数
type DashboardStats struct {
	TotalDispatchCount      int64   `json:"totalDispatchCount"`
	ActiveDispatchCount     int64   `json:"activeDispatchCount"`
	PendingDispatchCount    int64   `json:"pendingDispatchCount"`
	SuccessfulDispatchCount int64   `json:"successfulDispatchCount"`
	CancelledDispatchCount  int64   `json:"cancelledDispatchCount"`
	SuccessRate             float64 `json:"successRate"`
	TotalRevenue            float64 `json:"totalRevenue"`
}

// SalesBucket 单个时间桶的销售额
type SalesBucket struct {
	Bucket     int     `json:"bucket"`
	TotalSales float64 `json:"totalSales"`
	OrderCount int64   `json:"orderCount"`
}

// StatusCount 状态计数
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// OrderTrend 单个时间桶的订单状态分布
type OrderTrend struct {
	Bucket   int           `json:"bucket"`
	Statuses []StatusCount `json:"statuses"`
}

// DispatchSales 销售趋势结果
type DispatchSales struct {
	SalesData   []SalesBucket `json:"salesData"`
	OrderTrends []OrderTrend  `json:"orderTrends"`
	Period      string        `json:"period"`
}

// RecentShipment 最近配送单展示项
type RecentShipment struct {
	ID                    uint       `json:"id"`
	DispatcherName        string     `json:"dispatcherName"`
	DriverName            string     `json:"driverName"`
	DriverImage           string     `json:"driverImage"`
	DriverRating          float64    `json:"driverRating"`
	ItemsNo               int        `json:"itemsNo"`
	OrderDate             time.Time  `json:"orderDate"`
	DispatchDate          *time.Time `json:"dispatchDate"`
	DispatchLocation      string     `json:"dispatchLocation"`
	Quantity              int        `json:"quantity"`
	DispatchStatus        string     `json:"dispatchStatus"`
	OrderNumber           string     `json:"orderNumber"`
	TrackingNumber        string     `json:"trackingNumber"`
	CustomerRating        *int       `json:"customerRating"`
	EstimatedDeliveryTime *time.Time `json:"estimatedDeliveryTime"`
	ActualDeliveryTime    *time.Time `json:"actualDeliveryTime"`
}

// DriverSummary 订单中展示的司机信息
type DriverSummary struct {
	ID           uint    `json:"id"`
	FullName     string  `json:"fullName"`
	ProfileImage string  `json:"profileImage"`
	Rating       float64 `json:"rating"`
}

// HistoryOrder 历史订单，司机只保留展示字段
type HistoryOrder struct {
	models.Order
	AssignedDriver *DriverSummary `json:"assignedDriver"`
}

// HistoryQuery 历史订单查询参数
type HistoryQuery struct {
	Page      int
	Limit     int
	Status    string
	StartDate *time.Time
	EndDate   *time.Time
	Search    string
}

// DispatcherPersonalInfo 调度员个人信息
type DispatcherPersonalInfo struct {
	FullName     string     `json:"fullName"`
	Email        string     `json:"email"`
	ProfileImage string     `json:"profileImage"`
	About        string     `json:"about"`
	MemberSince  time.Time  `json:"memberSince"`
	LastLogin    *time.Time `json:"lastLogin"`
}

// DispatcherBusinessInfo 调度员企业信息
type DispatcherBusinessInfo struct {
	BusinessName           string         `json:"businessName"`
	BusinessEmail          string         `json:"businessEmail"`
	BusinessAddress        models.Address `json:"businessAddress"`
	BusinessHotline        string         `json:"businessHotline"`
	AlternativePhoneNumber string         `json:"alternativePhoneNumber"`
	CACRegistrationNumber  string         `json:"cacRegistrationNumber"`
	IsVerified             bool           `json:"isVerified"`
	VerificationStatus     string         `json:"verificationStatus"`
}

// DispatcherPerformance 调度员履约指标
type DispatcherPerformance struct {
	TotalOrders         int64   `json:"totalOrders"`
	CompletedOrders     int64   `json:"completedOrders"`
	CancelledOrders     int64   `json:"cancelledOrders"`
	CompletionRate      float64 `json:"completionRate"`
	AverageDeliveryDays float64 `json:"averageDeliveryDays"`
	BusinessRating      float64 `json:"businessRating"`
}

// DispatcherDetails 调度员概览
type DispatcherDetails struct {
	PersonalInfo       DispatcherPersonalInfo `json:"personalInfo"`
	BusinessInfo       DispatcherBusinessInfo `json:"businessInfo"`
	PerformanceMetrics DispatcherPerformance  `json:"performanceMetrics"`
}

// dashboardPeriod 统计周期对应的分桶与起点
type dashboardPeriod struct {
	key    string
	bucket repository.TimeBucket
	since  time.Time
}

// resolveDashboardPeriod 未识别的周期回退到 7days
func resolveDashboardPeriod(raw string, now time.Time) dashboardPeriod {
	now = now.UTC()
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case constants.Period24Hours:
		return dashboardPeriod{key: constants.Period24Hours, bucket: repository.BucketHourOfDay, since: now.Add(-24 * time.Hour)}
	case constants.Period30Days:
		return dashboardPeriod{key: constants.Period30Days, bucket: repository.BucketDayOfMonth, since: now.AddDate(0, 0, -30)}
	case constants.Period12Months:
		return dashboardPeriod{key: constants.Period12Months, bucket: repository.BucketMonth, since: now.AddDate(0, -12, 0)}
	default:
		return dashboardPeriod{key: constants.Period7Days, bucket: repository.BucketDayOfWeek, since: now.AddDate(0, 0, -7)}
	}
}

// GetStats 订单汇总计数与收入
func (s *DashboardService) GetStats(ctx context.Context, userID uint) (*DashboardStats, error) {
	const operation = "stats"
	cacheKey := cache.DashboardStatsKey(userID)
	var cached DashboardStats
	if hit, err := cache.GetJSON(ctx, cacheKey, &cached); err == nil && hit {
		s.metrics.IncCache(operation, true)
		return &cached, nil
	}
	s.metrics.IncCache(operation, false)

	started := time.Now()
	counts, err := s.repo.GetOrderCounts(userID)
	if err != nil {
		return nil, err
	}
	revenue, err := s.repo.GetDeliveredRevenue(userID)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveQuery(operation, time.Since(started))

	stats := &DashboardStats{
		TotalDispatchCount:      counts.Total,
		ActiveDispatchCount:     counts.Active,
		PendingDispatchCount:    counts.Pending,
		SuccessfulDispatchCount: counts.Successful,
		CancelledDispatchCount:  counts.Cancelled,
		SuccessRate:             percentage(counts.Successful, counts.Total),
		TotalRevenue:            round2(revenue),
	}
	_ = cache.SetJSON(ctx, cacheKey, stats, s.cacheTTL())
	return stats, nil
}

// GetDispatchSales 按周期分桶的销售额与订单状态分布
func (s *DashboardService) GetDispatchSales(ctx context.Context, userID uint, rawPeriod string) (*DispatchSales, error) {
	const operation = "dispatch_sales"
	period := resolveDashboardPeriod(rawPeriod, time.Now())
	cacheKey := cache.DashboardSalesKey(userID, period.key)
	var cached DispatchSales
	if hit, err := cache.GetJSON(ctx, cacheKey, &cached); err == nil && hit {
		s.metrics.IncCache(operation, true)
		return &cached, nil
	}
	s.metrics.IncCache(operation, false)

	started := time.Now()
	salesRows, err := s.repo.GetSalesBuckets(userID, period.bucket, period.since)
	if err != nil {
		return nil, err
	}
	statusRows, err := s.repo.GetStatusBuckets(userID, period.bucket, period.since)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveQuery(operation, time.Since(started))

	result := &DispatchSales{
		SalesData:   make([]SalesBucket, 0, len(salesRows)),
		OrderTrends: groupStatusBuckets(statusRows),
		Period:      period.key,
	}
	for _, row := range salesRows {
		result.SalesData = append(result.SalesData, SalesBucket{
			Bucket:     row.Bucket,
			TotalSales: round2(row.TotalSales),
			OrderCount: row.OrderCount,
		})
	}
	_ = cache.SetJSON(ctx, cacheKey, result, s.cacheTTL())
	return result, nil
}

// groupStatusBuckets 将 (bucket, status) 行按桶归并，输入已按桶升序
func groupStatusBuckets(rows []repository.DashboardStatusBucketRow) []OrderTrend {
	trends := make([]OrderTrend, 0)
	for _, row := range rows {
		last := len(trends) - 1
		if last < 0 || trends[last].Bucket != row.Bucket {
			trends = append(trends, OrderTrend{Bucket: row.Bucket, Statuses: make([]StatusCount, 0, 1)})
			last++
		}
		trends[last].Statuses = append(trends[last].Statuses, StatusCount{Status: row.Status, Count: row.Count})
	}
	return trends
}

// GetRecentShipments 最近配送单，按创建时间倒序
func (s *DashboardService) GetRecentShipments(userID uint, page, limit int) ([]RecentShipment, Pagination, error) {
	page, limit = ClampPage(page, limit, s.recentShipmentsLimit(), s.maxPageSize())
	started := time.Now()
	shipments, total, err := s.shipmentRepo.List(repository.ShipmentListFilter{
		UserID:   userID,
		Page:     page,
		PageSize: limit,
	})
	if err != nil {
		return nil, Pagination{}, err
	}
	s.metrics.ObserveQuery("recent_shipments", time.Since(started))

	items := make([]RecentShipment, 0, len(shipments))
	for i := range shipments {
		items = append(items, buildRecentShipment(&shipments[i]))
	}
	return items, NewPagination(page, limit, total, len(items)), nil
}

func buildRecentShipment(shipment *models.Shipment) RecentShipment {
	item := RecentShipment{
		ID:                    shipment.ID,
		DispatcherName:        shipment.DispatcherName,
		DriverName:            constants.UnassignedDriverName,
		ItemsNo:               shipment.ItemsNo,
		OrderDate:             shipment.OrderDate,
		DispatchDate:          shipment.DispatchDate,
		DispatchLocation:      shipment.DispatchLocation,
		Quantity:              shipment.Quantity,
		DispatchStatus:        shipment.DispatchStatus,
		CustomerRating:        shipment.CustomerRating,
		EstimatedDeliveryTime: shipment.EstimatedDeliveryTime,
		ActualDeliveryTime:    shipment.ActualDeliveryTime,
	}
	if shipment.Driver != nil {
		if shipment.Driver.FullName != "" {
			item.DriverName = shipment.Driver.FullName
		}
		item.DriverImage = shipment.Driver.ProfileImage
		item.DriverRating = shipment.Driver.Rating
	}
	if shipment.Order != nil {
		item.OrderNumber = shipment.Order.OrderNumber
		item.TrackingNumber = shipment.Order.TrackingNumber
	}
	return item
}

// GetHistory 分页查询历史订单
func (s *DashboardService) GetHistory(userID uint, query HistoryQuery) ([]HistoryOrder, Pagination, error) {
	page, limit := ClampPage(query.Page, query.Limit, s.historyLimit(), s.maxPageSize())
	started := time.Now()
	orders, total, err := s.orderRepo.List(repository.OrderListFilter{
		UserID:    userID,
		Status:    strings.TrimSpace(query.Status),
		StartDate: query.StartDate,
		EndDate:   query.EndDate,
		Search:    strings.TrimSpace(query.Search),
		Page:      page,
		PageSize:  limit,
	})
	if err != nil {
		return nil, Pagination{}, err
	}
	s.metrics.ObserveQuery("history", time.Since(started))
	return buildHistoryOrders(orders), NewPagination(page, limit, total, len(orders)), nil
}

func buildHistoryOrders(orders []models.Order) []HistoryOrder {
	items := make([]HistoryOrder, 0, len(orders))
	for _, order := range orders {
		item := HistoryOrder{Order: order}
		if order.AssignedDriver != nil {
			item.AssignedDriver = &DriverSummary{
				ID:           order.AssignedDriver.ID,
				FullName:     order.AssignedDriver.FullName,
				ProfileImage: order.AssignedDriver.ProfileImage,
				Rating:       order.AssignedDriver.Rating,
			}
		}
		items = append(items, item)
	}
	return items
}

// ExportHistory 导出历史订单为 xlsx，返回写出的行数
func (s *DashboardService) ExportHistory(userID uint, query HistoryQuery, w io.Writer) (int, error) {
	started := time.Now()
	orders, err := s.orderRepo.ListAll(repository.OrderListFilter{
		UserID:    userID,
		Status:    strings.TrimSpace(query.Status),
		StartDate: query.StartDate,
		EndDate:   query.EndDate,
		Search:    strings.TrimSpace(query.Search),
		Limit:     s.exportMaxRows(),
	})
	if err != nil {
		return 0, err
	}
	s.metrics.ObserveQuery("history_export", time.Since(started))

	file := excelize.NewFile()
	defer func() { _ = file.Close() }()
	if err := file.SetSheetName("Sheet1", historyExportSheet); err != nil {
		return 0, err
	}
	header := []interface{}{
		"Order Number", "Tracking Number", "Status", "Vehicle Type", "Pickup Address", "Delivery Address",
		"Items", "Quantity", "Estimated Cost", "Actual Cost", "Driver", "Order Date", "Delivered At",
	}
	if err := file.SetSheetRow(historyExportSheet, "A1", &header); err != nil {
		return 0, err
	}
	for i, order := range orders {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return 0, err
		}
		row := historyExportRow(order)
		if err := file.SetSheetRow(historyExportSheet, cell, &row); err != nil {
			return 0, err
		}
	}
	if err := file.SetColWidth(historyExportSheet, "A", "M", 18); err != nil {
		return 0, err
	}
	if err := file.Write(w); err != nil {
		return 0, fmt.Errorf("write history export failed: %w", err)
	}
	return len(orders), nil
}

func historyExportRow(order models.Order) []interface{} {
	actualCost := ""
	if order.ActualCost != nil {
		actualCost = order.ActualCost.StringFixed(2)
	}
	driverName := constants.UnassignedDriverName
	if order.AssignedDriver != nil && order.AssignedDriver.FullName != "" {
		driverName = order.AssignedDriver.FullName
	}
	deliveredAt := ""
	if order.ActualDeliveryDate != nil {
		deliveredAt = order.ActualDeliveryDate.UTC().Format(dashboardExportDateTimeLayout)
	}
	return []interface{}{
		order.OrderNumber,
		order.TrackingNumber,
		order.Status,
		order.VehicleType,
		order.PickupLocation.Address,
		order.DeliveryLocation.Address,
		order.ItemsCount,
		order.Quantity,
		order.EstimatedCost.StringFixed(2),
		actualCost,
		driverName,
		order.OrderDate.UTC().Format(dashboardExportDateTimeLayout),
		deliveredAt,
	}
}

// GetDispatcherDetails 调度员资料、企业信息与履约指标，无企业信息返回 ErrBusinessNotFound
func (s *DashboardService) GetDispatcherDetails(userID uint) (*DispatcherDetails, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	business, err := s.businessService.GetKYC(userID)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	counts, err := s.repo.GetOrderCounts(userID)
	if err != nil {
		return nil, err
	}
	avgDays, samples, err := s.repo.GetAverageDeliveryDays(userID)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveQuery("dispatcher_details", time.Since(started))
	if samples == 0 {
		avgDays = 0
	}

	return &DispatcherDetails{
		PersonalInfo: DispatcherPersonalInfo{
			FullName:     user.FullName,
			Email:        user.Email,
			ProfileImage: user.ProfileImage,
			About:        user.About,
			MemberSince:  user.CreatedAt,
			LastLogin:    user.LastLogin,
		},
		BusinessInfo: DispatcherBusinessInfo{
			BusinessName:           business.BusinessName,
			BusinessEmail:          business.BusinessEmail,
			BusinessAddress:        business.BusinessAddress,
			BusinessHotline:        business.BusinessHotline,
			AlternativePhoneNumber: business.AlternativePhoneNumber,
			CACRegistrationNumber:  business.CACRegistrationNumber,
			IsVerified:             business.IsVerified,
			VerificationStatus:     business.VerificationStatus,
		},
		PerformanceMetrics: DispatcherPerformance{
			TotalOrders:         counts.Total,
			CompletedOrders:     counts.Successful,
			CancelledOrders:     counts.Cancelled,
			CompletionRate:      percentage(counts.Successful, counts.Total),
			AverageDeliveryDays: round1(avgDays),
			BusinessRating:      business.Rating,
		},
	}, nil
}

// ParseDateBound 解析 RFC3339 或 YYYY-MM-DD；纯日期的结束边界包含当天全部时间
func ParseDateBound(raw string, endOfDay bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		value := parsed.UTC()
		return &value, nil
	}
	parsed, err := time.ParseInLocation(dashboardDateLayout, raw, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q", raw)
	}
	if endOfDay {
		parsed = parsed.Add(24*time.Hour - time.Nanosecond)
	}
	return &parsed, nil
}

func (s *DashboardService) cacheTTL() time.Duration {
	if s.cfg.CacheTTLSeconds > 0 {
		return time.Duration(s.cfg.CacheTTLSeconds) * time.Second
	}
	return defaultDashboardCacheTTL
}

func (s *DashboardService) recentShipmentsLimit() int {
	if s.cfg.RecentShipmentsPageSize > 0 {
		return s.cfg.RecentShipmentsPageSize
	}
	return defaultRecentShipmentsLimit
}

func (s *DashboardService) historyLimit() int {
	if s.cfg.HistoryPageSize > 0 {
		return s.cfg.HistoryPageSize
	}
	return defaultHistoryLimit
}

func (s *DashboardService) maxPageSize() int {
	if s.cfg.MaxPageSize > 0 {
		return s.cfg.MaxPageSize
	}
	return defaultDashboardMaxPageSize
}

func (s *DashboardService) exportMaxRows() int {
	if s.cfg.ExportMaxRows > 0 {
		return s.cfg.ExportMaxRows
	}
	return defaultHistoryExportMaxRows
}

// percentage part/total*100 保留两位小数，total 为 0 时返回 0
func percentage(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return round2(float64(part) / float64(total) * 100)
}

// round2 四舍五入保留两位小数
func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

// round1 四舍五入保留一位小数
func round1(value float64) float64 {
	return math.Round(value*10) / 10
}
