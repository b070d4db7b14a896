package repository

import (
	"fmt"
	"time"

	"github.com/sharperly/logistics-api/internal/constants"
	"github.com/sharperly/logistics-api/internal/models"

	"gorm.io/gorm"
)

// DashboardRepository 仪表盘聚合查询接口
// 说明：仅聚合统计数据，不承载业务规则。
type DashboardRepository interface {
	GetOrderCounts(userID uint) (DashboardOrderCountsRow, error)
	GetDeliveredRevenue(userID uint) (float64, error)
	GetSalesBuckets(userID uint, bucket TimeBucket, since time.Time) ([]DashboardSalesBucketRow, error)
	GetStatusBuckets(userID uint, bucket TimeBucket, since time.Time) ([]DashboardStatusBucketRow, error)
	GetAverageDeliveryDays(userID uint) (float64, int64, error)
}

// DashboardOrderCountsRow 订单计数原始结果
type DashboardOrderCountsRow struct {
	Total      int64
	Active     int64
	Pending    int64
	Successful int64
	Cancelled  int64
}

// DashboardSalesBucketRow 销售分桶统计
type DashboardSalesBucketRow struct {
	Bucket     int
	TotalSales float64
	OrderCount int64
}

// DashboardStatusBucketRow 分桶内按状态的订单数
type DashboardStatusBucketRow struct {
	Bucket int
	Status string
	Count  int64
}

// GormDashboardRepository GORM 仪表盘聚合实现
type GormDashboardRepository struct {
	db *gorm.DB
}

// NewDashboardRepository 创建仪表盘仓库
func NewDashboardRepository(db *gorm.DB) *GormDashboardRepository {
	return &GormDashboardRepository{db: db}
}

func activeOrderStatuses() []string {
	return []string{constants.OrderStatusAssigned, constants.OrderStatusInTransit}
}

func (r *GormDashboardRepository) userOrders(userID uint) *gorm.DB {
	return r.db.Model(&models.Order{}).Where("user_id = ?", userID)
}

// deliveredWithCost 已送达且有实际费用的订单
func (r *GormDashboardRepository) deliveredWithCost(userID uint) *gorm.DB {
	return r.userOrders(userID).
		Where("status = ? AND actual_cost IS NOT NULL", constants.OrderStatusDelivered)
}

// GetOrderCounts 获取订单各状态计数
func (r *GormDashboardRepository) GetOrderCounts(userID uint) (DashboardOrderCountsRow, error) {
	result := DashboardOrderCountsRow{}

	if err := r.userOrders(userID).Count(&result.Total).Error; err != nil {
		return result, err
	}
	if err := r.userOrders(userID).Where("status IN ?", activeOrderStatuses()).Count(&result.Active).Error; err != nil {
		return result, err
	}
	if err := r.userOrders(userID).Where("status = ?", constants.OrderStatusPending).Count(&result.Pending).Error; err != nil {
		return result, err
	}
	if err := r.userOrders(userID).Where("status = ?", constants.OrderStatusDelivered).Count(&result.Successful).Error; err != nil {
		return result, err
	}
	if err := r.userOrders(userID).Where("status = ?", constants.OrderStatusCancelled).Count(&result.Cancelled).Error; err != nil {
		return result, err
	}
	return result, nil
}

// GetDeliveredRevenue 已送达订单的实际费用合计，无数据返回 0
func (r *GormDashboardRepository) GetDeliveredRevenue(userID uint) (float64, error) {
	var total float64
	if err := r.deliveredWithCost(userID).
		Select("COALESCE(SUM(actual_cost), 0)").
		Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// GetSalesBuckets 按时间分桶统计已送达订单的销售额，仅返回有数据的桶
func (r *GormDashboardRepository) GetSalesBuckets(userID uint, bucket TimeBucket, since time.Time) ([]DashboardSalesBucketRow, error) {
	bucketExpr := bucketExprByDialect(dbDialectName(r.db), bucket, "created_at")
	rows := make([]DashboardSalesBucketRow, 0)
	if err := r.deliveredWithCost(userID).
		Select(fmt.Sprintf("%s AS bucket, COALESCE(SUM(actual_cost), 0) AS total_sales, COUNT(*) AS order_count", bucketExpr)).
		Where("created_at >= ?", since).
		Group(bucketExpr).
		Order("bucket ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetStatusBuckets 按时间分桶与状态统计全部订单
func (r *GormDashboardRepository) GetStatusBuckets(userID uint, bucket TimeBucket, since time.Time) ([]DashboardStatusBucketRow, error) {
	bucketExpr := bucketExprByDialect(dbDialectName(r.db), bucket, "created_at")
	rows := make([]DashboardStatusBucketRow, 0)
	if err := r.userOrders(userID).
		Select(fmt.Sprintf("%s AS bucket, status, COUNT(*) AS count", bucketExpr)).
		Where("created_at >= ?", since).
		Group(bucketExpr + ", status").
		Order("bucket ASC").
		Order("status ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetAverageDeliveryDays 已送达订单从创建到送达的平均天数及样本数
func (r *GormDashboardRepository) GetAverageDeliveryDays(userID uint) (float64, int64, error) {
	var row struct {
		AvgDays float64
		Samples int64
	}
	diffExpr := dayDiffExprByDialect(dbDialectName(r.db), "created_at", "actual_delivery_date")
	if err := r.userOrders(userID).
		Select(fmt.Sprintf("COALESCE(AVG(%s), 0) AS avg_days, COUNT(*) AS samples", diffExpr)).
		Where("status = ? AND actual_delivery_date IS NOT NULL", constants.OrderStatusDelivered).
		Scan(&row).Error; err != nil {
		return 0, 0, err
	}
	return row.AvgDays, row.Samples, nil
}
