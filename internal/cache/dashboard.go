package cache

import (
	"context"
	"fmt"

	"github.com/sharperly/logistics-api/internal/constants"
)

// DashboardStatsKey 仪表盘统计缓存键
func DashboardStatsKey(userID uint) string {
	return fmt.Sprintf("dashboard:%d:stats", userID)
}

// DashboardSalesKey 仪表盘销售趋势缓存键
func DashboardSalesKey(userID uint, period string) string {
	return fmt.Sprintf("dashboard:%d:sales:%s", userID, period)
}

// InvalidateDashboard 订单写入后清理该用户的仪表盘缓存
func InvalidateDashboard(ctx context.Context, userID uint) error {
	if userID == 0 {
		return nil
	}
	keys := []string{DashboardStatsKey(userID)}
	for _, period := range constants.DashboardPeriods() {
		keys = append(keys, DashboardSalesKey(userID, period))
	}
	return Del(ctx, keys...)
}
