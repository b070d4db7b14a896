package repository

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// TimeBucket 趋势统计的时间分桶粒度
type TimeBucket string

const (
	BucketHourOfDay  TimeBucket = "hour"
	BucketDayOfWeek  TimeBucket = "dayOfWeek"
	BucketDayOfMonth TimeBucket = "dayOfMonth"
	BucketMonth      TimeBucket = "month"
)

// dbDialectName 获取数据库方言名称，默认按 sqlite 处理。
func dbDialectName(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return "sqlite"
	}
	name := strings.ToLower(strings.TrimSpace(db.Dialector.Name()))
	if name == "" {
		return "sqlite"
	}
	return name
}

func isPostgresDialect(dialect string) bool {
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case "postgres", "postgresql":
		return true
	default:
		return false
	}
}

// bucketExprByDialect 构建 UTC 时间分桶表达式，星期以周日为 1。
func bucketExprByDialect(dialect string, bucket TimeBucket, column string) string {
	if isPostgresDialect(dialect) {
		utc := fmt.Sprintf("(%s AT TIME ZONE 'UTC')", column)
		switch bucket {
		case BucketHourOfDay:
			return fmt.Sprintf("CAST(EXTRACT(HOUR FROM %s) AS INTEGER)", utc)
		case BucketDayOfMonth:
			return fmt.Sprintf("CAST(EXTRACT(DAY FROM %s) AS INTEGER)", utc)
		case BucketMonth:
			return fmt.Sprintf("CAST(EXTRACT(MONTH FROM %s) AS INTEGER)", utc)
		default:
			return fmt.Sprintf("(CAST(EXTRACT(DOW FROM %s) AS INTEGER) + 1)", utc)
		}
	}
	// sqlite 的日期函数会先把带时区偏移的时间换算为 UTC
	switch bucket {
	case BucketHourOfDay:
		return fmt.Sprintf("CAST(strftime('%%H', %s) AS INTEGER)", column)
	case BucketDayOfMonth:
		return fmt.Sprintf("CAST(strftime('%%d', %s) AS INTEGER)", column)
	case BucketMonth:
		return fmt.Sprintf("CAST(strftime('%%m', %s) AS INTEGER)", column)
	default:
		return fmt.Sprintf("(CAST(strftime('%%w', %s) AS INTEGER) + 1)", column)
	}
}

// dayDiffExprByDialect 构建两个时间列相差天数（含小数）的表达式。
func dayDiffExprByDialect(dialect, fromColumn, toColumn string) string {
	if isPostgresDialect(dialect) {
		return fmt.Sprintf("(EXTRACT(EPOCH FROM (%s - %s)) / 86400.0)", toColumn, fromColumn)
	}
	return fmt.Sprintf("(julianday(%s) - julianday(%s))", toColumn, fromColumn)
}

// buildLikeCondition 构建多列 OR 的模糊匹配条件，并返回参数数量。
func buildLikeCondition(db *gorm.DB, columns []string) (string, int) {
	return buildLikeConditionByDialect(dbDialectName(db), columns)
}

func buildLikeConditionByDialect(dialect string, columns []string) (string, int) {
	parts := make([]string, 0, len(columns))
	operator := likeOperatorByDialect(dialect)
	for _, column := range columns {
		trimmed := strings.TrimSpace(column)
		if trimmed == "" {
			continue
		}
		if isPostgresDialect(dialect) {
			parts = append(parts, fmt.Sprintf("%s %s ?", trimmed, operator))
		} else {
			// sqlite 的 LIKE 仅对 ASCII 忽略大小写
			parts = append(parts, fmt.Sprintf("LOWER(%s) %s LOWER(?) ESCAPE '\\'", trimmed, operator))
		}
	}
	return strings.Join(parts, " OR "), len(parts)
}

func likeOperatorByDialect(dialect string) string {
	if isPostgresDialect(dialect) {
		return "ILIKE"
	}
	return "LIKE"
}

// repeatLikeArgs 生成重复的 LIKE 参数列表。
func repeatLikeArgs(like string, count int) []interface{} {
	args := make([]interface{}, 0, count)
	for i := 0; i < count; i++ {
		args = append(args, like)
	}
	return args
}

// escapeLike 转义用户输入中的通配符
func escapeLike(keyword string) string {
	replacer := strings.NewReplacer(`%`, `\%`, `_`, `\_`)
	return replacer.Replace(keyword)
}
