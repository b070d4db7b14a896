package repository

import "gorm.io/gorm"

// paginate 分页作用域，pageSize <= 0 时返回全部记录；页大小上限由服务层收敛
func paginate(page, pageSize int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if pageSize <= 0 {
			return db
		}
		if page < 1 {
			page = 1
		}
		return db.Offset((page - 1) * pageSize).Limit(pageSize)
	}
}
