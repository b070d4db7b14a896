package service

// Pagination 列表分页信息，总数字段名由调用方决定
type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	Total       int64 `json:"-"`
	HasNext     bool  `json:"hasNext"`
	HasPrev     bool  `json:"hasPrev"`
	Limit       int   `json:"limit"`
}

// NewPagination 按当前页实际返回条数计算分页信息
func NewPagination(page, limit int, total int64, returned int) Pagination {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 1
	}
	skip := int64(page-1) * int64(limit)
	totalPages := 0
	if total > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		Total:       total,
		HasNext:     skip+int64(returned) < total,
		HasPrev:     page > 1,
		Limit:       limit,
	}
}

// ClampPage 规整页码与每页条数到 [1, maxLimit]
func ClampPage(page, limit, defaultLimit, maxLimit int) (int, int) {
	if maxLimit <= 0 {
		maxLimit = 100
	}
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit < 1 {
		limit = 1
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}
