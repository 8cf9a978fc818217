// Package utils 提供分页与指针等通用工具
package utils

import "math"

// MaxPageSize 单页最大条数
const MaxPageSize = 100

// Pagination 分页信息
type Pagination struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
	Pages    int64 `json:"pages"`
	HasNext  bool  `json:"has_next"`
	HasPrev  bool  `json:"has_prev"`
}

// NewPagination 创建分页信息，调用方负责校验 page 与 pageSize
func NewPagination(page, pageSize int, total int64) *Pagination {
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	var pages int64
	if pageSize > 0 {
		pages = (total + int64(pageSize) - 1) / int64(pageSize)
	}

	return &Pagination{
		Page:     page,
		PageSize: pageSize,
		Total:    total,
		Pages:    pages,
		HasNext:  int64(page) < pages,
		HasPrev:  page > 1,
	}
}

// Offset 获取数据库查询偏移量，溢出时取 math.MaxInt，即一定越过末页
func (p *Pagination) Offset() int {
	if p.Page < 1 || p.PageSize < 1 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.PageSize {
		return math.MaxInt
	}
	return (p.Page - 1) * p.PageSize
}

// Limit 获取数据库查询限制
func (p *Pagination) Limit() int {
	return p.PageSize
}

// StringPtr 返回字符串指针
func StringPtr(s string) *string {
	return &s
}

// DerefString 解引用字符串指针
func DerefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
