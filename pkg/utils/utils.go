// Package utils 提供雪花 ID、重试/退避、分页等通用工具
package utils

import (
	"sync"
	"time"
)

// SnowflakeID 雪花算法 ID 生成器
type SnowflakeID struct {
	mu        sync.Mutex
	timestamp int64
	sequence  int64
	nodeID    int64
}

// NewSnowflakeID 创建雪花 ID 生成器
func NewSnowflakeID(nodeID int64) *SnowflakeID {
	return &SnowflakeID{
		nodeID: nodeID & 0x3FF, // 10 bits
	}
}

// Generate 生成雪花 ID
func (s *SnowflakeID) Generate() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UnixMilli()

	if now == s.timestamp {
		s.sequence = (s.sequence + 1) & 0xFFF // 12 bits
		if s.sequence == 0 {
			for now <= s.timestamp {
				now = time.Now().UnixMilli()
			}
		}
	} else {
		s.sequence = 0
	}

	s.timestamp = now

	// timestamp(41 bits) + nodeID(10 bits) + sequence(12 bits)
	return (now << 22) | (s.nodeID << 12) | s.sequence
}

// Retry 固定间隔重试
func Retry(maxAttempts int, delay time.Duration, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
		}
		if attempt < maxAttempts-1 {
			time.Sleep(delay)
		}
	}
	return lastErr
}

// RetryWithBackoff 指数退避重试
func RetryWithBackoff(maxAttempts int, initialDelay, maxDelay time.Duration, fn func() error) error {
	var lastErr error
	delay := initialDelay

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if attempt < maxAttempts-1 {
			time.Sleep(delay)
			delay = time.Duration(float64(delay) * 1.5)
			if delay > maxDelay {
				delay = maxDelay
			}
		}
	}
	return lastErr
}

// Pagination 分页信息
type Pagination struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
	Pages    int64 `json:"pages"`
}

// NewPagination 创建分页信息，约束页号与页大小
func NewPagination(page, pageSize int, total int64) *Pagination {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 200 {
		pageSize = 200
	}

	pages := (total + int64(pageSize) - 1) / int64(pageSize)

	return &Pagination{
		Page:     page,
		PageSize: pageSize,
		Total:    total,
		Pages:    pages,
	}
}

// Offset 数据库查询偏移量
func (p *Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Limit 数据库查询限制
func (p *Pagination) Limit() int {
	return p.PageSize
}
