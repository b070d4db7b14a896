package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// JSON 通用 JSON 对象列
type JSON map[string]interface{}

// Value 实现 driver.Valuer 接口
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan 实现 sql.Scanner 接口
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSON)
		return nil
	}
	return scanJSON(value, j)
}

// StatusChange 订单状态变更记录
type StatusChange struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Notes     string    `json:"notes,omitempty"`
}

// StatusHistory 订单状态变更日志，只追加
type StatusHistory []StatusChange

// Value 实现 driver.Valuer 接口
func (h StatusHistory) Value() (driver.Value, error) {
	if h == nil {
		return "[]", nil
	}
	raw, err := json.Marshal(h)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan 实现 sql.Scanner 接口
func (h *StatusHistory) Scan(value interface{}) error {
	if value == nil {
		*h = StatusHistory{}
		return nil
	}
	return scanJSON(value, h)
}

// TrackingUpdate 配送轨迹更新
type TrackingUpdate struct {
	Status    string    `json:"status"`
	Location  string    `json:"location,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Notes     string    `json:"notes,omitempty"`
}

// TrackingUpdates 配送轨迹日志
type TrackingUpdates []TrackingUpdate

// Value 实现 driver.Valuer 接口
func (u TrackingUpdates) Value() (driver.Value, error) {
	if u == nil {
		return "[]", nil
	}
	raw, err := json.Marshal(u)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan 实现 sql.Scanner 接口
func (u *TrackingUpdates) Scan(value interface{}) error {
	if value == nil {
		*u = TrackingUpdates{}
		return nil
	}
	return scanJSON(value, u)
}

// scanJSON sqlite 返回 string，postgres 返回 []byte
func scanJSON(value interface{}, dest interface{}) error {
	switch v := value.(type) {
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dest)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported json column type %T", value)
	}
}
