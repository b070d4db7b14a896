package models

import (
	"bytes"
	"database/sql/driver"
	"strconv"

	"github.com/shopspring/decimal"
)

// 金额统一按奈拉保留两位小数
const moneyPlaces = 2

// Money 奈拉金额，JSON 输出为数字，数据库按 decimal 存储
type Money struct {
	decimal.Decimal
}

// NewMoneyFromFloat 从浮点数创建金额
func NewMoneyFromFloat(amount float64) Money {
	return Money{Decimal: decimal.NewFromFloat(amount).Round(moneyPlaces)}
}

// MoneyPtr 返回金额指针，用于可空金额字段
func MoneyPtr(amount float64) *Money {
	m := NewMoneyFromFloat(amount)
	return &m
}

// Float64 返回用于统计的浮点值
func (m Money) Float64() float64 {
	return m.Round(moneyPlaces).InexactFloat64()
}

// MarshalJSON 输出 JSON 数字
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Round(moneyPlaces).String()), nil
}

// UnmarshalJSON 同时接受数字和数字字符串，null 保持零值
func (m *Money) UnmarshalJSON(b []byte) error {
	raw := bytes.TrimSpace(b)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	text := string(raw)
	if raw[0] == '"' {
		unquoted, err := strconv.Unquote(text)
		if err != nil {
			return err
		}
		text = unquoted
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return err
	}
	m.Decimal = d.Round(moneyPlaces)
	return nil
}

// Value 用于数据库写入
func (m Money) Value() (driver.Value, error) {
	return m.Round(moneyPlaces).Value()
}

// Scan 用于数据库读取，NULL 视为 0
func (m *Money) Scan(value interface{}) error {
	var d decimal.Decimal
	if value != nil {
		if err := d.Scan(value); err != nil {
			return err
		}
	}
	m.Decimal = d.Round(moneyPlaces)
	return nil
}

// String 返回两位小数格式
func (m Money) String() string {
	return m.StringFixed(moneyPlaces)
}
