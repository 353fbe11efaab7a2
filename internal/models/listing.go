// Package models содержит доменные сущности маркетплейса: позиции корзины,
// комментарии к объявлениям и сопутствующие value-типы.
package models

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// ListingStatus — статус объявления.
// Бэкенд отдаёт однобуквенные коды (A/V/P), наружу всегда пишем полные слова.
type ListingStatus string

const (
	StatusUnknown   ListingStatus = ""
	StatusAvailable ListingStatus = "AVAILABLE"
	StatusSold      ListingStatus = "SOLD"
	StatusPaused    ListingStatus = "PAUSED"
)

// ParseListingStatus разбирает код или полное имя статуса (регистр не важен).
// Неизвестное значение -> StatusUnknown.
func ParseListingStatus(s string) ListingStatus {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "A", "AVAILABLE", "DISPONIBLE", "ACTIVA":
		return StatusAvailable
	case "V", "SOLD", "VENDIDA", "VENDIDO":
		return StatusSold
	case "P", "PAUSED", "PAUSADA", "PAUSADO":
		return StatusPaused
	default:
		return StatusUnknown
	}
}

func (s *ListingStatus) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		// Не строка (null/число) — статус неизвестен, но документ остаётся читаемым.
		*s = StatusUnknown
		return nil
	}

	*s = ParseListingStatus(raw)
	return nil
}

// Price — неотрицательная десятичная цена.
// Valid=false означает «цены нет или она нечитаема»; в агрегатах такая цена равна 0.
type Price struct {
	decimal.Decimal
	Valid bool
}

// NewPrice создаёт валидную цену из целого значения.
func NewPrice(v int64) Price {
	return Price{Decimal: decimal.NewFromInt(v), Valid: true}
}

// PriceFromString разбирает цену из строки; ошибка разбора -> невалидная цена.
func PriceFromString(s string) Price {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Price{}
	}

	return Price{Decimal: d, Valid: true}
}

// Amount возвращает сумму для агрегатов: невалидная цена -> 0.
func (p Price) Amount() decimal.Decimal {
	if !p.Valid {
		return decimal.Zero
	}

	return p.Decimal
}

// UnmarshalJSON принимает число или числовую строку.
// Любое иное значение не считается ошибкой документа: цена помечается невалидной.
func (p *Price) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*p = Price{}
		return nil
	}

	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		*p = Price{}
		return nil
	}

	*p = Price{Decimal: d, Valid: true}
	return nil
}

// MarshalJSON пишет цену JSON-числом (null для невалидной).
func (p Price) MarshalJSON() ([]byte, error) {
	if !p.Valid {
		return []byte("null"), nil
	}

	return []byte(p.Decimal.String()), nil
}
