package catalog

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status tells whether a product can be sold.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

// Product is a catalog entry. CurrentStock is read-only here: only the
// stock ledger changes it.
type Product struct {
	ID                uuid.UUID       `json:"id" db:"id"`
	Name              string          `json:"name" db:"name"`
	Category          string          `json:"category" db:"category"`
	Barcode           *string         `json:"barcode,omitempty" db:"barcode"`
	PurchasePrice     decimal.Decimal `json:"purchase_price" db:"purchase_price"`
	SalePrice         decimal.Decimal `json:"sale_price" db:"sale_price"`
	MinStockThreshold int             `json:"min_stock_threshold" db:"min_stock_threshold"`
	CurrentStock      int             `json:"current_stock" db:"current_stock"`
	PhotoURL          *string         `json:"photo_url,omitempty" db:"photo_url"`
	Status            Status          `json:"status" db:"status"`
	ExpiryDate        *Date           `json:"expiry_date,omitempty" db:"expiry_date"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
}

func (p *Product) IsActive() bool { return p.Status == StatusActive }

// ProductRequest is the writable part of a product. InitialStock is only
// honoured on create and is recorded as an IN movement.
type ProductRequest struct {
	Name              string          `json:"name" validate:"required,max=200"`
	Category          string          `json:"category" validate:"max=100"`
	Barcode           *string         `json:"barcode" validate:"omitempty,max=64"`
	PurchasePrice     decimal.Decimal `json:"purchase_price"`
	SalePrice         decimal.Decimal `json:"sale_price"`
	MinStockThreshold int             `json:"min_stock_threshold" validate:"gte=0,lte=2147483647"`
	PhotoURL          *string         `json:"photo_url" validate:"omitempty,max=2048"`
	ExpiryDate        *Date           `json:"expiry_date"`
	InitialStock      int             `json:"initial_stock" validate:"gte=0,lte=2147483647"`
}

// ProductFilter narrows ListProducts. Query matches a case-insensitive
// substring of the name.
type ProductFilter struct {
	Query       string
	Category    string
	Status      Status
	InStockOnly bool
}

// ImportAction is what a bulk import did with one row.
type ImportAction string

const (
	ImportCreated ImportAction = "created"
	ImportUpdated ImportAction = "updated"
	ImportFailed  ImportAction = "failed"
)

// ImportResult reports one data row of a bulk import. Row is 1-based and
// counts the header.
type ImportResult struct {
	Row    int          `json:"row"`
	ID     *uuid.UUID   `json:"id,omitempty"`
	Action ImportAction `json:"action"`
	Error  string       `json:"error,omitempty"`
}

const dateLayout = "2006-01-02"

// Date is a calendar day without time of day or zone.
type Date struct {
	time.Time
}

// NewDate returns the given calendar day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("date must use the YYYY-MM-DD layout: %w", err)
	}
	return Date{t}, nil
}

func (d Date) String() string { return d.Format(dateLayout) }

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	parsed, err := ParseDate(strings.Trim(string(b), `"`))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		*d = NewDate(v.Year(), v.Month(), v.Day())
		return nil
	case []byte:
		parsed, err := ParseDate(string(v))
		*d = parsed
		return err
	case string:
		parsed, err := ParseDate(v)
		*d = parsed
		return err
	}
	return fmt.Errorf("cannot scan %T into Date", src)
}

func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}
