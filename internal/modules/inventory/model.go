package inventory

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MovementType is the direction of a stock movement.
type MovementType string

const (
	MovementIn  MovementType = "IN"
	MovementOut MovementType = "OUT"
)

// MaxStock is the largest quantity a product or a single movement can hold.
// It matches the INTEGER columns of products and movements.
const MaxStock = 2147483647

// PaymentMethod is how a sale was paid. It is only recorded on OUT movements
// that originate from a checkout.
type PaymentMethod string

const (
	PaymentCash    PaymentMethod = "CASH"
	PaymentCard    PaymentMethod = "CARD"
	PaymentPix     PaymentMethod = "PIX"
	PaymentVoucher PaymentMethod = "VOUCHER"
)

// ParsePaymentMethod accepts any casing of a known method.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	pm := PaymentMethod(strings.ToUpper(strings.TrimSpace(s)))
	switch pm {
	case PaymentCash, PaymentCard, PaymentPix, PaymentVoucher:
		return pm, nil
	}
	return "", ErrInvalidPaymentMethod
}

// Movement is one append-only ledger entry. StockAfter is the product's
// stock right after this movement was applied.
type Movement struct {
	ID            uuid.UUID      `json:"id" db:"id"`
	ProductID     uuid.UUID      `json:"product_id" db:"product_id"`
	ProductName   string         `json:"product_name,omitempty" db:"product_name"`
	Type          MovementType   `json:"type" db:"type"`
	Quantity      int            `json:"quantity" db:"quantity"`
	PaymentMethod *PaymentMethod `json:"payment_method,omitempty" db:"payment_method"`
	StockAfter    int            `json:"stock_after" db:"stock_after"`
	Actor         *uuid.UUID     `json:"actor,omitempty" db:"actor"`
	SaleID        *uuid.UUID     `json:"sale_id,omitempty" db:"sale_id"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
}

// AdjustStockRequest asks the ledger to move Quantity units in or out of a product.
type AdjustStockRequest struct {
	ProductID     uuid.UUID      `json:"product_id" validate:"required"`
	Quantity      int            `json:"quantity" validate:"gt=0,lte=2147483647"`
	Type          MovementType   `json:"type" validate:"required,oneof=IN OUT"`
	PaymentMethod *PaymentMethod `json:"payment_method" validate:"omitempty,oneof=CASH CARD PIX VOUCHER"`
	Actor         *uuid.UUID     `json:"-"`
	SaleID        *uuid.UUID     `json:"-"`
}

// CountStockRequest records a physical count: the product's stock becomes
// Count, through whichever IN or OUT movement closes the gap.
type CountStockRequest struct {
	ProductID uuid.UUID  `json:"product_id" validate:"required"`
	Count     int        `json:"count" validate:"gte=0,lte=2147483647"`
	Actor     *uuid.UUID `json:"-"`
}

// MovementFilter narrows the movement history.
type MovementFilter struct {
	ProductID *uuid.UUID
	Type      MovementType
	Limit     int
}

// Discrepancy is a product whose stored stock disagrees with its movements.
type Discrepancy struct {
	ProductID    uuid.UUID `json:"product_id" db:"product_id"`
	Name         string    `json:"name" db:"name"`
	CurrentStock int       `json:"current_stock" db:"current_stock"`
	LedgerStock  int       `json:"ledger_stock" db:"ledger_stock"`
}
