package pos

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/georgemunganga/stockpdv/internal/modules/inventory"
)

// SaleStatus tells whether every cart line was committed.
type SaleStatus string

const (
	SaleCompleted SaleStatus = "COMPLETED"
	SalePartial   SaleStatus = "PARTIAL"
)

// Sale records a checkout. Lines holds only what was taken out of stock.
type Sale struct {
	ID            uuid.UUID               `json:"id" db:"id"`
	CashierID     *uuid.UUID              `json:"cashier_id,omitempty" db:"cashier_id"`
	PaymentMethod inventory.PaymentMethod `json:"payment_method" db:"payment_method"`
	Status        SaleStatus              `json:"status" db:"status"`
	Total         decimal.Decimal         `json:"total" db:"total"`
	Lines         []SaleLine              `json:"lines" db:"-"`
	Failures      LineFailures            `json:"failures" db:"failures"`
	CreatedAt     time.Time               `json:"created_at" db:"created_at"`
}

type SaleLine struct {
	ID        uuid.UUID       `json:"-" db:"id"`
	SaleID    uuid.UUID       `json:"-" db:"sale_id"`
	ProductID uuid.UUID       `json:"product_id" db:"product_id"`
	Name      string          `json:"name" db:"name"`
	Quantity  int             `json:"quantity" db:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price" db:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total" db:"line_total"`
}

// LineFailure is a cart line the ledger refused, with its reason.
type LineFailure struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	Reason    string    `json:"reason"`
}

// LineFailures is stored as a JSONB array.
type LineFailures []LineFailure

func (f LineFailures) Value() (driver.Value, error) {
	if f == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(f)
}

func (f *LineFailures) Scan(src interface{}) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*f = LineFailures{}
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into LineFailures", src)
	}
	return json.Unmarshal(b, f)
}

// SaleFilter narrows the sales history. Zero times are open bounds.
type SaleFilter struct {
	From  time.Time
	To    time.Time
	Limit int
}

// CheckoutResult is what a checkout did. Sale is nil when no line could be
// committed.
type CheckoutResult struct {
	Result   string        `json:"result"`
	Sale     *Sale         `json:"sale,omitempty"`
	Failures []LineFailure `json:"failures,omitempty"`
	Cart     CartView      `json:"cart"`
}
