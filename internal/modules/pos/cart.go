package pos

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/georgemunganga/stockpdv/internal/servererrors"
)

// CartState is where a cart is in the checkout flow.
type CartState string

const (
	CartEmpty           CartState = "EMPTY"
	CartBuilding        CartState = "BUILDING"
	CartAwaitingPayment CartState = "AWAITING_PAYMENT"
)

var (
	ErrCartLocked         = servererrors.New(servererrors.KindCartState, "cart is awaiting payment; cancel the payment to edit it")
	ErrCartEmpty          = servererrors.New(servererrors.KindCartState, "cart is empty")
	ErrNotAwaitingPayment = servererrors.New(servererrors.KindCartState, "cart is not awaiting payment")
	ErrLineNotFound       = servererrors.New(servererrors.KindNotFound, "product is not in the cart")
)

// CartLine holds the name and price the product had when it was added.
type CartLine struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

func (l CartLine) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is one session's basket. Lines keep insertion order. A Cart is not
// safe for concurrent use; SessionStore serializes access per session.
type Cart struct {
	state CartState
	lines []CartLine
}

func NewCart() *Cart { return &Cart{state: CartEmpty} }

func (c *Cart) State() CartState { return c.state }

// Lines returns a copy of the cart lines.
func (c *Cart) Lines() []CartLine {
	out := make([]CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Total())
	}
	return total
}

// Add puts quantity units of a product in the cart, merging with an
// existing line for the same product. Quantities below 1 count as 1.
func (c *Cart) Add(productID uuid.UUID, name string, unitPrice decimal.Decimal, quantity int) error {
	if err := c.editable(); err != nil {
		return err
	}
	if quantity < 1 {
		quantity = 1
	}
	if i := c.index(productID); i >= 0 {
		c.lines[i].Quantity += quantity
	} else {
		c.lines = append(c.lines, CartLine{ProductID: productID, Name: name, Quantity: quantity, UnitPrice: unitPrice})
	}
	c.state = CartBuilding
	return nil
}

func (c *Cart) Increment(productID uuid.UUID) error {
	i, err := c.line(productID)
	if err != nil {
		return err
	}
	c.lines[i].Quantity++
	return nil
}

// Decrement removes the line when its quantity is 1.
func (c *Cart) Decrement(productID uuid.UUID) error {
	i, err := c.line(productID)
	if err != nil {
		return err
	}
	if c.lines[i].Quantity <= 1 {
		c.removeAt(i)
		return nil
	}
	c.lines[i].Quantity--
	return nil
}

// SetQuantity clamps quantity to at least 1.
func (c *Cart) SetQuantity(productID uuid.UUID, quantity int) error {
	i, err := c.line(productID)
	if err != nil {
		return err
	}
	if quantity < 1 {
		quantity = 1
	}
	c.lines[i].Quantity = quantity
	return nil
}

func (c *Cart) Remove(productID uuid.UUID) error {
	i, err := c.line(productID)
	if err != nil {
		return err
	}
	c.removeAt(i)
	return nil
}

// Clear empties the cart from any state.
func (c *Cart) Clear() {
	c.lines = nil
	c.state = CartEmpty
}

func (c *Cart) ProceedToPayment() error {
	switch {
	case c.state == CartAwaitingPayment:
		return nil
	case len(c.lines) == 0:
		return ErrCartEmpty
	}
	c.state = CartAwaitingPayment
	return nil
}

// CancelPayment goes back to editing without touching the lines.
func (c *Cart) CancelPayment() error {
	if c.state != CartAwaitingPayment {
		return ErrNotAwaitingPayment
	}
	c.state = CartBuilding
	return nil
}

// settle drops the committed lines after a checkout. A cart with lines left
// goes back to editing.
func (c *Cart) settle(committed map[uuid.UUID]bool) {
	kept := c.lines[:0]
	for _, l := range c.lines {
		if !committed[l.ProductID] {
			kept = append(kept, l)
		}
	}
	c.lines = kept
	if len(c.lines) == 0 {
		c.Clear()
		return
	}
	c.state = CartBuilding
}

func (c *Cart) editable() error {
	if c.state == CartAwaitingPayment {
		return ErrCartLocked
	}
	return nil
}

func (c *Cart) line(productID uuid.UUID) (int, error) {
	if err := c.editable(); err != nil {
		return -1, err
	}
	i := c.index(productID)
	if i < 0 {
		return -1, ErrLineNotFound
	}
	return i, nil
}

func (c *Cart) index(productID uuid.UUID) int {
	for i, l := range c.lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) removeAt(i int) {
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	if len(c.lines) == 0 {
		c.Clear()
	}
}

// CartView is the JSON shape of a cart.
type CartView struct {
	State     CartState       `json:"state"`
	Lines     []CartLineView  `json:"lines"`
	ItemCount int             `json:"item_count"`
	Total     decimal.Decimal `json:"total"`
}

type CartLineView struct {
	CartLine
	LineTotal decimal.Decimal `json:"line_total"`
}

func (c *Cart) View() CartView {
	view := CartView{State: c.state, Lines: make([]CartLineView, 0, len(c.lines)), Total: c.Total()}
	for _, l := range c.lines {
		view.Lines = append(view.Lines, CartLineView{CartLine: l, LineTotal: l.Total()})
		view.ItemCount += l.Quantity
	}
	return view
}
