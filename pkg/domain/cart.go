package domain

import (
	"strconv"
	"strings"
)

// PendingItem is a scanned or selected product awaiting a quantity.
// In edit mode confirmation overwrites the cart quantity; otherwise it adds.
type PendingItem struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
	Quantity    int    `json:"quantity"`
	EditMode    bool   `json:"edit_mode"`
}

// Cart holds the lines of the order being built, most recent first.
// The zero value is an empty cart.
type Cart struct {
	items []CartItem
}

// NewCart returns a cart seeded with items in the given order.
func NewCart(items ...CartItem) *Cart {
	c := &Cart{}
	for _, item := range items {
		item.Code = CanonicalCode(item.Code)
		c.items = append(c.items, item)
	}
	return c
}

// Items returns a copy of the cart lines.
func (c *Cart) Items() []CartItem {
	return cloneItems(c.items)
}

// Len returns the number of lines.
func (c *Cart) Len() int { return len(c.items) }

// Find returns the line for code. Cart codes are already canonical.
func (c *Cart) Find(code string) (CartItem, bool) {
	if i := c.indexOf(code); i >= 0 {
		return c.items[i], true
	}
	return CartItem{}, false
}

func (c *Cart) indexOf(code string) int {
	for i, item := range c.items {
		if item.Code == code {
			return i
		}
	}
	return -1
}

// Scan opens a pending item for a scanned code. Unknown codes are accepted
// with a placeholder description.
func (c *Cart) Scan(code string, catalogue Catalogue) (PendingItem, error) {
	code = CanonicalCode(code)
	if code == "" {
		return PendingItem{}, ErrEmptyCode
	}
	p, ok := catalogue.Find(code)
	if !ok {
		p = Product{Description: UnknownItemDescription}
	}
	p.Code = code
	return c.pendingFor(p), nil
}

// Select opens a pending item for a product picked from the catalogue.
func (c *Cart) Select(p Product) (PendingItem, error) {
	p.Code = CanonicalCode(p.Code)
	if p.Code == "" {
		return PendingItem{}, ErrEmptyCode
	}
	return c.pendingFor(p), nil
}

// Edit opens an existing line for quantity overwrite.
func (c *Cart) Edit(code string) (PendingItem, bool) {
	item, ok := c.Find(code)
	if !ok {
		return PendingItem{}, false
	}
	return PendingItem{
		Code:        item.Code,
		Description: item.Description,
		Category:    item.Category,
		Quantity:    item.Quantity,
		EditMode:    true,
	}, true
}

func (c *Cart) pendingFor(p Product) PendingItem {
	pending := PendingItem{Code: p.Code, Description: p.Description, Category: p.Category, Quantity: 1}
	if existing, ok := c.Find(p.Code); ok {
		pending.Quantity = existing.Quantity
		pending.EditMode = true
	}
	return pending
}

// Confirm merges qty for code into the cart. An existing line is overwritten
// in edit mode and incremented otherwise; a new line is prepended.
func (c *Cart) Confirm(code, description string, qty int, editMode bool) error {
	if qty <= 0 {
		return InvalidQuantityError{Input: strconv.Itoa(qty)}
	}
	return c.confirm(PendingItem{Code: code, Description: description, Quantity: qty, EditMode: editMode})
}

// ConfirmPending merges a pending item whose quantity has been validated.
func (c *Cart) ConfirmPending(p PendingItem) error {
	if p.Quantity <= 0 {
		return InvalidQuantityError{Input: strconv.Itoa(p.Quantity)}
	}
	return c.confirm(p)
}

func (c *Cart) confirm(p PendingItem) error {
	p.Code = CanonicalCode(p.Code)
	if p.Code == "" {
		return ErrEmptyCode
	}
	if i := c.indexOf(p.Code); i >= 0 {
		if p.EditMode {
			c.items[i].Quantity = p.Quantity
		} else {
			c.items[i].Quantity += p.Quantity
		}
		return nil
	}
	item := CartItem{Code: p.Code, Description: p.Description, Category: p.Category, Quantity: p.Quantity}
	c.items = append([]CartItem{item}, c.items...)
	return nil
}

// Remove deletes the line for code. Absent codes are a no-op.
func (c *Cart) Remove(code string) {
	i := c.indexOf(code)
	if i < 0 {
		return
	}
	c.items = append(c.items[:i:i], c.items[i+1:]...)
}

// Clear empties the cart.
func (c *Cart) Clear() { c.items = nil }

// ParseQuantity validates user quantity input.
func ParseQuantity(input string) (int, error) {
	qty, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || qty <= 0 {
		return 0, InvalidQuantityError{Input: input}
	}
	return qty, nil
}
