package model

import "fitness-checkout/internal/domain"

// Identity is the authenticated customer supplied by the surrounding
// application. Issuing and verifying credentials happens elsewhere; checkout
// only consumes the result.
type Identity struct {
	ID    string // UUID
	Email string
}

// LineItem is one purchasable training package in a cart. Prices are stored
// in integer cents to avoid float errors.
type LineItem struct {
	PackageID     string
	PackageName   string
	Quantity      int
	UnitPrice     int64 // cents
	OriginalPrice int64 // cents; 0 when the item was never discounted
}

// Discount returns the per-line discount in cents. Only an original price
// strictly above the current price counts as a discount.
func (li LineItem) Discount() int64 {
	if li.OriginalPrice > li.UnitPrice {
		return (li.OriginalPrice - li.UnitPrice) * int64(li.Quantity)
	}
	return 0
}

// Cart is created and mutated by the external cart service; checkout treats
// it as read-only input.
type Cart struct {
	ID      string // UUID
	OwnerID string // UUID of the identity the cart belongs to
	Items   []LineItem
}

// Subtotal is the undiscounted sum of price x quantity across line items.
func (c *Cart) Subtotal() int64 {
	var sum int64
	for _, li := range c.Items {
		sum += li.UnitPrice * int64(li.Quantity)
	}
	return sum
}

// Total = subtotal - discounts.
func (c *Cart) Total() int64 {
	total := c.Subtotal()
	for _, li := range c.Items {
		total -= li.Discount()
	}
	return total
}

// ItemCount is the number of units across all lines, used as session metadata.
func (c *Cart) ItemCount() int {
	n := 0
	for _, li := range c.Items {
		n += li.Quantity
	}
	return n
}

// ValidateForCheckout gates the REVIEW -> PAYMENT transition. Pure: no side
// effects, no network. The state machine never creates a session for a cart
// that fails here.
func (c *Cart) ValidateForCheckout(identity *Identity) error {
	if identity == nil || identity.ID == "" {
		return domain.ErrNotAuthenticated
	}
	if c == nil || len(c.Items) == 0 {
		return domain.ErrEmptyCart
	}
	if c.Total() <= 0 {
		return domain.ErrNonPositiveTotal
	}
	return nil
}
