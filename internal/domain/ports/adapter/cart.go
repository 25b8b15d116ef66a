package adapter

import "context"

// CartService reaches the external cart backend. Checkout only ever clears a
// cart, and only after a successful payment; the clear is scheduled with a
// grace delay to tolerate eventual consistency in the backing store.
type CartService interface {
	Clear(ctx context.Context, cartID string) error
}
