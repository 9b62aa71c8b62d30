package syncer

// CartItem is one line of the cart as the server prices it.
type CartItem struct {
	ID        string  `json:"id"`
	BookID    string  `json:"bookId"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

// CartSnapshot is the full cart view, owned exclusively by the Syncer and
// replaced wholesale after every mutation.
type CartSnapshot []CartItem

// Count sums the item quantities.
func (c CartSnapshot) Count() int {
	n := 0
	for _, item := range c {
		n += item.Quantity
	}
	return n
}

// Total sums the line prices.
func (c CartSnapshot) Total() float64 {
	t := 0.0
	for _, item := range c {
		t += item.UnitPrice * float64(item.Quantity)
	}
	return t
}

// OrderRecord is a placed order. Immutable once created; the local list only
// ever gains freshly fetched entries.
type OrderRecord struct {
	ID     string     `json:"id"`
	Items  []CartItem `json:"items"`
	Total  float64    `json:"total"`
	Status string     `json:"status"`
}

// OrderData is the checkout payload.
type OrderData struct {
	ShippingAddress string `json:"shippingAddress,omitempty"`
	PaymentMethod   string `json:"paymentMethod,omitempty"`
}

// PaymentData is the payment submission payload. Provider details stay
// opaque to this client.
type PaymentData struct {
	Method string `json:"method"`
	Token  string `json:"token,omitempty"`
}

// PaymentReceipt is the backend's acknowledgement of a payment.
type PaymentReceipt struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}
