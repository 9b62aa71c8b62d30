package syncer

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/sebrinamusbah/bookstore-client/pkg/broadcast"
	"github.com/sebrinamusbah/bookstore-client/pkg/gateway"
	"github.com/sebrinamusbah/bookstore-client/pkg/logger"
	"github.com/sebrinamusbah/bookstore-client/pkg/session"
)

// Syncer reconciles the local cart/order views with server state. Safe for
// concurrent use, though overlapping mutations race benignly: the last
// response to arrive wins the snapshot.
type Syncer struct {
	gw       *gateway.Client
	sessions *session.Manager
	log      *slog.Logger
	hub      *broadcast.Hub[broadcast.Signal]

	mu     sync.RWMutex
	cart   CartSnapshot
	orders []OrderRecord

	loading atomic.Int32
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithLogger sets the logger. The default discards all records.
func WithLogger(log *slog.Logger) Option {
	return func(s *Syncer) {
		if log != nil {
			s.log = log
		}
	}
}

// New creates a syncer bound to the session manager's identity.
func New(gw *gateway.Client, sessions *session.Manager, opts ...Option) *Syncer {
	s := &Syncer{
		gw:       gw,
		sessions: sessions,
		log:      logger.Discard(),
		hub:      broadcast.NewHub[broadcast.Signal](4),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close releases subscribers.
func (s *Syncer) Close() {
	s.hub.Close()
}

// Subscribe returns a subscription signaled whenever the cart or order view
// changes. Receivers re-read Cart/Orders.
func (s *Syncer) Subscribe(ctx context.Context) *broadcast.Subscription[broadcast.Signal] {
	return s.hub.Subscribe(ctx)
}

// Cart returns a copy of the current snapshot.
func (s *Syncer) Cart() CartSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append(CartSnapshot(nil), s.cart...)
}

// Orders returns a copy of the current order list.
func (s *Syncer) Orders() []OrderRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]OrderRecord(nil), s.orders...)
}

// CartCount returns the total quantity across the snapshot.
func (s *Syncer) CartCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.Count()
}

// Loading reports whether any syncer operation has a network call in flight.
func (s *Syncer) Loading() bool {
	return s.loading.Load() > 0
}

// RefreshCart replaces the local snapshot with the server's cart. Without an
// authenticated session it resolves to an empty snapshot without touching
// the network.
func (s *Syncer) RefreshCart(ctx context.Context) (CartSnapshot, error) {
	if !s.authenticated() {
		s.replaceCart(nil)
		return nil, nil
	}

	s.beginLoading()
	defer s.endLoading()

	res := s.gw.Get(ctx, "/cart", nil)
	if !res.OK() {
		return nil, res.Err
	}

	var items CartSnapshot
	if err := res.Decode(&items); err != nil {
		return nil, err
	}
	if err := context.Cause(ctx); err != nil {
		return nil, &gateway.Error{Kind: gateway.KindCancelled}
	}

	s.replaceCart(items)
	return append(CartSnapshot(nil), items...), nil
}

// AddToCart adds a book and refreshes the snapshot before returning, so the
// caller never observes an optimistic-but-wrong quantity.
func (s *Syncer) AddToCart(ctx context.Context, bookID string, quantity int) error {
	return s.mutateCart(ctx, func() gateway.Result {
		return s.gw.Post(ctx, "/cart/add", map[string]any{"bookId": bookID, "quantity": quantity})
	})
}

// UpdateItem changes a cart line's quantity and refreshes the snapshot.
func (s *Syncer) UpdateItem(ctx context.Context, itemID string, quantity int) error {
	return s.mutateCart(ctx, func() gateway.Result {
		return s.gw.Put(ctx, "/cart/"+itemID, map[string]any{"quantity": quantity})
	})
}

// RemoveItem removes a cart line and refreshes the snapshot.
func (s *Syncer) RemoveItem(ctx context.Context, itemID string) error {
	return s.mutateCart(ctx, func() gateway.Result {
		return s.gw.Delete(ctx, "/cart/"+itemID)
	})
}

// ClearCart empties the server cart and the local snapshot.
func (s *Syncer) ClearCart(ctx context.Context) error {
	return s.mutateCart(ctx, func() gateway.Result {
		return s.gw.Delete(ctx, "/cart/clear")
	})
}

// mutateCart runs one mutating call and, on success, refreshes the snapshot
// before resolving. Read-after-write is synchronous from the caller's view.
func (s *Syncer) mutateCart(ctx context.Context, call func() gateway.Result) error {
	if !s.authenticated() {
		return notAuthenticated()
	}

	s.beginLoading()
	defer s.endLoading()

	res := call()
	if !res.OK() {
		return res.Err
	}

	_, err := s.RefreshCart(ctx)
	return err
}

// Checkout places the order, then clears the server cart, then refreshes the
// local snapshot, strictly in that sequence. Order creation is the atomic
// boundary: once it succeeds, cleanup failures are logged and swallowed, and
// the stale cart is left for the next RefreshCart to reconcile.
func (s *Syncer) Checkout(ctx context.Context, data OrderData) (*OrderRecord, error) {
	if !s.authenticated() {
		return nil, notAuthenticated()
	}

	s.beginLoading()
	defer s.endLoading()

	res := s.gw.Post(ctx, "/orders", data)
	if !res.OK() {
		return nil, res.Err
	}

	var order OrderRecord
	if err := res.Decode(&order); err != nil || order.ID == "" {
		return nil, &gateway.Error{Kind: gateway.KindServerError, Message: "malformed order response"}
	}

	s.appendOrder(order)

	if clearRes := s.gw.Delete(ctx, "/cart/clear"); !clearRes.OK() {
		s.log.Warn("cart cleanup after checkout failed, next refresh reconciles",
			logger.OrderID(order.ID), logger.Kind(string(clearRes.Err.Kind)))
	}
	if _, err := s.RefreshCart(ctx); err != nil {
		s.log.Warn("cart refresh after checkout failed",
			logger.OrderID(order.ID), logger.Error(err))
	}

	out := order
	return &out, nil
}

// Pay submits a payment for a placed order. Local order entries are never
// patched in place: the record is replaced with a fresh server read, and if
// that read fails the stale entry stays until the next fetch reconciles it.
// The payment itself is never rolled back.
func (s *Syncer) Pay(ctx context.Context, orderID string, data PaymentData) (*PaymentReceipt, error) {
	if !s.authenticated() {
		return nil, notAuthenticated()
	}

	s.beginLoading()
	defer s.endLoading()

	res := s.gw.Post(ctx, "/payments/"+orderID, data)
	if !res.OK() {
		return nil, res.Err
	}

	var receipt PaymentReceipt
	if err := res.Decode(&receipt); err != nil {
		return nil, err
	}

	if fresh, err := s.FetchOrder(ctx, orderID); err == nil {
		s.swapOrder(*fresh)
	} else {
		s.log.Warn("order refresh after payment failed",
			logger.OrderID(orderID), logger.Error(err))
	}

	return &receipt, nil
}

// FetchOrders replaces the local order list with the server's. Resolves to
// an empty list without network when no session exists.
func (s *Syncer) FetchOrders(ctx context.Context) ([]OrderRecord, error) {
	if !s.authenticated() {
		s.replaceOrders(nil)
		return nil, nil
	}

	s.beginLoading()
	defer s.endLoading()

	res := s.gw.Get(ctx, "/orders", nil)
	if !res.OK() {
		return nil, res.Err
	}

	var orders []OrderRecord
	if err := res.Decode(&orders); err != nil {
		return nil, err
	}
	if err := context.Cause(ctx); err != nil {
		return nil, &gateway.Error{Kind: gateway.KindCancelled}
	}

	s.replaceOrders(orders)
	return append([]OrderRecord(nil), orders...), nil
}

// FetchOrder looks up a single order without touching the local list.
func (s *Syncer) FetchOrder(ctx context.Context, orderID string) (*OrderRecord, error) {
	if !s.authenticated() {
		return nil, notAuthenticated()
	}

	s.beginLoading()
	defer s.endLoading()

	res := s.gw.Get(ctx, "/orders/"+orderID, nil)
	if !res.OK() {
		return nil, res.Err
	}

	var order OrderRecord
	if err := res.Decode(&order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Syncer) authenticated() bool {
	status, _ := s.sessions.Current()
	return status == session.StatusAuthenticated
}

func notAuthenticated() *gateway.Error {
	return &gateway.Error{Kind: gateway.KindUnauthenticated, Message: "please log in first"}
}

func (s *Syncer) replaceCart(items CartSnapshot) {
	s.mu.Lock()
	s.cart = items
	s.mu.Unlock()
	s.hub.Publish(broadcast.Signal{})
}

func (s *Syncer) replaceOrders(orders []OrderRecord) {
	s.mu.Lock()
	s.orders = orders
	s.mu.Unlock()
	s.hub.Publish(broadcast.Signal{})
}

func (s *Syncer) appendOrder(order OrderRecord) {
	s.mu.Lock()
	s.orders = append(s.orders, order)
	s.mu.Unlock()
	s.hub.Publish(broadcast.Signal{})
}

// swapOrder replaces the matching entry with a freshly fetched record.
func (s *Syncer) swapOrder(order OrderRecord) {
	s.mu.Lock()
	for i := range s.orders {
		if s.orders[i].ID == order.ID {
			s.orders[i] = order
		}
	}
	s.mu.Unlock()
	s.hub.Publish(broadcast.Signal{})
}

func (s *Syncer) beginLoading() { s.loading.Add(1) }
func (s *Syncer) endLoading()   { s.loading.Add(-1) }
