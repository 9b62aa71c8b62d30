// Package backendtest runs an in-process storefront backend for tests. It
// implements the REST surface the SDK consumes with a small in-memory world
// (users, books, carts, orders) plus hooks to script failures, count calls,
// and hold responses open for cancellation tests.
package backendtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// User is a registered account.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// Book is a catalog entry.
type Book struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Author     string  `json:"author"`
	Price      float64 `json:"price"`
	CategoryID string  `json:"categoryId"`
	Featured   bool    `json:"featured"`
}

// Category is a catalog grouping.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CartItem is one line of a cart.
type CartItem struct {
	ID        string  `json:"id"`
	BookID    string  `json:"bookId"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

// Order is a placed order.
type Order struct {
	ID     string     `json:"id"`
	Items  []CartItem `json:"items"`
	Total  float64    `json:"total"`
	Status string     `json:"status"`
}

type account struct {
	user     User
	password string
}

// Server is the in-process backend. Create with New, stop with Close.
type Server struct {
	*httptest.Server

	// RegisterReturnsToken controls whether POST /auth/register issues a
	// token directly (true) or forces the client into an implicit login.
	RegisterReturnsToken bool

	mu        sync.Mutex
	accounts  map[string]*account // by email
	tokens    map[string]string   // token -> email
	books     []Book
	cats      []Category
	carts     map[string][]CartItem // email -> items
	orders    map[string][]Order    // email -> orders
	payments  map[string]bool       // orderID -> paid
	counts    map[string]int
	failures  map[string]*scriptedFailure
	holds     map[string]chan struct{}
	nextToken func() string
}

type scriptedFailure struct {
	status    int
	body      string
	remaining int // <0 means always
}

// New starts a backend seeded with a default catalog.
func New() *Server {
	s := &Server{
		RegisterReturnsToken: true,
		accounts:             make(map[string]*account),
		tokens:               make(map[string]string),
		carts:                make(map[string][]CartItem),
		orders:               make(map[string][]Order),
		payments:             make(map[string]bool),
		counts:               make(map[string]int),
		failures:             make(map[string]*scriptedFailure),
		holds:                make(map[string]chan struct{}),
		nextToken:            func() string { return "tok-" + uuid.NewString() },
		books: []Book{
			{ID: "1", Title: "The Go Programming Language", Author: "Donovan & Kernighan", Price: 39.99, CategoryID: "10", Featured: true},
			{ID: "2", Title: "Designing Data-Intensive Applications", Author: "Kleppmann", Price: 44.5, CategoryID: "10"},
			{ID: "42", Title: "A Pattern Language", Author: "Alexander", Price: 9.99, CategoryID: "11", Featured: true},
		},
		cats: []Category{
			{ID: "10", Name: "Engineering"},
			{ID: "11", Name: "Architecture"},
		},
	}

	r := chi.NewRouter()
	s.routes(r)
	s.Server = httptest.NewServer(r)
	return s
}

func (s *Server) routes(r chi.Router) {
	s.handle(r, http.MethodPost, "/auth/register", s.handleRegister)
	s.handle(r, http.MethodPost, "/auth/login", s.handleLogin)
	s.handle(r, http.MethodGet, "/auth/profile", s.handleGetProfile)
	s.handle(r, http.MethodPut, "/auth/profile", s.handleUpdateProfile)

	s.handle(r, http.MethodGet, "/books", s.handleListBooks)
	s.handle(r, http.MethodGet, "/books/search", s.handleSearchBooks)
	s.handle(r, http.MethodGet, "/books/featured", s.handleFeaturedBooks)
	s.handle(r, http.MethodGet, "/books/category/{categoryID}", s.handleBooksByCategory)
	s.handle(r, http.MethodGet, "/books/{bookID}", s.handleGetBook)

	s.handle(r, http.MethodGet, "/categories", s.handleListCategories)
	s.handle(r, http.MethodGet, "/categories/summary", s.handleCategorySummary)

	s.handle(r, http.MethodGet, "/cart", s.handleGetCart)
	s.handle(r, http.MethodPost, "/cart/add", s.handleAddToCart)
	s.handle(r, http.MethodDelete, "/cart/clear", s.handleClearCart)
	s.handle(r, http.MethodPut, "/cart/{itemID}", s.handleUpdateCartItem)
	s.handle(r, http.MethodDelete, "/cart/{itemID}", s.handleRemoveCartItem)

	s.handle(r, http.MethodPost, "/orders", s.handleCreateOrder)
	s.handle(r, http.MethodGet, "/orders", s.handleListOrders)
	s.handle(r, http.MethodGet, "/orders/{orderID}", s.handleGetOrder)

	s.handle(r, http.MethodPost, "/payments/{orderID}", s.handlePayment)
}

// handle wraps a route with call counting, scripted failures, and holds.
// Route keys look like "POST /cart/add".
func (s *Server) handle(r chi.Router, method, pattern string, h http.HandlerFunc) {
	key := method + " " + pattern
	r.Method(method, pattern, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		s.mu.Lock()
		s.counts[key]++
		hold := s.holds[key]
		fail := s.failures[key]
		if fail != nil {
			if fail.remaining == 0 {
				delete(s.failures, key)
				fail = nil
			} else if fail.remaining > 0 {
				fail.remaining--
				if fail.remaining == 0 {
					delete(s.failures, key)
				}
			}
		}
		s.mu.Unlock()

		if hold != nil {
			select {
			case <-hold:
			case <-req.Context().Done():
				return
			}
		}

		if fail != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(fail.status)
			_, _ = w.Write([]byte(fail.body))
			return
		}

		h(w, req)
	}))
}

// Calls reports how many times the route was hit, e.g. Calls("GET /auth/profile").
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[route]
}

// FailNext scripts the next n calls to route to return status with the raw
// JSON body.
func (s *Server) FailNext(route string, n, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = &scriptedFailure{status: status, body: body, remaining: n}
}

// FailAlways scripts every call to route to return status with body until
// Restore is called.
func (s *Server) FailAlways(route string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = &scriptedFailure{status: status, body: body, remaining: -1}
}

// Restore clears a scripted failure.
func (s *Server) Restore(route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, route)
}

// Hold blocks responses on route until the returned release func is called.
// Requests whose context is cancelled while held return nothing.
func (s *Server) Hold(route string) (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.holds[route] = ch
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(ch)
			s.mu.Lock()
			delete(s.holds, route)
			s.mu.Unlock()
		})
	}
}

// Seed registers an account directly, bypassing the register endpoint.
func (s *Server) Seed(email, password, name, role string) User {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := User{ID: uuid.NewString(), Email: email, Name: name, Role: role}
	s.accounts[email] = &account{user: u, password: password}
	return u
}

// IssueToken mints a valid token for an already seeded account.
func (s *Server) IssueToken(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok := s.nextToken()
	s.tokens[tok] = email
	return tok
}

// RevokeAll invalidates every issued token, so subsequent authenticated
// calls come back 401.
func (s *Server) RevokeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.tokens)
}

// Orders returns the orders placed by the given account.
func (s *Server) Orders(email string) []Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Order(nil), s.orders[email]...)
}

// Paid reports whether a payment was submitted for the order.
func (s *Server) Paid(orderID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.payments[orderID]
}

func writeData(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"data": v})
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": msg})
}

func writeFieldErr(w http.ResponseWriter, msg string, fields map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnprocessableEntity)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": msg, "errors": fields})
}

// authed resolves the bearer token to an account email. Writes a 401 and
// returns false when the token is missing or revoked.
func (s *Server) authed(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if raw == "" {
		writeErr(w, http.StatusUnauthorized, "missing token")
		return "", false
	}

	s.mu.Lock()
	email, ok := s.tokens[raw]
	s.mu.Unlock()
	if !ok {
		writeErr(w, http.StatusUnauthorized, "invalid token")
		return "", false
	}
	return email, true
}
