package backendtest

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid body")
		return
	}

	fields := make(map[string]string)
	if body.Email == "" {
		fields["email"] = "email is required"
	}
	if len(body.Password) < 6 {
		fields["password"] = "password must be at least 6 characters"
	}
	if len(fields) > 0 {
		writeFieldErr(w, "validation failed", fields)
		return
	}

	s.mu.Lock()
	if _, exists := s.accounts[body.Email]; exists {
		s.mu.Unlock()
		writeFieldErr(w, "validation failed", map[string]string{"email": "email already registered"})
		return
	}
	u := User{ID: uuid.NewString(), Email: body.Email, Name: body.Name, Role: "user"}
	s.accounts[body.Email] = &account{user: u, password: body.Password}

	resp := map[string]any{"user": u}
	if s.RegisterReturnsToken {
		tok := s.nextToken()
		s.tokens[tok] = body.Email
		resp["token"] = tok
	}
	s.mu.Unlock()

	writeData(w, http.StatusCreated, resp)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid body")
		return
	}

	s.mu.Lock()
	acc, ok := s.accounts[body.Email]
	if !ok || acc.password != body.Password {
		s.mu.Unlock()
		writeErr(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	tok := s.nextToken()
	s.tokens[tok] = body.Email
	u := acc.user
	s.mu.Unlock()

	writeData(w, http.StatusOK, map[string]any{"token": tok, "user": u})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	email, ok := s.authed(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	u := s.accounts[email].user
	s.mu.Unlock()

	writeData(w, http.StatusOK, u)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	email, ok := s.authed(w, r)
	if !ok {
		return
	}

	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid body")
		return
	}
	if body.Name == "" {
		writeFieldErr(w, "validation failed", map[string]string{"name": "name is required"})
		return
	}

	s.mu.Lock()
	acc := s.accounts[email]
	acc.user.Name = body.Name
	u := acc.user
	s.mu.Unlock()

	writeData(w, http.StatusOK, u)
}

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	books := append([]Book(nil), s.books...)
	s.mu.Unlock()
	writeData(w, http.StatusOK, books)
}

func (s *Server) handleSearchBooks(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(r.URL.Query().Get("q"))

	s.mu.Lock()
	var hits []Book
	for _, b := range s.books {
		if strings.Contains(strings.ToLower(b.Title), q) || strings.Contains(strings.ToLower(b.Author), q) {
			hits = append(hits, b)
		}
	}
	s.mu.Unlock()

	writeData(w, http.StatusOK, hits)
}

func (s *Server) handleFeaturedBooks(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	var hits []Book
	for _, b := range s.books {
		if b.Featured {
			hits = append(hits, b)
		}
	}
	s.mu.Unlock()

	writeData(w, http.StatusOK, hits)
}

func (s *Server) handleBooksByCategory(w http.ResponseWriter, r *http.Request) {
	catID := chi.URLParam(r, "categoryID")

	s.mu.Lock()
	var hits []Book
	for _, b := range s.books {
		if b.CategoryID == catID {
			hits = append(hits, b)
		}
	}
	s.mu.Unlock()

	writeData(w, http.StatusOK, hits)
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "bookID")

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.books {
		if b.ID == bookID {
			writeData(w, http.StatusOK, b)
			return
		}
	}
	writeErr(w, http.StatusNotFound, "book not found")
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	cats := append([]Category(nil), s.cats...)
	s.mu.Unlock()
	writeData(w, http.StatusOK, cats)
}

func (s *Server) handleCategorySummary(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	summary := make([]map[string]any, 0, len(s.cats))
	for _, c := range s.cats {
		n := 0
		for _, b := range s.books {
			if b.CategoryID == c.ID {
				n++
			}
		}
		summary = append(summary, map[string]any{"id": c.ID, "name": c.Name, "bookCount": n})
	}
	s.mu.Unlock()

	writeData(w, http.StatusOK, summary)
}

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	email, ok := s.authed(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	items := append([]CartItem(nil), s.carts[email]...)
	s.mu.Unlock()

	writeData(w, http.StatusOK, items)
}

func (s *Server) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	email, ok := s.authed(w, r)
	if !ok {
		return
	}

	var body struct {
		BookID   string `json:"bookId"`
		Quantity int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid body")
		return
	}
	if body.Quantity < 1 {
		writeFieldErr(w, "validation failed", map[string]string{"quantity": "quantity must be positive"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var book *Book
	for i := range s.books {
		if s.books[i].ID == body.BookID {
			book = &s.books[i]
			break
		}
	}
	if book == nil {
		writeErr(w, http.StatusNotFound, "book not found")
		return
	}

	items := s.carts[email]
	merged := false
	for i := range items {
		if items[i].BookID == body.BookID {
			items[i].Quantity += body.Quantity
			merged = true
			break
		}
	}
	if !merged {
		items = append(items, CartItem{
			ID:        uuid.NewString(),
			BookID:    book.ID,
			Quantity:  body.Quantity,
			UnitPrice: book.Price,
		})
	}
	s.carts[email] = items

	writeData(w, http.StatusOK, items)
}

func (s *Server) handleUpdateCartItem(w http.ResponseWriter, r *http.Request) {
	email, ok := s.authed(w, r)
	if !ok {
		return
	}
	itemID := chi.URLParam(r, "itemID")

	var body struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid body")
		return
	}
	if body.Quantity < 1 {
		writeFieldErr(w, "validation failed", map[string]string{"quantity": "quantity must be positive"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.carts[email]
	for i := range items {
		if items[i].ID == itemID {
			items[i].Quantity = body.Quantity
			writeData(w, http.StatusOK, items)
			return
		}
	}
	writeErr(w, http.StatusNotFound, "cart item not found")
}

func (s *Server) handleRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	email, ok := s.authed(w, r)
	if !ok {
		return
	}
	itemID := chi.URLParam(r, "itemID")

	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.carts[email]
	for i := range items {
		if items[i].ID == itemID {
			s.carts[email] = append(items[:i:i], items[i+1:]...)
			writeData(w, http.StatusOK, s.carts[email])
			return
		}
	}
	writeErr(w, http.StatusNotFound, "cart item not found")
}

func (s *Server) handleClearCart(w http.ResponseWriter, r *http.Request) {
	email, ok := s.authed(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	delete(s.carts, email)
	s.mu.Unlock()

	writeData(w, http.StatusOK, []CartItem{})
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	email, ok := s.authed(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.carts[email]
	if len(items) == 0 {
		writeErr(w, http.StatusOK, "cart is empty") // domain failure in a 2xx body
		return
	}

	total := 0.0
	for _, it := range items {
		total += it.UnitPrice * float64(it.Quantity)
	}
	order := Order{
		ID:     uuid.NewString(),
		Items:  append([]CartItem(nil), items...),
		Total:  total,
		Status: "placed",
	}
	s.orders[email] = append(s.orders[email], order)

	writeData(w, http.StatusCreated, order)
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	email, ok := s.authed(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	orders := append([]Order(nil), s.orders[email]...)
	s.mu.Unlock()

	writeData(w, http.StatusOK, orders)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	email, ok := s.authed(w, r)
	if !ok {
		return
	}
	orderID := chi.URLParam(r, "orderID")

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders[email] {
		if o.ID == orderID {
			writeData(w, http.StatusOK, o)
			return
		}
	}
	writeErr(w, http.StatusNotFound, "order not found")
}

func (s *Server) handlePayment(w http.ResponseWriter, r *http.Request) {
	email, ok := s.authed(w, r)
	if !ok {
		return
	}
	orderID := chi.URLParam(r, "orderID")

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, o := range s.orders[email] {
		if o.ID == orderID {
			s.orders[email][i].Status = "paid"
			s.payments[orderID] = true
			writeData(w, http.StatusOK, map[string]any{"orderId": orderID, "status": "paid"})
			return
		}
	}
	writeErr(w, http.StatusNotFound, "order not found")
}
