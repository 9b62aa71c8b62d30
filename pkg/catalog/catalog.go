package catalog

import (
	"context"
	"net/url"
	"strconv"

	"github.com/sebrinamusbah/bookstore-client/pkg/gateway"
)

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

// CategorySummary is a category with its book count, as served by the
// summary endpoint.
type CategorySummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	BookCount int    `json:"bookCount"`
}

// ListParams narrows a book listing. Zero values are omitted from the query.
type ListParams struct {
	Page  int
	Limit int
}

func (p ListParams) encode() url.Values {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if len(q) == 0 {
		return nil
	}
	return q
}

// Client reads the public catalog through the gateway. All endpoints are
// anonymous reads; the gateway still attaches a token when one is stored,
// which the backend ignores here.
type Client struct {
	gw *gateway.Client
}

// New returns a catalog client on top of the given gateway.
func New(gw *gateway.Client) *Client {
	return &Client{gw: gw}
}

// Books lists the catalog.
func (c *Client) Books(ctx context.Context, params ListParams) ([]Book, error) {
	return decodeBooks(c.gw.Get(ctx, "/books", params.encode()))
}

// Book fetches a single entry by ID.
func (c *Client) Book(ctx context.Context, id string) (*Book, error) {
	res := c.gw.Get(ctx, "/books/"+url.PathEscape(id), nil)
	var b Book
	if err := res.Decode(&b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Search matches the query against titles and authors.
func (c *Client) Search(ctx context.Context, query string) ([]Book, error) {
	q := url.Values{"q": {query}}
	return decodeBooks(c.gw.Get(ctx, "/books/search", q))
}

// Featured lists the books flagged for the storefront landing page.
func (c *Client) Featured(ctx context.Context) ([]Book, error) {
	return decodeBooks(c.gw.Get(ctx, "/books/featured", nil))
}

// ByCategory lists the books in one category.
func (c *Client) ByCategory(ctx context.Context, categoryID string) ([]Book, error) {
	return decodeBooks(c.gw.Get(ctx, "/books/category/"+url.PathEscape(categoryID), nil))
}

// Categories lists all catalog groupings.
func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	res := c.gw.Get(ctx, "/categories", nil)
	var cats []Category
	if err := res.Decode(&cats); err != nil {
		return nil, err
	}
	return cats, nil
}

// Summary lists categories with their book counts.
func (c *Client) Summary(ctx context.Context) ([]CategorySummary, error) {
	res := c.gw.Get(ctx, "/categories/summary", nil)
	var sums []CategorySummary
	if err := res.Decode(&sums); err != nil {
		return nil, err
	}
	return sums, nil
}

func decodeBooks(res gateway.Result) ([]Book, error) {
	var books []Book
	if err := res.Decode(&books); err != nil {
		return nil, err
	}
	return books, nil
}
