package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sebrinamusbah/bookstore-client/pkg/credstore"
	"github.com/sebrinamusbah/bookstore-client/pkg/logger"
)

// Client dispatches calls to the backend. Safe for concurrent use.
type Client struct {
	cfg   Config
	http  *http.Client
	store credstore.Store
	log   *slog.Logger

	// The unauth gate arms when a token is attached to a request and fires
	// at most once per armed token, so several in-flight calls failing 401
	// together clear credentials and redirect a single time.
	gateMu            sync.Mutex
	gateToken         string
	gateArmed         bool
	onUnauthenticated func()
}

// SetUnauthenticatedHook registers the callback fired after a 401 clears the
// credential store. The session manager installs itself here; a hook given
// via WithUnauthenticatedHook is replaced.
func (c *Client) SetUnauthenticatedHook(fn func()) {
	c.gateMu.Lock()
	defer c.gateMu.Unlock()
	c.onUnauthenticated = fn
}

// New creates a gateway client over the given credential store.
func New(cfg Config, store credstore.Store, opts ...Option) *Client {
	c := &Client{
		cfg:   cfg,
		store: store,
		log:   logger.Discard(),
		http: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do dispatches one request and returns its normalized outcome. Cancelling
// ctx yields a Cancelled result; the deadline configured for the call class
// yields NetworkError.
func (c *Client) Do(ctx context.Context, req Request) Result {
	timeout := c.cfg.Timeout
	if req.Upload {
		timeout = c.cfg.UploadTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, token, err := c.prepare(callCtx, req)
	if err != nil {
		// a failure building the request (bad body, credential store read)
		// never left the process, so it must not read as a connectivity issue
		c.log.Error("request preparation failed", logger.Method(req.Method), logger.Path(req.Path), logger.Error(err))
		return failure(&Error{Kind: KindServerError, Message: "internal client error"})
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		gerr := classifyTransport(ctx, err)
		if gerr.Kind == KindCancelled {
			c.log.Debug("request cancelled", logger.Method(req.Method), logger.Path(req.Path))
		} else {
			c.log.Warn("request failed in transport",
				logger.Method(req.Method), logger.Path(req.Path),
				logger.Kind(string(gerr.Kind)), logger.Error(err))
		}
		return failure(gerr)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return failure(classifyTransport(ctx, err))
	}

	res := classifyResponse(resp.StatusCode, body)
	if res.Err != nil && res.Err.Kind == KindUnauthenticated && !req.SkipAuth {
		c.handleUnauthenticated(token)
	}

	if res.Err != nil {
		c.log.Warn("request failed",
			logger.Method(req.Method), logger.Path(req.Path),
			logger.Status(resp.StatusCode), logger.Kind(string(res.Err.Kind)),
			logger.Duration(time.Since(start)))
	} else {
		c.log.Debug("request completed",
			logger.Method(req.Method), logger.Path(req.Path),
			logger.Status(resp.StatusCode), logger.Duration(time.Since(start)))
	}
	return res
}

// prepare is the pure request-building stage: URL, query, JSON body, and the
// bearer header read from the credential store unless SkipAuth. It returns
// the token it attached so the 401 gate can be keyed to it.
func (c *Client) prepare(ctx context.Context, req Request) (*http.Request, string, error) {
	u := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/" + strings.TrimPrefix(req.Path, "/")
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}
	if _, err := url.Parse(u); err != nil {
		return nil, "", err
	}

	var bodyReader io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, "", err
		}
		bodyReader = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u, bodyReader)
	if err != nil {
		return nil, "", err
	}
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")

	var token string
	if !req.SkipAuth {
		tok, err := c.store.Get(ctx, credstore.KeyToken)
		if err == nil && tok != "" {
			token = tok
			httpReq.Header.Set("Authorization", "Bearer "+token)
			c.armGate(token)
		} else if err != nil && !errors.Is(err, credstore.ErrNotFound) {
			return nil, "", err
		}
	}

	return httpReq, token, nil
}

func (c *Client) armGate(token string) {
	c.gateMu.Lock()
	defer c.gateMu.Unlock()

	if token != c.gateToken {
		c.gateToken = token
		c.gateArmed = true
	}
}

// handleUnauthenticated clears stored credentials and fires the hook, once
// per armed token.
func (c *Client) handleUnauthenticated(token string) {
	c.gateMu.Lock()
	fire := c.gateArmed && token == c.gateToken
	if fire {
		c.gateArmed = false
	}
	hook := c.onUnauthenticated
	c.gateMu.Unlock()

	if !fire {
		return
	}

	// Clearing happens on a background context: the triggering call may
	// already be cancelled, and credentials must be cleared regardless.
	clearCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := credstore.ClearCredentials(clearCtx, c.store); err != nil {
		c.log.Error("failed to clear credentials after 401", logger.Error(err))
	}

	c.log.Info("session rejected by server, credentials cleared")

	// Forget the rejected token once the store is cleared. The next token a
	// login writes re-arms the gate even if the server reissues the same
	// string; the guard keeps a concurrently armed newer token intact.
	c.gateMu.Lock()
	if c.gateToken == token {
		c.gateToken = ""
	}
	c.gateMu.Unlock()

	if hook != nil {
		hook()
	}
}

// Get dispatches a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) Result {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post dispatches a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) Result {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put dispatches a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) Result {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body})
}

// Delete dispatches a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) Result {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path})
}
