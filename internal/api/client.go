package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"homelink/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenExpired is returned before issuing a request when the stored
	// bearer token has passed its exp claim.
	ErrTokenExpired = errors.New("api: token expired")
	// ErrUnauthorized is returned on a 401 from the hub
	ErrUnauthorized = errors.New("api: unauthorized")
)

// StatusError is a non-2xx hub response
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api: unexpected status %d: %s", e.Status, e.Body)
}

// Client talks to the hub's REST API
type Client struct {
	base string
	http *http.Client

	mu    sync.RWMutex
	token string
}

// NewClient creates a hub API client for the given base URL, e.g.
// "http://hub.local:5069/api"
func NewClient(base string, timeout time.Duration) *Client {
	return &Client{
		base: base,
		http: &http.Client{Timeout: timeout},
	}
}

// SetToken installs a bearer token obtained out of band
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Login authenticates against the hub and stores the returned token
func (c *Client) Login(ctx context.Context, username, password string) error {
	var resp struct {
		Token string `json:"token"`
	}
	err := c.do(ctx, http.MethodPost, "/auth/login",
		models.LoginRequest{Username: username, Password: password},
		http.StatusOK, &resp)
	if err != nil {
		return err
	}
	c.SetToken(resp.Token)
	return nil
}

// currentToken returns the stored token, or ErrTokenExpired when its exp
// claim has passed. The client cannot verify the signature (it has no secret),
// so the claims are read unverified just to detect expiry locally.
func (c *Client) currentToken() (string, error) {
	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token == "" {
		return "", nil
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		// Not a JWT; send it as-is and let the hub decide
		return token, nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return token, nil
	}
	if time.Now().After(exp.Time) {
		return "", ErrTokenExpired
	}
	return token, nil
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, want int, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("api: encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("api: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	token, err := c.currentToken()
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode != want {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		log.Printf("API: %s %s returned %d", method, path, resp.StatusCode)
		return &StatusError{Status: resp.StatusCode, Body: string(raw)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("api: decode response: %w", err)
		}
	}
	return nil
}
