package amadeus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/wleydkb/TravelProjectBackEnd/internal/domain"
)

const tokenPath = "/v1/security/oauth2/token"

// TokenSource caches the provider bearer token process-wide. Concurrent cache
// misses coalesce into one client-credentials exchange via singleflight.
type TokenSource struct {
	base         string
	clientID     string
	clientSecret string
	hc           *http.Client

	sf singleflight.Group

	mu     sync.RWMutex
	token  string
	expiry time.Time

	now func() time.Time
}

func NewTokenSource(base, clientID, clientSecret string) (*TokenSource, error) {
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("client credentials are required")
	}
	return &TokenSource{
		base:         strings.TrimRight(base, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		hc:           &http.Client{Timeout: 20 * time.Second},
		now:          time.Now,
	}, nil
}

func (t *TokenSource) GetToken(ctx context.Context) (string, error) {
	if tok, ok := t.cached(); ok {
		return tok, nil
	}
	v, err, _ := t.sf.Do("token", func() (any, error) {
		// another waiter may have refreshed while we queued
		if tok, ok := t.cached(); ok {
			return tok, nil
		}
		return t.exchange(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (t *TokenSource) cached() (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.token != "" && t.now().Before(t.expiry) {
		return t.token, true
	}
	return "", false
}

type tokenResponse struct {
	TokenType   string `json:"token_type"`
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope"`
}

func (t *TokenSource) exchange(ctx context.Context) (string, error) {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {t.clientID},
		"client_secret": {t.clientSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.base+tokenPath,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := t.hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %v", domain.ErrAuth, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("%w: status %d: %s", domain.ErrAuth, resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var payload tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrAuth, err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("%w: response carried no access token", domain.ErrAuth)
	}

	// safety margin so we never present a token about to lapse mid-call
	ttl := payload.ExpiresIn - 60
	if ttl < 60 {
		ttl = 60
	}

	t.mu.Lock()
	t.token = payload.AccessToken
	t.expiry = t.now().Add(time.Duration(ttl) * time.Second)
	t.mu.Unlock()

	return payload.AccessToken, nil
}
