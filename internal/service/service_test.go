package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"promptionary/internal/domain"
	"promptionary/internal/oauth"
	"promptionary/internal/payment"
	"promptionary/internal/store"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func init() {
	logrus.SetLevel(logrus.PanicLevel)
}

// fakeTranslator prefixes the input, or fails with err when set
type fakeTranslator struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (f *fakeTranslator) Translate(_ context.Context, text string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "en:" + text, nil
}

func (f *fakeTranslator) Source() string { return "fake-model" }

// fakeGateway records checkout requests, during runs while the gateway call is in flight
type fakeGateway struct {
	err    error
	reqs   []payment.CheckoutRequest
	during func(req payment.CheckoutRequest)
}

func (f *fakeGateway) CreateCheckout(_ context.Context, req payment.CheckoutRequest) (*payment.Checkout, error) {
	f.reqs = append(f.reqs, req)
	if f.during != nil {
		f.during(req)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &payment.Checkout{Token: "tok", RedirectURL: "https://pay.example/" + req.OrderID, ClientKey: "SB-client-key"}, nil
}

type fakeVerifier struct {
	profile *oauth.Profile
	err     error
}

func (f *fakeVerifier) Verify(context.Context, string) (*oauth.Profile, error) {
	return f.profile, f.err
}

// mapCache is an in-process utils.Cache that JSON-encodes like the Redis one
type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMapCache() *mapCache {
	return &mapCache{data: map[string][]byte{}}
}

func (c *mapCache) Get(_ context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dest)
}

func (c *mapCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = b
	return nil
}

func (c *mapCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *mapCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

var errBoom = errors.New("boom")

// register creates an account with its general category through the real workflow
func register(t *testing.T, st store.Store, username string) *domain.Account {
	t.Helper()
	svc := NewAccountService(st, &fakeVerifier{}, testSecret, time.Hour)
	account, err := svc.Register(context.Background(), RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	return account
}
