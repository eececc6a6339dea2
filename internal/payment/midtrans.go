// Package payment talks to the Midtrans Snap hosted checkout.
package payment

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"promptionary/internal/utils"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/shopspring/decimal"
)

const (
	SandboxBaseURL    = "https://app.sandbox.midtrans.com"
	ProductionBaseURL = "https://app.midtrans.com"
)

// ErrNotConfigured is returned when no server key is set
var ErrNotConfigured = errors.New("payment: gateway server key is not configured")

// CheckoutRequest describes one hosted checkout session
type CheckoutRequest struct {
	OrderID string
	Amount  decimal.Decimal
	Email   string
}

// Checkout is the gateway's answer to a checkout request
type Checkout struct {
	Token       string
	RedirectURL string
	ClientKey   string
}

// Gateway creates hosted checkout sessions
type Gateway interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error)
}

// FallbackRedirectURL is the deterministic link handed out when the gateway is unreachable
func FallbackRedirectURL(orderID string) string {
	return SandboxBaseURL + "/snap/v2/vtweb/" + orderID
}

// snapAPI is the part of the midtrans-go Snap client used here
type snapAPI interface {
	CreateTransaction(req *snap.Request) (*snap.Response, *midtrans.Error)
}

// Snap creates checkouts through the midtrans-go Snap client with bounded retry
type Snap struct {
	api       snapAPI
	env       midtrans.EnvironmentType
	serverKey string
	clientKey string
	attempts  int
	backoff   time.Duration
}

// Option customizes a Snap client
type Option func(*Snap)

// WithRetry sets the attempt cap and the first backoff delay
func WithRetry(attempts int, base time.Duration) Option {
	return func(s *Snap) {
		s.attempts = attempts
		s.backoff = base
	}
}

// NewSnap builds a Snap client for sandbox or production
func NewSnap(serverKey, clientKey string, production bool, opts ...Option) *Snap {
	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}
	var client snap.Client
	client.New(serverKey, env)

	s := &Snap{
		api:       &client,
		env:       env,
		serverKey: serverKey,
		clientKey: clientKey,
		attempts:  3,
		backoff:   500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateCheckout requests a Snap token and redirect URL for the order
func (s *Snap) CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	if s.serverKey == "" {
		return nil, ErrNotConfigured
	}
	snapReq := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  req.OrderID,
			GrossAmt: req.Amount.IntPart(), // IDR has no minor unit
		},
	}
	if req.Email != "" {
		snapReq.CustomerDetail = &midtrans.CustomerDetails{Email: req.Email}
	}

	var out *Checkout
	err := utils.Retry(ctx, s.attempts, s.backoff, func(ctx context.Context) error {
		resp, mErr := s.api.CreateTransaction(snapReq)
		if mErr != nil {
			err := fmt.Errorf("payment: snap status %d: %s", mErr.GetStatusCode(), mErr.GetMessage())
			if code := mErr.GetStatusCode(); code == 0 || utils.RetryableStatus(code) {
				return utils.Retryable(err) // Transport failure or gateway overload
			}
			return err
		}
		if resp == nil || resp.RedirectURL == "" {
			return errors.New("payment: response carried no redirect_url")
		}
		out = &Checkout{Token: resp.Token, RedirectURL: resp.RedirectURL, ClientKey: s.clientKey}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Notification is the body of the gateway's asynchronous status callback
type Notification struct {
	OrderID           string `json:"order_id"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	PaymentType       string `json:"payment_type"`
	TransactionID     string `json:"transaction_id"`
}

// SignatureKey computes sha512(order_id + status_code + gross_amount + server_key) in hex
func SignatureKey(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

// VerifySignature checks the notification against the server key
func VerifySignature(n Notification, serverKey string) bool {
	if serverKey == "" || n.SignatureKey == "" {
		return false
	}
	want := SignatureKey(n.OrderID, n.StatusCode, n.GrossAmount, serverKey)
	return subtle.ConstantTimeCompare([]byte(want), []byte(strings.ToLower(n.SignatureKey))) == 1
}
