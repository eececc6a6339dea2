package payment

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSnap answers with the queued responses in order and records every request
type fakeSnap struct {
	reqs    []*snap.Request
	replies []func() (*snap.Response, *midtrans.Error)
}

func (f *fakeSnap) CreateTransaction(req *snap.Request) (*snap.Response, *midtrans.Error) {
	f.reqs = append(f.reqs, req)
	reply := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return reply()
}

func snapOK(token, url string) func() (*snap.Response, *midtrans.Error) {
	return func() (*snap.Response, *midtrans.Error) {
		return &snap.Response{Token: token, RedirectURL: url}, nil
	}
}

func snapFail(status int) func() (*snap.Response, *midtrans.Error) {
	return func() (*snap.Response, *midtrans.Error) {
		return nil, &midtrans.Error{Message: "snap failed", StatusCode: status}
	}
}

func newTestSnap(fake *fakeSnap) *Snap {
	s := NewSnap("server-key", "client-key", false, WithRetry(3, time.Millisecond))
	s.api = fake
	return s
}

func TestSnap_CreateCheckout(t *testing.T) {
	fake := &fakeSnap{replies: []func() (*snap.Response, *midtrans.Error){snapOK("tok", "https://pay.example/tok")}}

	out, err := newTestSnap(fake).CreateCheckout(context.Background(), CheckoutRequest{
		OrderID: "ORDER-1-2", Amount: decimal.NewFromInt(50000), Email: "a@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "tok", out.Token)
	assert.Equal(t, "https://pay.example/tok", out.RedirectURL)
	assert.Equal(t, "client-key", out.ClientKey)

	require.Len(t, fake.reqs, 1)
	assert.Equal(t, "ORDER-1-2", fake.reqs[0].TransactionDetails.OrderID)
	assert.Equal(t, int64(50000), fake.reqs[0].TransactionDetails.GrossAmt)
	require.NotNil(t, fake.reqs[0].CustomerDetail)
	assert.Equal(t, "a@example.com", fake.reqs[0].CustomerDetail.Email)
}

func TestSnap_CreateCheckout_RetriesTransientFailures(t *testing.T) {
	fake := &fakeSnap{replies: []func() (*snap.Response, *midtrans.Error){
		snapFail(http.StatusServiceUnavailable),
		snapFail(0),
		snapOK("tok", "https://pay.example/tok"),
	}}

	out, err := newTestSnap(fake).CreateCheckout(context.Background(), CheckoutRequest{OrderID: "o", Amount: decimal.NewFromInt(1)})
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/tok", out.RedirectURL)
	assert.Len(t, fake.reqs, 3)
}

func TestSnap_CreateCheckout_ErrorsAreBounded(t *testing.T) {
	fake := &fakeSnap{replies: []func() (*snap.Response, *midtrans.Error){snapFail(http.StatusInternalServerError)}}

	_, err := newTestSnap(fake).CreateCheckout(context.Background(), CheckoutRequest{OrderID: "o", Amount: decimal.NewFromInt(1)})
	require.Error(t, err)
	assert.Len(t, fake.reqs, 3)
}

func TestSnap_CreateCheckout_ClientErrorIsNotRetried(t *testing.T) {
	fake := &fakeSnap{replies: []func() (*snap.Response, *midtrans.Error){snapFail(http.StatusUnauthorized)}}

	_, err := newTestSnap(fake).CreateCheckout(context.Background(), CheckoutRequest{OrderID: "o", Amount: decimal.NewFromInt(1)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Len(t, fake.reqs, 1)
}

func TestSnap_RequiresServerKey(t *testing.T) {
	_, err := NewSnap("", "client-key", false).CreateCheckout(context.Background(), CheckoutRequest{OrderID: "o"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestNewSnap_Environment(t *testing.T) {
	assert.Equal(t, midtrans.Sandbox, NewSnap("k", "c", false).env)
	assert.Equal(t, midtrans.Production, NewSnap("k", "c", true).env)
}

func TestFallbackRedirectURL(t *testing.T) {
	assert.Equal(t, "https://app.sandbox.midtrans.com/snap/v2/vtweb/ORDER-9-1", FallbackRedirectURL("ORDER-9-1"))
}

func TestVerifySignature(t *testing.T) {
	n := Notification{OrderID: "ORDER-1-2", StatusCode: "200", GrossAmount: "50000.00"}
	n.SignatureKey = SignatureKey(n.OrderID, n.StatusCode, n.GrossAmount, "server-key")

	assert.Len(t, n.SignatureKey, 128)
	assert.True(t, VerifySignature(n, "server-key"))
	assert.False(t, VerifySignature(n, "other-key"))
	assert.False(t, VerifySignature(n, ""))

	n.GrossAmount = "1.00"
	assert.False(t, VerifySignature(n, "server-key"))
}
