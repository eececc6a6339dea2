package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"promptionary/internal/domain"
	"promptionary/internal/metrics"
	"promptionary/internal/payment"
	"promptionary/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// PaymentService runs the premium upgrade: checkout, notification reconciliation and manual completion
type PaymentService struct {
	store           store.Store
	gateway         payment.Gateway
	price           decimal.Decimal
	serverKey       string
	verifySignature bool
}

// NewPaymentService wires the payment workflows
func NewPaymentService(st store.Store, gateway payment.Gateway, price int64, serverKey string, verifySignature bool) *PaymentService {
	return &PaymentService{
		store:           st,
		gateway:         gateway,
		price:           decimal.NewFromInt(price),
		serverKey:       serverKey,
		verifySignature: verifySignature,
	}
}

// Checkout is a created transaction and the URL the client should be sent to
type Checkout struct {
	Transaction *domain.Transaction
	RedirectURL string
	ClientKey   string // Public Snap key for the browser popup, empty on the fallback path
}

// newOrderID is unique across accounts and concurrent requests of one account
func newOrderID(accountID uint) string {
	return fmt.Sprintf("ORDER-%d-%d-%s", accountID, time.Now().UnixNano(), uuid.NewString()[:8])
}

// Create opens a pending upgrade transaction, at most one per account
func (s *PaymentService) Create(ctx context.Context, accountID uint) (*Checkout, error) {
	var (
		account *domain.Account
		txn     *domain.Transaction
	)
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		var err error
		account, err = tx.LockAccount(ctx, accountID)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Errorf(domain.ErrNotFound, "Account not found")
		} else if err != nil {
			return err
		}
		pending, err := tx.FindPendingTransaction(ctx, accountID)
		if err == nil {
			logrus.WithFields(logrus.Fields{"account_id": accountID, "order_id": pending.OrderID}).Info("Pending transaction already exists")
			return domain.Errorf(domain.ErrConflictingTransaction, "You already have a pending transaction")
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		txn = &domain.Transaction{
			AccountID: accountID,
			OrderID:   newOrderID(accountID),
			Amount:    s.price,
			Status:    domain.TxPending,
		}
		return tx.CreateTransaction(ctx, txn)
	})
	if err != nil {
		return nil, err
	}

	// The gateway is called outside the write transaction, a failure degrades to the fallback URL
	source := "gateway"
	var clientKey string
	checkout, err := s.gateway.CreateCheckout(ctx, payment.CheckoutRequest{OrderID: txn.OrderID, Amount: txn.Amount, Email: account.Email})
	if err != nil {
		source = "fallback"
		txn.RedirectURL = payment.FallbackRedirectURL(txn.OrderID)
		logrus.WithError(err).WithField("order_id", txn.OrderID).Warn("Payment gateway unavailable, using fallback redirect URL")
	} else {
		txn.RedirectURL = checkout.RedirectURL
		clientKey = checkout.ClientKey
	}
	// Only the link is written, a notification may already have moved the status
	if err := s.store.SetRedirectURL(ctx, txn.ID, txn.RedirectURL); err != nil {
		return nil, err
	}
	if current, err := s.store.GetTransaction(ctx, accountID, txn.ID); err == nil {
		txn = current
	}

	metrics.CheckoutsCreated.WithLabelValues(source).Inc()
	logrus.WithFields(logrus.Fields{
		"account_id": accountID,
		"order_id":   txn.OrderID,
		"amount":     txn.Amount.String(),
		"source":     source,
	}).Info("Payment created")
	return &Checkout{Transaction: txn, RedirectURL: txn.RedirectURL, ClientKey: clientKey}, nil
}

// List returns the account's transactions newest first
func (s *PaymentService) List(ctx context.Context, accountID uint) ([]domain.Transaction, error) {
	txns, err := s.store.ListTransactions(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if txns == nil {
		txns = []domain.Transaction{}
	}
	return txns, nil
}

// effectiveStatus holds a fraud-challenged capture as challenge
func effectiveStatus(status domain.TxStatus, fraudStatus string) domain.TxStatus {
	if status == domain.TxCapture && fraudStatus == domain.FraudChallenge {
		return domain.TxChallenge
	}
	return status
}

// Reconcile applies a gateway notification. Replaying a notification rewrites the same status and never upgrades twice.
func (s *PaymentService) Reconcile(ctx context.Context, n payment.Notification, raw []byte) (*domain.Transaction, error) {
	orderID := strings.TrimSpace(n.OrderID)
	if orderID == "" {
		return nil, domain.Errorf(domain.ErrInvalidInput, "Order ID is required")
	}
	if s.verifySignature && !payment.VerifySignature(n, s.serverKey) {
		logrus.WithField("order_id", orderID).Warn("Notification signature mismatch")
		return nil, domain.Errorf(domain.ErrUnauthenticated, "Invalid signature")
	}

	txn, err := s.store.FindTransactionByOrderID(ctx, orderID)
	if errors.Is(err, domain.ErrNotFound) {
		logrus.WithField("order_id", orderID).Warn("Notification for unknown order")
		return nil, domain.Errorf(domain.ErrInvalidInput, "Transaction not found")
	} else if err != nil {
		return nil, err
	}

	fraud := strings.ToLower(strings.TrimSpace(n.FraudStatus))
	status := domain.TxStatus(strings.ToLower(strings.TrimSpace(n.TransactionStatus)))
	if !status.Known() {
		return nil, domain.Errorf(domain.ErrInvalidInput, "Unknown transaction status %q", n.TransactionStatus)
	}
	status = effectiveStatus(status, fraud)

	var notification datatypes.JSON
	if json.Valid(raw) {
		notification = datatypes.JSON(raw)
	}
	if err := s.store.UpdateTransactionStatus(ctx, txn.ID, status, fraud, notification); err != nil {
		return nil, err
	}
	txn.Status = status
	txn.FraudStatus = fraud
	if notification != nil {
		txn.LastNotification = notification
	}
	metrics.Notifications.WithLabelValues(string(status)).Inc()
	logrus.WithFields(logrus.Fields{
		"order_id": orderID,
		"status":   status,
		"fraud":    fraud,
	}).Info("Notification reconciled")

	if domain.GrantsPremium(status, fraud) {
		// The gateway is acknowledged even when the upgrade itself fails
		if err := s.upgrade(ctx, s.store, txn.AccountID); err != nil {
			logrus.WithError(err).WithField("account_id", txn.AccountID).Error("Tier upgrade failed")
		}
	}
	return txn, nil
}

// Complete settles an owned pending transaction and upgrades the account
func (s *PaymentService) Complete(ctx context.Context, accountID, txID uint) (*domain.Transaction, error) {
	var txn *domain.Transaction
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		var err error
		txn, err = tx.GetTransaction(ctx, accountID, txID)
		if errors.Is(err, domain.ErrNotFound) || (err == nil && txn.Status != domain.TxPending) {
			return domain.Errorf(domain.ErrNotFound, "Transaction not found or already processed")
		} else if err != nil {
			return err
		}
		if err := tx.UpdateTransactionStatus(ctx, txn.ID, domain.TxSettlement, txn.FraudStatus, nil); err != nil {
			return err
		}
		txn.Status = domain.TxSettlement
		return s.upgrade(ctx, tx, accountID)
	})
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"account_id": accountID, "order_id": txn.OrderID}).Info("Transaction completed manually")
	return txn, nil
}

// upgrade flips the account to premium once, a vanished account is a no-op
func (s *PaymentService) upgrade(ctx context.Context, st store.Store, accountID uint) error {
	account, err := st.GetAccount(ctx, accountID)
	if errors.Is(err, domain.ErrNotFound) {
		logrus.WithField("account_id", accountID).Warn("Upgrade skipped, account no longer exists")
		return nil
	} else if err != nil {
		return err
	}
	if account.IsPremium() {
		return nil
	}
	if err := st.SetAccountTier(ctx, accountID, domain.TierPremium); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	metrics.TierUpgrades.Inc()
	logrus.WithField("account_id", accountID).Info("Tier upgraded to premium")
	return nil
}
