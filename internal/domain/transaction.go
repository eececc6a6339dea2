package domain

import (
	"time"

	"github.com/shopspring/decimal" // Exact money amounts
	"gorm.io/datatypes"             // JSON column for the raw notification
)

// TxStatus mirrors the payment gateway's status vocabulary
type TxStatus string

const (
	TxPending       TxStatus = "pending"
	TxSettlement    TxStatus = "settlement"
	TxCapture       TxStatus = "capture"
	TxChallenge     TxStatus = "challenge"
	TxAuthorize     TxStatus = "authorize"
	TxDeny          TxStatus = "deny"
	TxCancel        TxStatus = "cancel"
	TxExpire        TxStatus = "expire"
	TxFailure       TxStatus = "failure"
	TxRefund        TxStatus = "refund"
	TxPartialRefund TxStatus = "partial_refund"
)

// FraudAccept is the gateway's fraud verdict that confirms a capture
const FraudAccept = "accept"

// FraudChallenge is the gateway's fraud verdict that holds a capture for review
const FraudChallenge = "challenge"

var knownStatuses = map[TxStatus]bool{
	TxPending: true, TxSettlement: true, TxCapture: true, TxChallenge: true, TxAuthorize: true,
	TxDeny: true, TxCancel: true, TxExpire: true, TxFailure: true, TxRefund: true, TxPartialRefund: true,
}

// Known reports whether the status belongs to the gateway vocabulary
func (s TxStatus) Known() bool {
	return knownStatuses[s]
}

// Transaction Model
type Transaction struct {
	ID               uint            `gorm:"primaryKey" json:"id"`                          // Primary key
	AccountID        uint            `gorm:"not null;index" json:"-"`                       // Owning account
	OrderID          string          `gorm:"size:100;uniqueIndex;not null" json:"order_id"` // Gateway order id
	Amount           decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`     // Upgrade price
	Status           TxStatus        `gorm:"size:32;not null;index" json:"status"`          // Gateway status
	FraudStatus      string          `gorm:"size:32" json:"fraud_status,omitempty"`         // Last fraud verdict
	RedirectURL      string          `gorm:"size:512" json:"redirect_url"`                  // Hosted checkout URL
	LastNotification datatypes.JSON  `json:"-"`                                             // Raw last gateway notification
	CreatedAt        time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// GrantsPremium reports whether a status/fraud pair completes the upgrade
func GrantsPremium(status TxStatus, fraudStatus string) bool {
	return status == TxSettlement || (status == TxCapture && fraudStatus == FraudAccept)
}
