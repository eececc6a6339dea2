package api

import (
	"encoding/json" // Notification decoding
	"errors"        // MaxBytesError matching
	"net/http"      // HTTP status codes

	"promptionary/internal/domain"  // Error kinds
	"promptionary/internal/payment" // Notification payload
	"promptionary/internal/service" // Payment workflows

	"github.com/gin-gonic/gin" // Gin web framework
)

// ListPaymentsHandler returns the caller's transactions, an empty list when there are none
func ListPaymentsHandler(payments *service.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := payments.List(c.Request.Context(), accountID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// CreatePaymentHandler starts a premium upgrade and returns the checkout URL
func CreatePaymentHandler(payments *service.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		checkout, err := payments.Create(c.Request.Context(), accountID(c))
		if err != nil {
			respondError(c, err) // Pending transaction exists or account missing
			return
		}
		body := gin.H{"transaction": checkout.Transaction, "redirect_url": checkout.RedirectURL}
		if checkout.ClientKey != "" {
			body["client_key"] = checkout.ClientKey // Snap.js popup needs the public key
		}
		c.JSON(http.StatusCreated, body)
	}
}

// NotificationHandler reconciles the gateway's asynchronous status callback, no bearer token
func NotificationHandler(payments *service.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.GetRawData() // Raw body is kept on the transaction
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				respondError(c, domain.Errorf(domain.ErrPayloadTooLarge, "Payload too large"))
				return
			}
			respondError(c, domain.Wrap(domain.ErrInvalidInput, err, "Invalid request body"))
			return
		}
		var n payment.Notification // Decode notification fields
		if err := json.Unmarshal(raw, &n); err != nil {
			respondError(c, domain.Wrap(domain.ErrInvalidInput, err, "Invalid request body"))
			return
		}
		if _, err := payments.Reconcile(c.Request.Context(), n, raw); err != nil {
			respondError(c, err) // 400 keeps the gateway from retrying unmatchable orders
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Notification processed"})
	}
}

// CompletePaymentHandler settles an owned pending transaction by hand
func CompletePaymentHandler(payments *service.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		txn, err := payments.Complete(c.Request.Context(), accountID(c), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Transaction completed successfully", "transaction": txn})
	}
}
