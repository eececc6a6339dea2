package api

import (
	"net/http" // HTTP status codes

	"promptionary/internal/domain"  // Account summary
	"promptionary/internal/service" // Account workflows

	"github.com/gin-gonic/gin" // Gin web framework
)

// RegisterRequest is the body of POST /accounts
type RegisterRequest struct {
	Username string `json:"username"` // 3-50 characters
	Email    string `json:"email"`    // Unique email
	Password string `json:"password"` // At least 8 characters
}

// LoginRequest is the body of POST /sessions
type LoginRequest struct {
	Email    string `json:"email"`    // Account email
	Password string `json:"password"` // Plain password
}

// OAuthLoginRequest is the body of POST /sessions/oauth
type OAuthLoginRequest struct {
	Credential string `json:"credential"` // Google ID token
}

// UpdateProfileRequest is the body of PUT /accounts/me, omitted fields stay unchanged
type UpdateProfileRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// SessionResponse is returned by every sign-in route
type SessionResponse struct {
	Message     string                `json:"message"`      // Human readable status
	User        domain.AccountSummary `json:"user"`         // Signed-in account
	AccessToken string                `json:"access_token"` // Bearer token
}

// RegisterHandler creates an account and its general category
func RegisterHandler(accounts *service.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind JSON request to struct
		if err := bindJSON(c, &req); err != nil {
			respondError(c, err)
			return
		}
		account, err := accounts.Register(c.Request.Context(), service.RegisterInput{
			Username: req.Username,
			Email:    req.Email,
			Password: req.Password,
		})
		if err != nil {
			respondError(c, err) // Validation or duplicate
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "user": account.Summary()})
	}
}

// LoginHandler exchanges email and password for a bearer token
func LoginHandler(accounts *service.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := bindJSON(c, &req); err != nil {
			respondError(c, err)
			return
		}
		session, err := accounts.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respondError(c, err) // Invalid credentials are 400
			return
		}
		c.JSON(http.StatusOK, SessionResponse{Message: "Login successful", User: session.Account.Summary(), AccessToken: session.Token})
	}
}

// OAuthLoginHandler signs in with a Google ID token, creating the account on first use
func OAuthLoginHandler(accounts *service.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req OAuthLoginRequest // Bind JSON request to struct
		if err := bindJSON(c, &req); err != nil {
			respondError(c, err)
			return
		}
		session, err := accounts.OAuthLogin(c.Request.Context(), req.Credential)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, SessionResponse{Message: "Login successful", User: session.Account.Summary(), AccessToken: session.Token})
	}
}

// GetProfileHandler returns the caller's account summary
func GetProfileHandler(accounts *service.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, err := accounts.Get(c.Request.Context(), accountID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, account.Summary())
	}
}

// UpdateProfileHandler changes any subset of username, email and password
func UpdateProfileHandler(accounts *service.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateProfileRequest // Bind JSON request to struct
		if err := bindJSON(c, &req); err != nil {
			respondError(c, err)
			return
		}
		account, err := accounts.UpdateProfile(c.Request.Context(), accountID(c), service.UpdateProfileInput{
			Username: req.Username,
			Email:    req.Email,
			Password: req.Password,
		})
		if err != nil {
			respondError(c, err) // No fields, invalid or duplicate
			return
		}
		c.JSON(http.StatusOK, account.Summary())
	}
}
