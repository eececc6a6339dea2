// Package service holds the workflows behind the REST API. Every operation
// takes the caller's account id and never trusts client supplied ownership.
package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"promptionary/internal/domain"
	"promptionary/internal/oauth"
	"promptionary/internal/store"
	"promptionary/internal/utils"

	"github.com/sirupsen/logrus"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 50
	maxEmailLen    = 100
	minPasswordLen = 8
	maxPasswordLen = 72 // bcrypt input limit
)

var usernameCleaner = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// AccountService registers accounts, issues sessions and authenticates bearer tokens
type AccountService struct {
	store     store.Store
	verifier  oauth.Verifier
	jwtSecret string
	jwtTTL    time.Duration
}

// NewAccountService wires the account workflows
func NewAccountService(st store.Store, verifier oauth.Verifier, jwtSecret string, jwtTTL time.Duration) *AccountService {
	return &AccountService{store: st, verifier: verifier, jwtSecret: jwtSecret, jwtTTL: jwtTTL}
}

// RegisterInput is the payload of a registration
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// Session is an issued bearer token with the account it belongs to
type Session struct {
	Token   string
	Account *domain.Account
}

// UpdateProfileInput carries the profile fields to change, nil means unchanged
type UpdateProfileInput struct {
	Username *string
	Email    *string
	Password *string
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateUsername(username string) error {
	if n := len(username); n < minUsernameLen || n > maxUsernameLen {
		return domain.Errorf(domain.ErrInvalidInput, "Username must be %d-%d characters", minUsernameLen, maxUsernameLen)
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" || len(email) > maxEmailLen {
		return domain.Errorf(domain.ErrInvalidInput, "A valid email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return domain.Errorf(domain.ErrInvalidInput, "A valid email is required")
	}
	return nil
}

func validatePassword(password string) error {
	if n := len(password); n < minPasswordLen || n > maxPasswordLen {
		return domain.Errorf(domain.ErrInvalidInput, "Password must be %d-%d characters", minPasswordLen, maxPasswordLen)
	}
	return nil
}

// createWithGeneral persists the account and its general category atomically
func (s *AccountService) createWithGeneral(ctx context.Context, account *domain.Account) error {
	return s.store.Transaction(ctx, func(tx store.Store) error {
		if err := tx.CreateAccount(ctx, account); err != nil {
			return err
		}
		return tx.CreateCategory(ctx, &domain.Category{AccountID: account.ID, Name: domain.GeneralCategoryName})
	})
}

// Register creates a free account with its general category
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*domain.Account, error) {
	username := strings.TrimSpace(in.Username)
	email := normalizeEmail(in.Email)
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	account := &domain.Account{Username: username, Email: email, Password: hash, Tier: domain.TierFree}
	if err := s.createWithGeneral(ctx, account); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return nil, domain.Errorf(domain.ErrInvalidInput, "Username or email already exists")
		}
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"account_id": account.ID,
		"username":   account.Username,
	}).Info("Account registered")
	return account, nil
}

func (s *AccountService) issue(account *domain.Account) (*Session, error) {
	token, err := utils.GenerateJWT(account, s.jwtSecret, s.jwtTTL)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, Account: account}, nil
}

// Login exchanges email and password for a bearer token
func (s *AccountService) Login(ctx context.Context, email, password string) (*Session, error) {
	invalid := domain.Errorf(domain.ErrInvalidInput, "Invalid email or password")
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.Errorf(domain.ErrInvalidInput, "Email and password are required")
	}
	account, err := s.store.FindAccountByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, invalid
	} else if err != nil {
		return nil, err
	}
	if !utils.CheckPassword(account.Password, password) {
		return nil, invalid
	}
	logrus.WithField("account_id", account.ID).Info("Session issued")
	return s.issue(account)
}

// OAuthLogin verifies a third-party credential and signs the owner in, creating the account on first use
func (s *AccountService) OAuthLogin(ctx context.Context, credential string) (*Session, error) {
	if strings.TrimSpace(credential) == "" {
		return nil, domain.Errorf(domain.ErrInvalidInput, "Credential is required")
	}
	profile, err := s.verifier.Verify(ctx, credential)
	switch {
	case errors.Is(err, oauth.ErrInvalidCredential):
		return nil, domain.Errorf(domain.ErrInvalidInput, "Invalid external credential")
	case err != nil:
		return nil, domain.Wrap(domain.ErrExternalService, err, "Identity provider unavailable")
	}
	email := normalizeEmail(profile.Email)

	account, err := s.store.FindAccountByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		account, err = s.createExternal(ctx, email, profile.Name)
	}
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"account_id": account.ID, "provider": "google"}).Info("Session issued")
	return s.issue(account)
}

// createExternal creates an account for a first-time external sign-in with a random password
func (s *AccountService) createExternal(ctx context.Context, email, name string) (*domain.Account, error) {
	secret := make([]byte, 16)
	if _, err := rand.Read(secret); err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(hex.EncodeToString(secret))
	if err != nil {
		return nil, err
	}
	base := externalUsername(email, name)
	for attempt := 0; attempt < 3; attempt++ {
		username := base
		if attempt > 0 {
			username = base + "-" + hex.EncodeToString(secret[attempt*2:attempt*2+2])
		}
		account := &domain.Account{Username: username, Email: email, Password: hash, Tier: domain.TierFree}
		err := s.createWithGeneral(ctx, account)
		if err == nil {
			logrus.WithFields(logrus.Fields{"account_id": account.ID, "username": username}).Info("Account registered via OAuth")
			return account, nil
		}
		if !errors.Is(err, store.ErrDuplicateKey) {
			return nil, err
		}
		// A concurrent sign-in may have created the same email already
		if existing, findErr := s.store.FindAccountByEmail(ctx, email); findErr == nil {
			return existing, nil
		}
	}
	return nil, domain.Errorf(domain.ErrInvalidInput, "Could not allocate a username")
}

func externalUsername(email, name string) string {
	base := usernameCleaner.ReplaceAllString(strings.TrimSpace(name), "")
	if len(base) < minUsernameLen {
		base = usernameCleaner.ReplaceAllString(strings.SplitN(email, "@", 2)[0], "")
	}
	for len(base) < minUsernameLen {
		base += "_"
	}
	if len(base) > maxUsernameLen-5 {
		base = base[:maxUsernameLen-5] // Room for a collision suffix
	}
	return base
}

// Get returns the account
func (s *AccountService) Get(ctx context.Context, accountID uint) (*domain.Account, error) {
	account, err := s.store.GetAccount(ctx, accountID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.Errorf(domain.ErrNotFound, "Account not found")
	}
	return account, err
}

// UpdateProfile applies the provided profile fields
func (s *AccountService) UpdateProfile(ctx context.Context, accountID uint, in UpdateProfileInput) (*domain.Account, error) {
	if in.Username == nil && in.Email == nil && in.Password == nil {
		return nil, domain.Errorf(domain.ErrInvalidInput, "No fields to update")
	}
	account, err := s.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if err := validateUsername(username); err != nil {
			return nil, err
		}
		account.Username = username
	}
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		account.Email = email
	}
	if in.Password != nil {
		if err := validatePassword(*in.Password); err != nil {
			return nil, err
		}
		hash, err := utils.HashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		account.Password = hash
	}
	if err := s.store.SaveAccount(ctx, account); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return nil, domain.Errorf(domain.ErrInvalidInput, "Username or email already exists")
		}
		return nil, err
	}
	logrus.WithField("account_id", account.ID).Info("Profile updated")
	return account, nil
}

// Authenticate resolves a bearer token to the identity of a still existing account
func (s *AccountService) Authenticate(ctx context.Context, token string) (*domain.Identity, error) {
	claims, err := utils.ParseJWT(token, s.jwtSecret)
	if err != nil {
		return nil, domain.Wrap(domain.ErrUnauthenticated, err, "Invalid or expired token")
	}
	account, err := s.store.GetAccount(ctx, claims.AccountID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.Errorf(domain.ErrUnauthenticated, "Invalid user")
	} else if err != nil {
		return nil, err
	}
	return &domain.Identity{AccountID: account.ID, Tier: account.Tier}, nil
}
