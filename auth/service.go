// Package auth handles account registration, sign-in and bearer tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gamelog/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUserExists         = errors.New("username or email already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// Revoker records tokens that were signed out before they expired.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Session is what register and login hand back to the client.
type Session struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

type Service struct {
	db      *gorm.DB
	tokens  *TokenManager
	revoker Revoker
	cost    int

	// compared against when the account does not exist so both
	// failure paths cost one bcrypt round
	dummyHash []byte
}

// NewService builds the auth service. revoker may be nil, in which case
// logout is a no-op and tokens stay valid until they expire.
func NewService(db *gorm.DB, tokens *TokenManager, revoker Revoker) *Service {
	return newService(db, tokens, revoker, bcrypt.DefaultCost)
}

func newService(db *gorm.DB, tokens *TokenManager, revoker Revoker, cost int) *Service {
	dummy, _ := bcrypt.GenerateFromPassword([]byte("gamelog-dummy-password"), cost)
	return &Service{db: db, tokens: tokens, revoker: revoker, cost: cost, dummyHash: dummy}
}

// Register creates an account and signs it in.
func (s *Service) Register(ctx context.Context, in models.RegisterInput) (*Session, error) {
	username := strings.TrimSpace(in.Username)
	email := normalizeEmail(in.Email)

	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if count > 0 {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Followers:    []uint{},
		Following:    []uint{},
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		// a concurrent register can slip past the pre-check
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.session(user)
}

// Login checks a username-or-email and password pair.
func (s *Service) Login(ctx context.Context, identifier, password string) (*Session, error) {
	identifier = strings.TrimSpace(identifier)

	var user models.User
	err := s.db.WithContext(ctx).
		Where("username = ? OR email = ?", identifier, normalizeEmail(identifier)).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.session(user)
}

// Authenticate verifies a bearer token and rejects signed-out ones.
func (s *Service) Authenticate(ctx context.Context, token string) (Identity, error) {
	id, err := s.tokens.Parse(token)
	if err != nil {
		return Identity{}, err
	}
	if s.revoker != nil {
		revoked, err := s.revoker.IsRevoked(ctx, id.TokenID)
		if err != nil {
			return Identity{}, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return Identity{}, fmt.Errorf("%w: revoked", ErrInvalidToken)
		}
	}
	return id, nil
}

// Logout revokes the caller's token until it expires.
func (s *Service) Logout(ctx context.Context, id Identity) error {
	if s.revoker == nil {
		return nil
	}
	return s.revoker.Revoke(ctx, id.TokenID, id.ExpiresAt)
}

func (s *Service) session(user models.User) (*Session, error) {
	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{Token: token, User: user}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
