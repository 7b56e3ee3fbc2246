// Package forum implements the discussion operations on top of a store:
// registration and login, posts, and threaded comments.
package forum

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/discussion-platform/internal/platform/auth"
	"github.com/example/discussion-platform/internal/platform/events"
	"github.com/example/discussion-platform/services/discussion/internal/domain"
	"github.com/example/discussion-platform/services/discussion/internal/store"
	"github.com/example/discussion-platform/services/discussion/internal/thread"
)

var (
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("forbidden")
)

// Actor is the verified identity behind a call.
type Actor struct {
	UserID string
	Admin  bool
}

// EventPublisher is satisfied by *events.Publisher.
type EventPublisher interface {
	Publish(subject, eventName, userID string, props map[string]any)
}

type Service struct {
	Store  store.Store
	Tokens auth.JWTIssuer
	Events EventPublisher
	Log    *zap.Logger
	Now    func() time.Time

	// BootstrapAdminUsername registers as admin when it signs up.
	BootstrapAdminUsername string
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func (s *Service) publish(subject, eventName, userID string, props map[string]any) {
	if s.Events != nil {
		s.Events.Publish(subject, eventName, userID, props)
	}
}

func (s *Service) cascader() thread.Cascader {
	return thread.Cascader{Tx: s.Store, Now: s.now, Log: s.log()}
}

func requireActor(a Actor) error {
	if strings.TrimSpace(a.UserID) == "" {
		return ErrUnauthenticated
	}
	return nil
}

// ---- identity ----

type RegisterInput struct {
	Username  string `json:"username" validate:"required,notblank,max=150"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,notnumeric"`
	Password2 string `json:"password2" validate:"required,eqfield=Password"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
}

type LoginInput struct {
	Login    string `json:"login" validate:"required,notblank"`
	Password string `json:"password" validate:"required"`
}

type AuthResult struct {
	User        domain.User `json:"user"`
	AccessToken string      `json:"access_token"`
	ExpiresAt   time.Time   `json:"expires_at"`
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if err := check(in); err != nil {
		return AuthResult{}, err
	}

	cost := s.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), cost)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	role := auth.RoleUser
	if s.BootstrapAdminUsername != "" && strings.EqualFold(s.BootstrapAdminUsername, in.Username) {
		role = auth.RoleAdmin
	}
	u, err := s.Store.CreateUser(ctx, store.CreateUserParams{
		Username:     in.Username,
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: string(hash),
		Role:         role,
		Now:          s.now(),
	})
	if err != nil {
		return AuthResult{}, err
	}

	s.publish(events.SubjectUserRegistered, "user_registered", u.ID, map[string]any{"username": u.Username})
	return s.issue(u)
}

func (s *Service) Login(ctx context.Context, in LoginInput) (AuthResult, error) {
	if err := check(in); err != nil {
		return AuthResult{}, err
	}
	row, err := s.Store.FindUserByLogin(ctx, in.Login)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(row.PasswordHash), []byte(in.Password)) != nil {
		return AuthResult{}, ErrInvalidCredentials
	}
	return s.issue(row.User)
}

func (s *Service) issue(u domain.User) (AuthResult, error) {
	tok, exp, err := s.Tokens.Issue(u.ID, u.Role, s.now())
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue token: %w", err)
	}
	return AuthResult{User: u, AccessToken: tok, ExpiresAt: exp}, nil
}
