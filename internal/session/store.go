package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/museeloquente/storefront/internal/api"
	"github.com/museeloquente/storefront/internal/validate"
	pkgerrors "github.com/museeloquente/storefront/pkg/errors"
	"github.com/museeloquente/storefront/pkg/logger"
)

// TokenStorageKey is the fixed key the auth token persists under, as a plain
// string. The user profile is never persisted; it is re-fetched on every
// load so it cannot go stale.
const TokenStorageKey = "token"

type storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

type authAPI interface {
	Login(ctx context.Context, email, password string) (*api.LoginResponse, error)
	Register(ctx context.Context, req api.RegisterRequest) (*api.User, error)
	Me(ctx context.Context) (*api.User, error)
	SetToken(token string)
	ClearToken()
}

// Store owns the authentication token and the resolved user profile.
// Invariant: the profile is populated only while a validated token is held;
// the two are always set and cleared together, with one documented
// exception (a login whose follow-up profile fetch fails leaves the token
// set and the profile unresolved until the next Load).
type Store struct {
	storage storage
	backend authAPI
	logg    *logger.Logger

	token  string
	user   *api.User
	loaded bool
}

// RegisterInput carries the sign-up form fields.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// NewStore reads any previously persisted token. The store is not usable for
// authenticated decisions until Load has run.
func NewStore(ctx context.Context, store storage, backend authAPI, logg *logger.Logger) (*Store, error) {
	if store == nil {
		return nil, fmt.Errorf("session storage is required")
	}
	if backend == nil {
		return nil, fmt.Errorf("backend client is required")
	}

	s := &Store{storage: store, backend: backend, logg: logg}

	token, ok, err := store.Get(ctx, TokenStorageKey)
	if err != nil {
		if logg != nil {
			logg.Warn(ctx, "reading persisted token failed, starting anonymous", err)
		}
		return s, nil
	}
	if ok && token != "" {
		s.token = token
		s.backend.SetToken(token)
	}
	return s, nil
}

// Load performs the initial token validation round trip. A held token that
// the backend rejects is discarded together with the profile, reverting to a
// fully anonymous state. Load never fails; it resolves to whichever state
// the evidence supports, and Loaded reports completion.
func (s *Store) Load(ctx context.Context) {
	defer func() { s.loaded = true }()

	if s.token == "" {
		return
	}

	user, err := s.backend.Me(ctx)
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(ctx, "persisted token rejected, clearing session", err)
		}
		s.clear(ctx)
		return
	}
	s.user = user
}

// Login exchanges credentials for a token, persists it, and resolves the
// profile. A failed profile fetch does not fail the login; the profile stays
// unresolved until the next Load.
func (s *Store) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	res, err := s.backend.Login(ctx, email, password)
	if err != nil {
		return err
	}

	s.token = res.AccessToken
	s.backend.SetToken(res.AccessToken)
	if err := s.storage.Set(ctx, TokenStorageKey, res.AccessToken); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "persisting token failed, session will not survive restart", err)
	}

	user, err := s.backend.Me(ctx)
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(ctx, "profile fetch after login failed", err)
		}
		s.user = nil
		s.loaded = true
		return nil
	}
	s.user = user
	s.loaded = true
	return nil
}

// Register pre-validates the form client-side, creates the account, and
// signs the new user in.
func (s *Store) Register(ctx context.Context, input RegisterInput) error {
	input.Email = strings.TrimSpace(input.Email)
	creds := validate.Credentials{Email: input.Email, Password: input.Password}
	if err := validate.Struct(creds); err != nil {
		return err
	}

	req := api.RegisterRequest{Email: input.Email, Password: input.Password}
	if first := strings.TrimSpace(input.FirstName); first != "" {
		req.FirstName = &first
	}
	if last := strings.TrimSpace(input.LastName); last != "" {
		req.LastName = &last
	}

	if _, err := s.backend.Register(ctx, req); err != nil {
		return err
	}
	return s.Login(ctx, input.Email, input.Password)
}

// Logout clears the token and profile unconditionally. No backend call is
// required for it to succeed locally.
func (s *Store) Logout(ctx context.Context) {
	s.clear(ctx)
	s.loaded = true
}

// Loaded reports whether the initial validation round trip has completed.
// Consumers must not treat the session as definitively authenticated or
// anonymous before this is true.
func (s *Store) Loaded() bool {
	return s.loaded
}

// Authenticated reports whether a resolved user profile is held.
func (s *Store) Authenticated() bool {
	return s.user != nil
}

// User returns the resolved profile, or nil while anonymous or unresolved.
func (s *Store) User() *api.User {
	return s.user
}

// Token returns the held token, empty while anonymous.
func (s *Store) Token() string {
	return s.token
}

// clear discards token and profile together; this is the single place that
// maintains the both-or-neither invariant.
func (s *Store) clear(ctx context.Context) {
	s.token = ""
	s.user = nil
	s.backend.ClearToken()
	if err := s.storage.Delete(ctx, TokenStorageKey); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "removing persisted token failed", err)
	}
}
