package board

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"hirehub.dev/internal/assets"
	"hirehub.dev/internal/auth"
	"hirehub.dev/internal/ids"
)

const defaultCleanupTimeout = 10 * time.Second

// AssetStore is the part of the asset host the workflows need for logo cleanup.
type AssetStore interface {
	ExtractID(rawURL string) (string, bool)
	Delete(ctx context.Context, idOrURL string) (assets.Outcome, error)
}

// Service runs the tenancy-consistency workflows over a Store.
type Service struct {
	store          Store
	hasher         auth.PasswordHasher
	assets         AssetStore
	log            *zap.Logger
	now            func() time.Time
	newID          func() string
	cleanupTimeout time.Duration
}

// Option configures Service behavior.
type Option func(*Service)

// WithAssets enables logo cleanup against the given asset host.
func WithAssets(a AssetStore) Option {
	return func(s *Service) { s.assets = a }
}

// WithLogger sets the logger used for swallowed cleanup failures.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock overrides time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithIDGenerator overrides row identifier generation.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithCleanupTimeout bounds each best-effort asset deletion.
func WithCleanupTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.cleanupTimeout = d
		}
	}
}

// NewService wires the workflows to store and hasher.
func NewService(store Store, hasher auth.PasswordHasher, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("board: store is required")
	}
	if hasher == nil {
		return nil, errors.New("board: password hasher is required")
	}
	s := &Service{
		store:          store,
		hasher:         hasher,
		log:            zap.NewNop(),
		now:            time.Now,
		newID:          ids.New,
		cleanupTimeout: defaultCleanupTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// EnsureDefaultRoles provisions the admin and candidate roles of orgID.
func (s *Service) EnsureDefaultRoles(ctx context.Context, orgID, adminName string) (DefaultRoles, error) {
	return s.provisioner(s.store).EnsureDefaultRoles(ctx, orgID, adminName)
}

func (s *Service) provisioner(st Store) *Provisioner {
	return &Provisioner{roles: st.Roles(), now: s.now, newID: s.newID}
}

func (s *Service) timestamp() time.Time {
	return s.now().UTC()
}
