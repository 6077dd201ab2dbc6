// Package service wires the award engine and the board generators to the
// tracker and the ledger store.
package service

import (
	"context"
	"time"

	"github.com/okian/questboard/internal/adapters/repository"
	"github.com/okian/questboard/internal/domain/model"
	"github.com/okian/questboard/pkg/logger"
)

// Tracker is the slice of the issue tracker the service consumes.
type Tracker interface {
	GetIssue(ctx context.Context, number int) (model.Issue, error)
	GetCollaboratorPermission(ctx context.Context, login string) (string, error)
	CreateIssueComment(ctx context.Context, number int, body string) error
	ListIssues(ctx context.Context, state string) ([]model.Issue, error)
}

// Service runs one award or board operation per invocation. It holds no
// state between calls; the ledger is loaded and saved by each operation.
type Service struct {
	tracker    Tracker
	store      repository.Store
	repository string
	now        func() time.Time
	logger     logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithTracker sets the issue tracker.
func WithTracker(t Tracker) Option {
	return func(s *Service) {
		if t != nil {
			s.tracker = t
		}
	}
}

// WithStore sets the ledger store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithRepository sets the "owner/name" recorded on merge awards.
func WithRepository(name string) Option {
	return func(s *Service) {
		s.repository = name
	}
}

// WithClock sets the time source used for award timestamps and board footers.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service. Tracker and store are required by the
// operations that use them and checked there.
func New(opts ...Option) *Service {
	s := &Service{
		now:    time.Now,
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
