// Package service implements the triage pipeline: ingestion, case
// management and dispatch recording.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/telhawk-systems/telhawk-soc/triage/internal/broadcast"
	"github.com/telhawk-systems/telhawk-soc/triage/internal/events"
	"github.com/telhawk-systems/telhawk-soc/triage/internal/repository"
)

var (
	// ErrInvalidArgument marks requests rejected before anything is written.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrTransactionFailed marks an ingestion write set that did not commit.
	ErrTransactionFailed = errors.New("transaction failed")
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// Options configures a TriageService. Zero values fall back to no-op
// publishers, the default logger, the local timezone and time.Now.
type Options struct {
	Broadcast broadcast.Publisher
	Events    events.Publisher
	Logger    *slog.Logger
	Location  *time.Location
	Now       func() time.Time
}

// TriageService handles business logic for alerts and cases.
type TriageService struct {
	repo      repository.Repository
	broadcast broadcast.Publisher
	events    events.Publisher
	logger    *slog.Logger
	loc       *time.Location
	now       func() time.Time
}

// NewTriageService creates a new service instance
func NewTriageService(repo repository.Repository, opts Options) *TriageService {
	s := &TriageService{
		repo:      repo,
		broadcast: opts.Broadcast,
		events:    opts.Events,
		logger:    opts.Logger,
		loc:       opts.Location,
		now:       opts.Now,
	}
	if s.broadcast == nil {
		s.broadcast = broadcast.Nop{}
	}
	if s.events == nil {
		s.events = events.Nop{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Health pings the store.
func (s *TriageService) Health(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// Location is the timezone that defines "today".
func (s *TriageService) Location() *time.Location {
	return s.loc
}
