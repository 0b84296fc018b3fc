// Package feed runs the in-process synthetic event generator that keeps the
// monitor busy during demos.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/telhawk-systems/telhawk-soc/common/logging"
	"github.com/telhawk-systems/telhawk-soc/triage/internal/broadcast"
	"github.com/telhawk-systems/telhawk-soc/triage/internal/metrics"
	"github.com/telhawk-systems/telhawk-soc/triage/internal/models"
	"github.com/telhawk-systems/telhawk-soc/triage/internal/repository"
	"github.com/telhawk-systems/telhawk-soc/triage/internal/service"
	"github.com/telhawk-systems/telhawk-soc/triage/pkg/synth"
)

// Mode selects how generated events are written.
type Mode string

const (
	// ModeDirect writes alerts and cases straight to the store, bypassing
	// the triage policy, and publishes short notifications.
	ModeDirect Mode = "direct"

	// ModeIngest routes generated events through the ingestion pipeline.
	ModeIngest Mode = "ingest"
)

// Source labels feed writes in metrics and lifecycle events.
const Source = "feed"

// Config controls the feed loop.
type Config struct {
	Mode Mode

	// Backoff is the pause after a failed iteration.
	Backoff time.Duration

	// Bands is the sleep mixture between iterations.
	Bands []synth.Band

	// CaseChance is the probability of opening a case for a
	// non-escalating severity.
	CaseChance float64

	// Seed seeds the generator. Zero picks a random seed.
	Seed int64
}

// DefaultConfig returns the demo defaults.
func DefaultConfig() Config {
	return Config{
		Mode:       ModeDirect,
		Backoff:    10 * time.Second,
		Bands:      synth.DefaultBands,
		CaseChance: 0.35,
	}
}

// Ingestor is the subset of the triage service the ingest mode needs.
type Ingestor interface {
	IngestFrom(ctx context.Context, event *models.Event, source string) (*service.IngestResult, error)
}

// Supervisor owns the feed goroutine. Start may be called any number of
// times; only the first call launches the loop.
type Supervisor struct {
	cfg      Config
	repo     repository.Repository
	hub      broadcast.Publisher
	ingestor Ingestor
	gen      *synth.Generator
	logger   *slog.Logger

	started atomic.Bool
	done    chan struct{}
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewSupervisor creates a supervisor. ingestor may be nil in direct mode.
func NewSupervisor(cfg Config, repo repository.Repository, hub broadcast.Publisher, ingestor Ingestor, logger *slog.Logger) *Supervisor {
	if cfg.Mode == "" {
		cfg.Mode = ModeDirect
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = DefaultConfig().Backoff
	}
	if len(cfg.Bands) == 0 {
		cfg.Bands = synth.DefaultBands
	}
	if hub == nil {
		hub = broadcast.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{
		cfg:      cfg,
		repo:     repo,
		hub:      hub,
		ingestor: ingestor,
		gen:      synth.NewGenerator(cfg.Seed),
		logger:   logger.With("component", "feed"),
		done:     make(chan struct{}),
		sleep:    sleepContext,
	}
}

// Start launches the feed loop unless it is already running. It reports
// whether this call started it. The loop stops when ctx is cancelled.
func (s *Supervisor) Start(ctx context.Context) bool {
	if !s.started.CompareAndSwap(false, true) {
		return false
	}
	s.logger.Info("synthetic feed started", "mode", string(s.cfg.Mode))
	go s.run(ctx)
	return true
}

// Running reports whether Start has launched the loop.
func (s *Supervisor) Running() bool {
	return s.started.Load()
}

// Done is closed once the loop has exited.
func (s *Supervisor) Done() <-chan struct{} {
	return s.done
}

func (s *Supervisor) run(ctx context.Context) {
	defer close(s.done)
	for {
		delay := s.gen.Delay(s.cfg.Bands)
		if err := s.step(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			metrics.FeedErrors.Inc()
			s.logger.Error("synthetic feed iteration failed", logging.Error(err))
			delay = s.cfg.Backoff
		} else {
			metrics.FeedIterations.Inc()
		}

		if err := s.sleep(ctx, delay); err != nil {
			s.logger.Info("synthetic feed stopped")
			return
		}
	}
}

// step runs one iteration. Panics are converted to errors so a bad
// iteration never kills the loop.
func (s *Supervisor) step(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("feed iteration panicked: %v", r)
		}
	}()

	switch s.cfg.Mode {
	case ModeIngest:
		return s.emitIngest(ctx)
	default:
		return s.emitDirect(ctx)
	}
}

func (s *Supervisor) emitDirect(ctx context.Context) error {
	client, err := s.repo.FirstClient(ctx)
	if errors.Is(err, repository.ErrClientNotFound) {
		s.logger.Debug("no client to generate events for")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to resolve client: %w", err)
	}

	b := s.gen.Background()
	now := time.Now()
	raw := b.Raw
	raw["client_id"] = client.ID

	alert := &models.Alert{
		CreatedAt:    now,
		ClientID:     client.ID,
		Severity:     b.Severity,
		IncidentType: b.IncidentType,
		Title:        b.Title,
		RawEvent:     raw,
	}
	var opened *models.Case
	if b.Severity.Escalates() || s.gen.Chance(s.cfg.CaseChance) {
		opened = &models.Case{
			CreatedAt:    now,
			ClientID:     client.ID,
			Severity:     b.Severity,
			IncidentType: b.IncidentType,
			Status:       models.StatusOpen,
			Title:        b.Title,
			Description:  models.DefaultCaseDescription,
			SourceIP:     fmt.Sprint(raw["source_ip"]),
			HostIP:       fmt.Sprint(raw["host_ip"]),
			Hostname:     fmt.Sprint(raw["hostname"]),
			Evidence:     raw,
		}
	}

	err = s.repo.WithTx(ctx, func(tx repository.Tx) error {
		if err := tx.CreateAlert(ctx, alert); err != nil {
			return err
		}
		if opened != nil {
			return tx.CreateCase(ctx, opened)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write synthetic alert: %w", err)
	}

	metrics.AlertsIngested.WithLabelValues(string(alert.Severity), Source).Inc()
	if opened != nil {
		metrics.CasesOpened.WithLabelValues(string(opened.Severity), Source).Inc()
	}
	s.hub.Publish(ctx, broadcast.AlertNotification(alert, opened != nil))
	return nil
}

func (s *Supervisor) emitIngest(ctx context.Context) error {
	if s.ingestor == nil {
		return errors.New("ingest mode requires an ingestor")
	}
	client, err := s.repo.FirstClient(ctx)
	if errors.Is(err, repository.ErrClientNotFound) {
		s.logger.Debug("no client to generate events for")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to resolve client: %w", err)
	}

	b := s.gen.Background()
	event := &models.Event{
		ClientID:     client.ID,
		Severity:     b.Severity,
		IncidentType: b.IncidentType,
		Title:        b.Title,
		SourceIP:     fmt.Sprint(b.Raw["source_ip"]),
		HostIP:       fmt.Sprint(b.Raw["host_ip"]),
		Hostname:     fmt.Sprint(b.Raw["hostname"]),
		ForceCase:    s.gen.Chance(s.cfg.CaseChance),
		Attributes: map[string]any{
			"origin_zone":    b.Raw["origin_zone"],
			"target_cluster": b.Raw["target_cluster"],
		},
	}
	_, err = s.ingestor.IngestFrom(ctx, event, Source)
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
