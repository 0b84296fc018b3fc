// Package feeder drives a running triage service with synthetic events
// over its ingestion API.
package feeder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/telhawk-systems/telhawk-soc/triage/pkg/synth"
)

// Result is the outcome of one delivery attempt.
type Result struct {
	Event    map[string]any
	AlertID  int64
	CaseID   *int64
	Status   int
	Err      error
	Duration time.Duration
}

// Stats totals a run.
type Stats struct {
	Sent   int
	Failed int
	Cases  int
}

// Runner posts generated events at a fixed interval.
type Runner struct {
	Config     *Config
	HTTPClient *http.Client
	Generator  *synth.Generator
	Logger     *slog.Logger

	// OnResult, when set, is called after every attempt.
	OnResult func(Result)

	sleep func(ctx context.Context, d time.Duration) error
}

func NewRunner(config *Config, logger *slog.Logger) *Runner {
	seed := config.Defaults.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		Config: config,
		HTTPClient: &http.Client{
			Timeout: config.Defaults.Timeout,
		},
		Generator: synth.NewGenerator(seed),
		Logger:    logger,
		sleep:     sleepContext,
	}
}

// Run sends events until Count is reached (forever when zero) or ctx is
// cancelled. Delivery failures are counted and logged, never returned.
func (r *Runner) Run(ctx context.Context) Stats {
	d := r.Config.Defaults
	r.Logger.Info("starting feed driver",
		slog.String("url", d.URL),
		slog.Int64("client_id", d.ClientID),
		slog.Duration("interval", d.Interval),
		slog.Int("count", d.Count),
	)

	var stats Stats
	for i := 0; d.Count == 0 || i < d.Count; i++ {
		if ctx.Err() != nil {
			break
		}

		res := r.Send(ctx, r.Generator.Event(d.ClientID))
		if res.Err != nil {
			stats.Failed++
			r.Logger.Debug("event delivery failed", slog.String("error", res.Err.Error()))
		} else {
			stats.Sent++
			if res.CaseID != nil {
				stats.Cases++
			}
		}
		if r.OnResult != nil {
			r.OnResult(res)
		}

		if d.Count != 0 && i == d.Count-1 {
			break
		}
		if err := r.sleep(ctx, d.Interval); err != nil {
			break
		}
	}

	r.Logger.Info("feed driver stopped",
		slog.Int("sent", stats.Sent),
		slog.Int("failed", stats.Failed),
		slog.Int("cases", stats.Cases),
	)
	return stats
}

type ingestResponse struct {
	OK      bool   `json:"ok"`
	AlertID int64  `json:"alert_id"`
	CaseID  *int64 `json:"case_id"`
	Error   string `json:"error"`
}

// Send posts one event and reports what the service answered.
func (r *Runner) Send(ctx context.Context, event map[string]any) (res Result) {
	start := time.Now()
	res = Result{Event: event}
	defer func() { res.Duration = time.Since(start) }()

	body, err := json.Marshal(event)
	if err != nil {
		res.Err = err
		return res
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.Config.Defaults.URL, bytes.NewReader(body))
	if err != nil {
		res.Err = err
		return res
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		res.Err = err
		return res
	}
	defer resp.Body.Close()
	res.Status = resp.StatusCode

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		res.Err = err
		return res
	}

	var parsed ingestResponse
	_ = json.Unmarshal(data, &parsed)
	if resp.StatusCode != http.StatusOK {
		if parsed.Error != "" {
			res.Err = fmt.Errorf("ingest failed with status %d: %s", resp.StatusCode, parsed.Error)
		} else {
			res.Err = fmt.Errorf("ingest failed with status %d", resp.StatusCode)
		}
		return res
	}

	res.AlertID = parsed.AlertID
	res.CaseID = parsed.CaseID
	return res
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
