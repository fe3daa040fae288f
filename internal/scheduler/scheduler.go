// Package scheduler runs the periodic dropout risk sweep.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/easeaico/tryangel/internal/metrics"
	"github.com/easeaico/tryangel/internal/types"
)

// RiskSource exposes the profiles and the risk evaluation used by the sweep.
type RiskSource interface {
	UserIDs(ctx context.Context) ([]string, error)
	Profile(ctx context.Context, userID string) (*types.Profile, error)
	EvaluateDropoutRisk(p *types.Profile) float64
}

// AtRiskUser is a user whose evaluated dropout risk reached the threshold.
type AtRiskUser struct {
	UserID string  `json:"user_id"`
	Risk   float64 `json:"risk"`
}

// RiskSweeper evaluates every stored profile without persisting the result,
// so repeated sweeps never compound the stored score.
type RiskSweeper struct {
	source    RiskSource
	threshold float64
}

// NewRiskSweeper returns a sweeper reporting users at or above threshold.
func NewRiskSweeper(source RiskSource, threshold float64) *RiskSweeper {
	return &RiskSweeper{source: source, threshold: threshold}
}

// RunOnce sweeps all profiles and returns the at-risk users, highest risk first.
func (s *RiskSweeper) RunOnce(ctx context.Context) ([]AtRiskUser, error) {
	start := time.Now()
	users, err := s.sweep(ctx)
	metrics.RecordSweep(err == nil, len(users), time.Since(start))
	return users, err
}

func (s *RiskSweeper) sweep(ctx context.Context) ([]AtRiskUser, error) {
	ids, err := s.source.UserIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	var atRisk []AtRiskUser
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p, err := s.source.Profile(ctx, id)
		if errors.Is(err, types.ErrNotFound) {
			continue
		}
		if err != nil {
			slog.Warn("failed to load profile for risk sweep", "user_id", id, "error", err)
			continue
		}
		risk := s.source.EvaluateDropoutRisk(p)
		if risk >= s.threshold {
			atRisk = append(atRisk, AtRiskUser{UserID: id, Risk: risk})
			slog.Warn("user at risk of dropping out", "user_id", id, "risk", risk, "trust_score", p.TrustScore)
		}
	}
	sort.SliceStable(atRisk, func(i, j int) bool { return atRisk[i].Risk > atRisk[j].Risk })

	slog.Info("risk sweep finished", "users", len(ids), "at_risk", len(atRisk))
	return atRisk, nil
}

// Scheduler triggers the risk sweep on a cron schedule in UTC.
type Scheduler struct {
	cron    *cron.Cron
	ctx     context.Context
	cancel  context.CancelFunc
	sweeper *RiskSweeper
	spec    string
}

// New creates a scheduler running sweeper on spec, a standard five-field cron expression.
func New(sweeper *RiskSweeper, spec string) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		ctx:     ctx,
		cancel:  cancel,
		sweeper: sweeper,
		spec:    spec,
	}
}

// Start registers the sweep and starts the cron loop.
func (s *Scheduler) Start() error {
	if s.sweeper == nil {
		return errors.New("risk sweeper is required")
	}
	if _, err := s.cron.AddFunc(s.spec, s.run); err != nil {
		return fmt.Errorf("failed to schedule risk sweep %q: %w", s.spec, err)
	}
	s.cron.Start()
	slog.Info("scheduler started", "spec", s.spec)
	return nil
}

func (s *Scheduler) run() {
	if _, err := s.sweeper.RunOnce(s.ctx); err != nil {
		slog.Error("risk sweep failed", "error", err)
	}
}

// Stop waits for a running sweep to finish and cancels its context.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	if s.cancel != nil {
		s.cancel()
	}
	slog.Info("scheduler stopped")
}

// IsRunning reports whether the sweep is scheduled.
func (s *Scheduler) IsRunning() bool {
	return s.cron != nil && len(s.cron.Entries()) > 0
}
