// Package scoring rates how attractive a deal is. An external model is tried first
// and the local heuristic answers whenever it cannot.
package scoring

import (
	"context"
	"math"
	"time"

	"dealflow/internal/models"

	"go.uber.org/zap"
)

// Strategy produces a raw score for a deal. Implementations may fail; Engine
// turns every failure into a heuristic result.
type Strategy interface {
	Name() string
	Score(ctx context.Context, deal *models.Deal) (float64, string, error)
}

// Result is what callers of Engine receive.
type Result struct {
	Score    float64
	Reason   string
	Strategy string
	// Fallback is set when the primary strategy was configured but failed.
	Fallback bool
}

type Engine struct {
	primary   Strategy
	heuristic *Heuristic
	timeout   time.Duration
	logger    *zap.Logger
}

// NewEngine wires a primary strategy in front of the heuristic. primary may be nil.
func NewEngine(primary Strategy, heuristic *Heuristic, timeout time.Duration, logger *zap.Logger) *Engine {
	if heuristic == nil {
		heuristic = NewHeuristic()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		primary:   primary,
		heuristic: heuristic,
		timeout:   timeout,
		logger:    logger,
	}
}

// Score never fails; the returned score is always within [0,1].
func (e *Engine) Score(ctx context.Context, deal *models.Deal) Result {
	if e.primary != nil {
		score, reason, err := e.scorePrimary(ctx, deal)
		if err == nil {
			return Result{Score: score, Reason: reason, Strategy: e.primary.Name()}
		}
		e.logger.Warn("Scoring strategy failed, using heuristic",
			zap.String("strategy", e.primary.Name()),
			zap.String("source_uid", deal.SourceUID),
			zap.Error(err),
		)
		score, reason = e.heuristic.Evaluate(deal)
		return Result{Score: score, Reason: reason, Strategy: e.heuristic.Name(), Fallback: true}
	}

	score, reason := e.heuristic.Evaluate(deal)
	return Result{Score: score, Reason: reason, Strategy: e.heuristic.Name()}
}

func (e *Engine) scorePrimary(ctx context.Context, deal *models.Deal) (float64, string, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	score, reason, err := e.primary.Score(ctx, deal)
	if err != nil {
		return 0, "", err
	}
	return clamp01(score), reason, nil
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
