// Package rules provides the CEL-Go based engine that backs the handful of
// analyst-tunable scalar thresholds used by the scoring and enrichment
// passes: the velocity trigger and false-positive dampening trigger
// (spec.md §4.6), and the legitimate-activity profile used by relationship
// intelligence (spec.md §4.8.1). The graph-structural detectors themselves
// (cycles, fan-in/out windows, shell BFS, betweenness) are plain Go, not
// CEL — CEL here evaluates scalar predicates over precomputed features, not
// graph structure.
package rules

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// ThresholdConfig holds the three tunable CEL predicate expressions, each
// evaluated over a small named-variable activation and expected to return a
// bool. DefaultThresholds reproduces spec.md's literal constants; an
// operator may override any subset via config without touching Go code.
type ThresholdConfig struct {
	// VelocityExpr receives `transactions_per_day` (double). Default
	// reproduces spec.md §4.6: "transactions-per-day > 15".
	VelocityExpr string

	// DampeningExpr receives `degree` (int) and `pct_within_tolerance`
	// (double, fraction of inter-arrival intervals within +/-30% of the
	// mean). Default reproduces spec.md §4.6: "in_degree+out_degree > 100
	// and more than 60% of intervals are within tolerance".
	DampeningExpr string

	// LegitimacyExpr receives `transaction_count` (int), `duration_days`
	// (double), `amount_variance` (double, coefficient of variation of
	// amounts) and `periodicity_score` (double, fraction of intervals
	// within tolerance of the mean interval). Default reproduces spec.md
	// §4.8.1's "recurring-pair relationship... amount-variance
	// consistency... periodicity" legitimate-activity profile.
	LegitimacyExpr string
}

// DefaultThresholds returns the literal spec.md constants as CEL predicates.
func DefaultThresholds() ThresholdConfig {
	return ThresholdConfig{
		VelocityExpr:   "transactions_per_day > 15.0",
		DampeningExpr:  "degree > 100 && pct_within_tolerance > 0.6",
		LegitimacyExpr: "transaction_count >= 5 && duration_days >= 30.0 && amount_variance < 0.25 && periodicity_score > 0.6",
	}
}

// Engine compiles and evaluates the threshold predicates.
type Engine struct {
	velocity   cel.Program
	dampening  cel.Program
	legitimacy cel.Program
}

// NewEngine compiles cfg's three expressions against their respective CEL
// environments and returns a ready Engine.
func NewEngine(cfg ThresholdConfig) (*Engine, error) {
	velocityEnv, err := cel.NewEnv(cel.Variable("transactions_per_day", cel.DoubleType))
	if err != nil {
		return nil, fmt.Errorf("rules: velocity env: %w", err)
	}
	velocity, err := compileBool(velocityEnv, cfg.VelocityExpr)
	if err != nil {
		return nil, fmt.Errorf("rules: velocity expression: %w", err)
	}

	dampeningEnv, err := cel.NewEnv(
		cel.Variable("degree", cel.IntType),
		cel.Variable("pct_within_tolerance", cel.DoubleType),
	)
	if err != nil {
		return nil, fmt.Errorf("rules: dampening env: %w", err)
	}
	dampening, err := compileBool(dampeningEnv, cfg.DampeningExpr)
	if err != nil {
		return nil, fmt.Errorf("rules: dampening expression: %w", err)
	}

	legitimacyEnv, err := cel.NewEnv(
		cel.Variable("transaction_count", cel.IntType),
		cel.Variable("duration_days", cel.DoubleType),
		cel.Variable("amount_variance", cel.DoubleType),
		cel.Variable("periodicity_score", cel.DoubleType),
	)
	if err != nil {
		return nil, fmt.Errorf("rules: legitimacy env: %w", err)
	}
	legitimacy, err := compileBool(legitimacyEnv, cfg.LegitimacyExpr)
	if err != nil {
		return nil, fmt.Errorf("rules: legitimacy expression: %w", err)
	}

	return &Engine{velocity: velocity, dampening: dampening, legitimacy: legitimacy}, nil
}

// VelocityTriggered reports whether transactionsPerDay crosses the velocity
// threshold (spec.md §4.6).
func (e *Engine) VelocityTriggered(transactionsPerDay float64) bool {
	return evalBool(e.velocity, map[string]any{"transactions_per_day": transactionsPerDay})
}

// DampeningTriggered reports whether the high-degree false-positive
// dampening condition holds (spec.md §4.6).
func (e *Engine) DampeningTriggered(degree int, pctWithinTolerance float64) bool {
	return evalBool(e.dampening, map[string]any{
		"degree":               int64(degree),
		"pct_within_tolerance": pctWithinTolerance,
	})
}

// LegitimacyProfile reports whether a recurring sender-receiver pair
// matches the legitimate-activity profile (spec.md §4.8.1).
func (e *Engine) LegitimacyProfile(transactionCount int, durationDays, amountVariance, periodicityScore float64) bool {
	return evalBool(e.legitimacy, map[string]any{
		"transaction_count": int64(transactionCount),
		"duration_days":     durationDays,
		"amount_variance":   amountVariance,
		"periodicity_score": periodicityScore,
	})
}

func compileBool(env *cel.Env, expr string) (cel.Program, error) {
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("expression %q must return bool, got %s", expr, ast.OutputType())
	}
	return env.Program(ast)
}

func evalBool(prog cel.Program, activation map[string]any) bool {
	out, _, err := prog.Eval(activation)
	if err != nil {
		return false
	}
	return toBool(out)
}

func toBool(val ref.Val) bool {
	if b, ok := val.(types.Bool); ok {
		return bool(b)
	}
	return false
}
