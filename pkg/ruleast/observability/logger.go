// Package observability provides structured logging, metrics, and
// distributed tracing for the rule service.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds rule context to a logger.
// Returns a new logger with rule_id and operation fields.
//
// Example:
//
//	enriched := EnrichLogger(logger, "rule_1a2b3c4d", "evaluate")
//	enriched.Info("evaluating") // includes rule_id, operation
func EnrichLogger(logger *slog.Logger, ruleID, op string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("rule_id", ruleID),
		slog.String("operation", op),
	)
}

// LogRuleCreated logs a newly stored rule.
func LogRuleCreated(logger *slog.Logger, ruleID, kind string, conditions int) {
	if logger == nil {
		return
	}
	logger.Info("rule created",
		slog.String("rule_id", ruleID),
		slog.String("kind", kind),
		slog.Int("conditions", conditions),
	)
}

// LogRulesCombined logs the combination of several source rules.
func LogRulesCombined(logger *slog.Logger, ruleID string, sources, grouped int) {
	if logger == nil {
		return
	}
	logger.Info("rules combined",
		slog.String("rule_id", ruleID),
		slog.Int("sources", sources),
		slog.Int("grouped", grouped),
	)
}

// LogRuleDeleted logs removal of a stored rule.
func LogRuleDeleted(logger *slog.Logger, ruleID string) {
	if logger == nil {
		return
	}
	logger.Info("rule deleted",
		slog.String("rule_id", ruleID),
	)
}

// LogEvaluation logs an evaluation verdict.
func LogEvaluation(logger *slog.Logger, ruleID string, result bool, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("rule evaluated",
		slog.String("rule_id", ruleID),
		slog.Bool("result", result),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogOperationError logs a failed operation caused by the caller's input.
func LogOperationError(logger *slog.Logger, op string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("operation failed",
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
}

// LogStoreError logs a rule store failure.
func LogStoreError(logger *slog.Logger, ruleID, op string, err error) {
	if logger == nil {
		return
	}
	logger.Error("rule store failed",
		slog.String("rule_id", ruleID),
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Microseconds()) / 1000
	}
}
