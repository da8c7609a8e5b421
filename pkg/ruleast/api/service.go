// Package api exposes rule compilation, combination, and evaluation over
// HTTP, backed by a pluggable rule store.
package api

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/randalmurphal/ruleast/pkg/ruleast"
	rerrors "github.com/randalmurphal/ruleast/pkg/ruleast/errors"
	"github.com/randalmurphal/ruleast/pkg/ruleast/observability"
	"github.com/randalmurphal/ruleast/pkg/ruleast/store"
)

// Validation messages returned to callers unchanged.
const (
	MsgNoRuleString     = "No rule_string provided"
	MsgNoRules          = "No rules provided"
	MsgRulesNotArray    = "Rules must be provided as an array"
	MsgTooFewRules      = "At least two rules are required for combination"
	MsgNoRuleIDOrAST    = "No rule_id or ast provided"
	MsgBothRuleIDAndAST = "Provide either rule_id or ast, not both"
	MsgNoData           = "No data provided"
)

// Service runs rule operations against a store with logging, metrics,
// and tracing around each one. It is safe for concurrent use.
type Service struct {
	store     store.Store
	logger    *slog.Logger
	metrics   observability.MetricsRecorder
	spans     observability.SpanManager
	groupTerm string
	parseOpts []ruleast.ParseOption
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics enables OpenTelemetry metrics using the global meter provider.
func WithMetrics(enabled bool) Option {
	return func(s *Service) {
		if enabled {
			s.metrics = observability.NewMetricsRecorder()
		} else {
			s.metrics = observability.NoopMetrics{}
		}
	}
}

// WithTracing enables OpenTelemetry spans using the global tracer provider.
func WithTracing(enabled bool) Option {
	return func(s *Service) {
		if enabled {
			s.spans = observability.NewSpanManager()
		} else {
			s.spans = observability.NoopSpanManager{}
		}
	}
}

// WithGroupTerm sets the substring that places a rule in the OR-folded
// group when combining. Default: "department".
func WithGroupTerm(term string) Option {
	return func(s *Service) {
		if term != "" {
			s.groupTerm = term
		}
	}
}

// WithStrictParens rejects unbalanced parentheses instead of keeping
// the affected text as a literal condition.
func WithStrictParens() Option {
	return func(s *Service) {
		s.parseOpts = append(s.parseOpts, ruleast.WithStrictParens())
	}
}

// NewService creates a Service over st.
func NewService(st store.Store, opts ...Option) *Service {
	s := &Service{
		store:     st,
		metrics:   observability.NoopMetrics{},
		spans:     observability.NoopSpanManager{},
		groupTerm: ruleast.DefaultGroupTerm,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateRule parses text and stores the resulting tree under a new rule ID.
func (s *Service) CreateRule(ctx context.Context, text string) (rule *store.Rule, err error) {
	ctx, span := s.spans.StartOperationSpan(ctx, "create", "")
	defer func() { s.spans.EndSpanWithError(span, err) }()

	if text == "" {
		return nil, rerrors.Validation("rule_string", MsgNoRuleString)
	}

	tree, err := ruleast.Parse(text, s.parseOpts...)
	s.metrics.RecordParse(ctx, store.KindRule, err)
	if err != nil {
		observability.LogOperationError(s.logger, "create", err)
		return nil, err
	}

	rule = store.NewRule(store.NewRuleID(), tree, text)
	if err := s.save(ctx, rule); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("rule.id", rule.ID))
	observability.LogRuleCreated(s.logger, rule.ID, rule.Kind, len(tree.Conditions()))
	return rule, nil
}

// CombineRules combines at least two rule texts and stores the result
// under a new combined rule ID.
func (s *Service) CombineRules(ctx context.Context, texts []string) (rule *store.Rule, err error) {
	ctx, span := s.spans.StartOperationSpan(ctx, "combine", "")
	defer func() { s.spans.EndSpanWithError(span, err) }()

	switch {
	case len(texts) == 0:
		return nil, rerrors.Validation("rules", MsgNoRules)
	case len(texts) < 2:
		return nil, rerrors.Validation("rules", MsgTooFewRules)
	}

	tree, err := ruleast.Combine(texts,
		ruleast.WithGroupTerm(s.groupTerm),
		ruleast.WithParseOptions(s.parseOpts...),
	)
	s.metrics.RecordParse(ctx, store.KindCombined, err)
	if err != nil {
		observability.LogOperationError(s.logger, "combine", err)
		return nil, err
	}

	rule = store.NewRule(store.NewCombinedRuleID(), tree, texts...)
	if err := s.save(ctx, rule); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("rule.id", rule.ID))
	observability.LogRulesCombined(s.logger, rule.ID, len(texts), s.groupedCount(texts))
	return rule, nil
}

// EvaluateRule loads the rule stored under id and evaluates it against record.
func (s *Service) EvaluateRule(ctx context.Context, id string, record map[string]any) (result bool, err error) {
	ctx, span := s.spans.StartOperationSpan(ctx, "evaluate", id)
	defer func() { s.spans.EndSpanWithError(span, err) }()

	tree, err := s.loadTree(ctx, id)
	if err != nil {
		return false, err
	}
	return s.evaluate(ctx, "stored", id, tree, record)
}

// EvaluateTree evaluates a caller-supplied tree against record.
func (s *Service) EvaluateTree(ctx context.Context, tree *ruleast.Node, record map[string]any) (result bool, err error) {
	ctx, span := s.spans.StartOperationSpan(ctx, "evaluate", "")
	defer func() { s.spans.EndSpanWithError(span, err) }()

	if tree == nil {
		return false, rerrors.Validation("ast", MsgNoRuleIDOrAST)
	}
	return s.evaluate(ctx, "inline", "", tree, record)
}

// GetRule returns the rule stored under id. A stored rule that cannot be
// decoded is reported as an internal error, not a client error.
func (s *Service) GetRule(ctx context.Context, id string) (*store.Rule, error) {
	rule, err := store.LoadRule(ctx, s.store, id)
	if err != nil {
		if errors.Is(err, store.ErrCorruptRule) {
			return nil, s.corrupt(id, err)
		}
		if !rerrors.IsClientError(err) {
			observability.LogStoreError(s.logger, id, "load", err)
		}
		return nil, err
	}
	return rule, nil
}

// loadTree loads the rule stored under id and rebuilds its tree.
func (s *Service) loadTree(ctx context.Context, id string) (*ruleast.Node, error) {
	rule, err := s.GetRule(ctx, id)
	if err != nil {
		return nil, err
	}
	tree, err := rule.Tree()
	if err != nil {
		return nil, s.corrupt(id, err)
	}
	return tree, nil
}

// corrupt marks a decode failure of stored data as a server-side fault.
func (s *Service) corrupt(id string, err error) error {
	if logger := observability.EnrichLogger(s.logger, id, "decode"); logger != nil {
		logger.Error("stored rule is corrupt", slog.String("error", err.Error()))
	}
	return rerrors.NewCategorized(err, rerrors.CategoryInternal, "decode stored rule")
}

// ListRules returns metadata for every stored rule, oldest first.
func (s *Service) ListRules(ctx context.Context) ([]store.Info, error) {
	infos, err := s.store.List(ctx)
	if err != nil {
		observability.LogStoreError(s.logger, "", "list", err)
		return nil, err
	}
	return infos, nil
}

// DeleteRule removes the rule stored under id. Deleting an unknown ID
// reports ErrNotFound.
func (s *Service) DeleteRule(ctx context.Context, id string) (err error) {
	ctx, span := s.spans.StartOperationSpan(ctx, "delete", id)
	defer func() { s.spans.EndSpanWithError(span, err) }()

	if _, err := s.store.Load(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		observability.LogStoreError(s.logger, id, "delete", err)
		return err
	}
	observability.LogRuleDeleted(s.logger, id)
	return nil
}

// Health reports whether the store is reachable.
func (s *Service) Health(ctx context.Context) error {
	if p, ok := s.store.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	_, err := s.store.List(ctx)
	return err
}

func (s *Service) save(ctx context.Context, rule *store.Rule) error {
	size, err := store.SaveRule(ctx, s.store, rule)
	if err != nil {
		observability.LogStoreError(s.logger, rule.ID, "save", err)
		return err
	}
	s.metrics.RecordStore(ctx, "save", size)
	return nil
}

func (s *Service) evaluate(ctx context.Context, source, id string, tree *ruleast.Node, record map[string]any) (bool, error) {
	elapsed := observability.TimedOperation()
	result, err := ruleast.Evaluate(tree, record)
	durationMs := elapsed()

	s.metrics.RecordEvaluation(ctx, source, durationMs, err)
	if err != nil {
		observability.LogOperationError(s.logger, "evaluate", err)
		return false, err
	}

	s.spans.AddSpanEvent(ctx, "verdict", attribute.Bool("result", result))
	observability.LogEvaluation(s.logger, id, result, durationMs)
	return result, nil
}

// groupedCount reports how many texts land in the OR-folded group.
func (s *Service) groupedCount(texts []string) int {
	n := 0
	for _, text := range texts {
		tree, err := ruleast.Parse(text, s.parseOpts...)
		if err == nil && ruleast.HasTerm(tree, s.groupTerm) {
			n++
		}
	}
	return n
}
