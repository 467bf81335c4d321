package router

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/aescanero/dago-sitegen/internal/eval/cel"
	"github.com/aescanero/dago-sitegen/internal/value"
)

// Paths a decision can take
const (
	PathFilter   = "filter"
	PathRule     = "rule"
	PathFallback = "fallback"
)

// Config holds the routing rules of a site
type Config struct {
	// Filter drops every target it evaluates to false for. Empty keeps all.
	Filter string `json:"filter,omitempty" yaml:"filter,omitempty"`
	Rules  []Rule `json:"rules,omitempty" yaml:"rules,omitempty"`
}

// Rule maps a CEL condition to a page template, or skips the target
type Rule struct {
	Condition string `json:"condition" yaml:"condition"`
	Template  string `json:"template,omitempty" yaml:"template,omitempty"`
	Skip      bool   `json:"skip,omitempty" yaml:"skip,omitempty"`
}

// Target is one page in one language
type Target struct {
	Page    string
	Lang    string
	Default bool
	Data    value.Value
}

// Decision is the result of routing a target
type Decision struct {
	Template  string `json:"template,omitempty"`
	Skip      bool   `json:"skip,omitempty"`
	Reasoning string `json:"reasoning"`
	PathTaken string `json:"path_taken"` // "filter", "rule", "fallback"
}

// Router picks the template for each build target
type Router struct {
	celEvaluator *cel.Evaluator
	logger       *zap.Logger
}

// NewRouter creates a new router
func NewRouter(logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		celEvaluator: cel.NewEvaluator(),
		logger:       logger,
	}
}

// Route decides how a target is built. A nil config renders every page with
// its own template.
func (r *Router) Route(ctx context.Context, target Target, config *Config) (*Decision, error) {
	if config == nil {
		config = &Config{}
	}

	vars := prepareVars(target)

	if config.Filter != "" {
		keep, err := r.celEvaluator.EvaluateBool(ctx, config.Filter, vars)
		if err != nil {
			return nil, fmt.Errorf("build filter: %w", err)
		}
		if !keep {
			r.logger.Debug("target filtered out",
				zap.String("page", target.Page),
				zap.String("lang", target.Lang),
				zap.String("filter", config.Filter),
			)
			return &Decision{
				Skip:      true,
				Reasoning: fmt.Sprintf("filtered out by %s", config.Filter),
				PathTaken: PathFilter,
			}, nil
		}
	}

	result := r.routeDeterministic(ctx, target, vars, config.Rules)

	r.logger.Debug("routing decision",
		zap.String("page", target.Page),
		zap.String("lang", target.Lang),
		zap.String("template", result.Template),
		zap.Bool("skip", result.Skip),
		zap.String("path", result.PathTaken),
		zap.String("reasoning", result.Reasoning),
	)

	return result, nil
}

// Validate compiles the filter and every rule condition and checks that each
// rule names exactly one outcome
func (r *Router) Validate(config *Config) error {
	if config == nil {
		return nil
	}

	if config.Filter != "" {
		if err := r.celEvaluator.ValidateExpression(config.Filter); err != nil {
			return fmt.Errorf("filter: %w", err)
		}
	}

	for i, rule := range config.Rules {
		if rule.Condition == "" {
			return fmt.Errorf("rule %d: condition is required", i)
		}
		if rule.Template == "" && !rule.Skip {
			return fmt.Errorf("rule %d: template or skip is required", i)
		}
		if rule.Template != "" && rule.Skip {
			return fmt.Errorf("rule %d: template and skip are exclusive", i)
		}
		if err := r.celEvaluator.ValidateExpression(rule.Condition); err != nil {
			return fmt.Errorf("rule %d: %w", i, err)
		}
	}

	return nil
}

// Templates lists the templates referenced by rules, in rule order
func (c *Config) Templates() []string {
	if c == nil {
		return nil
	}
	var names []string
	seen := map[string]bool{}
	for _, rule := range c.Rules {
		if rule.Template != "" && !seen[rule.Template] {
			seen[rule.Template] = true
			names = append(names, rule.Template)
		}
	}
	return names
}
