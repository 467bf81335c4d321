package router

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/aescanero/dago-sitegen/internal/eval/cel"
	"github.com/aescanero/dago-sitegen/internal/value"
)

// routeDeterministic evaluates rules in order; the first true condition wins
func (r *Router) routeDeterministic(ctx context.Context, target Target, vars map[string]interface{}, rules []Rule) *Decision {
	for i, rule := range rules {
		r.logger.Debug("evaluating rule",
			zap.Int("rule_index", i),
			zap.String("condition", rule.Condition),
		)

		matched, err := r.celEvaluator.EvaluateBool(ctx, rule.Condition, vars)
		if err != nil {
			r.logger.Warn("rule evaluation error",
				zap.Int("rule_index", i),
				zap.String("page", target.Page),
				zap.String("lang", target.Lang),
				zap.String("condition", rule.Condition),
				zap.Error(err),
			)
			// Continue to next rule on error
			continue
		}

		if matched {
			return &Decision{
				Template:  rule.Template,
				Skip:      rule.Skip,
				Reasoning: fmt.Sprintf("matched rule %d: %s", i, rule.Condition),
				PathTaken: PathRule,
			}
		}
	}

	return &Decision{
		Template:  target.Page,
		Reasoning: "no rules matched",
		PathTaken: PathFallback,
	}
}

// prepareVars converts a target to CEL variables
func prepareVars(target Target) map[string]interface{} {
	data, ok := target.Data.ToAny().(map[string]interface{})
	if !ok {
		data = map[string]interface{}{}
	}
	return map[string]interface{}{
		cel.VarPage:        target.Page,
		cel.VarLang:        target.Lang,
		cel.VarDefaultLang: target.Default,
		cel.VarData:        data,
	}
}

// ParseConfig reads routing rules from a decoded routes file
func ParseConfig(v value.Value) (*Config, error) {
	if v.IsNil() {
		return &Config{}, nil
	}
	m, ok := v.AsMap()
	if !ok {
		return nil, fmt.Errorf("routes must be an object, got %s", v.Kind())
	}

	config := &Config{}
	if f, ok := m.Get("filter"); ok && !f.IsNil() {
		s, ok := f.AsString()
		if !ok {
			return nil, fmt.Errorf("filter must be a string, got %s", f.Kind())
		}
		config.Filter = s
	}

	rules, ok := m.Get("rules")
	if !ok || rules.IsNil() {
		return config, nil
	}
	items, ok := rules.AsList()
	if !ok {
		return nil, fmt.Errorf("rules must be a list, got %s", rules.Kind())
	}
	for i, item := range items {
		rule, err := parseRule(item)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		config.Rules = append(config.Rules, rule)
	}
	return config, nil
}

func parseRule(v value.Value) (Rule, error) {
	m, ok := v.AsMap()
	if !ok {
		return Rule{}, fmt.Errorf("must be an object, got %s", v.Kind())
	}
	var rule Rule
	for _, key := range m.Keys() {
		field, _ := m.Get(key)
		switch key {
		case "condition", "template":
			s, ok := field.AsString()
			if !ok {
				return Rule{}, fmt.Errorf("%s must be a string, got %s", key, field.Kind())
			}
			if key == "condition" {
				rule.Condition = s
			} else {
				rule.Template = s
			}
		case "skip":
			b, ok := field.AsBool()
			if !ok {
				return Rule{}, fmt.Errorf("skip must be a bool, got %s", field.Kind())
			}
			rule.Skip = b
		default:
			return Rule{}, fmt.Errorf("unknown field %q", key)
		}
	}
	return rule, nil
}
