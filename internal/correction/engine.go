// Package correction applies deterministic override rules to raw model
// predictions. Rules run top to bottom and the first one that fires decides
// the final label.
package correction

import (
	"strings"

	"go.uber.org/zap"
)

// Input is what every rule sees.
type Input struct {
	Text       string // corrected input text, lower-cased
	Prediction string // decoder output as produced
}

// Decision is the engine's verdict for one request.
type Decision struct {
	Label      string
	Rule       string
	Overridden bool
}

// Engine evaluates an ordered rule table. It is read-only after construction.
type Engine struct {
	rules  []Rule
	logger *zap.Logger
}

// NewEngine builds an engine over DefaultRules.
func NewEngine(logger *zap.Logger) *Engine {
	return NewEngineWithRules(DefaultRules(), logger)
}

// NewEngineWithRules builds an engine over rules. A passthrough rule is
// appended when the table does not end in one.
func NewEngineWithRules(rules []Rule, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	table := make([]Rule, len(rules), len(rules)+1)
	copy(table, rules)
	if len(table) == 0 || table[len(table)-1].ID != "fallback" {
		table = append(table, Rule{ID: "fallback", Apply: passthrough})
	}
	return &Engine{rules: table, logger: logger}
}

// Correct returns the final label for text and the raw prediction.
func (e *Engine) Correct(text, prediction string) Decision {
	in := Input{
		Text:       strings.ToLower(text),
		Prediction: prediction,
	}
	for _, r := range e.rules {
		label, ok := r.Apply(in)
		if !ok {
			continue
		}
		d := Decision{Label: label, Rule: r.ID, Overridden: label != prediction}
		if d.Overridden {
			e.logger.Debug("prediction overridden",
				zap.String("rule", r.ID),
				zap.String("raw", prediction),
				zap.String("label", label))
		}
		return d
	}
	// Unreachable: the table always ends in the passthrough rule.
	return Decision{Label: prediction, Rule: "fallback"}
}

// Rules lists rule IDs in evaluation order.
func (e *Engine) Rules() []string {
	ids := make([]string, len(e.rules))
	for i, r := range e.rules {
		ids[i] = r.ID
	}
	return ids
}
