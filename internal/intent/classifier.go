package intent

import "strings"

// Classifier evaluates rules in order and stops at the first match.
type Classifier struct {
	rules []Rule
}

// NewClassifier copies rules; a nil slice means DefaultRules.
func NewClassifier(rules []Rule) *Classifier {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Classifier{rules: append([]Rule(nil), rules...)}
}

// Classify returns the intent of text, or Unknown when no rule holds.
func (c *Classifier) Classify(text string) Tag {
	text = strings.ToLower(text)
	for _, r := range c.rules {
		if r.Matches(text) {
			return r.Intent
		}
	}
	return Unknown
}

// Rules returns a copy of the cascade in evaluation order.
func (c *Classifier) Rules() []Rule {
	return append([]Rule(nil), c.rules...)
}
