// Package filter classifies parcels by their land-use code.
package filter

import (
	"errors"
	"strings"

	"github.com/woozymasta/parcelstrip/internal/config"
)

// Decision is the outcome of evaluating a land-use code.
type Decision uint8

// Decisions in rule precedence order.
const (
	Kept Decision = iota
	ExcludedEmpty
	ExcludedCategory
	ExcludedPrefix
	ExcludedResidential
)

var decisionNames = [...]string{
	Kept:                "kept",
	ExcludedEmpty:       "empty",
	ExcludedCategory:    "category",
	ExcludedPrefix:      "prefix",
	ExcludedResidential: "residential",
}

func (d Decision) String() string {
	if int(d) < len(decisionNames) {
		return decisionNames[d]
	}
	return "unknown"
}

// Rules decides which land-use codes are kept.
type Rules struct {
	categories   map[byte]struct{}
	prefixes     map[string]struct{}
	residential  string
	singleFamily string
}

// NewRules builds the rule set from its configuration.
func NewRules(cfg config.Exclusions) (*Rules, error) {
	r := &Rules{
		categories:   make(map[byte]struct{}, len(cfg.Categories)),
		prefixes:     make(map[string]struct{}, len(cfg.Prefixes)),
		residential:  cfg.Residential,
		singleFamily: cfg.SingleFamily,
	}

	for _, c := range cfg.Categories {
		if len(c) != 1 {
			return nil, errors.New("category must be a single character: " + c)
		}
		r.categories[c[0]] = struct{}{}
	}
	for _, p := range cfg.Prefixes {
		if len(p) != 3 {
			return nil, errors.New("prefix must be three characters: " + p)
		}
		r.prefixes[p] = struct{}{}
	}
	if r.residential != "" && r.singleFamily == "" {
		return nil, errors.New("residential marker set without a single family marker")
	}

	return r, nil
}

// Decide evaluates code against the rules; the first matching rule wins.
func (r *Rules) Decide(code string) Decision {
	code = strings.TrimSpace(code)
	if code == "" {
		return ExcludedEmpty
	}

	if _, ok := r.categories[code[0]]; ok {
		return ExcludedCategory
	}

	prefix, full := prefix3(code)
	if full {
		if _, ok := r.prefixes[prefix]; ok {
			return ExcludedPrefix
		}
	}

	if r.residential != "" && code[0] == r.residential[0] && (!full || prefix != r.singleFamily) {
		return ExcludedResidential
	}

	return Kept
}

// Keep reports whether code passes every rule.
func (r *Rules) Keep(code string) bool {
	return r.Decide(code) == Kept
}

// prefix3 returns the first three bytes of code and whether code had them.
func prefix3(code string) (string, bool) {
	if len(code) < 3 {
		return code, false
	}
	return code[:3], true
}
