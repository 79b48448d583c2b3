// Package suggest merges gazetteer and remote matches into a bounded,
// deduplicated suggestion list and decides when a query is unambiguous
// enough to select without asking.
package suggest

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/codeGROOVE-dev/oracle/pkg/gazetteer"
	"github.com/codeGROOVE-dev/oracle/pkg/location"
)

const (
	// MaxSuggestions bounds every result.
	MaxSuggestions = 5
	// MinQueryLength is the shortest normalized query, in characters, that
	// triggers a lookup.
	MinQueryLength = 3
)

// Result is the outcome of one Build.
type Result struct {
	AutoSelect *location.Candidate  `json:"auto_select"`
	Query      string               `json:"query"`
	Candidates []location.Candidate `json:"suggestions"`
}

// Aggregator runs strategies in order until the list is full.
type Aggregator struct {
	logger     *slog.Logger
	strategies []Strategy
}

// New returns an aggregator over strategies, tried in the given order.
func New(logger *slog.Logger, strategies ...Strategy) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{logger: logger, strategies: strategies}
}

// Searchable reports whether query is long enough to look up.
func Searchable(query string) bool {
	return utf8.RuneCountInString(gazetteer.Normalize(query)) >= MinQueryLength
}

// Build returns suggestions for query. Short queries return an empty result
// without consulting any strategy.
func (a *Aggregator) Build(ctx context.Context, query string) Result {
	res := Result{Query: query, Candidates: []location.Candidate{}}
	if !Searchable(query) {
		return res
	}

	seen := make(map[string]bool)
	for _, s := range a.strategies {
		remaining := MaxSuggestions - len(res.Candidates)
		if remaining <= 0 {
			break
		}
		if ctx.Err() != nil {
			a.logger.Debug("suggestion build abandoned", "query", query, "error", ctx.Err())
			break
		}

		// Ask for extra results to cover hits that repeat a name already listed.
		found, err := s.Suggest(ctx, query, remaining+len(seen))
		if err != nil {
			a.logger.Debug("strategy failed", "strategy", s.Name(), "query", query, "error", err)
			continue
		}
		for _, c := range found {
			if len(res.Candidates) == MaxSuggestions {
				break
			}
			if c.DisplayName == "" || seen[c.DisplayName] {
				continue
			}
			seen[c.DisplayName] = true
			res.Candidates = append(res.Candidates, c)
		}
		a.logger.Debug("strategy completed", "strategy", s.Name(), "query", query,
			"found", len(found), "total", len(res.Candidates))
	}

	if len(res.Candidates) == 1 && strings.EqualFold(res.Candidates[0].DisplayName, gazetteer.Normalize(query)) {
		c := res.Candidates[0]
		res.AutoSelect = &c
	}
	return res
}
