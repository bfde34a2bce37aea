package service

import "github.com/wealthsim/wealthsim/internal/domain"

// Suggestion is one heuristic recommendation surfaced alongside results.
type Suggestion struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// SuggestionContext is what a heuristic gets to look at: the request and
// its computed result.
type SuggestionContext struct {
	Request *domain.CalculationRequest
	Result  *domain.CalculationResult
}

// Suggester is an external, pluggable heuristic. The engine ships no model
// of its own; callers wire their own implementation or get none.
type Suggester interface {
	Suggest(ctx SuggestionContext) []Suggestion
}

// noopSuggester is the default: no suggestions.
type noopSuggester struct{}

func (noopSuggester) Suggest(SuggestionContext) []Suggestion { return nil }
