package probe

import (
	"regexp"
	"sync"
)

var (
	rateLimitRe   = regexp.MustCompile(`(?i)\b429\b|rate\s*limit|rate_limited`)
	serverErrorRe = regexp.MustCompile(`\b5\d{2}\b|5xx`)
	networkRe     = regexp.MustCompile(`(?i)timeout|timed\s*out|network`)
)

// ClassifyMessage maps a free-form provider error message onto a category.
// Only the classes the adaptive limiter reacts to are distinguished; anything
// else is CategoryFailed.
func ClassifyMessage(message string) Category {
	switch {
	case message == "":
		return CategoryFailed
	case rateLimitRe.MatchString(message):
		return CategoryRateLimited
	case serverErrorRe.MatchString(message):
		return CategoryServerError
	case networkRe.MatchString(message):
		return CategoryNetwork
	default:
		return CategoryFailed
	}
}

// AdaptiveLimit is an additive-increase / multiplicative-decrease concurrency
// limit. Successes raise the limit by one (every success during warmup, then
// every SuccessTarget consecutive successes); rate limiting halves it; server
// and network errors lower it by one. It is safe for concurrent use.
type AdaptiveLimit struct {
	mu sync.Mutex

	min, max        int
	successTarget   int
	warmupSuccesses int

	current      int
	streak       int
	successTotal int
}

// AdaptiveConfig configures an AdaptiveLimit. Zero values select defaults:
// Min 1, Max 16, SuccessTarget 2, Warmup 10, Start ceil(Max/2).
type AdaptiveConfig struct {
	Min           int
	Max           int
	Start         int
	SuccessTarget int
	Warmup        int
}

// NewAdaptiveLimit creates a limiter from cfg.
func NewAdaptiveLimit(cfg AdaptiveConfig) *AdaptiveLimit {
	minLimit := cfg.Min
	if minLimit < 1 {
		minLimit = 1
	}
	maxLimit := cfg.Max
	if maxLimit <= 0 {
		maxLimit = 16
	}
	if maxLimit < minLimit {
		maxLimit = minLimit
	}
	target := cfg.SuccessTarget
	if target <= 0 {
		target = 2
	}
	warmup := cfg.Warmup
	if warmup < 0 {
		warmup = 0
	} else if warmup == 0 {
		warmup = 10
	}

	start := cfg.Start
	if start <= 0 {
		start = (maxLimit + 1) / 2
	}
	start = clamp(start, minLimit, maxLimit)

	return &AdaptiveLimit{
		min:             minLimit,
		max:             maxLimit,
		successTarget:   target,
		warmupSuccesses: warmup,
		current:         start,
	}
}

// Limit returns the current concurrency limit.
func (a *AdaptiveLimit) Limit() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// NoteSuccess records a successful request.
func (a *AdaptiveLimit) NoteSuccess() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.successTotal++
	if a.successTotal <= a.warmupSuccesses {
		if a.current < a.max {
			a.current++
		}
		a.streak = 0
		return
	}
	a.streak++
	if a.streak >= a.successTarget && a.current < a.max {
		a.current++
		a.streak = 0
	}
}

// NoteFailure records a failed request of the given category.
func (a *AdaptiveLimit) NoteFailure(category Category) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.streak = 0
	switch category {
	case CategoryRateLimited:
		a.current = clamp((a.current+1)/2, a.min, a.max)
	case CategoryServerError, CategoryNetwork, CategoryTimeout:
		a.current = clamp(a.current-1, a.min, a.max)
	}
}

// NoteError classifies message, records it and returns its category.
func (a *AdaptiveLimit) NoteError(message string) Category {
	category := ClassifyMessage(message)
	a.NoteFailure(category)
	return category
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
