package service

import (
	"context"
	"regexp"
	"strings"

	"github.com/powderplan/powderplan/internal/domain"
)

const DefaultHeuristicBaseConfidence = 0.7

// Suspicion thresholds for the heuristic layer.
const (
	heuristicFlagThreshold   = 0.5
	heuristicBlockThreshold  = 0.8
	heuristicVerifyThreshold = 0.3
)

var (
	unitNumberPattern  = regexp.MustCompile(`(?i)\d+(\.\d+)?\s*(°C|°F|USD|EUR|GBP|CHF|cm|inches|km/h|mph)`)
	weatherTermPattern = regexp.MustCompile(`(?i)temperature|snow|forecast|conditions|weather|precipitation`)
	currencyPattern    = regexp.MustCompile(`(?i)\$\d+|\d+\s*(USD|EUR|GBP|CHF)`)
	precisePattern     = regexp.MustCompile(`(?i)\d+\.\d{2,}\s*(°C|°F|USD|EUR)`)
)

var hedgePhrases = []string{
	"probably", "might be", "could be", "i think", "i believe", "i guess",
}

// HeuristicLayer is the fast, deterministic detection pass: pattern checks
// over the reply text against the capability calls actually made. No
// external calls, so it cannot fail.
type HeuristicLayer struct {
	// BaseConfidence is reported when no check fires. Rule-based checks are
	// equally trustworthy when they find nothing, so this is a fixed floor
	// rather than a derived value.
	BaseConfidence float64
}

func NewHeuristicLayer(baseConfidence float64) *HeuristicLayer {
	if baseConfidence <= 0 || baseConfidence > 1 {
		baseConfidence = DefaultHeuristicBaseConfidence
	}
	return &HeuristicLayer{BaseConfidence: baseConfidence}
}

func (l *HeuristicLayer) Name() string { return "Heuristic" }

func (l *HeuristicLayer) Evaluate(ctx context.Context, reply string, invocations []domain.Invocation) domain.LayerResult {
	var reasons []string
	var score float64

	hasData := len(invocations) > 0
	hasUnitNumbers := unitNumberPattern.MatchString(reply)

	weatherInvoked := invoked(invocations, "get_weather")
	currencyInvoked := invoked(invocations, "convert_currency")

	if hasUnitNumbers && !hasData {
		reasons = append(reasons, "Response contains specific numeric data but no capability calls were made")
		score += 0.4
	}

	if weatherTermPattern.MatchString(reply) && hasUnitNumbers && !weatherInvoked {
		reasons = append(reasons, "Response discusses weather conditions without calling the weather capability")
		score += 0.3
	}

	if currencyPattern.MatchString(reply) && !currencyInvoked {
		reasons = append(reasons, "Response contains currency amounts without calling the currency capability")
		score += 0.3
	}

	if countHedges(reply) > 2 && !hasData {
		reasons = append(reasons, "Response contains multiple uncertain phrases without using capability data")
		score += 0.3
	}

	if precisePattern.MatchString(reply) && !hasData {
		reasons = append(reasons, "Response contains overly precise numbers without a data source")
		score += 0.3
	}

	if score > 1 {
		score = 1
	}

	var action domain.Action
	switch {
	case score >= heuristicBlockThreshold:
		action = domain.ActionBlock
	case score >= heuristicFlagThreshold:
		action = domain.ActionWarn
	case score >= heuristicVerifyThreshold:
		action = domain.ActionVerify
	}

	// High suspicion = high confidence a problem exists; zero suspicion is
	// still a confident answer because the check set is deterministic.
	confidence := l.BaseConfidence
	if score >= heuristicVerifyThreshold {
		confidence = score
	}

	return domain.LayerResult{
		Flagged:    score >= heuristicFlagThreshold,
		Confidence: confidence,
		Reasons:    reasons,
		Action:     action,
	}
}

func invoked(invocations []domain.Invocation, name string) bool {
	for _, inv := range invocations {
		if inv.Name == name {
			return true
		}
	}
	return false
}

func countHedges(reply string) int {
	lower := strings.ToLower(reply)
	count := 0
	for _, phrase := range hedgePhrases {
		if strings.Contains(lower, phrase) {
			count++
		}
	}
	return count
}
