package service

import (
	"context"
	"fmt"

	"github.com/powderplan/powderplan/internal/domain"
	"go.uber.org/zap"
)

// Default layer weights. Chosen so deep analysis dominates but cheap
// checks still move the needle.
const (
	DefaultHeuristicWeight = 0.4
	DefaultJudgeWeight     = 0.6
)

// Three-layer weights: heuristic, quick judge, detailed judge.
const (
	threeLayerHeuristicWeight = 0.3
	threeLayerQuickWeight     = 0.3
	threeLayerDetailedWeight  = 0.4
)

// Layer is one independent scoring method inside the detection engine.
type Layer interface {
	Name() string
	Evaluate(ctx context.Context, reply string, invocations []domain.Invocation) domain.LayerResult
}

type weightedLayer struct {
	layer  Layer
	weight float64
}

// Engine aggregates detection layers into one verdict: weighted-average
// confidence, OR of flags, max-severity action, reasons concatenated in
// layer order with layer-name prefixes. The aggregation rule is
// layer-count agnostic; weights are normalized over the layers that
// actually ran.
type Engine struct {
	layers []weightedLayer
	// deferred runs only when an earlier layer shows suspicion. Used by the
	// three-layer engine to keep the expensive detailed judge off the hot
	// path of clean replies.
	deferred *weightedLayer
	logger   *zap.Logger
}

// NewEngine builds the two-layer engine: heuristic plus judge.
// heuristicWeight and judgeWeight are normalized to sum to 1.
func NewEngine(heuristic *HeuristicLayer, judge *JudgeLayer, heuristicWeight, judgeWeight float64, logger *zap.Logger) *Engine {
	if heuristicWeight <= 0 || judgeWeight <= 0 {
		heuristicWeight = DefaultHeuristicWeight
		judgeWeight = DefaultJudgeWeight
	}
	return &Engine{
		layers: []weightedLayer{
			{layer: heuristic, weight: heuristicWeight},
			{layer: judge, weight: judgeWeight},
		},
		logger: logger,
	}
}

// NewThreeLayerEngine builds the evolutionary variant: heuristic, cheap
// common-sense judge, and a detailed judge triggered only when the first
// two show any suspicion. Trades latency for recall.
func NewThreeLayerEngine(heuristic *HeuristicLayer, quick, detailed *JudgeLayer, logger *zap.Logger) *Engine {
	return &Engine{
		layers: []weightedLayer{
			{layer: heuristic, weight: threeLayerHeuristicWeight},
			{layer: quick, weight: threeLayerQuickWeight},
		},
		deferred: &weightedLayer{layer: detailed, weight: threeLayerDetailedWeight},
		logger:   logger,
	}
}

// Evaluate scores one reply. Derivable solely from this turn's layer
// results and the fixed weights; no cross-turn state.
func (e *Engine) Evaluate(ctx context.Context, reply string, invocations []domain.Invocation) domain.Verdict {
	type run struct {
		name   string
		weight float64
		result domain.LayerResult
	}

	runs := make([]run, 0, len(e.layers)+1)
	for _, wl := range e.layers {
		result := wl.layer.Evaluate(ctx, reply, invocations)
		runs = append(runs, run{name: wl.layer.Name(), weight: wl.weight, result: result})
		e.logger.Debug("detection layer evaluated",
			zap.String("layer", wl.layer.Name()),
			zap.Bool("flagged", result.Flagged),
			zap.Float64("confidence", result.Confidence))
	}

	if e.deferred != nil {
		suspicious := false
		for _, r := range runs {
			if suspicion(r.result) {
				suspicious = true
				break
			}
		}
		if suspicious {
			result := e.deferred.layer.Evaluate(ctx, reply, invocations)
			runs = append(runs, run{name: e.deferred.layer.Name(), weight: e.deferred.weight, result: result})
			e.logger.Debug("detection layer evaluated",
				zap.String("layer", e.deferred.layer.Name()),
				zap.Bool("flagged", result.Flagged),
				zap.Float64("confidence", result.Confidence))
		}
	}

	var verdict domain.Verdict
	var weightSum, confidenceSum float64
	verdict.Reasons = []string{}

	for _, r := range runs {
		weightSum += r.weight
		confidenceSum += r.weight * r.result.Confidence
		verdict.IsLikelyHallucination = verdict.IsLikelyHallucination || r.result.Flagged
		verdict.SuggestedAction = domain.MoreSevere(verdict.SuggestedAction, r.result.Action)
		for _, reason := range r.result.Reasons {
			verdict.Reasons = append(verdict.Reasons, fmt.Sprintf("[%s] %s", r.name, reason))
		}
	}

	if weightSum > 0 {
		verdict.Confidence = confidenceSum / weightSum
	}
	if verdict.Confidence < 0 {
		verdict.Confidence = 0
	}
	if verdict.Confidence > 1 {
		verdict.Confidence = 1
	}

	return verdict
}

// suspicion decides whether a layer result triggers the deferred layer.
func suspicion(r domain.LayerResult) bool {
	return r.Flagged || r.Action != domain.ActionNone || len(r.Reasons) > 0
}
