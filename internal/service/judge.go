package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/powderplan/powderplan/internal/domain"
	"go.uber.org/zap"
)

// JudgeLayer delegates to a classification model: given the reply text and
// a description of which capabilities were invoked, the judge returns a
// fabrication verdict. Malformed or unparsable judge output degrades to a
// neutral result; the caller never sees the failure.
type JudgeLayer struct {
	model  domain.JudgeModel
	prompt string
	name   string
	logger *zap.Logger
}

func NewJudgeLayer(name string, model domain.JudgeModel, prompt string, logger *zap.Logger) *JudgeLayer {
	return &JudgeLayer{
		model:  model,
		prompt: prompt,
		name:   name,
		logger: logger,
	}
}

func (l *JudgeLayer) Name() string { return l.name }

type judgeVerdict struct {
	IsLikelyHallucination bool     `json:"isLikelyHallucination"`
	Confidence            float64  `json:"confidence"`
	Concerns              []string `json:"concerns"`
	Severity              string   `json:"severity"`
	SuggestedAction       string   `json:"suggestedAction"`
}

func (l *JudgeLayer) Evaluate(ctx context.Context, reply string, invocations []domain.Invocation) domain.LayerResult {
	prompt := strings.NewReplacer(
		"{response}", reply,
		"{functionContext}", describeInvocations(invocations),
	).Replace(l.prompt)

	raw, err := l.model.Judge(ctx, prompt)
	if err != nil {
		l.logger.Warn("judge call failed, using neutral result",
			zap.String("layer", l.name),
			zap.Error(err))
		return domain.LayerResult{}
	}

	verdict, err := parseJudgeOutput(raw)
	if err != nil {
		l.logger.Warn("judge output unparsable, using neutral result",
			zap.String("layer", l.name),
			zap.Error(err))
		return domain.LayerResult{}
	}

	confidence := verdict.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return domain.LayerResult{
		Flagged:    verdict.IsLikelyHallucination,
		Confidence: confidence,
		Reasons:    verdict.Concerns,
		Action:     judgeAction(verdict),
	}
}

// judgeAction maps the judge's severity tier to an action; an explicit
// suggestedAction in the output wins when valid.
func judgeAction(v *judgeVerdict) domain.Action {
	if v.SuggestedAction != "" && domain.ValidAction(v.SuggestedAction) {
		return domain.Action(v.SuggestedAction)
	}
	switch strings.ToLower(strings.TrimSpace(v.Severity)) {
	case "likely_fabricated", "likely fabricated":
		return domain.ActionBlock
	case "questionable":
		return domain.ActionWarn
	default:
		return domain.ActionNone
	}
}

func parseJudgeOutput(raw string) (*judgeVerdict, error) {
	// Strip markdown fences if present
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var verdict judgeVerdict
	if err := json.Unmarshal([]byte(raw), &verdict); err != nil {
		return nil, fmt.Errorf("parse judge verdict: %w (raw: %s)", err, raw)
	}
	return &verdict, nil
}

// describeInvocations renders the turn's capability calls for the judge
// prompt.
func describeInvocations(invocations []domain.Invocation) string {
	if len(invocations) == 0 {
		return "No capability calls were made."
	}

	calls := make([]string, 0, len(invocations))
	for _, inv := range invocations {
		args, _ := json.Marshal(inv.Args)
		call := fmt.Sprintf("%s(%s)", inv.Name, args)
		if inv.Failed() {
			call += fmt.Sprintf(" [failed: %s]", inv.Error)
		}
		calls = append(calls, call)
	}
	return "Capability calls made: " + strings.Join(calls, ", ")
}
