package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/powderplan/powderplan/internal/domain"
	"go.uber.org/zap"
)

// mockJudgeModel returns a scripted raw output or error.
type mockJudgeModel struct {
	output string
	err    error
	calls  int
}

func (m *mockJudgeModel) Judge(ctx context.Context, prompt string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.output, nil
}

func newTestJudge(name, output string) (*JudgeLayer, *mockJudgeModel) {
	model := &mockJudgeModel{output: output}
	return NewJudgeLayer(name, model, "{response} {functionContext}", zap.NewNop()), model
}

func TestJudgeLayerParsesVerdict(t *testing.T) {
	judge, _ := newTestJudge("LLM Judge",
		`{"isLikelyHallucination": true, "confidence": 0.85, "concerns": ["made-up temperature"], "severity": "likely_fabricated"}`)

	result := judge.Evaluate(context.Background(), "It is -12°C in Zermatt.", nil)

	if !result.Flagged {
		t.Error("expected flagged result")
	}
	if result.Confidence != 0.85 {
		t.Errorf("Confidence = %v, want 0.85", result.Confidence)
	}
	if result.Action != domain.ActionBlock {
		t.Errorf("Action = %q, want block", result.Action)
	}
	if len(result.Reasons) != 1 || result.Reasons[0] != "made-up temperature" {
		t.Errorf("Reasons = %v", result.Reasons)
	}
}

func TestJudgeLayerSeverityMapping(t *testing.T) {
	tests := []struct {
		severity string
		want     domain.Action
	}{
		{"likely_fabricated", domain.ActionBlock},
		{"questionable", domain.ActionWarn},
		{"trustworthy", domain.ActionNone},
		{"something-else", domain.ActionNone},
	}

	for _, tt := range tests {
		t.Run(tt.severity, func(t *testing.T) {
			judge, _ := newTestJudge("LLM Judge",
				`{"isLikelyHallucination": false, "confidence": 0.5, "concerns": [], "severity": "`+tt.severity+`"}`)
			result := judge.Evaluate(context.Background(), "reply", nil)
			if result.Action != tt.want {
				t.Errorf("Action = %q, want %q", result.Action, tt.want)
			}
		})
	}
}

func TestJudgeLayerExplicitActionWins(t *testing.T) {
	judge, _ := newTestJudge("LLM Judge",
		`{"isLikelyHallucination": true, "confidence": 0.6, "concerns": [], "severity": "trustworthy", "suggestedAction": "warn"}`)
	result := judge.Evaluate(context.Background(), "reply", nil)
	if result.Action != domain.ActionWarn {
		t.Errorf("Action = %q, want warn", result.Action)
	}
}

func TestJudgeLayerStripsMarkdownFences(t *testing.T) {
	judge, _ := newTestJudge("LLM Judge",
		"```json\n{\"isLikelyHallucination\": true, \"confidence\": 0.9, \"concerns\": [\"x\"], \"severity\": \"questionable\"}\n```")
	result := judge.Evaluate(context.Background(), "reply", nil)
	if !result.Flagged || result.Confidence != 0.9 {
		t.Errorf("got %+v, want flagged with confidence 0.9", result)
	}
}

func TestJudgeLayerNeutralOnGarbage(t *testing.T) {
	for _, output := range []string{"not json at all", "{truncated", ""} {
		judge, _ := newTestJudge("LLM Judge", output)
		result := judge.Evaluate(context.Background(), "reply", nil)
		if result.Flagged || result.Confidence != 0 || len(result.Reasons) != 0 {
			t.Errorf("output %q: got %+v, want neutral result", output, result)
		}
	}
}

func TestJudgeLayerNeutralOnModelError(t *testing.T) {
	model := &mockJudgeModel{err: errors.New("timeout")}
	judge := NewJudgeLayer("LLM Judge", model, "{response}", zap.NewNop())

	result := judge.Evaluate(context.Background(), "reply", nil)
	if result.Flagged || result.Confidence != 0 {
		t.Errorf("got %+v, want neutral result", result)
	}
}

func TestJudgeLayerDescribesInvocations(t *testing.T) {
	model := &mockJudgeModel{output: `{"isLikelyHallucination": false, "confidence": 1, "concerns": [], "severity": "trustworthy"}`}
	judge := NewJudgeLayer("LLM Judge", model, "{functionContext}", zap.NewNop())

	judge.Evaluate(context.Background(), "reply", nil)
	judge.Evaluate(context.Background(), "reply", []domain.Invocation{
		{Name: "get_weather", Args: map[string]any{"location": "Aspen"}},
		{Name: "convert_currency", Args: map[string]any{"from": "USD", "to": "CHF"}, Error: "currency \"XXX\" not found"},
	})

	if model.calls != 2 {
		t.Fatalf("calls = %d, want 2", model.calls)
	}
}

func TestEngineAggregation(t *testing.T) {
	heuristic := NewHeuristicLayer(DefaultHeuristicBaseConfidence)

	tests := []struct {
		name        string
		reply       string
		judgeOutput string
		wantFlagged bool
		wantAction  domain.Action
	}{
		{
			name:        "both layers clean",
			reply:       "Have a great trip!",
			judgeOutput: `{"isLikelyHallucination": false, "confidence": 0.9, "concerns": [], "severity": "trustworthy"}`,
			wantFlagged: false,
			wantAction:  domain.ActionNone,
		},
		{
			name:        "judge flags alone",
			reply:       "Have a great trip!",
			judgeOutput: `{"isLikelyHallucination": true, "confidence": 0.8, "concerns": ["invented resort"], "severity": "questionable"}`,
			wantFlagged: true,
			wantAction:  domain.ActionWarn,
		},
		{
			name:        "heuristic flags alone",
			reply:       "It's -5.23°C with heavy snow",
			judgeOutput: `{"isLikelyHallucination": false, "confidence": 0.2, "concerns": [], "severity": "trustworthy"}`,
			wantFlagged: true,
			wantAction:  domain.ActionBlock,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			judge, _ := newTestJudge("LLM Judge", tt.judgeOutput)
			engine := NewEngine(heuristic, judge, DefaultHeuristicWeight, DefaultJudgeWeight, zap.NewNop())

			verdict := engine.Evaluate(context.Background(), tt.reply, nil)

			if verdict.IsLikelyHallucination != tt.wantFlagged {
				t.Errorf("IsLikelyHallucination = %v, want %v", verdict.IsLikelyHallucination, tt.wantFlagged)
			}
			if verdict.SuggestedAction != tt.wantAction {
				t.Errorf("SuggestedAction = %q, want %q", verdict.SuggestedAction, tt.wantAction)
			}
			if verdict.Confidence < 0 || verdict.Confidence > 1 {
				t.Errorf("Confidence = %v, out of [0,1]", verdict.Confidence)
			}
		})
	}
}

func TestEngineWeightedConfidence(t *testing.T) {
	heuristic := NewHeuristicLayer(0.7)
	judge, _ := newTestJudge("LLM Judge",
		`{"isLikelyHallucination": false, "confidence": 0.5, "concerns": [], "severity": "trustworthy"}`)
	engine := NewEngine(heuristic, judge, 0.4, 0.6, zap.NewNop())

	verdict := engine.Evaluate(context.Background(), "Have fun!", nil)

	// 0.4*0.7 + 0.6*0.5 = 0.58
	want := 0.58
	if diff := verdict.Confidence - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Confidence = %v, want %v", verdict.Confidence, want)
	}
}

func TestEngineReasonsPrefixedAndOrdered(t *testing.T) {
	heuristic := NewHeuristicLayer(DefaultHeuristicBaseConfidence)
	judge, _ := newTestJudge("LLM Judge",
		`{"isLikelyHallucination": true, "confidence": 0.9, "concerns": ["temperature has no source"], "severity": "questionable"}`)
	engine := NewEngine(heuristic, judge, DefaultHeuristicWeight, DefaultJudgeWeight, zap.NewNop())

	verdict := engine.Evaluate(context.Background(), "It's -5.23°C with heavy snow", nil)

	if len(verdict.Reasons) < 2 {
		t.Fatalf("Reasons = %v, want heuristic and judge entries", verdict.Reasons)
	}
	if !strings.HasPrefix(verdict.Reasons[0], "[Heuristic] ") {
		t.Errorf("first reason %q should carry the heuristic prefix", verdict.Reasons[0])
	}
	last := verdict.Reasons[len(verdict.Reasons)-1]
	if !strings.HasPrefix(last, "[LLM Judge] ") {
		t.Errorf("last reason %q should carry the judge prefix", last)
	}
}

func TestActionSeverityOrdering(t *testing.T) {
	order := []domain.Action{domain.ActionNone, domain.ActionVerify, domain.ActionWarn, domain.ActionBlock}
	for i, low := range order {
		for _, high := range order[i:] {
			if got := domain.MoreSevere(low, high); got != high {
				t.Errorf("MoreSevere(%q, %q) = %q, want %q", low, high, got, high)
			}
			if got := domain.MoreSevere(high, low); got != high {
				t.Errorf("MoreSevere(%q, %q) = %q, want %q", high, low, got, high)
			}
		}
	}
}

func TestThreeLayerEngineSkipsDetailedOnCleanReply(t *testing.T) {
	heuristic := NewHeuristicLayer(DefaultHeuristicBaseConfidence)
	quick, _ := newTestJudge("Quick Judge",
		`{"isLikelyHallucination": false, "confidence": 0.9, "concerns": [], "severity": "trustworthy"}`)
	detailed, detailedModel := newTestJudge("LLM Judge",
		`{"isLikelyHallucination": true, "confidence": 0.9, "concerns": ["x"], "severity": "likely_fabricated"}`)

	engine := NewThreeLayerEngine(heuristic, quick, detailed, zap.NewNop())
	verdict := engine.Evaluate(context.Background(), "Enjoy the mountains!", nil)

	if detailedModel.calls != 0 {
		t.Errorf("detailed judge ran %d times on a clean reply, want 0", detailedModel.calls)
	}
	if verdict.IsLikelyHallucination {
		t.Error("clean reply should not be flagged")
	}
}

func TestThreeLayerEngineTriggersDetailedOnSuspicion(t *testing.T) {
	heuristic := NewHeuristicLayer(DefaultHeuristicBaseConfidence)
	quick, _ := newTestJudge("Quick Judge",
		`{"isLikelyHallucination": false, "confidence": 0.9, "concerns": [], "severity": "trustworthy"}`)
	detailed, detailedModel := newTestJudge("LLM Judge",
		`{"isLikelyHallucination": true, "confidence": 0.9, "concerns": ["fabricated forecast"], "severity": "likely_fabricated"}`)

	engine := NewThreeLayerEngine(heuristic, quick, detailed, zap.NewNop())
	verdict := engine.Evaluate(context.Background(), "It's -5.23°C with heavy snow", nil)

	if detailedModel.calls != 1 {
		t.Errorf("detailed judge ran %d times, want 1", detailedModel.calls)
	}
	if !verdict.IsLikelyHallucination {
		t.Error("expected flag from detailed judge")
	}
	if verdict.SuggestedAction != domain.ActionBlock {
		t.Errorf("SuggestedAction = %q, want block", verdict.SuggestedAction)
	}
	if verdict.Confidence < 0 || verdict.Confidence > 1 {
		t.Errorf("Confidence = %v, out of [0,1]", verdict.Confidence)
	}
}
