package domain

// Action is the reviewer-facing recommendation attached to a verdict.
type Action string

const (
	ActionNone   Action = ""
	ActionVerify Action = "verify"
	ActionWarn   Action = "warn"
	ActionBlock  Action = "block"
)

func actionRank(a Action) int {
	switch a {
	case ActionBlock:
		return 3
	case ActionWarn:
		return 2
	case ActionVerify:
		return 1
	default:
		return 0
	}
}

// ValidAction reports whether a is one of the recognized action values.
func ValidAction(a string) bool {
	switch Action(a) {
	case ActionNone, ActionVerify, ActionWarn, ActionBlock:
		return true
	}
	return false
}

// MoreSevere returns whichever action ranks higher under
// block > warn > verify > none.
func MoreSevere(a, b Action) Action {
	if actionRank(b) > actionRank(a) {
		return b
	}
	return a
}

// LayerResult is the output of a single detection layer. Consumed only by
// the aggregator; never exposed outside the detection engine.
type LayerResult struct {
	Flagged    bool
	Confidence float64
	Reasons    []string
	Action     Action
}

// Verdict is the detection engine's final trust assessment for one reply.
// Confidence is derived solely from the turn's own layer results and the
// fixed layer weights.
type Verdict struct {
	IsLikelyHallucination bool     `json:"isLikelyHallucination"`
	Confidence            float64  `json:"confidence"`
	Reasons               []string `json:"reasons"`
	SuggestedAction       Action   `json:"suggestedAction,omitempty"`
}
