package domain

import "time"

// Invocation records a single capability call made during a turn: the
// capability name, the arguments the model supplied, and either a result
// payload or an error message. A failed capability never aborts the turn;
// the failure travels inline so the detection engine and the caller both
// see it.
type Invocation struct {
	Name   string         `json:"name"`
	Args   map[string]any `json:"args"`
	Result any            `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// Failed reports whether the invocation produced an error instead of a result.
func (i Invocation) Failed() bool {
	return i.Error != ""
}

// Turn is one user utterance plus the assistant's final reply for it.
// Immutable once the response has been sent.
type Turn struct {
	SessionID   string       `json:"session_id"`
	Input       string       `json:"input"`
	Output      string       `json:"output"`
	Invocations []Invocation `json:"invocations,omitempty"`
	Verdict     *Verdict     `json:"verdict,omitempty"`
	StartedAt   time.Time    `json:"started_at"`
}

// HasInvocation reports whether a capability with the given name was
// invoked during the turn, regardless of whether it succeeded.
func (t *Turn) HasInvocation(name string) bool {
	for _, inv := range t.Invocations {
		if inv.Name == name {
			return true
		}
	}
	return false
}
