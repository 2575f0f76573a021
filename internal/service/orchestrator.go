package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/powderplan/powderplan/internal/capability"
	"github.com/powderplan/powderplan/internal/domain"
	"github.com/powderplan/powderplan/internal/store"
	"go.uber.org/zap"
)

const DefaultRoundLimit = 2

// Orchestrator drives one user turn: model round, optional capability
// dispatch, follow-up model round, result packaging. Turns within the same
// session are serialized so each sees the previous turn's continuation
// token; turns across sessions run freely in parallel.
type Orchestrator struct {
	sessions     domain.SessionStore
	model        domain.ChatModel
	registry     *capability.Registry
	instructions string
	roundLimit   int
	logger       *zap.Logger

	locks sync.Map // session ID -> *sync.Mutex
}

func NewOrchestrator(sessions domain.SessionStore, model domain.ChatModel, registry *capability.Registry, instructions string, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		sessions:     sessions,
		model:        model,
		registry:     registry,
		instructions: instructions,
		roundLimit:   DefaultRoundLimit,
		logger:       logger,
	}
}

// SetRoundLimit overrides the maximum model rounds per turn. Values below
// 1 are ignored.
func (o *Orchestrator) SetRoundLimit(n int) {
	if n >= 1 {
		o.roundLimit = n
	}
}

func (o *Orchestrator) lockFor(sessionID string) *sync.Mutex {
	mu, _ := o.locks.LoadOrStore(sessionID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// RunTurn processes one user utterance and returns the completed turn.
// A capability failure never fails the turn; it is recorded inline on the
// invocation. Only an empty message or a model provider failure returns an
// error.
func (o *Orchestrator) RunTurn(ctx context.Context, sessionID, userText string) (*domain.Turn, error) {
	userText = strings.TrimSpace(userText)
	if userText == "" {
		return nil, ErrEmptyMessage
	}

	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	mu := o.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	sess, err := o.sessions.Get(ctx, sessionID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		sess = &domain.Session{ID: sessionID}
	case err != nil:
		return nil, fmt.Errorf("load session: %w", err)
	}

	updateTripContext(&sess.Context, userText)

	turn := &domain.Turn{
		SessionID: sessionID,
		Input:     userText,
		StartedAt: time.Now(),
	}

	req := &domain.ModelRequest{
		Input:              userText,
		Instructions:       o.instructions,
		Tools:              o.registry.Schemas(),
		PreviousResponseID: sess.Token,
	}

	for round := 1; ; round++ {
		resp, err := o.model.Respond(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProvider, err)
		}

		// Replace, never append: the provider's new response ID is the only
		// continuation state the core keeps.
		sess.Token = resp.ID
		if err := o.sessions.Put(ctx, sess); err != nil {
			o.logger.Warn("session save failed",
				zap.String("session_id", sessionID),
				zap.Error(err))
		}

		if len(resp.CapabilityRequests) == 0 {
			turn.Output = resp.OutputText
			return turn, nil
		}

		if round >= o.roundLimit {
			o.logger.Warn("round limit reached with capability requests pending",
				zap.String("session_id", sessionID),
				zap.Int("round", round),
				zap.Int("pending", len(resp.CapabilityRequests)))
			turn.Output = resp.OutputText
			return turn, nil
		}

		outputs := o.dispatchAll(ctx, resp.CapabilityRequests, turn)

		req = &domain.ModelRequest{
			Outputs:            outputs,
			Instructions:       o.instructions,
			PreviousResponseID: resp.ID,
		}
	}
}

// dispatchAll runs one round's capability requests concurrently.
// Invocations are side-effect free with respect to each other; all must
// complete (or fail individually) before the follow-up model round.
// Results keep request order.
func (o *Orchestrator) dispatchAll(ctx context.Context, requests []domain.CapabilityRequest, turn *domain.Turn) []domain.CapabilityOutput {
	invocations := make([]domain.Invocation, len(requests))
	outputs := make([]domain.CapabilityOutput, len(requests))

	var wg sync.WaitGroup
	for i, creq := range requests {
		wg.Add(1)
		go func(i int, creq domain.CapabilityRequest) {
			defer wg.Done()

			inv := o.registry.Dispatch(ctx, creq.Name, creq.Arguments)
			invocations[i] = inv

			var payload []byte
			if inv.Failed() {
				payload, _ = json.Marshal(map[string]string{"error": inv.Error})
			} else {
				var err error
				payload, err = json.Marshal(inv.Result)
				if err != nil {
					payload, _ = json.Marshal(map[string]string{"error": "unserializable capability result"})
				}
			}
			outputs[i] = domain.CapabilityOutput{CallID: creq.CallID, Output: string(payload)}
		}(i, creq)
	}
	wg.Wait()

	turn.Invocations = append(turn.Invocations, invocations...)
	return outputs
}

// ClearSession removes a conversation's session entry. Fire-and-forget:
// it does not cancel an in-flight turn already using the old token, and
// clearing a non-existent session is not an error.
func (o *Orchestrator) ClearSession(ctx context.Context, sessionID string) error {
	return o.sessions.Delete(ctx, sessionID)
}
