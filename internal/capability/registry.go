package capability

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/powderplan/powderplan/internal/domain"
	"go.uber.org/zap"
)

// Handler executes one capability call with already-validated arguments.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Definition binds a capability name to its schema and executor.
type Definition struct {
	Name        string
	Description string
	Schema      Schema
	Handler     Handler
}

// Registry maps capability names to definitions and dispatches
// model-requested calls. Dispatch never returns an error: every failure
// mode (unknown name, malformed arguments, schema violation, handler
// error) is captured inside the returned invocation so one failing
// capability cannot abort a turn.
type Registry struct {
	defs   map[string]Definition
	order  []string
	logger *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		defs:   make(map[string]Definition),
		logger: logger,
	}
}

// Register adds a capability. Later registrations under the same name
// replace earlier ones.
func (r *Registry) Register(def Definition) {
	if _, exists := r.defs[def.Name]; !exists {
		r.order = append(r.order, def.Name)
	}
	r.defs[def.Name] = def
}

// Schemas returns the function-tool declarations for every registered
// capability, in registration order.
func (r *Registry) Schemas() []domain.ToolSchema {
	schemas := make([]domain.ToolSchema, 0, len(r.order))
	for _, name := range r.order {
		def := r.defs[name]
		schemas = append(schemas, domain.ToolSchema{
			Type:        "function",
			Name:        def.Name,
			Description: def.Description,
			Parameters:  def.Schema.parameters(),
		})
	}
	return schemas
}

// Dispatch validates and executes one requested capability call.
func (r *Registry) Dispatch(ctx context.Context, name, rawArgs string) domain.Invocation {
	inv := domain.Invocation{Name: name}

	def, ok := r.defs[name]
	if !ok {
		inv.Error = fmt.Sprintf("unknown capability %q", name)
		return inv
	}

	args := make(map[string]any)
	if rawArgs != "" {
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			inv.Error = fmt.Sprintf("invalid arguments: %v", err)
			return inv
		}
	}
	inv.Args = args

	if err := def.Schema.Validate(args); err != nil {
		inv.Error = err.Error()
		return inv
	}

	result, err := def.Handler(ctx, args)
	if err != nil {
		r.logger.Warn("capability failed",
			zap.String("capability", name),
			zap.Error(err))
		inv.Error = err.Error()
		return inv
	}

	inv.Result = result
	return inv
}
