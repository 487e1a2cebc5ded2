package commands

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pixil98/go-waypoint/internal/game"
	"github.com/pixil98/go-waypoint/internal/storage"
)

// ParsedInput represents a validated and parsed command input.
type ParsedInput struct {
	Spec  *InputSpec
	Raw   string // Original player input
	Value any    // Parsed value: int for number, string for string
}

// Actor identifies the player running a command.
type Actor struct {
	UID  string
	Name string
}

// CommandContext is what a compiled command receives when it runs. Config
// holds the command's config values with inputs already substituted.
type CommandContext struct {
	Actor  Actor
	Config map[string]string
}

// CommandFunc is the signature for compiled command functions.
type CommandFunc func(ctx context.Context, cmdCtx *CommandContext) error

// ConfigRequirement names a config key a handler reads.
type ConfigRequirement struct {
	Name     string
	Required bool
}

// HandlerSpec describes the config a handler expects.
type HandlerSpec struct {
	Config []ConfigRequirement
}

// HandlerFactory creates CommandFuncs from command configurations.
type HandlerFactory interface {
	// Spec describes the config keys the handler reads. It may be nil.
	Spec() *HandlerSpec
	// ValidateConfig validates that the config contains required fields.
	ValidateConfig(config map[string]any) error
	// Create creates a CommandFunc.
	Create() (CommandFunc, error)
}

// Publisher delivers output to a player's session.
type Publisher interface {
	PublishToPlayer(uid string, data []byte) error
}

// compiledCommand holds a command that's been validated and compiled.
type compiledCommand struct {
	cmd     *Command
	cmdFunc CommandFunc
}

type Handler struct {
	store     storage.Storer[*Command]
	world     *game.WorldState
	factories map[string]HandlerFactory
	compiled  map[string]*compiledCommand
}

func NewHandler(c storage.Storer[*Command], world *game.WorldState) *Handler {
	return &Handler{
		store:     c,
		world:     world,
		factories: make(map[string]HandlerFactory),
		compiled:  make(map[string]*compiledCommand),
	}
}

// RegisterFactory registers a handler factory by name.
// The name must match the "handler" field in command JSON definitions.
func (h *Handler) RegisterFactory(name string, factory HandlerFactory) error {
	if name == "" {
		return fmt.Errorf("handler name cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("handler factory cannot be nil")
	}
	if _, exists := h.factories[name]; exists {
		return fmt.Errorf("handler factory %q already registered", name)
	}
	h.factories[name] = factory
	return nil
}

// CompileAll compiles all commands from the store.
// Call this after all handler factories have been registered.
func (h *Handler) CompileAll() error {
	all := h.store.GetAll()

	// Compile in a stable order so alias collisions are reported consistently.
	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		err := h.compile(id, all[id])
		if err != nil {
			return fmt.Errorf("compiling command %q: %w", id, err)
		}
	}
	return nil
}

func (h *Handler) compile(id string, cmd *Command) error {
	factory, ok := h.factories[cmd.Handler]
	if !ok {
		return fmt.Errorf("unknown handler %q", cmd.Handler)
	}

	if spec := factory.Spec(); spec != nil {
		for _, req := range spec.Config {
			if _, ok := cmd.Config[req.Name]; req.Required && !ok {
				return fmt.Errorf("config %q is required by handler %q", req.Name, cmd.Handler)
			}
		}
	}

	if err := factory.ValidateConfig(cmd.Config); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	cmdFunc, err := factory.Create()
	if err != nil {
		return fmt.Errorf("creating handler: %w", err)
	}

	compiled := &compiledCommand{
		cmd:     cmd,
		cmdFunc: cmdFunc,
	}
	for _, name := range append([]string{id}, cmd.Aliases...) {
		name = strings.ToLower(name)
		if _, exists := h.compiled[name]; exists {
			return fmt.Errorf("name %q is already in use", name)
		}
		h.compiled[name] = compiled
	}
	return nil
}

// Exec executes a command for the player uid with the given arguments.
func (h *Handler) Exec(ctx context.Context, uid string, cmdName string, rawArgs ...string) error {
	compiled, ok := h.compiled[strings.ToLower(cmdName)]
	if !ok {
		return NewUserError(fmt.Sprintf("Unknown command: %s", cmdName))
	}

	ps := h.world.GetPlayer(uid)
	if ps == nil {
		return fmt.Errorf("running %q for %s: %w", cmdName, uid, game.ErrPlayerNotFound)
	}

	inputs, err := h.parseInputs(compiled.cmd.Inputs, rawArgs)
	if err != nil {
		return err
	}

	config, err := h.expandConfig(compiled.cmd, inputs)
	if err != nil {
		return fmt.Errorf("command %q: %w", cmdName, err)
	}

	cmdCtx := &CommandContext{
		Actor:  Actor{UID: ps.UID, Name: ps.Name},
		Config: config,
	}
	return userFacing(compiled.cmdFunc(ctx, cmdCtx))
}

// expandConfig substitutes parsed inputs into the command's config values.
// Inputs the player left out expand to their zero value.
func (h *Handler) expandConfig(cmd *Command, inputs []ParsedInput) (map[string]string, error) {
	ictx := &InputContext{Inputs: make(map[string]any, len(cmd.Inputs))}
	for _, spec := range cmd.Inputs {
		if spec.Type == InputTypeNumber {
			ictx.Inputs[spec.Name] = 0
		} else {
			ictx.Inputs[spec.Name] = ""
		}
	}
	for _, in := range inputs {
		ictx.Inputs[in.Spec.Name] = in.Value
	}

	config := make(map[string]string, len(cmd.Config))
	for k, v := range cmd.Config {
		str, ok := v.(string)
		if !ok {
			config[k] = fmt.Sprint(v)
			continue
		}
		expanded, err := expandInputTemplate(str, ictx)
		if err != nil {
			return nil, fmt.Errorf("expanding config %q: %w", k, err)
		}
		config[k] = expanded
	}
	return config, nil
}

// parseInputs validates raw string arguments against input specs.
func (h *Handler) parseInputs(specs []InputSpec, rawArgs []string) ([]ParsedInput, error) {
	requiredCount := 0
	for _, spec := range specs {
		if spec.Required {
			requiredCount++
		}
	}

	hasRest := len(specs) > 0 && specs[len(specs)-1].Rest
	if !hasRest && len(rawArgs) > len(specs) {
		return nil, NewUserError(fmt.Sprintf("Expected at most %d argument(s), got %d.", len(specs), len(rawArgs)))
	}

	inputs := make([]ParsedInput, 0, len(specs))
	argIndex := 0

	for i := range specs {
		spec := &specs[i]

		if argIndex >= len(rawArgs) {
			if spec.Required {
				if spec.Missing != "" {
					return nil, NewUserError(spec.Missing)
				}
				return nil, NewUserError(fmt.Sprintf("Expected at least %d argument(s), got %d.", requiredCount, len(rawArgs)))
			}
			continue
		}

		var raw string
		if spec.Rest {
			// Consume all remaining args joined with spaces
			raw = strings.Join(rawArgs[argIndex:], " ")
			argIndex = len(rawArgs)
		} else {
			raw = rawArgs[argIndex]
			argIndex++
		}

		value, err := h.parseValue(spec.Type, raw)
		if err != nil {
			return nil, err
		}

		inputs = append(inputs, ParsedInput{
			Spec:  spec,
			Raw:   raw,
			Value: value,
		})
	}

	return inputs, nil
}

// parseValue parses a raw string into the appropriate type.
func (h *Handler) parseValue(inputType InputType, raw string) (any, error) {
	switch inputType {
	case InputTypeString:
		return raw, nil

	case InputTypeNumber:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, NewUserError(fmt.Sprintf("%q is not a valid number.", raw))
		}
		return n, nil

	default:
		return nil, fmt.Errorf("unknown parameter type %q", inputType)
	}
}

// reply publishes msg to the actor's session.
func reply(pub Publisher, cmdCtx *CommandContext, msg string) error {
	if pub == nil {
		return nil
	}
	return pub.PublishToPlayer(cmdCtx.Actor.UID, []byte(msg))
}
