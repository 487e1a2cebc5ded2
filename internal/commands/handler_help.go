package commands

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/pixil98/go-waypoint/internal/display"
	"github.com/pixil98/go-waypoint/internal/storage"
)

// HelpHandlerFactory creates handlers that display command help. Command
// descriptions are templates expanded against data, so they can quote live
// tunables such as cooldowns.
type HelpHandlerFactory struct {
	commands storage.Storer[*Command]
	data     any
	pub      Publisher
}

// NewHelpHandlerFactory creates a new HelpHandlerFactory.
func NewHelpHandlerFactory(commands storage.Storer[*Command], data any, pub Publisher) *HelpHandlerFactory {
	return &HelpHandlerFactory{commands: commands, data: data, pub: pub}
}

func (f *HelpHandlerFactory) Spec() *HandlerSpec {
	return &HandlerSpec{
		Config: []ConfigRequirement{
			{Name: "command", Required: false},
		},
	}
}

func (f *HelpHandlerFactory) ValidateConfig(config map[string]any) error {
	return nil
}

func (f *HelpHandlerFactory) Create() (CommandFunc, error) {
	return func(ctx context.Context, cmdCtx *CommandContext) error {
		command := cmdCtx.Config["command"]
		if command != "" {
			return f.showCommand(ctx, cmdCtx, command)
		}

		return f.listCommands(cmdCtx)
	}, nil
}

// listCommands displays all commands grouped by category.
func (f *HelpHandlerFactory) listCommands(cmdCtx *CommandContext) error {
	all := f.commands.GetAll()

	// Group commands by category
	groups := make(map[string][]string)
	for id, cmd := range all {
		category := cmd.Category
		if category == "" {
			category = "other"
		}
		groups[category] = append(groups[category], id)
	}

	categories := make([]string, 0, len(groups))
	for cat := range groups {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	lines := []string{"Available commands:"}
	for _, cat := range categories {
		cmds := groups[cat]
		sort.Strings(cmds)
		lines = append(lines, display.Hanging("  "+display.Capitalize(cat)+": ", strings.Join(cmds, ", ")))
	}
	lines = append(lines, "Type 'help <command>' for details.")

	return reply(f.pub, cmdCtx, strings.Join(lines, "\n"))
}

// findCommand looks a command up by name or alias.
func (f *HelpHandlerFactory) findCommand(name string) (string, *Command) {
	name = strings.ToLower(name)
	if cmd := f.commands.Get(name); cmd != nil {
		return name, cmd
	}
	for id, cmd := range f.commands.GetAll() {
		for _, alias := range cmd.Aliases {
			if strings.ToLower(alias) == name {
				return id, cmd
			}
		}
	}
	return "", nil
}

// showCommand displays detailed help for a specific command.
func (f *HelpHandlerFactory) showCommand(ctx context.Context, cmdCtx *CommandContext, name string) error {
	id, cmd := f.findCommand(name)
	if cmd == nil {
		return NewUserError(fmt.Sprintf("Command %q is unknown.", name))
	}

	desc, err := ExpandTemplate(cmd.Description, f.data)
	if err != nil {
		slog.WarnContext(ctx, "expanding command description", "command", id, "error", err)
		desc = cmd.Description
	}

	lines := []string{display.Hanging(id+": ", desc)}

	// Build usage line from inputs
	parts := []string{id}
	for _, input := range cmd.Inputs {
		if input.Required {
			parts = append(parts, fmt.Sprintf("<%s>", input.Name))
		} else {
			parts = append(parts, fmt.Sprintf("[%s]", input.Name))
		}
	}
	lines = append(lines, fmt.Sprintf("Usage: %s", strings.Join(parts, " ")))

	if len(cmd.Aliases) > 0 {
		aliases := append([]string(nil), cmd.Aliases...)
		sort.Strings(aliases)
		lines = append(lines, fmt.Sprintf("Aliases: %s", strings.Join(aliases, ", ")))
	}

	return reply(f.pub, cmdCtx, strings.Join(lines, "\n"))
}
