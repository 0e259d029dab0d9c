package cli

import (
	"encoding/json"
	"fmt"
	"os"
)

type DebugCmd struct {
	DBPath       DebugDBPathCmd       `cmd:"" name:"db-path" help:"Show database path."`
	DumpHabits   DebugDumpHabitsCmd   `cmd:"" help:"Dump the habit plan as JSON."`
	DumpSettings DebugDumpSettingsCmd `cmd:"" help:"Dump effective settings as JSON."`
	DumpNotes    DebugDumpNotesCmd    `cmd:"" help:"Dump memory notes as JSON."`
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	return nil
}

type DebugDBPathCmd struct{}

func (cmd *DebugDBPathCmd) Run(ctx *Context) error {
	return printJSON(map[string]string{"path": ctx.Store.GetConfigPath()})
}

type DebugDumpHabitsCmd struct{}

func (cmd *DebugDumpHabitsCmd) Run(ctx *Context) error {
	habits, err := ctx.Store.ListHabits()
	if err != nil {
		return fmt.Errorf("failed to list habits: %w", err)
	}
	return printJSON(habits)
}

type DebugDumpSettingsCmd struct{}

func (cmd *DebugDumpSettingsCmd) Run(ctx *Context) error {
	settings, err := ctx.Settings()
	if err != nil {
		return err
	}
	return printJSON(settings)
}

type DebugDumpNotesCmd struct{}

func (cmd *DebugDumpNotesCmd) Run(ctx *Context) error {
	notes, err := ctx.Store.ListNotes()
	if err != nil {
		return fmt.Errorf("failed to list notes: %w", err)
	}
	return printJSON(notes)
}
