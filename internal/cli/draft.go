package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/julianstephens/habitline/internal/conflict"
	"github.com/julianstephens/habitline/internal/session"
	"github.com/julianstephens/habitline/internal/tui/components/agenda"
)

type DraftCmd struct {
	Preview DraftPreviewCmd `cmd:"" help:"Generate a draft schedule and print it without writing anything."`
}

type DraftPreviewCmd struct {
	Start string `help:"First day of the period (YYYY-MM-DD). Defaults to tomorrow."`
	Days  int    `help:"Length of the period in days. Defaults to the period_days setting."`
	JSON  bool   `name:"json" help:"Print the draft as JSON."`
}

func (c *DraftPreviewCmd) Run(ctx *Context) error {
	bg := context.Background()
	deps, err := ctx.SessionDeps(bg)
	if err != nil {
		return err
	}
	sess := session.NewManager(deps).Create()

	args, err := json.Marshal(map[string]any{"start_date": c.Start, "days": c.Days})
	if err != nil {
		return err
	}
	res := sess.CallTool(bg, "generate_schedule", args)
	if !res.OK {
		return fmt.Errorf("%s: %s", res.Kind, res.Message)
	}

	d, _ := sess.Draft()
	if c.JSON {
		out, err := json.MarshalIndent(d, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal draft: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	fmt.Println(agenda.Render(&d, deps.Location))
	fmt.Println()
	fmt.Println(res.Message)

	if vr := conflict.ValidateDraft(d); vr.HasConflicts() {
		fmt.Println()
		fmt.Println(vr.FormatReport())
	}
	return nil
}
