package cli

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/habitline/internal/constants"
	"github.com/julianstephens/habitline/internal/transport"
	"github.com/julianstephens/habitline/internal/tui"
	"github.com/julianstephens/habitline/internal/utils"
)

// ReviewCmd attaches the terminal reviewer to a running server's session.
type ReviewCmd struct {
	Server  string `help:"Base URL of a running habitline server." env:"HABITLINE_SERVER" default:"http://localhost:8787"`
	Session string `arg:"" optional:"" help:"Session id. Defaults to the most recent session."`
}

func (c *ReviewCmd) Run(ctx *Context) error {
	tz := ctx.Timezone
	if tz == "" {
		tz = constants.DefaultTimezone
	}
	loc, err := utils.LoadLocation(tz)
	if err != nil {
		return err
	}

	dialCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := transport.NewClient(c.Server)
	if err := client.Health(dialCtx); err != nil {
		return fmt.Errorf("server at %s is not reachable: %w", c.Server, err)
	}

	id := c.Session
	if id == "" {
		ids, err := client.Sessions(dialCtx)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return fmt.Errorf("no sessions on %s", c.Server)
		}
		id = ids[len(ids)-1]
	}

	conn, err := client.Dial(dialCtx, id)
	if err != nil {
		return err
	}
	defer conn.Close()

	p := tea.NewProgram(tui.NewModel(conn, id, loc), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("review failed: %w", err)
	}
	if m, ok := final.(tui.Model); ok && m.Err() != nil {
		return m.Err()
	}
	return nil
}
