package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/julianstephens/habitline/internal/logger"
	"github.com/julianstephens/habitline/internal/session"
	"github.com/julianstephens/habitline/internal/transport"
)

type ServeCmd struct {
	Addr string `help:"Listen address." env:"HABITLINE_ADDR" default:":8787"`
}

func (c *ServeCmd) Run(ctx *Context) error {
	ctx.PerformAutomaticBackup()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := ctx.SessionDeps(sigCtx)
	if err != nil {
		return err
	}
	srv := transport.NewServer(session.NewManager(deps))

	logger.Info("serving", "addr", c.Addr, "backend", ctx.Backend, "timezone", deps.Settings.Timezone)
	fmt.Printf("habitline listening on %s\n", c.Addr)
	return srv.ListenAndServe(sigCtx, c.Addr)
}
