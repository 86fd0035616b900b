// Command tzedge converts wall-clock times to UTC around DST transitions
package main

import (
	"context"
	"os"
	_ "time/tzdata" // backs the transitions command only; convert never reads it

	perr "tzedge/internal/platform/errors"
	"tzedge/internal/platform/logger"
)

func main() {
	l := logger.Named("cli")

	app, err := newCLI(os.Stdout, loadSettings())
	if err != nil {
		l.Error().Err(err).Msg("bootstrap failed")
		os.Exit(perr.ExitCode(err))
	}
	if err := app.root.ExecuteContext(context.Background()); err != nil {
		l.Debug().Err(err).Str("code", perr.CodeOf(err).String()).Msg("command failed")
		app.reportError(os.Stderr, err)
		os.Exit(perr.ExitCode(err))
	}
}
