// Command overlayctl drives the overlay editor against a running service
// without a display: list screens, render previews, drag, edit, create and
// delete overlays.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/canvas/gateway"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/config"
)

const usage = `usage: overlayctl <command> [flags]

commands:
  screens                        list screens you own
  overlays -screen N             list overlays on a screen
  render   -screen N -o FILE     render the layout to a PNG
  drag     -screen N -from X,Y -to X,Y
                                 press, move and release the pointer (pixels)
  create   -screen N -name NAME  create an overlay with default geometry
  set      -screen N -id ID ...  edit overlay properties
  delete   -screen N -id ID      delete an overlay (asks unless -yes)
  watch    -screen N [-render FILE]
                                 print changes made by anyone, optionally re-render

environment:
  MEDUSA_API_URL  base URL of the admin API (default http://localhost:8080/api/admin)
  MEDUSA_TOKEN    bearer token
`

func main() {
	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	config.SetupLogging(cfg.LogLevel, true)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	gw := gateway.New(cfg.APIURL, gateway.Credentials{Token: cfg.Token}, gateway.WithUserAgent("overlayctl"))
	cli := &CLI{Gateway: gw, Watcher: gw, In: os.Stdin, Out: os.Stdout}

	if err := cli.Run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		log.Error().Err(err).Msg("overlayctl failed")
		os.Exit(1)
	}
}
