// Command kryonctl loads a .krb file and runs it against a chosen
// backend (raylib windowed raster, or a terminal grid), replacing the
// teacher's bare -file flag with real flag parsing, help text, and
// exit-code conventions via github.com/urfave/cli/v3.
package main

import (
	"context"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/kryonlabs/kryon-runtime/backend"
	"github.com/kryonlabs/kryon-runtime/backend/raylibbackend"
	"github.com/kryonlabs/kryon-runtime/backend/termbackend"
	"github.com/kryonlabs/kryon-runtime/internal/app"
	"github.com/kryonlabs/kryon-runtime/registry"
)

func genericClickHandler() { fmt.Fprintln(os.Stderr, "kryonctl: element clicked (genericClick)") }

func buildLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true
	return cfg.Build()
}

func run(ctx context.Context, cmd *cli.Command) error {
	file := cmd.String("file")
	if file == "" {
		return cli.Exit("a .krb file path is required via -file", 1)
	}

	log, err := buildLogger(cmd.Bool("debug"))
	if err != nil {
		return fmt.Errorf("kryonctl: building logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	reg := registry.New()
	reg.RegisterEventHandler("genericClick", genericClickHandler)
	if err := reg.RegisterCustomComponent("TabBar", raylibbackend.TabBarHandler{}); err != nil {
		log.Warn("could not register TabBar adjuster", zap.Error(err))
	}

	var b backend.Backend
	switch cmd.String("backend") {
	case "term":
		b = termbackend.New(reg, log)
	case "raylib", "":
		b = raylibbackend.New(reg, log)
	default:
		return cli.Exit(fmt.Sprintf("unknown -backend %q (want raylib|term)", cmd.String("backend")), 1)
	}

	err = app.Run(b, app.Config{
		KrbFilePath: file,
		Registry:    reg,
		Logger:      log,
		ScaleFactor: float32(cmd.Float("scale")),
	})
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "kryonctl",
		Usage: "run a compiled KRB UI file against a rendering backend",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "path to the .krb file to run"},
			&cli.StringFlag{Name: "backend", Aliases: []string{"b"}, Value: "raylib", Usage: "rendering backend: raylib or term"},
			&cli.FloatFlag{Name: "scale", Value: 1.0, Usage: "UI scale factor"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "verbose structured logging"},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
