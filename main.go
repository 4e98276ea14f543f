package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/rubiojr/vouch/cmd"
	"github.com/rubiojr/vouch/pkg/config"
	"github.com/rubiojr/vouch/pkg/log"
	"github.com/urfave/cli/v3"
)

func main() {
	// A .env next to the working directory may carry VOUCH_* overrides.
	_ = godotenv.Load()

	app := &cli.Command{
		Name:  "vouch",
		Usage: "Render and preview embeddable testimonial widgets",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
				Value: false,
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Configuration file path",
				Value: getDefaultConfigPathOrExit(),
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			log.SetGlobalDebug(c.Bool("debug"))
			return ctx, nil
		},
		Commands: []*cli.Command{
			cmd.InitCommand(),
			cmd.RenderCommand(),
			cmd.InspectCommand(),
			cmd.PreviewCommand(),
			cmd.VersionCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.ForService("vouch").Errorf("%v", err)
		os.Exit(1)
	}
}

func getDefaultConfigPathOrExit() string {
	path, err := config.GetDefaultConfigPath()
	if err != nil {
		log.ForService("vouch").Errorf("Failed to get default config path: %v", err)
		os.Exit(1)
	}
	return path
}
