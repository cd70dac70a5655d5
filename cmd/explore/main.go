package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/exploremaine/explore/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := command().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "explore: %v\n", err)
		return 1
	}
	return 0
}

func command() *cli.Command {
	return &cli.Command{
		Name:  "explore",
		Usage: "Browse and download the offline map areas of a web map",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "override explore config path (optional)",
			},
			&cli.StringFlag{
				Name:  "prefs",
				Usage: "override preferences path (optional)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:    "areas",
				Aliases: []string{"ls"},
				Usage:   "List the map areas and their offline status",
				Flags:   []cli.Flag{timeoutFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return headless(ctx, cmd, func(ctx context.Context, env *app.Env) error {
						return env.ListAreas(ctx, os.Stdout)
					})
				},
			},
			{
				Name:      "download",
				Usage:     "Download a map area for offline use",
				ArgsUsage: "TITLE",
				Flags:     []cli.Flag{timeoutFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					title, err := titleArg(cmd)
					if err != nil {
						return err
					}
					return headless(ctx, cmd, func(ctx context.Context, env *app.Env) error {
						ok, err := env.Download(ctx, title)
						if err != nil {
							return err
						}
						if !ok {
							return cli.Exit(fmt.Sprintf("download of %q failed; see %s", title, env.Config.LogFile), 2)
						}
						fmt.Printf("%s downloaded to %s\n", title, env.Cache.Path(title))
						return nil
					})
				},
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete the offline copy of a map area",
				ArgsUsage: "TITLE",
				Flags:     []cli.Flag{timeoutFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					title, err := titleArg(cmd)
					if err != nil {
						return err
					}
					return headless(ctx, cmd, func(ctx context.Context, env *app.Env) error {
						if err := env.Delete(ctx, title); err != nil {
							return err
						}
						fmt.Printf("%s deleted\n", title)
						return nil
					})
				},
			},
			{
				Name:  "logs",
				Usage: "Print the end of the explore log file",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "lines",
						Aliases: []string{"n"},
						Usage:   "number of lines to print",
						Value:   50,
					},
					&cli.StringFlag{
						Name:  "level",
						Usage: "minimum level to print (trace, debug, info, warn, error)",
						Value: "trace",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return app.Logs(options(cmd), os.Stdout, cmd.Int("lines"), cmd.String("level"))
				},
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return app.Run(ctx, options(cmd))
		},
	}
}

func timeoutFlag() cli.Flag {
	return &cli.DurationFlag{
		Name:  "timeout",
		Usage: "give up when the map areas have not loaded within this long",
		Value: 5 * time.Minute,
	}
}

func options(cmd *cli.Command) app.Options {
	return app.Options{
		ConfigPath: cmd.String("config"),
		PrefsPath:  cmd.String("prefs"),
	}
}

func titleArg(cmd *cli.Command) (string, error) {
	if cmd.Args().Len() != 1 {
		return "", fmt.Errorf("%s expects exactly one area title", cmd.Name)
	}
	return cmd.Args().First(), nil
}

// headless runs fn against a wired environment with log output mirrored to
// stderr. The controller runs on ctx; --timeout bounds only the wait for the
// portal. Background work is cancelled before the environment closes.
func headless(ctx context.Context, cmd *cli.Command, fn func(context.Context, *app.Env) error) error {
	opts := options(cmd)
	opts.Console = os.Stderr
	env, err := app.Setup(opts)
	if err != nil {
		return err
	}

	runCtx, stop := context.WithCancel(ctx)
	env.Start(runCtx)

	waitCtx, cancel := context.WithTimeout(ctx, cmd.Duration("timeout"))
	err = fn(waitCtx, env)
	cancel()
	stop()
	if closeErr := env.Close(); err == nil {
		err = closeErr
	}
	return err
}
