package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"

	"github.com/starford/claudekit/internal"
	"github.com/starford/claudekit/internal/report"
	"github.com/starford/claudekit/internal/watch"
	pkgconfig "github.com/starford/claudekit/pkg/config"
)

var version = "dev"

type appAction func(ctx context.Context, cmd *cli.Command, app *internal.App) error

// withApp loads the configuration, builds the application and runs fn.
func withApp(fn appAction) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg := internal.NewDefaultConfig()
		if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
			return fmt.Errorf("failed to parse config: %w", err)
		}
		if dir := cmd.String("install-dir"); dir != "" {
			cfg.Install.Dir = dir
		}
		if src := cmd.String("source"); src != "" {
			cfg.Install.Source = src
		}

		app, err := internal.New(internal.WithConfig(cfg))
		if err != nil {
			return fmt.Errorf("app init error: %w", err)
		}
		defer app.Close()

		return fn(ctx, cmd, app)
	}
}

func printer() *report.Printer {
	return report.New(os.Stdout, isatty.IsTerminal(os.Stdout.Fd()))
}

func install(ctx context.Context, cmd *cli.Command, app *internal.App) error {
	return app.Installer().Install(cmd.Args().Slice()...)
}

func update(ctx context.Context, cmd *cli.Command, app *internal.App) error {
	return app.Installer().Update(cmd.Args().Slice()...)
}

func uninstall(ctx context.Context, cmd *cli.Command, app *internal.App) error {
	names := cmd.Args().Slice()
	if len(names) == 0 {
		return fmt.Errorf("uninstall: at least one component name is required")
	}
	return app.Installer().Uninstall(names...)
}

func validate(ctx context.Context, cmd *cli.Command, app *internal.App) error {
	reports, err := app.Installer().Validate(cmd.Args().Slice()...)
	if err != nil {
		return err
	}
	printer().Reports(reports)
	failed := 0
	for _, r := range reports {
		if !r.OK {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d components failed validation", failed, len(reports))
	}
	return nil
}

func list(ctx context.Context, cmd *cli.Command, app *internal.App) error {
	printer().Components(app.Installer().Status())
	return nil
}

func lint(ctx context.Context, cmd *cli.Command, app *internal.App) error {
	names := cmd.Args().Slice()
	findings, err := app.Lint(names)
	if err != nil {
		return err
	}
	printer().Findings(findings)
	if !cmd.Bool("watch") {
		if bad := watch.Invalid(findings); len(bad) > 0 {
			return fmt.Errorf("%d invalid artifacts", len(bad))
		}
		return nil
	}
	return app.Watch(ctx, names, nil)
}

func history(ctx context.Context, cmd *cli.Command, app *internal.App) error {
	entries, err := app.Installer().History(cmd.String("component"), int(cmd.Int("limit")))
	if err != nil {
		return err
	}
	printer().History(entries)
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command, app *internal.App) error {
	return app.ServeMCP(ctx, version)
}

func main() {
	cmd := &cli.Command{
		Name:    "claudekit",
		Usage:   "Install, update and verify Claude component packages",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "claudekit.yaml",
				Value:       "claudekit.yaml",
				Sources:     cli.EnvVars("CLAUDEKIT_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "install-dir",
				Usage:   "Install root (overrides install.dir)",
				Sources: cli.EnvVars("CLAUDEKIT_INSTALL_DIR"),
			},
			&cli.StringFlag{
				Name:    "source",
				Usage:   "Component source root (overrides install.source)",
				Sources: cli.EnvVars("CLAUDEKIT_SOURCE_DIR"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "install",
				Usage:     "Install components and their dependencies",
				ArgsUsage: "[component...]",
				Action:    withApp(install),
			},
			{
				Name:      "update",
				Usage:     "Reinstall components whose version changed, rolling back on failure",
				ArgsUsage: "[component...]",
				Action:    withApp(update),
			},
			{
				Name:      "uninstall",
				Usage:     "Remove components and their metadata",
				ArgsUsage: "component...",
				Action:    withApp(uninstall),
			},
			{
				Name:      "validate",
				Usage:     "Check that installed components are complete and registered",
				ArgsUsage: "[component...]",
				Action:    withApp(validate),
			},
			{
				Name:   "list",
				Usage:  "List components and their installation state",
				Action: withApp(list),
			},
			{
				Name:      "lint",
				Usage:     "Validate component source files",
				ArgsUsage: "[component...]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "watch",
						Aliases: []string{"w"},
						Usage:   "Keep watching sources and revalidate on change",
					},
				},
				Action: withApp(lint),
			},
			{
				Name:  "history",
				Usage: "Show recent lifecycle operations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "component",
						Usage: "Only show entries for this component",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of entries",
						Value: 20,
					},
				},
				Action: withApp(history),
			},
			{
				Name:   "mcp",
				Usage:  "Serve read-only installation tools over MCP stdio",
				Action: withApp(serveMCP),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
