package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/lorebook/internal"
	"github.com/starford/lorebook/internal/revdiff"
	pkgconfig "github.com/starford/lorebook/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.RunMCP(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("mcp run error: %w", err)
	}
	return nil
}

// runDiff prints a line diff of two files.
func runDiff(_ context.Context, cmd *cli.Command) error {
	if cmd.NArg() != 2 {
		return cli.Exit("usage: lorebook diff OLD NEW", 2)
	}
	oldData, err := os.ReadFile(cmd.Args().Get(0))
	if err != nil {
		return err
	}
	newData, err := os.ReadFile(cmd.Args().Get(1))
	if err != nil {
		return err
	}

	lines := revdiff.Diff(revdiff.SplitLines(string(oldData)), revdiff.SplitLines(string(newData)))
	colored := !cmd.Bool("no-color") && !color.NoColor
	if err := revdiff.Write(os.Stdout, lines, revdiff.WithColor(colored)); err != nil {
		return err
	}

	st := revdiff.Summarize(lines)
	fmt.Fprintf(os.Stderr, "%d added, %d removed, %d unchanged\n", st.Added, st.Removed, st.Same)
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:   "lorebook",
		Usage:  "Cross-referenced Markdown documents with link suggestions and revision history",
		Action: run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "mcp",
				Usage:  "Serve the MCP tools over stdio",
				Action: runMCP,
			},
			{
				Name:      "diff",
				Usage:     "Print a line diff of two files",
				ArgsUsage: "OLD NEW",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "no-color",
						Usage: "Disable coloured output",
					},
				},
				Action: runDiff,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
