package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/formfill/internal"
	"github.com/starford/formfill/internal/outline"
	pkgconfig "github.com/starford/formfill/pkg/config"
)

var version = "dev"

// withApp loads the config, builds the App and runs fn with it.
func withApp(fn func(ctx context.Context, cmd *cli.Command, app *internal.App) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		configPath := cmd.String("config")

		cfg := internal.NewDefaultConfig()
		if err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
			return fmt.Errorf("failed to parse config: %w", err)
		}
		if v := cmd.String("backend"); v != "" {
			cfg.Docs.Backend = v
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid --backend: %w", err)
			}
		}

		app, err := internal.New(
			internal.WithConfig(cfg),
			internal.WithVerbose(cmd.Bool("verbose")),
			internal.WithVersion(version),
		)
		if err != nil {
			return fmt.Errorf("app init error: %w", err)
		}
		defer app.Close()

		return fn(ctx, cmd, app)
	}
}

func modeFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "outline-mode",
		Aliases: []string{"mode"},
		Usage:   "Outline detection: auto, native_bullets, text_based or none (default from config)",
	}
}

func parseMode(cmd *cli.Command) (outline.Mode, error) {
	return outline.ParseOverride(cmd.String("outline-mode"))
}

func fillCommand() *cli.Command {
	return &cli.Command{
		Name:      "fill",
		Usage:     "Write answers from a question file into a document",
		ArgsUsage: "<doc-id-or-path> <questions.json|yaml>",
		Flags: []cli.Flag{
			modeFlag(),
			&cli.BoolFlag{Name: "dry-run", Usage: "Report what would change without writing"},
			&cli.BoolFlag{Name: "json", Usage: "Print the results bundle as JSON"},
			&cli.StringFlag{Name: "report", Usage: "Also write a Markdown report to this path"},
			&cli.BoolFlag{Name: "no-save", Usage: "Do not write the processed_<timestamp>.json results file"},
			&cli.BoolFlag{Name: "watch", Aliases: []string{"w"}, Usage: "Fill again whenever the question file or document changes"},
		},
		Action: withApp(func(ctx context.Context, cmd *cli.Command, app *internal.App) error {
			if cmd.NArg() != 2 {
				return fmt.Errorf("fill needs a document and a question file")
			}
			mode, err := parseMode(cmd)
			if err != nil {
				return err
			}
			p := internal.FillParams{
				DocID:     cmd.Args().Get(0),
				Questions: cmd.Args().Get(1),
				Mode:      mode,
				DryRun:    cmd.Bool("dry-run"),
				JSON:      cmd.Bool("json"),
				Report:    cmd.String("report"),
				NoSave:    cmd.Bool("no-save"),
				Watch:     cmd.Bool("watch"),
			}
			if p.Watch {
				var stop context.CancelFunc
				ctx, stop = signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
				defer stop()
			}
			return app.Fill(ctx, p)
		}),
	}
}

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "Check which question IDs exist in a document and whether their text matches",
		ArgsUsage: "<doc-id-or-path> <questions.json|yaml>",
		Flags:     []cli.Flag{modeFlag()},
		Action: withApp(func(ctx context.Context, cmd *cli.Command, app *internal.App) error {
			if cmd.NArg() != 2 {
				return fmt.Errorf("analyze needs a document and a question file")
			}
			mode, err := parseMode(cmd)
			if err != nil {
				return err
			}
			return app.Analyze(ctx, cmd.Args().Get(0), cmd.Args().Get(1), mode)
		}),
	}
}

func dumpCommand() *cli.Command {
	return &cli.Command{
		Name:      "dump",
		Usage:     "Print the annotated paragraphs of a document",
		ArgsUsage: "<doc-id-or-path>",
		Flags: []cli.Flag{
			modeFlag(),
			&cli.BoolFlag{Name: "outline-only", Usage: "Only print paragraphs that carry an outline ID"},
		},
		Action: withApp(func(ctx context.Context, cmd *cli.Command, app *internal.App) error {
			if cmd.NArg() != 1 {
				return fmt.Errorf("dump needs a document")
			}
			mode, err := parseMode(cmd)
			if err != nil {
				return err
			}
			return app.Dump(ctx, cmd.Args().First(), mode, cmd.Bool("outline-only"))
		}),
	}
}

func reportCommand() *cli.Command {
	return &cli.Command{
		Name:      "report",
		Usage:     "Render a results file as Markdown or HTML",
		ArgsUsage: "<processed.json>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output path (default stdout)"},
			&cli.BoolFlag{Name: "html", Usage: "Render HTML instead of Markdown"},
			&cli.StringFlag{Name: "doc-id", Usage: "Document ID to show when the results file lacks one"},
		},
		Action: withApp(func(_ context.Context, cmd *cli.Command, app *internal.App) error {
			if cmd.NArg() != 1 {
				return fmt.Errorf("report needs a results file")
			}
			return app.Report(internal.ReportParams{
				Results: cmd.Args().First(),
				Output:  cmd.String("output"),
				HTML:    cmd.Bool("html"),
				DocID:   cmd.String("doc-id"),
			})
		}),
	}
}

func convertCommand() *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Usage:     "Convert a CSV export (#, ##, Question, Answer columns) to a nested question file",
		ArgsUsage: "<questions.csv>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output path (default stdout)"},
			&cli.BoolFlag{Name: "compact", Usage: "Write compact JSON"},
		},
		Action: withApp(func(_ context.Context, cmd *cli.Command, app *internal.App) error {
			if cmd.NArg() != 1 {
				return fmt.Errorf("convert needs a CSV file")
			}
			return app.Convert(cmd.Args().First(), cmd.String("output"), cmd.Bool("compact"))
		}),
	}
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Parse a DOCX, PDF, HTML, Markdown or text form into the vault",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "id", Usage: "Vault document ID (default derived from the file name)"},
			&cli.BoolFlag{Name: "overwrite", Usage: "Replace an existing vault document"},
		},
		Action: withApp(func(ctx context.Context, cmd *cli.Command, app *internal.App) error {
			if cmd.NArg() != 1 {
				return fmt.Errorf("import needs a file")
			}
			return app.Import(ctx, cmd.Args().First(), cmd.String("id"), cmd.Bool("overwrite"))
		}),
	}
}

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List stored fill runs",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Value: 20, Usage: "Maximum number of runs"},
			&cli.StringFlag{Name: "doc", Usage: "Only runs against this document"},
			&cli.BoolFlag{Name: "sync", Usage: "Import results files from the results directory first"},
		},
		Action: withApp(func(ctx context.Context, cmd *cli.Command, app *internal.App) error {
			return app.History(ctx, int(cmd.Int("limit")), cmd.String("doc"), cmd.Bool("sync"))
		}),
	}
}

func main() {
	cmd := &cli.Command{
		Name:    "formfill",
		Usage:   "Fill questionnaire documents from structured answer files",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "backend",
				Usage:   "Document backend: vault or google (overrides config)",
				Sources: cli.EnvVars("FORMFILL_BACKEND"),
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
		},
		Commands: []*cli.Command{
			fillCommand(),
			analyzeCommand(),
			dumpCommand(),
			reportCommand(),
			convertCommand(),
			importCommand(),
			historyCommand(),
			{
				Name:  "serve",
				Usage: "Run the HTTP API with live fill events",
				Action: withApp(func(ctx context.Context, _ *cli.Command, app *internal.App) error {
					return app.Serve(ctx)
				}),
			},
			{
				Name:  "mcp",
				Usage: "Serve the form tools to an MCP client over stdio",
				Action: withApp(func(ctx context.Context, _ *cli.Command, app *internal.App) error {
					return app.MCP(ctx)
				}),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		if !errors.Is(err, internal.ErrRunHasErrors) {
			slog.Error("application error", slog.String("error", err.Error()))
		}
		os.Exit(1)
	}
}
