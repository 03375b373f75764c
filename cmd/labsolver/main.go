package main

import (
	"context"
	"fmt"
	"os"

	"labsolver/adapters/excel"
	"labsolver/adapters/loader"
	"labsolver/adapters/report"
	"labsolver/app"
	"labsolver/internal"
	"labsolver/internal/analysis"
	"labsolver/internal/config"
	"labsolver/internal/errors"
	"labsolver/ports"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	if err := execute(newRootCmd()); err != nil {
		fmt.Fprintf(os.Stderr, "[%s] %v\n", errors.GetCode(err), err)
		os.Exit(1)
	}
}

// execute runs the command and tags errors raised outside the application
// layer, such as argument or flag parsing, as invalid input
func execute(cmd *cobra.Command) error {
	err := cmd.Execute()
	if err == nil || errors.IsAppError(err) {
		return err
	}
	return errors.WithCode(errors.CodeInvalidInput, err)
}

func newRootCmd() *cobra.Command {
	var envFile string
	var workers int

	cmd := &cobra.Command{
		Use:   "labsolver <input> <action>",
		Short: "Compute measurement averages, propagated errors and lab reports",
		Long: `Evaluate a lab definition (JSON or YAML) and emit the result.

Actions:
  print         print the raw result as JSON
  tex           print the TeX report
  <file>.xlsx   save a workbook
  <file>.md     save a Markdown report
  <file>.html   save an HTML report
  <file>        save the TeX report

Every action except print keeps the full derivation trail.

Defaults are read from the environment (or a .env file):
- LOG_LEVEL (default: INFO)
- LABSOLVER_CONFIDENCE (default: 0.95)
- LABSOLVER_ROUND (default: no rounding)
- LABSOLVER_WORKERS (default: 4)

Example: labsolver pendulum.json report.tex`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(envFile); err != nil && cmd.Flags().Changed("env-file") {
				return errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("failed to read %s: %w", envFile, err))
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("workers") {
				cfg.Engine.Workers = workers
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			return run(cmd.Context(), cfg, args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", ".env", "Environment file with default settings")
	cmd.Flags().IntVar(&workers, "workers", 4, "Maximum experiments evaluated concurrently")

	return cmd
}

func run(ctx context.Context, cfg *config.Config, input, action string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := internal.NewLogger(internal.ParseLogLevel(cfg.Log.Level))
	defer logger.Sync()

	defaults := cfg.Settings()
	service := app.NewLabService(
		func(path string) ports.TaskLoader { return loader.ForPath(path, defaults, logger) },
		analysis.NewEngine(logger, cfg.Engine.Workers),
		app.Renderers{
			JSON:     report.NewJSONPrinter(),
			TeX:      report.NewTeXRenderer(),
			Markdown: report.NewMarkdownRenderer(),
			HTML:     report.NewHTMLRenderer(),
			Workbook: excel.NewWorkbookRenderer(),
		},
		logger,
	)

	outcome, err := service.Execute(ctx, input, action, os.Stdout)
	if err != nil {
		return err
	}
	if outcome.Path != "" {
		fmt.Printf("Saved report to file '%s'.\n", outcome.Path)
	}
	return nil
}
