package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/lehigh-university-libraries/coursemarketer/internal/config"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var (
		verbose    bool
		jsonLogs   bool
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "coursemarketer",
		Short: "Turn a course description into social media marketing content",
		Long: `Coursemarketer proposes marketing angles for an online course and generates
carousel slides, slide art, a short video script and an optional video clip
for the angle you pick, using Gemini.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			if configPath != "" {
				_ = os.Setenv("COURSEMARKETER_CONFIG", configPath)
			}
			setupLogging(verbose, jsonLogs)
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")
	cmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Log as JSON")
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to coursemarketer.yaml")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newStudioCmd())
	cmd.AddCommand(newKeyCmd())

	return cmd
}

func setupLogging(verbose, jsonLogs bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	if cfg, err := config.Load(); err == nil && cfg.LogFormat == "json" {
		jsonLogs = true
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if jsonLogs {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
