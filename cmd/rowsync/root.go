package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/rowsync/rowsync"
	"github.com/rowsync/rowsync/rowtypes"
)

const envPrefix = "ROWSYNC"

func newRootCmd() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:   "rowsync",
		Short: "Synchronize tabular files into remote grid tables",
		Long: `rowsync reconciles a local CSV or JSON file against a remote grid table
and pushes the difference through a rate-limited, retrying transport.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(v, cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "config file (default ./rowsync.yaml)")
	pf.String("base-url", "", "grid API endpoint")
	pf.String("token", "", "bearer token")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("log-file", "", "log to this file with rotation instead of stderr")
	pf.Duration("rate-limit-delay", 200*time.Millisecond, "minimum interval between API calls")
	pf.String("retry-policy", "exponential_backoff", "retry strategy (exponential_backoff, linear_growth, fixed_wait)")
	pf.Int("max-retries", 3, "retries per request")
	pf.Int("batch-size", 500, "rows per write call")

	root.AddCommand(newSyncCmd(v), newAppendCmd(v), newPlanCmd(v))
	return root
}

// initConfig layers config sources: flags beat environment beats file.
func initConfig(v *viper.Viper, cmd *cobra.Command) error {
	if err := v.BindPFlags(cmd.Root().PersistentFlags()); err != nil {
		return err
	}
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfgFile := v.GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		v.SetConfigName("rowsync")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return err
			}
		}
	}
	return nil
}

// newLogger builds the slog logger from config.
func newLogger(v *viper.Viper) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var w io.Writer = os.Stderr
	if path := v.GetString("log-file"); path != "" {
		w = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// newClient builds the rowsync client from config.
func newClient(v *viper.Viper, logger *slog.Logger) (*rowsync.Client, error) {
	return rowsync.New(
		rowsync.WithBaseURL(v.GetString("base-url")),
		rowsync.WithAuthToken(v.GetString("token")),
		rowsync.WithLogger(logger),
		rowsync.WithRetryPolicy(rowtypes.RetryPolicy(v.GetString("retry-policy"))),
		rowsync.WithMaxRetries(v.GetInt("max-retries")),
		rowsync.WithRateLimitDelay(v.GetDuration("rate-limit-delay")),
		rowsync.WithBatchSize(v.GetInt("batch-size")),
	)
}

// printResult writes a human summary of a finished run.
func printResult(cmd *cobra.Command, result *rowsync.SyncResult) {
	out := cmd.OutOrStdout()
	if result.DryRun {
		fmt.Fprintf(out, "dry run: %d to create, %d to update, %d to delete, %d skipped\n",
			len(result.Plan.ToCreate), len(result.Plan.ToUpdate),
			len(result.Plan.ToDelete), result.Plan.Skipped)
		return
	}
	fmt.Fprintf(out, "created %d, updated %d, deleted %d, skipped %d (%d chunks, %d bisections) in %s\n",
		result.RowsCreated, result.RowsUpdated, result.RowsDeleted, result.RowsSkipped,
		result.ChunksSent, result.Bisections, result.Duration.Round(time.Millisecond))
	for _, ce := range result.Errors {
		// Ranges index into the operation's plan subset, not the input file.
		fmt.Fprintf(out, "failed %s chunk (plan subset rows %d-%d): %s\n",
			ce.Op, ce.Start, ce.End, ce.Message)
	}
	if !result.Succeeded {
		fmt.Fprintln(out, "completed with errors")
	}
}
