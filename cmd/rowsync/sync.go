package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rowsync/rowsync"
	"github.com/rowsync/rowsync/rowtypes"
)

// addSyncFlags registers the flags shared by sync, append, and plan.
func addSyncFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("file", "", "local dataset file (.csv or .json)")
	f.String("table", "", "remote table identifier")
	f.Bool("no-create-fields", false, "do not create missing remote columns")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("table")
}

// sharedSyncOptions builds the per-run options common to all subcommands.
func sharedSyncOptions(v *viper.Viper) []rowsync.SyncOption {
	var opts []rowsync.SyncOption
	if !v.GetBool("no-create-fields") {
		opts = append(opts, rowsync.WithCreateMissingFields())
	}
	return opts
}

func newSyncCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile a local file against a remote table and push the difference",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(v)
			client, err := newClient(v, logger)
			if err != nil {
				return err
			}
			ds, err := loadDataset(v.GetString("file"))
			if err != nil {
				return err
			}

			policy, err := rowtypes.ParsePolicy(v.GetString("policy"))
			if err != nil {
				return err
			}
			opts := append(sharedSyncOptions(v),
				rowsync.WithPolicy(policy),
				rowsync.WithIndexColumn(v.GetString("index-column")),
			)
			if v.GetBool("dry-run") {
				opts = append(opts, rowsync.WithDryRun())
			}

			result, err := client.Sync(cmd.Context(), v.GetString("table"), ds, opts...)
			if err != nil {
				return err
			}
			printResult(cmd, result)
			return nil
		},
	}

	addSyncFlags(cmd)
	f := cmd.Flags()
	f.String("policy", "full", "reconciliation policy (full, incremental, overwrite, clone)")
	f.String("index-column", "", "column matching local rows to remote records")
	f.Bool("dry-run", false, "plan without dispatching")
	return cmd
}

func newAppendCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "append",
		Short: "Create every row of a local file in a remote table",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(v)
			client, err := newClient(v, logger)
			if err != nil {
				return err
			}
			ds, err := loadDataset(v.GetString("file"))
			if err != nil {
				return err
			}

			result, err := client.Append(cmd.Context(), v.GetString("table"), ds, sharedSyncOptions(v)...)
			if err != nil {
				return err
			}
			printResult(cmd, result)
			return nil
		},
	}

	addSyncFlags(cmd)
	return cmd
}

func newPlanCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show what a sync would do without dispatching",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(v)
			client, err := newClient(v, logger)
			if err != nil {
				return err
			}
			ds, err := loadDataset(v.GetString("file"))
			if err != nil {
				return err
			}

			policy, err := rowtypes.ParsePolicy(v.GetString("policy"))
			if err != nil {
				return err
			}
			opts := []rowsync.SyncOption{
				rowsync.WithPolicy(policy),
				rowsync.WithIndexColumn(v.GetString("index-column")),
				rowsync.WithDryRun(),
			}

			result, err := client.Sync(cmd.Context(), v.GetString("table"), ds, opts...)
			if err != nil {
				return err
			}
			printResult(cmd, result)
			return nil
		},
	}

	addSyncFlags(cmd)
	f := cmd.Flags()
	f.String("policy", "full", "reconciliation policy (full, incremental, overwrite, clone)")
	f.String("index-column", "", "column matching local rows to remote records")
	return cmd
}
