package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/govcon-cli/internal/model"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest opportunities from SAM.gov",
	Long:  "Fetches opportunities for each NAICS partition and upserts them by solicitation number.",
}

// -- ingest run --

var ingestRunCmd = &cobra.Command{
	Use:   "run [naics...]",
	Short: "Ingest solicitations (defaults to ingest.naics_codes)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "ingest")
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Coordinator.RunIngestion(ctx, partitionKeys(args))
		if err != nil {
			return eris.Wrap(err, "ingest run")
		}

		if closeExpired, _ := cmd.Flags().GetBool("close-expired"); closeExpired {
			closed, err := env.Store.CloseExpired(ctx, time.Now().UTC())
			if err != nil {
				return eris.Wrap(err, "close expired")
			}
			zap.L().Info("closed expired opportunities", zap.Int("closed", closed))
		}

		return json.NewEncoder(os.Stdout).Encode(map[string]any{
			"new_count":         res.NewCount,
			"updated_count":     res.UpdatedCount,
			"duration_ms":       res.Duration.Milliseconds(),
			"failed_partitions": res.FailedPartitions,
		})
	},
}

// -- ingest sources-sought --

var ingestSourcesSoughtCmd = &cobra.Command{
	Use:   "sources-sought [naics...]",
	Short: "Ingest sources-sought notices (defaults to ingest.naics_codes)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "ingest")
		if err != nil {
			return err
		}
		defer env.Close()

		saved, err := env.Coordinator.IngestSourcesSought(ctx, partitionKeys(args))
		if err != nil {
			return eris.Wrap(err, "ingest sources-sought")
		}
		fmt.Fprintf(os.Stdout, "saved %d opportunities\n", saved)
		return nil
	},
}

// -- ingest runs --

var ingestRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent ingestion runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "runs")
		if err != nil {
			return err
		}
		defer env.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := env.Store.ListIngestRuns(ctx, limit)
		if err != nil {
			return eris.Wrap(err, "ingest runs")
		}
		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No ingestion runs found.")
			return nil
		}
		formatIngestRuns(os.Stdout, runs)
		return nil
	},
}

func formatIngestRuns(w io.Writer, runs []model.IngestRun) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tMODE\tSTATUS\tPARTITIONS\tFAILED\tNEW\tUPDATED\tSKIPPED\tSTARTED") //nolint:errcheck
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%s\n", //nolint:errcheck
			shortID(r.ID), r.Mode, r.Status, r.Partitions, r.FailedPartitions,
			r.NewCount, r.UpdatedCount, r.SkippedCount,
			r.StartedAt.Format(time.RFC3339),
		)
	}
	tw.Flush() //nolint:errcheck
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	ingestRunCmd.Flags().Bool("close-expired", false, "close ACTIVE opportunities past their response deadline after ingesting")
	ingestRunsCmd.Flags().Int("limit", 20, "max runs to list")
	ingestCmd.AddCommand(ingestRunCmd, ingestSourcesSoughtCmd, ingestRunsCmd)
	rootCmd.AddCommand(ingestCmd)
}
