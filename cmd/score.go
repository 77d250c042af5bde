package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/govcon-cli/internal/model"
	"github.com/sells-group/govcon-cli/internal/store"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score opportunities against tenant profiles",
}

// -- score one --

var scoreOneCmd = &cobra.Command{
	Use:   "one <tenant-id> <opportunity-id>",
	Short: "Score one opportunity for a tenant",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "score")
		if err != nil {
			return err
		}
		defer env.Close()

		m, err := env.Scorer.CalculateMatch(ctx, args[0], args[1])
		if err != nil {
			return eris.Wrap(err, "score one")
		}
		return printJSON(os.Stdout, m)
	},
}

// -- score tenant --

var scoreTenantCmd = &cobra.Command{
	Use:   "tenant <tenant-id>...",
	Short: "Score every ACTIVE opportunity for one or more tenants",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "score")
		if err != nil {
			return err
		}
		defer env.Close()

		var failed int
		for _, tenantID := range args {
			res, err := env.Scorer.CalculateAllMatches(ctx, tenantID)
			if err != nil {
				zap.L().Error("score tenant failed", zap.String("tenant_id", tenantID), zap.Error(err))
				failed++
				continue
			}
			fmt.Fprintf(os.Stdout, "%s: scored %d, failed %d in %s\n", tenantID, res.Scored, res.Failed, res.Duration)
		}
		if failed > 0 {
			return eris.Errorf("score tenant: %d of %d tenants failed", failed, len(args))
		}
		return nil
	},
}

// -- score list --

var scoreListCmd = &cobra.Command{
	Use:   "list <tenant-id>",
	Short: "List a tenant's matches",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "score")
		if err != nil {
			return err
		}
		defer env.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")
		matches, err := env.Store.ListMatches(ctx, args[0], store.Page{Limit: limit, Offset: offset})
		if err != nil {
			return eris.Wrap(err, "score list")
		}
		if len(matches) == 0 {
			fmt.Fprintln(os.Stderr, "No matches found.")
			return nil
		}
		formatMatches(os.Stdout, matches)
		return nil
	},
}

// -- score rate --

var scoreRateCmd = &cobra.Command{
	Use:   "rate <tenant-id> <opportunity-id> <rating>",
	Short: "Rate a match from 1 to 5",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		rating, err := strconv.Atoi(args[2])
		if err != nil {
			return eris.Wrapf(err, "score rate: parse rating %q", args[2])
		}

		env, err := initEnv(ctx, "score")
		if err != nil {
			return err
		}
		defer env.Close()

		feedback, _ := cmd.Flags().GetString("feedback")
		m, err := env.Scorer.RateMatch(ctx, args[0], args[1], rating, feedback)
		if err != nil {
			return eris.Wrap(err, "score rate")
		}
		return printJSON(os.Stdout, m)
	},
}

// -- score status --

var scoreStatusCmd = &cobra.Command{
	Use:   "status <tenant-id> <opportunity-id> <status>",
	Short: "Set a match's pursuit status",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "score")
		if err != nil {
			return err
		}
		defer env.Close()

		status := model.MatchStatus(strings.ToUpper(args[2]))
		m, err := env.Scorer.UpdateMatchStatus(ctx, args[0], args[1], status)
		if err != nil {
			return eris.Wrap(err, "score status")
		}
		return printJSON(os.Stdout, m)
	},
}

func formatMatches(w io.Writer, matches []model.OpportunityMatch) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "OPPORTUNITY\tOVERALL\tPWIN\tSTATUS\tREASONS") //nolint:errcheck
	for _, m := range matches {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%s\t%s\n", //nolint:errcheck
			m.OpportunityID, m.OverallScore, m.PWin, m.Status, m.Reasons)
	}
	tw.Flush() //nolint:errcheck
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	scoreListCmd.Flags().Int("limit", 50, "max matches to list")
	scoreListCmd.Flags().Int("offset", 0, "matches to skip")
	scoreRateCmd.Flags().String("feedback", "", "free-text feedback")
	scoreCmd.AddCommand(scoreOneCmd, scoreTenantCmd, scoreListCmd, scoreRateCmd, scoreStatusCmd)
	rootCmd.AddCommand(scoreCmd)
}
