package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sells-group/govcon-cli/internal/model"
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Manage opportunity alerts",
}

// -- alerts create --

var alertsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an alert",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "alerts")
		if err != nil {
			return err
		}
		defer env.Close()

		a := &model.OpportunityAlert{Enabled: true}
		a.UserID, _ = cmd.Flags().GetString("user")
		applyAlertFlags(cmd.Flags(), a)

		created, err := env.Alerts.Create(ctx, a)
		if err != nil {
			return eris.Wrap(err, "alerts create")
		}
		return printJSON(os.Stdout, created)
	},
}

// -- alerts update --

var alertsUpdateCmd = &cobra.Command{
	Use:   "update <alert-id>",
	Short: "Update an alert; only flags that are set change",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "alerts")
		if err != nil {
			return err
		}
		defer env.Close()

		a, err := env.Alerts.Get(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "alerts update")
		}
		applyAlertFlags(cmd.Flags(), a)

		updated, err := env.Alerts.Update(ctx, a)
		if err != nil {
			return eris.Wrap(err, "alerts update")
		}
		return printJSON(os.Stdout, updated)
	},
}

// -- alerts delete --

var alertsDeleteCmd = &cobra.Command{
	Use:   "delete <alert-id>",
	Short: "Delete an alert",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "alerts")
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Alerts.Delete(ctx, args[0]); err != nil {
			return eris.Wrap(err, "alerts delete")
		}
		fmt.Fprintf(os.Stdout, "deleted %s\n", args[0])
		return nil
	},
}

// -- alerts toggle --

var alertsToggleCmd = &cobra.Command{
	Use:   "toggle <alert-id>",
	Short: "Enable or disable an alert",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "alerts")
		if err != nil {
			return err
		}
		defer env.Close()

		a, err := env.Alerts.Toggle(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "alerts toggle")
		}
		fmt.Fprintf(os.Stdout, "%s enabled=%t\n", a.ID, a.Enabled)
		return nil
	},
}

// -- alerts list --

var alertsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a user's alerts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "alerts")
		if err != nil {
			return err
		}
		defer env.Close()

		user, _ := cmd.Flags().GetString("user")
		list, err := env.Alerts.List(ctx, user)
		if err != nil {
			return eris.Wrap(err, "alerts list")
		}
		if len(list) == 0 {
			fmt.Fprintln(os.Stderr, "No alerts found.")
			return nil
		}
		formatAlerts(os.Stdout, list)
		return nil
	},
}

// -- alerts evaluate --

var alertsEvaluateCmd = &cobra.Command{
	Use:   "evaluate <opportunity-id>",
	Short: "Match an opportunity against enabled alerts",
	Long:  "Without --user every enabled alert is checked, recorded and published. With --user only that user's alerts are listed.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "alerts")
		if err != nil {
			return err
		}
		defer env.Close()

		opp, err := env.Store.GetOpportunity(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "alerts evaluate")
		}
		if opp == nil {
			return eris.Errorf("alerts evaluate: opportunity %s not found", args[0])
		}

		if user, _ := cmd.Flags().GetString("user"); user != "" {
			list, err := env.Evaluator.EvaluateOpportunityForUser(ctx, user, opp)
			if err != nil {
				return eris.Wrap(err, "alerts evaluate")
			}
			formatAlerts(os.Stdout, list)
			return nil
		}

		matches, err := env.Evaluator.EvaluateOpportunity(ctx, opp)
		if err != nil {
			return eris.Wrap(err, "alerts evaluate")
		}
		return printJSON(os.Stdout, matches)
	},
}

// applyAlertFlags copies every explicitly set flag onto a.
func applyAlertFlags(fs *pflag.FlagSet, a *model.OpportunityAlert) {
	if fs.Changed("name") {
		a.Name, _ = fs.GetString("name")
	}
	if fs.Changed("description") {
		a.Description, _ = fs.GetString("description")
	}
	if fs.Changed("naics") {
		a.NAICSCodes, _ = fs.GetStringSlice("naics")
	}
	if fs.Changed("keywords") {
		a.Keywords, _ = fs.GetStringSlice("keywords")
	}
	if fs.Changed("min") {
		v, _ := fs.GetFloat64("min")
		a.MinValue = &v
	}
	if fs.Changed("max") {
		v, _ := fs.GetFloat64("max")
		a.MaxValue = &v
	}
	if fs.Changed("clear-range") {
		a.MinValue, a.MaxValue = nil, nil
	}
	if fs.Changed("disabled") {
		disabled, _ := fs.GetBool("disabled")
		a.Enabled = !disabled
	}
}

func addAlertFlags(fs *pflag.FlagSet) {
	fs.String("name", "", "alert name, unique per user")
	fs.String("description", "", "free-text description")
	fs.StringSlice("naics", nil, "NAICS code prefixes")
	fs.StringSlice("keywords", nil, "keywords matched against title and description")
	fs.Float64("min", 0, "minimum opportunity value")
	fs.Float64("max", 0, "maximum opportunity value")
	fs.Bool("disabled", false, "create or set the alert disabled")
}

func formatAlerts(w io.Writer, list []model.OpportunityAlert) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tENABLED\tNAICS\tKEYWORDS\tLAST MATCHES") //nolint:errcheck
	for _, a := range list {
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\t%s\t%d\n", //nolint:errcheck
			shortID(a.ID), a.Name, a.Enabled,
			strings.Join(a.NAICSCodes, ","), strings.Join(a.Keywords, ","),
			a.LastMatchCount,
		)
	}
	tw.Flush() //nolint:errcheck
}

func init() {
	alertsCreateCmd.Flags().String("user", "", "owning user id (required)")
	_ = alertsCreateCmd.MarkFlagRequired("user")
	addAlertFlags(alertsCreateCmd.Flags())
	_ = alertsCreateCmd.MarkFlagRequired("name")

	addAlertFlags(alertsUpdateCmd.Flags())
	alertsUpdateCmd.Flags().Bool("clear-range", false, "remove min and max value bounds")

	alertsListCmd.Flags().String("user", "", "user id (required)")
	_ = alertsListCmd.MarkFlagRequired("user")

	alertsEvaluateCmd.Flags().String("user", "", "only evaluate this user's alerts")

	alertsCmd.AddCommand(alertsCreateCmd, alertsUpdateCmd, alertsDeleteCmd, alertsToggleCmd, alertsListCmd, alertsEvaluateCmd)
	rootCmd.AddCommand(alertsCmd)
}
