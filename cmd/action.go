package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tsiemens/psxtax/app/outfmt"
	"github.com/tsiemens/psxtax/corpaction"
	"github.com/tsiemens/psxtax/date"
	decimal_opt "github.com/tsiemens/psxtax/decimal_value"
	"github.com/tsiemens/psxtax/report"
)

var actionCmd = &cobra.Command{
	Use:   "action",
	Short: "Apply, reverse or list corporate actions",
}

var (
	exDateOpt           string
	subscriptionPrice   string
	subscriptionDateOpt string
)

func applyAction(actionType corpaction.ActionType, args []string) error {
	exDate, err := parseDateOpt(exDateOpt)
	if err != nil {
		return err
	}
	details := corpaction.Details{Ratio: args[1], ExDate: exDate}
	if actionType == corpaction.RIGHT {
		details.SubscriptionPrice, err = decimal_opt.NewFromString(subscriptionPrice)
		if err != nil {
			return fmt.Errorf("invalid subscription price '%s'", subscriptionPrice)
		}
		if subscriptionDateOpt != "" {
			details.SubscriptionDate, err = date.Parse(date.DefaultFormat, subscriptionDateOpt)
			if err != nil {
				return fmt.Errorf("invalid subscription date '%s': %w", subscriptionDateOpt, err)
			}
		}
	}
	return withSession(true, func(rc *runContext) error {
		rec, err := rc.session.Actions.Apply(args[0], actionType, details)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "%s\nID: %s\n", rec.Summary, rec.ID)
		return nil
	})
}

var bonusCmd = &cobra.Command{
	Use:   "bonus SYMBOL RATIO",
	Short: "Apply a bonus issue, e.g. RATIO of 20% or 1:5",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return applyAction(corpaction.BONUS, args)
	},
}

var rightCmd = &cobra.Command{
	Use:   "right SYMBOL RATIO",
	Short: "Subscribe to a right issue at --price",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return applyAction(corpaction.RIGHT, args)
	},
}

var reverseCmd = &cobra.Command{
	Use:   "reverse ID",
	Short: "Undo a corporate action, restoring the lots it changed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(true, func(rc *runContext) error {
			rec, err := rc.session.Actions.Reverse(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Reversed %s %s on %s\n", rec.Type, rec.RatioText, rec.Symbol)
			return nil
		})
	},
}

var listActionsCmd = &cobra.Command{
	Use:   "list",
	Short: "List corporate actions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(false, func(rc *runContext) error {
			return rc.out.PrintRenderTable(outfmt.CorporateActions, "",
				report.RenderCorporateActionsTable(rc.session.Actions.List(), rc.ph))
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{bonusCmd, rightCmd} {
		c.Flags().StringVar(&exDateOpt, "ex-date", "", "Ex-date (YYYY-MM-DD). Defaults to today")
	}
	rightCmd.Flags().StringVar(&subscriptionPrice, "price", "", "Subscription price per share")
	rightCmd.MarkFlagRequired("price")
	rightCmd.Flags().StringVar(&subscriptionDateOpt, "subscription-date", "",
		"Date the subscribed shares are acquired. Defaults to the ex-date")

	actionCmd.AddCommand(bonusCmd, rightCmd, reverseCmd, listActionsCmd)
	RootCmd.AddCommand(actionCmd)
}
