package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tsiemens/psxtax/util"
)

var exportCmd = &cobra.Command{
	Use:   "export [FILE]",
	Short: "Write all saved state as JSON, to FILE or stdout",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(false, func(rc *runContext) error {
			var w io.Writer = os.Stdout
			if len(args) == 1 {
				fp, err := os.Create(args[0])
				if err != nil {
					return err
				}
				defer fp.Close()
				w = fp
			}
			return rc.session.Export(w)
		})
	},
}

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Replace all saved state with an exported JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fp, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer fp.Close()
		return withSession(true, func(rc *runContext) error {
			res, err := rc.session.Import(fp)
			if err != nil {
				return err
			}
			for _, w := range res.Warnings {
				ErrPrinter.Ln("Warning:", w)
			}
			fmt.Fprintf(os.Stdout, "Imported %d symbols, %d transactions, %d realized sales (%d lots migrated)\n",
				len(rc.session.Ledger.Holdings()), len(rc.session.Ledger.Transactions()),
				len(rc.session.Ledger.RealizedGains()), res.MigratedLots)
			return nil
		})
	},
}

var resetConfirmed bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all lots, transactions, realized gains and corporate actions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !resetConfirmed {
			return fmt.Errorf("reset deletes all saved state. Pass --yes to confirm")
		}
		return withSession(true, func(rc *runContext) error {
			rc.session.Reset()
			fmt.Fprintln(os.Stdout, "All state cleared")
			return nil
		})
	},
}

var setFilerCmd = &cobra.Command{
	Use:   "set-filer true|false",
	Short: "Set whether you are on the active taxpayer list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		isFiler, err := strconv.ParseBool(args[0])
		if err != nil {
			return fmt.Errorf("invalid filer status '%s'", args[0])
		}
		return withSession(true, func(rc *runContext) error {
			rc.session.Calc.SetFilerStatus(isFiler)
			fmt.Fprintf(os.Stdout, "Filer status: %s\n", util.Tern(isFiler, "filer", "non-filer"))
			return nil
		})
	},
}

func init() {
	resetCmd.Flags().BoolVarP(&resetConfirmed, "yes", "y", false, "Confirm the reset")
	RootCmd.AddCommand(exportCmd, importCmd, resetCmd, setFilerCmd)
}
