// Command colonyctl inspects and maintains a mouse colony from the terminal.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "colonyctl",
		Short:         "Mouse colony breeding and husbandry tool",
		Long:          "colonyctl reports cage status, husbandry needs and census data, and records matings, litters, weaning and sacking.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to colony config file")
	cmd.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", []string{".env"}, "dotenv files loaded before the config")
	cmd.PersistentFlags().StringVar(&opts.today, "today", "", "reference day as YYYY-MM-DD (defaults to the current day)")
	cmd.PersistentFlags().BoolVar(&opts.trace, "trace", false, "write operation spans as JSON lines to stderr")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newStatusCmd(opts))
	cmd.AddCommand(newNeedsCmd(opts))
	cmd.AddCommand(newCensusCmd(opts))
	cmd.AddCommand(newLittersCmd(opts))
	cmd.AddCommand(newSummaryCmd(opts))
	cmd.AddCommand(newMateCmd(opts))
	cmd.AddCommand(newPupsCmd(opts))
	cmd.AddCommand(newWeanCmd(opts))
	cmd.AddCommand(newSackCmd(opts))
	cmd.AddCommand(newExportCmd(opts))
	cmd.AddCommand(newDigestCmd(opts))
	cmd.AddCommand(newHistoryCmd(opts))
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "colonyctl %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "error:", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
