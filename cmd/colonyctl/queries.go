package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"mousecolony/internal/colony"
	"mousecolony/internal/husbandry"
)

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status <cage>",
		Short: "Show a cage's type, genotypes, litter, needs and residents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				st, err := a.svc.CageStatus(cmd.Context(), args[0], a.today)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Cage %s (%s)\n", st.Cage.Cage.Name, st.Type)
				if st.Cage.Proprietor != nil {
					fmt.Fprintf(out, "Proprietor: %s\n", st.Cage.Proprietor.Name)
				}
				if st.Cage.Cage.Location != "" {
					fmt.Fprintf(out, "Location:   %s\n", st.Cage.Cage.Location)
				}
				if st.Genotypes != "" {
					fmt.Fprintf(out, "Genotypes:  %s\n", st.Genotypes)
				}
				if st.Litter != "" {
					fmt.Fprintf(out, "Litter:     %s (%s)\n", st.Litter, st.TargetGenotype)
				}
				if len(st.Needs) > 0 {
					fmt.Fprintln(out, "Needs:")
					fmt.Fprintln(out, husbandry.TextFormatter{}.Format(st.Needs))
				}
				fmt.Fprintln(out, "Residents:")
				for _, r := range st.Residents {
					fmt.Fprintf(out, "  %s\n", r)
				}
				return nil
			})
		},
	}
}

func newNeedsCmd(opts *rootOptions) *cobra.Command {
	var flags censusFlags
	cmd := &cobra.Command{
		Use:   "needs",
		Short: "List the husbandry needs of every live cage",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				filter, err := flags.filter(cmd.Context(), a)
				if err != nil {
					return err
				}
				rows, err := a.svc.Needs(cmd.Context(), filter, a.today)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(rows) == 0 {
					fmt.Fprintln(out, "No needs.")
					return nil
				}
				for _, r := range rows {
					header := r.CageName
					if r.Proprietor != "" {
						header += " [" + r.Proprietor + "]"
					}
					fmt.Fprintln(out, header)
					fmt.Fprintln(out, husbandry.TextFormatter{}.Format(r.Messages))
				}
				return nil
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func newCensusCmd(opts *rootOptions) *cobra.Command {
	var (
		flags      censusFlags
		byGenotype bool
	)
	cmd := &cobra.Command{
		Use:   "census",
		Short: "List live cages with their type and residents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				filter, err := flags.filter(cmd.Context(), a)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if byGenotype {
					groups, err := a.svc.CensusByGenotype(cmd.Context(), filter)
					if err != nil {
						return err
					}
					for _, g := range groups {
						fmt.Fprintln(out, g.Geneset.String())
						for _, c := range g.Cages {
							printCensusCage(out, a, c, "  ")
						}
					}
					return nil
				}
				cages, err := a.svc.Census(cmd.Context(), filter)
				if err != nil {
					return err
				}
				for _, c := range cages {
					printCensusCage(out, a, c, "")
				}
				return nil
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&byGenotype, "by-genotype", false, "group cages by gene set")
	return cmd
}

func printCensusCage(out io.Writer, a *app, c colony.CageAggregate, indent string) {
	fmt.Fprintf(out, "%s%s (%s)", indent, c.Cage.Name, c.Type())
	if c.Litter != nil {
		fmt.Fprintf(out, " %s", husbandry.LitterInfo(*c.Litter, a.today))
	}
	fmt.Fprintln(out)
	for _, info := range c.ResidentInfos(a.today) {
		fmt.Fprintf(out, "%s  %s\n", indent, info)
	}
}

func newLittersCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "litters",
		Short: "Show born, unweaned litters with their weaning window",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				litters, err := a.svc.CurrentLitters(cmd.Context())
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "CAGE\tSTICKER\tDOB\tEARLY WEAN\tLATE WEAN\tMATURITY")
				for _, l := range litters {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", l.CageName, l.Sticker,
						l.DOB.Format(dayLayout), l.EarlyWean.Format(dayLayout),
						l.LateWean.Format(dayLayout), l.Maturity.Format(dayLayout))
				}
				return w.Flush()
			})
		},
	}
}

func newSummaryCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Count cages and mice per proprietor",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				s, err := a.svc.Summary(cmd.Context())
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "PERSON\tCAGES\tMICE\tCURRENT CAGES\tCURRENT MICE")
				totals := s.Totals
				totals.Name = "Total"
				for _, r := range append(append([]colony.SummaryRow(nil), s.Rows...), totals) {
					fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n", r.Name, r.Cages, r.Mice, r.CurrentCages, r.CurrentMice)
				}
				return w.Flush()
			})
		},
	}
}

// joinNames lists names for confirmation output.
func joinNames(names []string) string {
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}
