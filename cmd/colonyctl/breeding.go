package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"mousecolony/internal/core"
	"mousecolony/pkg/domain"
)

func newMateCmd(opts *rootOptions) *cobra.Command {
	var (
		mother, father, cageName string
		proprietor, location     string
		rackSpot, notes          string
	)
	cmd := &cobra.Command{
		Use:   "mate",
		Short: "Set up a breeding cage for a mother and father",
		Long:  "Creates a breeding cage and its litter, moves both parents into it and infers the mating date from the mother's earlier litters with the same father.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				ctx := cmd.Context()
				m, err := a.svc.FindMouseByName(ctx, mother)
				if err != nil {
					return err
				}
				f, err := a.svc.FindMouseByName(ctx, father)
				if err != nil {
					return err
				}
				req := core.MatingRequest{
					CageName: cageName,
					MotherID: m.ID,
					FatherID: f.ID,
					Location: domain.Location(location),
					Notes:    notes,
				}
				if rackSpot != "" {
					req.RackSpot = &rackSpot
				}
				if proprietor != "" {
					p, err := a.svc.FindPersonByName(ctx, proprietor)
					if err != nil {
						return err
					}
					req.ProprietorID = &p.ID
				}
				mated, res, err := a.svc.MakeMatingCage(ctx, req, a.today)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Mated %s x %s in cage %s", m.Name, f.Name, mated.Cage.Name)
				if mated.Litter.DateMated != nil {
					fmt.Fprintf(out, " (mated %s)", mated.Litter.DateMated.Format(dayLayout))
				}
				fmt.Fprintln(out)
				printWarnings(out, res)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&mother, "mother", "", "name of the mother")
	cmd.Flags().StringVar(&father, "father", "", "name of the father")
	cmd.Flags().StringVar(&cageName, "cage", "", "breeding cage name (generated from the proprietor's series when empty)")
	cmd.Flags().StringVarP(&proprietor, "proprietor", "p", "", "owner of the new cage")
	cmd.Flags().StringVarP(&location, "location", "l", "", "room of the new cage")
	cmd.Flags().StringVar(&rackSpot, "rack-spot", "", "rack position of the new cage")
	cmd.Flags().StringVar(&notes, "notes", "", "cage notes")
	_ = cmd.MarkFlagRequired("mother")
	_ = cmd.MarkFlagRequired("father")
	return cmd
}

func newPupsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pups <cage> <n>",
		Short: "Grow or shrink a litter to n pups",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("pup count %q: %w", args[1], err)
			}
			return withApp(cmd, opts, func(a *app) error {
				cage, err := a.svc.FindCageByName(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				change, res, err := a.svc.ChangeNumberOfPups(cmd.Context(), cage.ID, n)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Created: %s\n", joinNames(change.Created))
				if len(change.Skipped) > 0 {
					fmt.Fprintf(out, "Skipped (name taken): %s\n", joinNames(change.Skipped))
				}
				if len(change.Removed) > 0 {
					fmt.Fprintf(out, "Removed: %s\n", joinNames(change.Removed))
				}
				printWarnings(out, res)
				return nil
			})
		},
	}
}

func newWeanCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "wean <cage>",
		Short: "Move a litter's pups into new cages by sex",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				cage, err := a.svc.FindCageByName(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				weaning, res, err := a.svc.Wean(cmd.Context(), cage.ID, a.today)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(weaning.Cages) == 0 {
					fmt.Fprintf(out, "Cage %s weaned; no pups left to move\n", cage.Name)
				}
				names := make([]string, 0, len(weaning.Moved))
				for name := range weaning.Moved {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					fmt.Fprintf(out, "%s: %s\n", name, joinNames(weaning.Moved[name]))
				}
				printWarnings(out, res)
				return nil
			})
		},
	}
}

func newSackCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sack <cage>",
		Short: "Sack every resident and retire the cage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				cage, err := a.svc.FindCageByName(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				n, res, err := a.svc.Sack(cmd.Context(), cage.ID, a.today)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Sacked %d mice; cage %s is defunct\n", n, cage.Name)
				printWarnings(cmd.OutOrStdout(), res)
				return nil
			})
		},
	}
}

func printWarnings(out io.Writer, res core.Result) {
	for _, v := range res.Violations {
		if v.Severity == core.SeverityWarn {
			fmt.Fprintf(out, "warning: %s: %s\n", v.Rule, v.Message)
		}
	}
}
