package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"mintada/internal/catalog"
	"mintada/internal/services"
)

func newRulersCommand(ctx *commandContext) *cobra.Command {
	rulersCmd := &cobra.Command{
		Use:   "rulers",
		Short: "Maintain ruler associations of issuers",
	}
	rulersCmd.AddCommand(newRulersListCommand(ctx))
	rulersCmd.AddCommand(newRulersToggleCommand(ctx))
	rulersCmd.AddCommand(newRulersTogglePeriodCommand(ctx))
	return rulersCmd
}

func newRulersListCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "list ISSUER",
		Short: "Resolve and list the rulers of an issuer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			issuerID, err := parseID("issuer", args[0])
			if err != nil {
				return err
			}
			resolver, _, err := ctx.resolver()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if dryRun {
				preview, match, err := resolver.Preview(cmd.Context(), issuerID)
				if err != nil {
					return err
				}
				printMatch(out, match)
				rows := make([][]string, 0, len(preview))
				for _, p := range preview {
					change := "-"
					switch {
					case p.WouldClaim:
						change = "claim"
					case p.WouldRelease:
						change = "release"
					}
					rows = append(rows, append(rulerCells(p.Ruler, issuerID), change))
				}
				fmt.Fprintln(out, renderTable(append(rulerHeaders(), "Change"), rows, rulerAligns()))
				return nil
			}

			listing, err := resolver.List(cmd.Context(), issuerID)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s [%d]\n", listing.Issuer.Name, listing.Issuer.ID)
			if listing.Outcome.Skipped {
				fmt.Fprintln(out, "Section shares its name with a leaf issuer; automatic association skipped")
			} else {
				printMatch(out, listing.Outcome.Match)
				fmt.Fprintf(out, "Claimed %d, released %d\n", listing.Outcome.Claimed, listing.Outcome.Released)
			}
			var rows [][]string
			for _, g := range listing.Groups {
				state := "no"
				switch {
				case g.IsAssociated:
					state = "yes"
				case g.IsPartiallyAssociated:
					state = "partial"
				}
				for _, r := range g.Rulers {
					rows = append(rows, append(rulerCells(r, issuerID), state))
				}
			}
			fmt.Fprintln(out, renderTable(append(rulerHeaders(), "Period linked"), rows, rulerAligns()))
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what the resolver would change without writing")
	return cmd
}

func newRulersToggleCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle ISSUER ROW",
		Short: "Flip one ruler row between the issuer and nothing",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			issuerID, err := parseID("issuer", args[0])
			if err != nil {
				return err
			}
			rowID, err := parseID("ruler row", args[1])
			if err != nil {
				return err
			}
			resolver, _, err := ctx.resolver()
			if err != nil {
				return err
			}
			row, err := resolver.Toggle(cmd.Context(), issuerID, rowID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: associated %s (manual)\n", row.Name, yesNo(row.AssociatedWith(issuerID)))
			return nil
		},
	}
}

func newRulersTogglePeriodCommand(ctx *commandContext) *cobra.Command {
	var period string
	var order int

	cmd := &cobra.Command{
		Use:   "toggle-period ISSUER --period P --order N",
		Short: "Associate or dissociate a whole period group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			issuerID, err := parseID("issuer", args[0])
			if err != nil {
				return err
			}
			if period == "" {
				return services.Wrap(services.ErrValidation, "cli", "toggle-period", "--period is required", nil)
			}
			resolver, _, err := ctx.resolver()
			if err != nil {
				return err
			}
			associated, n, err := resolver.TogglePeriod(cmd.Context(), issuerID, period, order)
			if err != nil {
				return err
			}
			verb := "Dissociated"
			if associated {
				verb = "Associated"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d rulers of %s\n", verb, n, period)
			return nil
		},
	}
	cmd.Flags().StringVar(&period, "period", "", "Period name")
	cmd.Flags().IntVar(&order, "order", 0, "Period order")
	return cmd
}

func printMatch(out io.Writer, m catalog.RulerMatch) {
	var forms []string
	if m.AllowSimple {
		forms = append(forms, fmt.Sprintf("%q", m.Name))
	}
	if m.AllowCombined {
		forms = append(forms, fmt.Sprintf("%q + %q", m.Name, m.Territory))
	}
	if len(forms) == 0 {
		fmt.Fprintln(out, "Matching labels: none")
		return
	}
	fmt.Fprintf(out, "Matching labels: %v\n", forms)
}

func rulerHeaders() []string {
	return []string{"Row", "Ruler", "Years", "Label", "Period", "Linked", "Manual"}
}

func rulerAligns() []columnAlignment {
	return []columnAlignment{alignRight}
}

func rulerCells(r catalog.Ruler, issuerID int64) []string {
	return []string{
		fmt.Sprintf("%d", r.RowID),
		r.Name,
		dash(r.YearsText),
		dash(r.IssuerLabel),
		dash(r.Period),
		yesNo(r.AssociatedWith(issuerID)),
		yesNo(r.IsManual),
	}
}
