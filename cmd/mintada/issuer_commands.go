package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mintada/internal/catalog"
	"mintada/internal/store"
)

func newIssuersCommand(ctx *commandContext) *cobra.Command {
	var (
		text        string
		multiSample bool
		hideFixed   bool
		onlyFixed   bool
	)

	cmd := &cobra.Command{
		Use:   "issuers",
		Short: "Print the issuer tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			issuers, err := st.Issuers(cmd.Context())
			if err != nil {
				return err
			}

			filter := catalog.IssuerFilter{Text: text}
			if multiSample || hideFixed || onlyFixed {
				ids, err := st.IssuerIDsWithCoins(cmd.Context(), store.CoinFilter{
					NonReferenceOnly: multiSample,
					HideFixed:        hideFixed,
					OnlyFixed:        onlyFixed,
				})
				if err != nil {
					return err
				}
				filter.WithCoins = ids
			}

			tree := catalog.BuildIssuerTree(issuers)
			if strings.TrimSpace(text) != "" || filter.WithCoins != nil {
				tree = tree.Filter(filter.Matches)
			}

			out := cmd.OutOrStdout()
			if tree.Len() == 0 {
				fmt.Fprintln(out, "No issuers match")
				return nil
			}
			tree.Walk(func(depth int, issuer catalog.Issuer) {
				line := fmt.Sprintf("%s%s [%d]", strings.Repeat("  ", depth), issuer.Name, issuer.ID)
				if issuer.TerritoryType != "" {
					line += " (" + issuer.TerritoryType + ")"
				}
				if issuer.IsSection {
					line += " /"
				}
				fmt.Fprintln(out, line)
			})
			return nil
		},
	}

	cmd.Flags().StringVarP(&text, "filter", "f", "", "Only issuers whose name contains this text")
	cmd.Flags().BoolVar(&multiSample, "multi-sample", false, "Only issuers with coins carrying non-reference samples")
	cmd.Flags().BoolVar(&hideFixed, "hide-fixed", false, "Ignore coins marked fixed")
	cmd.Flags().BoolVar(&onlyFixed, "only-fixed", false, "Only consider coins marked fixed")
	cmd.MarkFlagsMutuallyExclusive("hide-fixed", "only-fixed")
	return cmd
}
