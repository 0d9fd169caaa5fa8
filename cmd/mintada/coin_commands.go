package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"mintada/internal/analysis"
	"mintada/internal/catalog"
	"mintada/internal/services"
	"mintada/internal/store"
)

func newCoinCommand(ctx *commandContext) *cobra.Command {
	coinCmd := &cobra.Command{
		Use:   "coin",
		Short: "Inspect coin types",
	}
	coinCmd.AddCommand(newCoinShowCommand(ctx))
	coinCmd.AddCommand(newCoinFixCommand(ctx))
	return coinCmd
}

type coinView struct {
	ID       int64        `json:"id"`
	Title    string       `json:"title"`
	Issuer   string       `json:"issuer"`
	Fixed    bool         `json:"fixed"`
	Document string       `json:"document"`
	Samples  []sampleView `json:"samples"`
}

type sampleView struct {
	ID            int64   `json:"id"`
	Type          string  `json:"type"`
	Obverse       string  `json:"obverse,omitempty"`
	Reverse       string  `json:"reverse,omitempty"`
	Attribute     string  `json:"attribute,omitempty"`
	Hash          string  `json:"hash,omitempty"`
	Group         int     `json:"group,omitempty"`
	SplitRatio    float64 `json:"split_ratio,omitempty"`
	SwapSuggested bool    `json:"swap_suggested,omitempty"`
}

func newCoinShowCommand(ctx *commandContext) *cobra.Command {
	var analyze bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show COIN",
		Short: "Show a coin type and its samples",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			coinID, err := parseID("coin", args[0])
			if err != nil {
				return err
			}
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			coin, err := st.Coin(cmd.Context(), coinID)
			if err != nil {
				return err
			}
			if coin == nil {
				return services.Wrap(services.ErrNotFound, "cli", "coin show", fmt.Sprintf("coin %d", coinID), nil)
			}
			layout := ctx.layout()
			layout.Resolve(coin)

			var report *analysis.Report
			if analyze {
				session := ctx.analysisSession()
				session.Select(cmd.Context(), coin)
				r, err := session.Wait(cmd.Context())
				if err != nil {
					return fmt.Errorf("analyse coin: %w", err)
				}
				report = &r
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(cmd, buildCoinView(coin, layout.DocumentPath(coin), report))
			}
			fmt.Fprintf(out, "%s [%d]\n", coin.Title, coin.ID)
			if coin.Subtitle != "" {
				fmt.Fprintln(out, coin.Subtitle)
			}
			fmt.Fprintf(out, "Issuer: %s  Fixed: %s\n", coin.IssuerSlug, yesNo(coin.Fixed))
			fmt.Fprintf(out, "Document: %s\n", layout.DocumentPath(coin))
			if at, ok := latestBackup(layout.BackupDir(coin)); ok {
				fmt.Fprintf(out, "Last document backup: %s\n", humanize.Time(at))
			}
			fmt.Fprintln(out, renderSamples(coin, report, shouldColorize(out)))
			if report != nil && len(report.Groups) > 0 {
				for _, g := range report.Groups {
					fmt.Fprintf(out, "Duplicate group %d: %s\n", g.ID, joinIDs(g.Members))
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&analyze, "analyze", false, "Hash samples, group near-duplicates and check for swapped faces")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON")
	return cmd
}

func newCoinFixCommand(ctx *commandContext) *cobra.Command {
	var unset bool

	cmd := &cobra.Command{
		Use:   "fix COIN",
		Short: "Mark a coin type as curated",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			coinID, err := parseID("coin", args[0])
			if err != nil {
				return err
			}
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			if err := st.SetCoinFixed(cmd.Context(), coinID, !unset); err != nil {
				if errors.Is(err, store.ErrRowsMismatch) {
					return services.Wrap(services.ErrNotFound, "cli", "coin fix", fmt.Sprintf("coin %d", coinID), nil)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Coin %d fixed: %s\n", coinID, yesNo(!unset))
			return nil
		},
	}
	cmd.Flags().BoolVar(&unset, "unset", false, "Clear the fixed flag")
	return cmd
}

func renderSamples(coin *catalog.Coin, report *analysis.Report, colorize bool) string {
	headers := []string{"ID", "Type", "Obverse", "Reverse", "Size", "Attribute"}
	aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft}
	if report != nil {
		headers = append(headers, "dHash", "Group", "Split", "Swap?")
		aligns = append(aligns, alignLeft, alignRight, alignRight, alignLeft)
	}

	rows := make([][]string, 0, len(coin.Samples))
	for _, s := range coin.Samples {
		row := []string{
			fmt.Sprintf("%d", s.ID),
			sampleTypeLabel(s.Type, colorize),
			dash(s.ObverseImage),
			dash(s.ReverseImage),
			fileSize(s.ObversePath),
			dash(string(s.Tags.Active())),
		}
		if report != nil {
			a := report.Annotation(s.ID)
			hash, group, split := "-", "-", "-"
			if a.Hashed {
				hash = a.Hash.String()
			}
			if a.Group > 0 {
				group = fmt.Sprintf("%d", a.Group)
			}
			if s.IsCombined() {
				split = fmt.Sprintf("%.3f", a.SplitRatio)
			}
			row = append(row, hash, group, split, yesNo(a.SwapSuggested))
		}
		rows = append(rows, row)
	}
	return renderTable(headers, rows, aligns)
}

func buildCoinView(coin *catalog.Coin, documentPath string, report *analysis.Report) coinView {
	view := coinView{
		ID:       coin.ID,
		Title:    coin.Title,
		Issuer:   coin.IssuerSlug,
		Fixed:    coin.Fixed,
		Document: documentPath,
	}
	for _, s := range coin.Samples {
		sv := sampleView{
			ID:        s.ID,
			Type:      s.Type.String(),
			Obverse:   s.ObverseImage,
			Reverse:   s.ReverseImage,
			Attribute: string(s.Tags.Active()),
		}
		if report != nil {
			a := report.Annotation(s.ID)
			if a.Hashed {
				sv.Hash = a.Hash.String()
			}
			sv.Group = a.Group
			sv.SplitRatio = a.SplitRatio
			sv.SwapSuggested = a.SwapSuggested
		}
		view.Samples = append(view.Samples, sv)
	}
	return view
}

func fileSize(path string) string {
	if path == "" {
		return "-"
	}
	info, err := os.Stat(path)
	if err != nil {
		return "missing"
	}
	return humanize.Bytes(uint64(info.Size()))
}

func latestBackup(dir string) (time.Time, bool) {
	matches, err := filepath.Glob(filepath.Join(dir, "coin_type_*.html"))
	if err != nil || len(matches) == 0 {
		return time.Time{}, false
	}
	var times []time.Time
	for _, m := range matches {
		if info, err := os.Stat(m); err == nil {
			times = append(times, info.ModTime())
		}
	}
	if len(times) == 0 {
		return time.Time{}, false
	}
	sort.Slice(times, func(i, j int) bool { return times[i].After(times[j]) })
	return times[0], true
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, ", ")
}
