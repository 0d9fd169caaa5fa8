package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"mintada/internal/imaging"
	"mintada/internal/logging"
)

func newHashCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "hash FILE...",
		Short: "Print difference hashes and pairwise distances",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			hasher := ctx.hasher()
			out := cmd.OutOrStdout()

			type hashed struct {
				name string
				hash imaging.Hash
			}
			var done []hashed
			rows := make([][]string, 0, len(args))
			for _, path := range args {
				name := filepath.Base(path)
				h, err := hasher.HashFile(path)
				if err != nil {
					rows = append(rows, []string{name, "-", "-", "-", err.Error()})
					continue
				}
				size := "-"
				if info, err := os.Stat(path); err == nil {
					size = humanize.Bytes(uint64(info.Size()))
				}
				resolution := "-"
				if w, h, err := imaging.Resolution(path); err == nil {
					resolution = fmt.Sprintf("%dx%d", w, h)
				}
				rows = append(rows, []string{name, h.String(), resolution, size, ""})
				done = append(done, hashed{name: name, hash: h})
			}
			if err := hasher.Cache().Flush(); err != nil {
				logging.WarnWithContext(ctx.ensureLogger(), "hash cache not saved", "hash_cache", logging.Error(err))
			}
			fmt.Fprintln(out, renderTable(
				[]string{"File", "dHash", "Resolution", "Size", "Error"}, rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight}))

			if len(done) < 2 {
				return nil
			}
			var pairs [][]string
			for i := range done {
				for j := i + 1; j < len(done); j++ {
					d := imaging.HammingDistance(done[i].hash, done[j].hash)
					pairs = append(pairs, []string{
						done[i].name, done[j].name, fmt.Sprintf("%d", d),
						yesNo(d <= cfg.Analysis.FuzzyThreshold),
					})
				}
			}
			fmt.Fprintln(out, renderTable(
				[]string{"A", "B", "Distance", "Duplicate"}, pairs,
				[]columnAlignment{alignLeft, alignLeft, alignRight}))
			return nil
		},
	}
}

func newSplitRatioCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "split-ratio FILE",
		Short: "Detect where a combined photograph divides obverse from reverse",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ratio, err := imaging.DetectSplitRatioFile(args[0])
			if err != nil {
				logging.NewComponentLogger(ctx.ensureLogger(), "cli").Debug("split detection fell back to default",
					logging.String("path", args[0]), logging.Error(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%.3f\n", ratio)
			return nil
		},
	}
}
