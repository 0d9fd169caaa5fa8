package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mintada/internal/catalog"
	"mintada/internal/lifecycle"
)

func newSampleCommand(ctx *commandContext) *cobra.Command {
	sampleCmd := &cobra.Command{
		Use:   "sample",
		Short: "Curate the samples of a coin type",
	}

	sampleCmd.AddCommand(newSampleSplitCommand(ctx))
	sampleCmd.AddCommand(newSamplePromoteCommand(ctx))
	sampleCmd.AddCommand(newSampleSwapCommand(ctx))
	sampleCmd.AddCommand(newSampleTransferCommand(ctx))
	sampleCmd.AddCommand(newSampleChooseBestCommand(ctx))
	sampleCmd.AddCommand(newSampleDeleteCommand(ctx))
	sampleCmd.AddCommand(newSampleMarkCommand(ctx))

	return sampleCmd
}

// lifecycleRunE parses "COIN SAMPLE..." and hands them to run.
func lifecycleRunE(ctx *commandContext, verb string, run func(cmd *cobra.Command, e *lifecycle.Engine, coinID int64, sampleIDs []int64) (*lifecycle.Result, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		coinID, err := parseID("coin", args[0])
		if err != nil {
			return err
		}
		sampleIDs, err := parseIDs("sample", args[1:])
		if err != nil {
			return err
		}
		engine, err := ctx.engine()
		if err != nil {
			return err
		}
		res, err := run(cmd, engine, coinID, sampleIDs)
		if err != nil {
			return err
		}
		printResult(cmd.OutOrStdout(), verb, res)
		return nil
	}
}

func newSampleSplitCommand(ctx *commandContext) *cobra.Command {
	var ratio float64
	cmd := &cobra.Command{
		Use:   "split COIN SAMPLE...",
		Short: "Cut combined obverse/reverse photographs into two images",
		Args:  cobra.MinimumNArgs(2),
		RunE: lifecycleRunE(ctx, "Split", func(cmd *cobra.Command, e *lifecycle.Engine, coinID int64, ids []int64) (*lifecycle.Result, error) {
			return e.Split(cmd.Context(), coinID, ids, ratio)
		}),
	}
	cmd.Flags().Float64Var(&ratio, "ratio", lifecycle.DetectRatio, "Cut position as a fraction of the width; detected per image when omitted")
	return cmd
}

func newSamplePromoteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "promote COIN SAMPLE",
		Short: "Make a sample the reference of its coin type",
		Args:  cobra.ExactArgs(2),
		RunE: lifecycleRunE(ctx, "Promote", func(cmd *cobra.Command, e *lifecycle.Engine, coinID int64, ids []int64) (*lifecycle.Result, error) {
			return e.Promote(cmd.Context(), coinID, ids[0])
		}),
	}
}

func newSampleSwapCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "swap COIN SAMPLE...",
		Short: "Exchange obverse and reverse images",
		Args:  cobra.MinimumNArgs(2),
		RunE: lifecycleRunE(ctx, "Swap", func(cmd *cobra.Command, e *lifecycle.Engine, coinID int64, ids []int64) (*lifecycle.Result, error) {
			return e.Swap(cmd.Context(), coinID, ids)
		}),
	}
}

func newSampleTransferCommand(ctx *commandContext) *cobra.Command {
	var target string
	cmd := &cobra.Command{
		Use:   "transfer COIN SAMPLE --to COIN",
		Short: "Move a sample to another coin type",
		Args:  cobra.ExactArgs(2),
		RunE: lifecycleRunE(ctx, "Transfer", func(cmd *cobra.Command, e *lifecycle.Engine, coinID int64, ids []int64) (*lifecycle.Result, error) {
			targetID, err := parseID("target coin", target)
			if err != nil {
				return nil, err
			}
			return e.Transfer(cmd.Context(), coinID, ids[0], targetID)
		}),
	}
	cmd.Flags().StringVar(&target, "to", "", "Destination coin type id")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newSampleChooseBestCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "choose-best COIN SAMPLE SAMPLE...",
		Short: "Keep the highest resolution sample of a duplicate set and retire the rest",
		Args:  cobra.MinimumNArgs(3),
		RunE: lifecycleRunE(ctx, "Choose best", func(cmd *cobra.Command, e *lifecycle.Engine, coinID int64, ids []int64) (*lifecycle.Result, error) {
			return e.ChooseBest(cmd.Context(), coinID, ids)
		}),
	}
}

func newSampleDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete COIN SAMPLE",
		Short: "Remove a past-sale sample",
		Args:  cobra.ExactArgs(2),
		RunE: lifecycleRunE(ctx, "Delete", func(cmd *cobra.Command, e *lifecycle.Engine, coinID int64, ids []int64) (*lifecycle.Result, error) {
			return e.Delete(cmd.Context(), coinID, ids[0])
		}),
	}
}

func newSampleMarkCommand(ctx *commandContext) *cobra.Command {
	var attr string
	names := make([]string, 0, len(catalog.Attributes)+1)
	for _, a := range catalog.Attributes {
		names = append(names, string(a))
	}
	names = append(names, "none")

	cmd := &cobra.Command{
		Use:   "mark COIN SAMPLE... --as ATTRIBUTE",
		Short: "Tag samples with a single attribute",
		Args:  cobra.MinimumNArgs(2),
		RunE: lifecycleRunE(ctx, "Mark", func(cmd *cobra.Command, e *lifecycle.Engine, coinID int64, ids []int64) (*lifecycle.Result, error) {
			return e.Mark(cmd.Context(), coinID, ids, catalog.Attribute(attr))
		}),
	}
	cmd.Flags().StringVar(&attr, "as", "", fmt.Sprintf("Attribute to set (%s)", strings.Join(names, "|")))
	_ = cmd.MarkFlagRequired("as")
	return cmd
}
