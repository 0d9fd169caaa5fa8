package lifecycle

import (
	"context"
	"fmt"

	"mintada/internal/catalog"
	"mintada/internal/document"
	"mintada/internal/fileops"
	"mintada/internal/logging"
	"mintada/internal/services"
)

// Swap exchanges obverse and reverse of every selected sample.
func (e *Engine) Swap(ctx context.Context, coinID int64, sampleIDs []int64) (*Result, error) {
	return e.run(ctx, "swap", coinID, func(ctx context.Context, c *command) error {
		samples, err := c.samples(sampleIDs)
		if err != nil {
			return err
		}
		if len(samples) == 0 {
			return c.reject("select at least one sample")
		}
		for _, s := range samples {
			if !s.HasBothFaces() {
				return c.reject("sample %d lacks an obverse or reverse image", s.ID)
			}
			if s.IsCombined() {
				return c.reject("sample %d is a combined image; split it first", s.ID)
			}
		}

		if err := e.store.SwapSampleFaces(ctx, sampleIDs); err != nil {
			return c.storeFailed(err)
		}

		edits := make([]document.Edit, 0, len(samples))
		for _, s := range samples {
			obverse, reverse := s.ObverseImage, s.ReverseImage
			edits = append(edits, document.Text(func(doc string) (string, bool) {
				return document.SwapImageReferences(doc, obverse, reverse)
			}))
		}
		c.editDocument(c.coin, edits...)
		return nil
	})
}

// Transfer moves a non-reference sample to another coin type, where it
// becomes secondary. Its image files follow it into the target's directory.
func (e *Engine) Transfer(ctx context.Context, coinID, sampleID, targetCoinID int64) (*Result, error) {
	return e.run(ctx, "transfer", coinID, func(ctx context.Context, c *command) error {
		samples, err := c.samples([]int64{sampleID})
		if err != nil {
			return err
		}
		s := samples[0]
		if s.Type == catalog.SampleReference {
			return c.reject("sample %d is the reference; promote another sample first", s.ID)
		}
		if targetCoinID == c.coin.ID {
			return c.reject("sample %d already belongs to coin %d", s.ID, targetCoinID)
		}
		target, err := e.store.Coin(ctx, targetCoinID)
		if err != nil {
			return fmt.Errorf("load target coin %d: %w", targetCoinID, err)
		}
		if target == nil {
			return services.Wrap(services.ErrNotFound, "lifecycle", c.op, fmt.Sprintf("target coin %d", targetCoinID), nil)
		}

		if err := e.store.TransferSample(ctx, s.ID, target.ID); err != nil {
			return c.storeFailed(err)
		}
		c.logger.Info("sample transferred",
			logging.Int64(logging.FieldSampleID, s.ID),
			logging.Int64("target_coin_id", target.ID))

		names := []string{s.ObverseImage}
		if s.DistinctReverse() {
			names = append(names, s.ReverseImage)
		}
		for _, name := range names {
			if name == "" {
				continue
			}
			src := e.layout.ImagePath(c.coin, name)
			if err := fileops.MoveFile(src, e.layout.ImagePath(target, name)); err != nil {
				c.fileDrift("image not moved to target coin", src, err)
			}
		}
		return nil
	})
}
