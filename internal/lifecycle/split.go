package lifecycle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"mintada/internal/catalog"
	"mintada/internal/document"
	"mintada/internal/fileops"
	"mintada/internal/imaging"
	"mintada/internal/logging"
	"mintada/internal/services"
)

// DetectRatio asks Split to locate the divider of each image itself.
const DetectRatio = 0

// Split cuts each selected combined image into separate obverse and reverse
// files at ratio of the width, or at the detected divider for DetectRatio.
// Any other ratio outside (0,1) is rejected.
func (e *Engine) Split(ctx context.Context, coinID int64, sampleIDs []int64, ratio float64) (*Result, error) {
	if ratio != DetectRatio && (ratio <= 0 || ratio >= 1) {
		return nil, services.Wrap(services.ErrValidation, "lifecycle", "split",
			fmt.Sprintf("ratio %g must lie strictly between 0 and 1", ratio), nil)
	}
	return e.run(ctx, "split", coinID, func(ctx context.Context, c *command) error {
		samples, err := c.samples(sampleIDs)
		if err != nil {
			return err
		}
		if len(samples) == 0 {
			return c.reject("select at least one combined image")
		}
		for _, s := range samples {
			if !s.IsCombined() {
				return c.reject("sample %d is not a combined image", s.ID)
			}
		}
		for _, s := range samples {
			if err := c.splitOne(ctx, s, ratio); err != nil {
				return err
			}
		}
		return nil
	})
}

func (c *command) splitOne(ctx context.Context, s catalog.Sample, ratio float64) error {
	logger := c.logger.With(logging.Int64(logging.FieldSampleID, s.ID))
	if ratio == DetectRatio {
		detected, err := imaging.DetectSplitRatioFile(s.ObversePath)
		if err != nil {
			return services.Wrap(services.ErrTransient, "lifecycle", c.op, "read combined image", err)
		}
		ratio = detected
	}

	obverse, reverse, err := fileops.PairNames(ctx, imaging.OutputExt(s.ObverseImage))
	if err != nil {
		return err
	}
	imagesDir := c.engine.layout.ImagesDir(c.coin)
	obversePath := filepath.Join(imagesDir, obverse)
	reversePath := filepath.Join(imagesDir, reverse)
	if err := imaging.SplitFile(s.ObversePath, ratio, obversePath, reversePath); err != nil {
		os.Remove(obversePath)
		os.Remove(reversePath)
		return services.Wrap(services.ErrTransient, "lifecycle", c.op, "split image", err)
	}

	if err := c.engine.store.UpdateSampleImages(ctx, s.ID, obverse, reverse); err != nil {
		os.Remove(obversePath)
		os.Remove(reversePath)
		return c.storeFailed(err)
	}
	logger.Info("split combined image",
		logging.String("source", s.ObverseImage),
		logging.String("obverse", obverse),
		logging.String("reverse", reverse),
		logging.Float64("ratio", ratio))

	c.editDocument(c.coin, document.Text(func(doc string) (string, bool) {
		return document.ReplaceSplitImage(doc, s.ObverseImage, obverse, reverse, c.coin.Title)
	}))

	if _, err := fileops.BackupTo(s.ObversePath, obverse); err != nil {
		c.fileDrift("combined image not archived", s.ObversePath, err)
	}
	return nil
}
