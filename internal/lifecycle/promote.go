package lifecycle

import (
	"context"

	"mintada/internal/catalog"
	"mintada/internal/document"
	"mintada/internal/fileops"
	"mintada/internal/logging"
)

// Promote makes the selected sample the coin's reference. The previous
// reference, if any, becomes secondary and is listed among the examples on
// the coin's page.
func (e *Engine) Promote(ctx context.Context, coinID, sampleID int64) (*Result, error) {
	return e.run(ctx, "promote", coinID, func(ctx context.Context, c *command) error {
		samples, err := c.samples([]int64{sampleID})
		if err != nil {
			return err
		}
		promoted := samples[0]
		if promoted.Type == catalog.SampleReference {
			return c.reject("sample %d is already the reference", promoted.ID)
		}
		previous, hadReference := c.coin.Reference()

		docPath := e.layout.DocumentPath(c.coin)
		if backup, err := fileops.BackupDocument(docPath, e.now()); err != nil {
			c.warn("document backup failed", "document_drift", err, logging.String("path", docPath))
		} else if backup != "" {
			c.logger.Debug("document backed up", logging.String("backup", backup))
		}

		demotedID, err := e.store.PromoteSample(ctx, c.coin.ID, promoted.ID)
		if err != nil {
			return c.storeFailed(err)
		}
		c.logger.Info("sample promoted",
			logging.Int64(logging.FieldSampleID, promoted.ID),
			logging.Int64("demoted_sample_id", demotedID))

		var demoted *document.Faces
		if hadReference && demotedID == previous.ID {
			demoted = &document.Faces{Obverse: previous.ObverseImage, Reverse: previous.ReverseImage}
		}
		c.editDocument(c.coin, document.PromoteEdit(
			document.Faces{Obverse: promoted.ObverseImage, Reverse: promoted.ReverseImage}, demoted))
		return nil
	})
}
