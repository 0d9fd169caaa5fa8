package lifecycle

import (
	"context"

	"mintada/internal/catalog"
	"mintada/internal/logging"
)

// Mark sets attr as the only attribute tag of every selected sample.
// catalog.AttributeNone clears all tags.
func (e *Engine) Mark(ctx context.Context, coinID int64, sampleIDs []int64, attr catalog.Attribute) (*Result, error) {
	return e.run(ctx, "mark", coinID, func(ctx context.Context, c *command) error {
		parsed, err := catalog.ParseAttribute(string(attr))
		if err != nil {
			return c.reject("%v", err)
		}
		samples, err := c.samples(sampleIDs)
		if err != nil {
			return err
		}
		if len(samples) == 0 {
			return c.reject("select at least one sample")
		}
		if err := e.store.SetSampleTags(ctx, sampleIDs, catalog.TagsFor(parsed)); err != nil {
			return c.storeFailed(err)
		}
		c.logger.Info("samples marked",
			logging.String("attribute", string(parsed)),
			logging.Int("sample_count", len(samples)))
		return nil
	})
}
