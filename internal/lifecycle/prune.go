package lifecycle

import (
	"context"
	"os"
	"sort"

	"mintada/internal/catalog"
	"mintada/internal/document"
	"mintada/internal/fileops"
	"mintada/internal/imaging"
	"mintada/internal/logging"
)

// candidate is a sample with the measurements used for ranking.
type candidate struct {
	sample     catalog.Sample
	resolution int64
	size       int64
}

func measure(s catalog.Sample) candidate {
	c := candidate{sample: s}
	if w, h, err := imaging.Resolution(s.ObversePath); err == nil {
		c.resolution = int64(w) * int64(h)
	}
	if info, err := os.Stat(s.ObversePath); err == nil {
		c.size = info.Size()
	}
	return c
}

// rankCandidates orders best first: higher resolution, then reference, then
// larger file, then obverse name.
func rankCandidates(cands []candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.resolution != b.resolution {
			return a.resolution > b.resolution
		}
		aRef, bRef := a.sample.Type == catalog.SampleReference, b.sample.Type == catalog.SampleReference
		if aRef != bRef {
			return aRef
		}
		if a.size != b.size {
			return a.size > b.size
		}
		return a.sample.ObverseImage < b.sample.ObverseImage
	})
}

// ChooseBest keeps the best of the selected near-duplicates and removes the
// rest. Past-sale rows of removed samples are collapsed into a single row;
// other references are redirected to the survivor's images. If the reference
// was removed the survivor takes its place.
func (e *Engine) ChooseBest(ctx context.Context, coinID int64, sampleIDs []int64) (*Result, error) {
	return e.run(ctx, "choose-best", coinID, func(ctx context.Context, c *command) error {
		samples, err := c.samples(sampleIDs)
		if err != nil {
			return err
		}
		if len(samples) < 2 {
			return c.reject("select at least two samples")
		}

		cands := make([]candidate, len(samples))
		for i, s := range samples {
			cands[i] = measure(s)
		}
		rankCandidates(cands)
		survivor := cands[0].sample
		losers := make([]catalog.Sample, 0, len(cands)-1)
		loserIDs := make([]int64, 0, len(cands)-1)
		removedReference := false
		for _, cand := range cands[1:] {
			losers = append(losers, cand.sample)
			loserIDs = append(loserIDs, cand.sample.ID)
			if cand.sample.Type == catalog.SampleReference {
				removedReference = true
			}
		}
		promote := removedReference && survivor.Type != catalog.SampleReference

		if err := e.store.ResolveDuplicates(ctx, survivor.ID, loserIDs, promote); err != nil {
			return c.storeFailed(err)
		}
		c.logger.Info("duplicates resolved",
			logging.Int64(logging.FieldSampleID, survivor.ID),
			logging.Int("removed_count", len(losers)),
			logging.Bool("promoted", promote))

		keptSaleRow := survivor.Type == catalog.SamplePastSale
		edits := make([]document.Edit, 0, 2*len(losers))
		for _, loser := range losers {
			if loser.Type == catalog.SamplePastSale && keptSaleRow {
				edits = append(edits, document.Text(func(doc string) (string, bool) {
					return document.RemoveSaleTableBody(doc, loser.ObverseImage)
				}))
				continue
			}
			if loser.Type == catalog.SamplePastSale {
				keptSaleRow = true
			}
			edits = append(edits, document.Text(func(doc string) (string, bool) {
				return document.ReplaceImageReference(doc, loser.ObverseImage, survivor.ObverseImage)
			}))
			if loser.DistinctReverse() && survivor.HasReverse() {
				edits = append(edits, document.Text(func(doc string) (string, bool) {
					return document.ReplaceImageReference(doc, loser.ReverseImage, survivor.ReverseImage)
				}))
			}
		}
		c.editDocument(c.coin, edits...)

		for _, loser := range losers {
			c.archive(loser, survivor)
		}
		return nil
	})
}

// archive moves a removed sample's files into bkp/, leaving any file the
// survivor still uses.
func (c *command) archive(loser, survivor catalog.Sample) {
	paths := []string{loser.ObversePath}
	if loser.DistinctReverse() {
		paths = append(paths, loser.ReversePath)
	}
	for _, p := range paths {
		if p == "" || p == survivor.ObversePath || p == survivor.ReversePath {
			continue
		}
		if _, err := fileops.MoveToBackup(p); err != nil {
			c.fileDrift("image not archived", p, err)
		}
	}
}

// Delete soft-deletes one past-sale sample and drops its sale entry from the
// page. The last past-sale sample of a coin cannot be deleted.
func (e *Engine) Delete(ctx context.Context, coinID, sampleID int64) (*Result, error) {
	return e.run(ctx, "delete", coinID, func(ctx context.Context, c *command) error {
		samples, err := c.samples([]int64{sampleID})
		if err != nil {
			return err
		}
		s := samples[0]
		if s.Type != catalog.SamplePastSale {
			return c.reject("only past-sale samples can be deleted; sample %d is %s", s.ID, s.Type)
		}
		if c.coin.CountType(catalog.SamplePastSale) < 2 {
			return c.reject("sample %d is the last past-sale sample of coin %d", s.ID, c.coin.ID)
		}

		if err := e.store.SoftDeleteSamples(ctx, []int64{s.ID}); err != nil {
			return c.storeFailed(err)
		}
		c.logger.Info("sample deleted", logging.Int64(logging.FieldSampleID, s.ID))

		if s.HasObverse() {
			c.editDocument(c.coin, document.Text(func(doc string) (string, bool) {
				if out, ok := document.RemoveSaleTableBody(doc, s.ObverseImage); ok {
					return out, true
				}
				return document.RemoveImageRow(doc, s.ObverseImage)
			}))
		}
		return nil
	})
}
