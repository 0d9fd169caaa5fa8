// Package analysis annotates the samples of the selected coin in the
// background: difference hashes, near-duplicate groups, split ratios for
// combined photographs and advisory face-swap suggestions.
//
// Selecting another coin cancels the running analysis instead of waiting
// for it. Failures inside an analysis are never surfaced: an unreadable
// image simply has no hash, a combined image whose divider cannot be found
// gets the default ratio and an unavailable classifier suggests nothing.
package analysis

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"mintada/internal/catalog"
	"mintada/internal/dupgroup"
	"mintada/internal/imaging"
	"mintada/internal/logging"
	"mintada/internal/services"
	"mintada/internal/services/swapdetect"
)

const defaultWorkers = 4

// Annotation is what analysis learned about one sample.
type Annotation struct {
	SampleID int64
	Hash     imaging.Hash
	Hashed   bool
	// Group is the near-duplicate group id, 0 when the sample is ungrouped.
	Group int
	// SplitRatio is set for combined samples only.
	SplitRatio    float64
	SwapSuggested bool
}

// Report is the outcome of one analysis run.
type Report struct {
	CoinID      int64
	Annotations map[int64]Annotation
	Groups      []dupgroup.Group
}

// Annotation returns the entry for sampleID, zero-valued when absent.
func (r Report) Annotation(sampleID int64) Annotation {
	if a, ok := r.Annotations[sampleID]; ok {
		return a
	}
	return Annotation{SampleID: sampleID}
}

// Options configures a Session.
type Options struct {
	Hasher *imaging.Hasher
	// Swap may be nil, in which case no swap suggestions are made.
	Swap      swapdetect.Checker
	Threshold int
	Workers   int
	Logger    *slog.Logger
}

// Session owns the analysis of the currently selected coin.
type Session struct {
	opts   Options
	logger *slog.Logger

	mu      sync.Mutex
	current *run
}

type run struct {
	coinID int64
	cancel context.CancelFunc
	done   chan struct{}
	report Report
	err    error
}

// NewSession constructs a Session.
func NewSession(opts Options) *Session {
	if opts.Hasher == nil {
		opts.Hasher = imaging.NewHasher(nil, opts.Logger)
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.Threshold < 0 {
		opts.Threshold = dupgroup.DefaultThreshold
	}
	return &Session{opts: opts, logger: logging.NewComponentLogger(opts.Logger, "analysis")}
}

// Select cancels any analysis in flight and starts analysing coin. It
// returns immediately. Sample paths must already be resolved.
func (s *Session) Select(ctx context.Context, coin *catalog.Coin) {
	samples := make([]catalog.Sample, 0, len(coin.Samples))
	for _, sample := range coin.Samples {
		if !sample.Removed && sample.Valid() {
			samples = append(samples, sample)
		}
	}

	runCtx, cancel := context.WithCancel(services.WithCoinID(ctx, coin.ID))
	r := &run{coinID: coin.ID, cancel: cancel, done: make(chan struct{})}

	s.mu.Lock()
	if prev := s.current; prev != nil {
		prev.cancel()
	}
	s.current = r
	s.mu.Unlock()

	go func() {
		defer close(r.done)
		defer cancel()
		r.report, r.err = s.analyse(runCtx, coin.ID, samples)
	}()
}

// Wait blocks until the current analysis finishes and returns its report.
// It returns context.Canceled when the analysis was superseded or stopped.
func (s *Session) Wait(ctx context.Context) (Report, error) {
	s.mu.Lock()
	r := s.current
	s.mu.Unlock()
	if r == nil {
		return Report{}, errors.New("no coin selected")
	}
	select {
	case <-r.done:
		return r.report, r.err
	case <-ctx.Done():
		return Report{}, ctx.Err()
	}
}

// Stop cancels the running analysis, if any.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		s.current.cancel()
	}
}

func (s *Session) analyse(ctx context.Context, coinID int64, samples []catalog.Sample) (Report, error) {
	logger := logging.WithContext(ctx, s.logger)
	report := Report{CoinID: coinID, Annotations: make(map[int64]Annotation, len(samples))}
	for _, sample := range samples {
		report.Annotations[sample.ID] = Annotation{SampleID: sample.ID}
	}

	hashes, ratios, err := s.measure(ctx, samples)
	if err != nil {
		return Report{}, err
	}
	for id, h := range hashes {
		a := report.Annotations[id]
		a.Hash, a.Hashed = h, true
		report.Annotations[id] = a
	}
	for id, ratio := range ratios {
		a := report.Annotations[id]
		a.SplitRatio = ratio
		report.Annotations[id] = a
	}

	items := dupgroup.Candidates(samples, hashes)
	report.Groups = dupgroup.Cluster(items, s.opts.Threshold)
	for _, g := range report.Groups {
		for _, id := range g.Members {
			a := report.Annotations[id]
			a.Group = g.ID
			report.Annotations[id] = a
		}
	}

	if err := s.suggestSwaps(ctx, samples, report.Annotations); err != nil {
		return Report{}, err
	}

	if err := s.opts.Hasher.Cache().Flush(); err != nil {
		logging.WarnWithContext(logger, "hash cache not saved", "hash_cache",
			logging.Error(err),
			logging.String(logging.FieldImpact, "hashes will be recomputed next time"))
	}
	logger.Debug("coin analysed",
		logging.Int("samples", len(samples)),
		logging.Int("hashed", len(hashes)),
		logging.Int("groups", len(report.Groups)))
	return report, nil
}

// measure hashes obverse images and detects split ratios of combined
// samples on a bounded pool.
func (s *Session) measure(ctx context.Context, samples []catalog.Sample) (map[int64]imaging.Hash, map[int64]float64, error) {
	var (
		mu     sync.Mutex
		hashes = make(map[int64]imaging.Hash)
		ratios = make(map[int64]float64)
	)
	logger := logging.WithContext(ctx, s.logger)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for _, sample := range samples {
		if !sample.HasObverse() || sample.ObversePath == "" {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if sample.IsCombined() {
				ratio, err := imaging.DetectSplitRatioFile(sample.ObversePath)
				if err != nil {
					logger.Debug("split ratio unavailable", logging.Int64(logging.FieldSampleID, sample.ID), logging.Error(err))
				}
				mu.Lock()
				ratios[sample.ID] = ratio
				mu.Unlock()
				return nil
			}
			h, err := s.opts.Hasher.HashFile(sample.ObversePath)
			if err != nil {
				logger.Debug("hash unavailable", logging.Int64(logging.FieldSampleID, sample.ID), logging.Error(err))
				return nil
			}
			mu.Lock()
			hashes[sample.ID] = h
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return hashes, ratios, ctx.Err()
}

// suggestSwaps compares every two-faced secondary sample with the reference.
func (s *Session) suggestSwaps(ctx context.Context, samples []catalog.Sample, annotations map[int64]Annotation) error {
	if s.opts.Swap == nil {
		return nil
	}
	var ref *catalog.Sample
	for i := range samples {
		if samples[i].Type == catalog.SampleReference {
			ref = &samples[i]
			break
		}
	}
	if ref == nil || !ref.HasBothFaces() || ref.IsCombined() {
		return nil
	}
	for _, sample := range samples {
		if err := ctx.Err(); err != nil {
			return err
		}
		if sample.ID == ref.ID || !sample.HasBothFaces() || sample.IsCombined() {
			continue
		}
		if s.opts.Swap.CheckFlip(ctx, ref.ObversePath, ref.ReversePath, sample.ObversePath, sample.ReversePath) {
			a := annotations[sample.ID]
			a.SwapSuggested = true
			annotations[sample.ID] = a
		}
	}
	return ctx.Err()
}
