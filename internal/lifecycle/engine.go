package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"mintada/internal/catalog"
	"mintada/internal/document"
	"mintada/internal/logging"
	"mintada/internal/services"
)

// Store is the persistence the engine needs. *store.Store implements it.
type Store interface {
	Coin(ctx context.Context, id int64) (*catalog.Coin, error)
	UpdateSampleImages(ctx context.Context, sampleID int64, obverse, reverse string) error
	PromoteSample(ctx context.Context, coinID, sampleID int64) (int64, error)
	SwapSampleFaces(ctx context.Context, sampleIDs []int64) error
	TransferSample(ctx context.Context, sampleID, targetCoinID int64) error
	SoftDeleteSamples(ctx context.Context, sampleIDs []int64) error
	ResolveDuplicates(ctx context.Context, survivorID int64, losers []int64, promote bool) error
	SetSampleTags(ctx context.Context, sampleIDs []int64, tags catalog.Tags) error
}

// Options configures an Engine.
type Options struct {
	Store  Store
	Layout catalog.Layout
	// LockDir holds per-coin lock files. Empty disables cross-process locking.
	LockDir string
	Logger  *slog.Logger
	// Now stamps document backups. Defaults to time.Now.
	Now func() time.Time
}

// Engine executes lifecycle commands.
type Engine struct {
	store  Store
	layout catalog.Layout
	locks  *coinLocks
	logger *slog.Logger
	now    func() time.Time
}

// Result is the outcome of a command: the coin as reloaded from the store and
// any follow-up steps that failed after the store was updated.
type Result struct {
	Coin     *catalog.Coin
	Warnings []string
}

// New constructs an Engine.
func New(opts Options) *Engine {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		store:  opts.Store,
		layout: opts.Layout,
		locks:  newCoinLocks(opts.LockDir),
		logger: logging.NewComponentLogger(opts.Logger, "lifecycle"),
		now:    now,
	}
}

// run holds the coin lock for the duration of fn and reloads the coin
// afterwards. fn receives the coin as currently stored.
func (e *Engine) run(ctx context.Context, op string, coinID int64, fn func(ctx context.Context, c *command) error) (*Result, error) {
	ctx = services.WithCoinID(ctx, coinID)
	ctx = services.WithOperation(ctx, op)
	ctx = services.WithRequestID(ctx, uuid.NewString())
	logger := logging.WithContext(ctx, e.logger)

	release, err := e.locks.acquire(ctx, coinID)
	if err != nil {
		return nil, services.Wrap(services.ErrTimeout, "lifecycle", op, "acquire coin lock", err)
	}
	defer release()

	coin, err := e.load(ctx, coinID)
	if err != nil {
		return nil, err
	}

	cmd := &command{engine: e, op: op, coin: coin, logger: logger}
	if err := fn(ctx, cmd); err != nil {
		return nil, err
	}

	reloaded, err := e.load(ctx, coinID)
	if err != nil {
		return nil, err
	}
	logger.Info("lifecycle command applied",
		logging.Int("sample_count", len(reloaded.Samples)),
		logging.Int("warning_count", len(cmd.warnings)))
	return &Result{Coin: reloaded, Warnings: cmd.warnings}, nil
}

func (e *Engine) load(ctx context.Context, coinID int64) (*catalog.Coin, error) {
	coin, err := e.store.Coin(ctx, coinID)
	if err != nil {
		return nil, fmt.Errorf("load coin %d: %w", coinID, err)
	}
	if coin == nil {
		return nil, services.Wrap(services.ErrNotFound, "lifecycle", "load", fmt.Sprintf("coin %d", coinID), nil)
	}
	e.layout.Resolve(coin)
	return coin, nil
}

// command carries the state of one lifecycle invocation.
type command struct {
	engine   *Engine
	op       string
	coin     *catalog.Coin
	logger   *slog.Logger
	warnings []string
}

func (c *command) reject(format string, args ...any) error {
	return services.Precondition(c.op, fmt.Sprintf(format, args...))
}

func (c *command) storeFailed(err error) error {
	return services.Wrap(services.ErrTransient, "lifecycle", c.op, "store update failed", err)
}

// samples resolves ids against the coin's live samples, rejecting unknown,
// repeated and imageless ids.
func (c *command) samples(ids []int64) ([]catalog.Sample, error) {
	seen := make(map[int64]bool, len(ids))
	out := make([]catalog.Sample, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			return nil, c.reject("sample %d selected twice", id)
		}
		seen[id] = true
		s, ok := c.coin.Sample(id)
		if !ok {
			return nil, services.Wrap(services.ErrNotFound, "lifecycle", c.op,
				fmt.Sprintf("sample %d is not a live sample of coin %d", id, c.coin.ID), nil)
		}
		if !s.Valid() {
			return nil, c.reject("sample %d has no images", id)
		}
		out = append(out, s)
	}
	return out, nil
}

// editDocument applies edits to the coin's page. Failures become warnings.
func (c *command) editDocument(coin *catalog.Coin, edits ...document.Edit) {
	path := c.engine.layout.DocumentPath(coin)
	changed, err := document.ApplyFile(path, edits...)
	if err != nil {
		hint := "the page will be corrected by the next command touching these images"
		if errors.Is(err, fs.ErrNotExist) {
			hint = "coin page is missing; re-scrape the coin"
		}
		c.warn("document not updated", "document_drift", err,
			logging.String("path", path),
			logging.String(logging.FieldErrorHint, hint))
		return
	}
	if changed {
		c.logger.Debug("document updated", logging.String("path", path))
	}
}

func (c *command) warn(msg, eventType string, err error, attrs ...logging.Attr) {
	attrs = append(attrs, logging.Error(err),
		logging.String(logging.FieldImpact, "store is authoritative; on-disk state may lag"))
	logging.WarnWithContext(c.logger, msg, eventType, attrs...)
	c.warnings = append(c.warnings, fmt.Sprintf("%s: %v", msg, err))
}

func (c *command) fileDrift(msg, path string, err error) {
	c.warn(msg, "file_drift", err, logging.String("path", path),
		logging.String(logging.FieldErrorHint, "move the file by hand or repeat the command"))
}
