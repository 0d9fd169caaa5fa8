package swapdetect

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"mintada/internal/config"
	"mintada/internal/logging"
	"mintada/internal/services"
)

var commandContext = exec.CommandContext

const (
	readyLine             = "READY"
	defaultStartTimeout   = 30 * time.Second
	defaultRequestTimeout = 15 * time.Second
	eventWorkerDown       = "worker_unavailable"
)

// Checker is the advisory face-swap check used by background analysis.
type Checker interface {
	CheckFlip(ctx context.Context, refObverse, refReverse, candObverse, candReverse string) bool
}

// Options configures a Client.
type Options struct {
	Command        string
	Args           []string
	StartTimeout   time.Duration
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

type cacheKey struct {
	refObverse, refReverse, candObverse, candReverse string
}

type request struct {
	RefObverse  string `json:"ref_obv"`
	RefReverse  string `json:"ref_rev"`
	CandObverse string `json:"cand_obv"`
	CandReverse string `json:"cand_rev"`
}

type response struct {
	IsFlip *bool `json:"is_flip"`
}

// Client supervises the classifier worker.
type Client struct {
	opts   Options
	logger *slog.Logger

	slot      *semaphore.Weighted
	available atomic.Bool

	// worker is only touched while holding slot.
	worker *worker

	cacheMu sync.Mutex
	cache   map[cacheKey]bool
}

// New constructs a Client. The worker is started lazily on first use or by Start.
func New(opts Options) *Client {
	if opts.StartTimeout <= 0 {
		opts.StartTimeout = defaultStartTimeout
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	c := &Client{
		opts:   opts,
		logger: logging.NewComponentLogger(opts.Logger, "swapdetect"),
		slot:   semaphore.NewWeighted(1),
		cache:  make(map[cacheKey]bool),
	}
	c.available.Store(true)
	return c
}

// NewFromConfig returns a Client for the configured worker, or nil when the
// detector is disabled. A nil *Client answers false to every check.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) *Client {
	if cfg == nil || !cfg.SwapDetector.Enabled {
		return nil
	}
	return New(Options{
		Command:        cfg.SwapDetector.Command,
		Args:           cfg.SwapArgs(),
		StartTimeout:   cfg.SwapStartTimeout(),
		RequestTimeout: cfg.SwapRequestTimeout(),
		Logger:         logger,
	})
}

// Available reports whether the last start or request succeeded.
func (c *Client) Available() bool {
	return c != nil && c.available.Load()
}

// Start launches the worker ahead of the first request.
func (c *Client) Start(ctx context.Context) error {
	if c == nil {
		return services.Wrap(services.ErrConfiguration, "swapdetect", "start", "swap detector disabled", nil)
	}
	if err := c.slot.Acquire(ctx, 1); err != nil {
		return err
	}
	defer c.slot.Release(1)
	_, err := c.ensureWorker()
	return err
}

// Stop terminates the worker after any in-flight request finishes.
func (c *Client) Stop() {
	if c == nil {
		return
	}
	if err := c.slot.Acquire(context.Background(), 1); err != nil {
		return
	}
	defer c.slot.Release(1)
	c.discardWorker()
}

// ResetCache drops cached answers.
func (c *Client) ResetCache() {
	if c == nil {
		return
	}
	c.cacheMu.Lock()
	c.cache = make(map[cacheKey]bool)
	c.cacheMu.Unlock()
}

// CheckFlip asks whether the candidate's faces look exchanged relative to the
// reference sample. Any failure yields false.
func (c *Client) CheckFlip(ctx context.Context, refObverse, refReverse, candObverse, candReverse string) bool {
	if c == nil {
		return false
	}
	key := cacheKey{refObverse, refReverse, candObverse, candReverse}
	if key.refObverse == "" || key.refReverse == "" || key.candObverse == "" || key.candReverse == "" {
		return false
	}
	if flip, ok := c.cached(key); ok {
		return flip
	}

	if err := c.slot.Acquire(ctx, 1); err != nil {
		return false
	}
	defer c.slot.Release(1)

	// A queued caller may find the answer already computed.
	if flip, ok := c.cached(key); ok {
		return flip
	}

	flip, err := c.ask(ctx, key)
	if err != nil {
		c.available.Store(false)
		if !errors.Is(err, context.Canceled) {
			logging.WarnWithContext(c.logger, "swap check skipped", eventWorkerDown,
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "verify swap_detector.command and script"),
				logging.String(logging.FieldImpact, "no swap suggestion for this sample"))
		}
		return false
	}
	c.available.Store(true)

	c.cacheMu.Lock()
	c.cache[key] = flip
	c.cacheMu.Unlock()
	return flip
}

func (c *Client) cached(key cacheKey) (bool, bool) {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()
	flip, ok := c.cache[key]
	return flip, ok
}

func (c *Client) ask(ctx context.Context, key cacheKey) (bool, error) {
	w, err := c.ensureWorker()
	if err != nil {
		return false, err
	}

	payload, err := json.Marshal(request{
		RefObverse:  key.refObverse,
		RefReverse:  key.refReverse,
		CandObverse: key.candObverse,
		CandReverse: key.candReverse,
	})
	if err != nil {
		return false, fmt.Errorf("encode swap request: %w", err)
	}
	if _, err := w.stdin.Write(append(payload, '\n')); err != nil {
		c.discardWorker()
		return false, services.Wrap(services.ErrExternalTool, "swapdetect", "request", "write to worker", err)
	}

	line, err := w.readLine(ctx, c.opts.RequestTimeout)
	if err != nil {
		c.discardWorker()
		return false, err
	}
	var resp response
	if err := json.Unmarshal([]byte(line), &resp); err != nil || resp.IsFlip == nil {
		c.discardWorker()
		return false, services.Wrap(services.ErrExternalTool, "swapdetect", "request",
			fmt.Sprintf("unexpected worker output %q", truncate(line, 80)), err)
	}
	return *resp.IsFlip, nil
}

// ensureWorker returns a live worker, starting one when needed. Callers hold slot.
func (c *Client) ensureWorker() (*worker, error) {
	if c.worker != nil && !c.worker.dead() {
		return c.worker, nil
	}
	c.discardWorker()

	w, err := startWorker(c.opts)
	if err != nil {
		c.available.Store(false)
		return nil, err
	}
	c.worker = w
	c.available.Store(true)
	c.logger.Info("swap worker started", logging.String("command", c.opts.Command))
	return w, nil
}

func (c *Client) discardWorker() {
	if c.worker == nil {
		return
	}
	c.worker.kill()
	c.worker = nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

type worker struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	lines  chan string
	exited chan struct{}
}

func startWorker(opts Options) (*worker, error) {
	command := strings.TrimSpace(opts.Command)
	if command == "" {
		return nil, services.Wrap(services.ErrConfiguration, "swapdetect", "start", "worker command not configured", nil)
	}
	cmd := commandContext(context.Background(), command, opts.Args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("swap worker stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("swap worker stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "swapdetect", "start", "launch worker", err)
	}

	w := &worker{
		cmd:    cmd,
		stdin:  stdin,
		lines:  make(chan string, 16),
		exited: make(chan struct{}),
	}
	go w.pump(stdout)

	deadline := time.Now().Add(opts.StartTimeout)
	for {
		line, err := w.readLine(context.Background(), time.Until(deadline))
		if err != nil {
			w.kill()
			return nil, services.Wrap(services.ErrExternalTool, "swapdetect", "start", "worker never became ready", err)
		}
		if strings.TrimSpace(line) == readyLine {
			return w, nil
		}
	}
}

// pump forwards stdout lines until EOF and then reaps the process.
func (w *worker) pump(stdout io.Reader) {
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		w.lines <- scanner.Text()
	}
	close(w.lines)
	_ = w.cmd.Wait()
	close(w.exited)
}

func (w *worker) readLine(ctx context.Context, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		return "", services.Wrap(services.ErrTimeout, "swapdetect", "read", "deadline exceeded", nil)
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case line, ok := <-w.lines:
		if !ok {
			return "", services.Wrap(services.ErrExternalTool, "swapdetect", "read", "worker exited", nil)
		}
		return line, nil
	case <-timer.C:
		return "", services.Wrap(services.ErrTimeout, "swapdetect", "read", fmt.Sprintf("no answer within %s", timeout), nil)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (w *worker) dead() bool {
	select {
	case <-w.exited:
		return true
	default:
		return false
	}
}

func (w *worker) kill() {
	_ = w.stdin.Close()
	if w.cmd.Process != nil {
		_ = w.cmd.Process.Kill()
	}
	// Drain so pump can reach Wait.
	go func() {
		for range w.lines {
		}
	}()
}
