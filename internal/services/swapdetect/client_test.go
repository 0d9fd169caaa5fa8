package swapdetect

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func setHelperCommand(t *testing.T, mode string) *atomic.Int32 {
	t.Helper()
	var launches atomic.Int32
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		launches.Add(1)
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", fmt.Sprintf("SWAP_HELPER_MODE=%s", mode))
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})
	return &launches
}

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c := New(Options{
		Command:        "classifier",
		Args:           []string{"detect.py", "--interactive"},
		StartTimeout:   5 * time.Second,
		RequestTimeout: 2 * time.Second,
	})
	t.Cleanup(c.Stop)
	return c
}

func TestCheckFlipReturnsWorkerAnswer(t *testing.T) {
	launches := setHelperCommand(t, "classify")
	c := newTestClient(t)
	ctx := context.Background()

	if !c.CheckFlip(ctx, "ref_a.jpg", "ref_b.jpg", "flip_a.jpg", "cand_b.jpg") {
		t.Fatal("expected flip for candidate marked flipped")
	}
	if c.CheckFlip(ctx, "ref_a.jpg", "ref_b.jpg", "cand_a.jpg", "cand_b.jpg") {
		t.Fatal("expected no flip for plain candidate")
	}
	if !c.Available() {
		t.Fatal("expected worker available")
	}
	if got := launches.Load(); got != 1 {
		t.Fatalf("expected one worker launch, got %d", got)
	}
}

func TestCheckFlipCachesByPathTuple(t *testing.T) {
	setHelperCommand(t, "classify")
	c := newTestClient(t)
	ctx := context.Background()

	if !c.CheckFlip(ctx, "r1", "r2", "flip1", "c2") {
		t.Fatal("expected flip")
	}
	c.Stop()
	setHelperCommand(t, "silent")
	c.opts.StartTimeout = 100 * time.Millisecond

	if !c.CheckFlip(ctx, "r1", "r2", "flip1", "c2") {
		t.Fatal("expected cached answer without a worker")
	}
	if c.CheckFlip(ctx, "r1", "r2", "flip9", "c2") {
		t.Fatal("uncached request should fall back to false")
	}
	c.ResetCache()
	if c.CheckFlip(ctx, "r1", "r2", "flip1", "c2") {
		t.Fatal("expected cache reset to force a worker round trip")
	}
}

func TestStartTimeoutMarksUnavailable(t *testing.T) {
	setHelperCommand(t, "silent")
	c := New(Options{Command: "classifier", StartTimeout: 150 * time.Millisecond})
	t.Cleanup(c.Stop)

	start := time.Now()
	if c.CheckFlip(context.Background(), "a", "b", "flip", "d") {
		t.Fatal("expected false when worker never becomes ready")
	}
	if c.Available() {
		t.Fatal("expected worker marked unavailable")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("start timeout not honoured, took %s", elapsed)
	}
	if err := c.Start(context.Background()); err == nil {
		t.Fatal("expected Start to report the readiness failure")
	}
}

func TestRequestTimeoutKillsAndRestarts(t *testing.T) {
	launches := setHelperCommand(t, "hang")
	c := New(Options{Command: "classifier", StartTimeout: 5 * time.Second, RequestTimeout: 150 * time.Millisecond})
	t.Cleanup(c.Stop)

	if c.CheckFlip(context.Background(), "a", "b", "flip", "d") {
		t.Fatal("expected false on request timeout")
	}
	if c.CheckFlip(context.Background(), "a", "b", "flip", "e") {
		t.Fatal("expected false on second timeout")
	}
	if got := launches.Load(); got != 2 {
		t.Fatalf("expected the worker restarted after timeout, launches=%d", got)
	}
}

func TestGarbageAndCrashTriggerRestart(t *testing.T) {
	for _, mode := range []string{"garbage", "crash"} {
		t.Run(mode, func(t *testing.T) {
			launches := setHelperCommand(t, mode)
			c := newTestClient(t)
			ctx := context.Background()

			if c.CheckFlip(ctx, "a", "b", "flip1", "d") {
				t.Fatal("expected false for a broken worker")
			}
			if c.Available() {
				t.Fatal("expected worker marked unavailable")
			}
			setHelperCommand(t, "classify")
			if !c.CheckFlip(ctx, "a", "b", "flip2", "d") {
				t.Fatal("expected the restarted worker to answer")
			}
			if got := launches.Load(); got != 1 {
				t.Fatalf("expected one launch in %s mode, got %d", mode, got)
			}
		})
	}
}

func TestConcurrentCallersAreSerialized(t *testing.T) {
	launches := setHelperCommand(t, "classify")
	c := newTestClient(t)

	var wg sync.WaitGroup
	results := make([]bool, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cand := fmt.Sprintf("cand_%d", i)
			if i%2 == 0 {
				cand = fmt.Sprintf("flip_%d", i)
			}
			results[i] = c.CheckFlip(context.Background(), "ref_o", "ref_r", cand, "rev")
		}()
	}
	wg.Wait()
	for i, got := range results {
		if got != (i%2 == 0) {
			t.Fatalf("caller %d got %v", i, got)
		}
	}
	if got := launches.Load(); got != 1 {
		t.Fatalf("expected a single shared worker, launches=%d", got)
	}
}

func TestNilClientIsDisabled(t *testing.T) {
	var c *Client
	if c.CheckFlip(context.Background(), "a", "b", "c", "d") || c.Available() {
		t.Fatal("nil client must report no swap")
	}
	if err := c.Start(context.Background()); err == nil {
		t.Fatal("expected Start on disabled detector to fail")
	}
	c.Stop()
}

func TestMissingPathsSkipWorker(t *testing.T) {
	launches := setHelperCommand(t, "classify")
	c := newTestClient(t)
	if c.CheckFlip(context.Background(), "a", "", "flip", "d") {
		t.Fatal("expected false for missing reference reverse")
	}
	if launches.Load() != 0 {
		t.Fatal("worker should not start for incomplete requests")
	}
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	mode := os.Getenv("SWAP_HELPER_MODE")
	if mode == "silent" {
		time.Sleep(time.Minute)
		os.Exit(0)
	}
	fmt.Println("loading model weights")
	fmt.Println(readyLine)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		var req request
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			os.Exit(2)
		}
		switch mode {
		case "classify":
			fmt.Printf("{\"is_flip\": %v}\n", strings.HasPrefix(req.CandObverse, "flip"))
		case "garbage":
			fmt.Println("Traceback (most recent call last):")
		case "crash":
			os.Exit(3)
		case "hang":
			time.Sleep(time.Minute)
		}
	}
	os.Exit(0)
}
