// Package pool runs the scalar or unrolled search driver across N worker
// goroutines, aggregating a shared attempt counter and hit list, and
// periodically snapshotting progress to a JSON log file — the Go
// generalization of the teacher's worker/matchWriter/statsReporter trio,
// reshaped from "generate forever" to "generate until every shard's
// enumerator is exhausted" (spec §4.6, §5, §6).
package pool

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Asylian21/zipcrack/internal/enumerator"
	"github.com/Asylian21/zipcrack/internal/search"
	"github.com/Asylian21/zipcrack/internal/zipcipher"
)

// SharedProgress is the state every worker and the progress goroutine
// touch: an atomic attempt counter, a mutex-guarded hit list, and a
// mutex-guarded "most recently tried" candidate (spec §3 SharedProgress).
type SharedProgress struct {
	counter atomic.Uint64

	mu             sync.Mutex
	foundPasswords []string
	recentPassword string
}

// NewSharedProgress returns a SharedProgress ready for a fresh run: zero
// attempts, no hits, and "-" as the recent candidate.
func NewSharedProgress() *SharedProgress {
	return &SharedProgress{recentPassword: "-"}
}

// Counter returns the current attempt count.
func (p *SharedProgress) Counter() uint64 { return p.counter.Load() }

// AddAttempts advances the shared counter by n and returns the value it
// held immediately before the add, so callers can trigger the 100,000-
// attempt sampling rule on the pre-increment value exactly as
// original_source/src/password_iter.rs does with fetch_add.
func (p *SharedProgress) AddAttempts(n uint64) (old uint64) {
	return p.counter.Add(n) - n
}

// RecordMatch appends a confirmed password to the hit list.
func (p *SharedProgress) RecordMatch(password string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.foundPasswords = append(p.foundPasswords, password)
}

// SetRecent publishes the most recently attempted candidate.
func (p *SharedProgress) SetRecent(candidate string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.recentPassword = candidate
}

// Snapshot returns a consistent view of (counter, found passwords, recent
// candidate) for logging or display.
func (p *SharedProgress) Snapshot() (counter uint64, found []string, recent string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.foundPasswords))
	copy(out, p.foundPasswords)
	return p.counter.Load(), out, p.recentPassword
}

const sampleInterval = 100_000

// Config describes one search run: the search space, the fingerprints
// every candidate must satisfy, which driver to use, and where to write
// the periodic log snapshot.
type Config struct {
	Enum         enumerator.Config
	Fingerprints []zipcipher.EntryFingerprint
	Unroll       bool
	LogPath      string
	LogInterval  time.Duration // default 60s
	PollInterval time.Duration // default 100ms

	// Progress, when non-nil, is updated in place instead of a private
	// SharedProgress, so a caller (e.g. the terminal display) can observe
	// the run's counter and hit list as it happens.
	Progress *SharedProgress
}

// Result is what Run reports once every worker's shard is exhausted.
type Result struct {
	FoundPasswords []string
	TotalAttempts  uint64
}

// Run spawns Config.Enum.NumThreads workers (one driver each, shard index
// = goroutine index) plus one progress goroutine, and blocks until every
// worker's shard is exhausted and the progress goroutine has noticed
// (spec §4.6, §5 "Termination").
func Run(cfg Config) (Result, error) {
	if cfg.LogInterval <= 0 {
		cfg.LogInterval = 60 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 100 * time.Millisecond
	}
	if cfg.LogPath == "" {
		cfg.LogPath = "zipcrack_log.json"
	}

	progress := cfg.Progress
	if progress == nil {
		progress = NewSharedProgress()
	}

	var (
		wg       sync.WaitGroup
		errMu    sync.Mutex
		firstErr error
	)
	recordErr := func(err error) {
		errMu.Lock()
		defer errMu.Unlock()
		if firstErr == nil {
			firstErr = err
		}
	}

	for shard := 0; shard < cfg.Enum.NumThreads; shard++ {
		wg.Add(1)
		go func(shard int) {
			defer wg.Done()
			if err := runWorker(shard, cfg, progress); err != nil {
				recordErr(err)
			}
		}(shard)
	}

	progressDone := make(chan struct{})
	go runProgressLoop(cfg, progress, progressDone)

	wg.Wait()
	<-progressDone

	if firstErr != nil {
		return Result{}, firstErr
	}
	counter, found, _ := progress.Snapshot()
	return Result{FoundPasswords: found, TotalAttempts: counter}, nil
}

func runWorker(shard int, cfg Config, progress *SharedProgress) error {
	if cfg.Unroll {
		return runUnrolledWorker(shard, cfg, progress)
	}
	return runScalarWorker(shard, cfg, progress)
}

func runScalarWorker(shard int, cfg Config, progress *SharedProgress) error {
	d, err := search.NewScalarDriver(cfg.Enum, shard, cfg.Fingerprints)
	if err != nil {
		return fmt.Errorf("pool: worker %d: %w", shard, err)
	}
	for {
		pw, matched, ok := d.Next()
		if !ok {
			return nil
		}
		old := progress.AddAttempts(d.CounterIncrement())
		if old%sampleInterval == 0 {
			progress.SetRecent(string(pw))
		}
		if matched {
			progress.RecordMatch(string(pw))
		}
	}
}

func runUnrolledWorker(shard int, cfg Config, progress *SharedProgress) error {
	d, err := search.NewUnrolledDriver(cfg.Enum, shard, cfg.Fingerprints)
	if err != nil {
		return fmt.Errorf("pool: worker %d: %w", shard, err)
	}
	// blockCounter is local to this worker, not shared: the sampling
	// decision is independent per worker (original_source/src/password_iter.rs
	// captures a fresh block_counter per call to test_each_password_unrolled).
	var blockCounter uint64
	for {
		prefix, matches, ok := d.NextBlock()
		if !ok {
			return nil
		}
		progress.AddAttempts(d.CounterIncrement())
		blockCounter++
		if blockCounter == sampleInterval {
			progress.SetRecent(string(prefix) + "-")
			blockCounter = 0
		}
		for _, m := range matches {
			progress.RecordMatch(string(m))
		}
	}
}

// logSnapshot is the JSON document written to the log file every
// LogInterval (spec §6 "Log-file format").
type logSnapshot struct {
	Counter        uint64   `json:"counter"`
	FoundPasswords []string `json:"found_passwords"`
	RecentPassword string   `json:"recent_password"`
}

func writeLogSnapshot(path string, progress *SharedProgress) error {
	counter, found, recent := progress.Snapshot()
	if found == nil {
		found = []string{}
	}
	data, err := json.MarshalIndent(logSnapshot{
		Counter:        counter,
		FoundPasswords: found,
		RecentPassword: recent,
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// runProgressLoop polls the shared counter every PollInterval and
// concludes all workers are done on two consecutive equal readings,
// mirroring original_source/src/info.rs::spawn_info_thread. It writes a
// log snapshot every LogInterval; a write failure disables further
// logging for the run (spec §7 "Log write error") without affecting
// workers or terminating the process.
func runProgressLoop(cfg Config, progress *SharedProgress, done chan<- struct{}) {
	defer close(done)

	loggingEnabled := true
	lastLog := time.Now()
	lastCounter := progress.Counter()

	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	for range ticker.C {
		cur := progress.Counter()
		if cur == lastCounter {
			break
		}
		lastCounter = cur

		if loggingEnabled && time.Since(lastLog) > cfg.LogInterval {
			lastLog = time.Now()
			if err := writeLogSnapshot(cfg.LogPath, progress); err != nil {
				log.Printf("pool: writing progress log: %v (logging disabled for this run)", err)
				loggingEnabled = false
			}
		}
	}
}
