package pics

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/acm19/webpics/internal/logger"
)

// BatchDriver runs one batch over a source directory.
type BatchDriver interface {
	// Run processes every source file of dir. It returns an error only when the directory
	// cannot be enumerated; per-file failures are reported in the Report.
	Run(ctx context.Context, dir string) (*Report, error)
}

// batchDriver implements the BatchDriver interface
type batchDriver struct {
	codec    Codec
	registry ProfileRegistry
	planner  Planner
	scanner  Scanner
	opts     BatchOptions
}

// NewBatchDriver creates a BatchDriver.
func NewBatchDriver(codec Codec, registry ProfileRegistry, opts BatchOptions) (BatchDriver, error) {
	if opts.OutputDirName == "" {
		opts.OutputDirName = DefaultBatchOptions().OutputDirName
	}
	if opts.Mode == ModeReplace {
		if opts.ReplaceProfile == "" {
			opts.ReplaceProfile = ProfileOriginal
		}
		if _, err := registry.Get(opts.ReplaceProfile); err != nil {
			return nil, err
		}
	}
	planner := NewPlanner(registry, opts.OutputDirName)
	return &batchDriver{
		codec:    codec,
		registry: registry,
		planner:  planner,
		scanner:  NewScanner(NewExclusion(opts.Exclude, planner)),
		opts:     opts,
	}, nil
}

type fileJob struct {
	index  int
	source SourceAsset
}

// Run processes every source file of dir using a worker pool.
func (d *batchDriver) Run(ctx context.Context, dir string) (*Report, error) {
	if err := d.scanner.ValidateDirectory(dir); err != nil {
		return nil, err
	}
	outDir := filepath.Join(dir, d.opts.OutputDirName)
	d.scanner.SweepTemp(dir)
	if d.opts.Mode == ModeResponsive {
		d.scanner.SweepTemp(outDir)
	}

	sources, err := d.scanner.Scan(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate sources: %w", err)
	}
	logger.Info("Found images to compress", "count", len(sources), "mode", d.opts.Mode.String(), "dir", dir)

	if d.opts.Mode == ModeResponsive && len(sources) > 0 {
		if err := os.MkdirAll(outDir, 0755); err != nil {
			return nil, newCodecError(FilesystemError, outDir, fmt.Errorf("failed to create output directory: %w", err))
		}
	}

	numWorkers := d.opts.MaxConcurrency
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	start := time.Now()
	agg := NewAggregator()
	files := make([]FileReport, len(sources))
	for i, src := range sources {
		files[i] = FileReport{Source: src, State: StatePending}
	}

	jobs := make(chan fileJob, numWorkers)
	var wg sync.WaitGroup
	var processed atomic.Int64
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go d.worker(jobs, files, agg, &processed, len(sources), &wg)
	}

	go func() {
		defer close(jobs)
		for i, src := range sources {
			select {
			case <-ctx.Done():
				logger.Warn("Batch cancelled, not dispatching remaining files", "remaining", len(sources)-i)
				return
			case jobs <- fileJob{index: i, source: src}:
			}
		}
	}()

	wg.Wait()

	report := &Report{Mode: d.opts.Mode, Files: files, Summary: agg.Summary()}
	logger.Info("Image compression completed",
		"files", len(sources),
		"committed", report.Count(StateCommitted),
		"discarded", report.Count(StateDiscarded),
		"failed", report.Count(StateFailed),
		"duration_seconds", time.Since(start).Seconds(),
		"summary", report.Summary.String())
	return report, nil
}

// worker processes files from the jobs channel. Each worker writes only its own slot of files.
func (d *batchDriver) worker(jobs <-chan fileJob, files []FileReport, agg *Aggregator, processed *atomic.Int64, total int, wg *sync.WaitGroup) {
	defer wg.Done()
	for job := range jobs {
		current := processed.Add(1)
		d.emitProgress(int(current), total, job.source.Path)

		files[job.index].State = StateProcessing
		var report FileReport
		if d.opts.Mode == ModeResponsive {
			report = d.processResponsive(job.source, agg)
		} else {
			report = d.processReplace(job.source, agg)
		}
		files[job.index] = report

		if report.State == StateFailed {
			logger.Error(report.Line(), "file", job.source.Name, "error", report.Err)
		} else {
			logger.Info(report.Line(), "file", job.source.Name, "original_bytes", job.source.Size, "kept_bytes", report.KeptSize, "state", report.State.String())
		}
	}
}

// emitProgress sends a progress event without blocking the worker.
func (d *batchDriver) emitProgress(current, total int, file string) {
	if d.opts.ProgressChan == nil {
		return
	}
	stage := "compressing"
	if d.opts.Mode == ModeResponsive {
		stage = "deriving"
	}
	select {
	case d.opts.ProgressChan <- ProgressEvent{
		Stage:   stage,
		Current: current,
		Total:   total,
		Message: fmt.Sprintf("Processing file %d of %d", current, total),
		File:    file,
	}:
	default:
		logger.Debug("Progress event dropped (channel full)", "stage", stage)
	}
}
