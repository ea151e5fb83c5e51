package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"panelforge/internal/ifc"
	"panelforge/internal/manifest"
)

// Worker processes a single export job: parse manifest, resolve geometry
// into a batch, export. The first failure fails the job; there is no retry
// or partial output.
type Worker struct {
	log       *slog.Logger
	outputDir string

	defaultStorey    string
	defaultElevation float64

	stats *ExportStats
}

func NewWorker(log *slog.Logger, outputDir, defaultStorey string, defaultElevation float64, stats *ExportStats) *Worker {
	return &Worker{
		log:              log,
		outputDir:        outputDir,
		defaultStorey:    defaultStorey,
		defaultElevation: defaultElevation,
		stats:            stats,
	}
}

// Process runs the full export pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID)

	// Phase 1: Parse manifest
	job.SetStatus(StatusParsing, "parsing")
	m, err := manifest.Load(bytes.NewReader(job.manifestData))
	if err != nil {
		log.Error("manifest parse failed", "error", err)
		job.AddError(fmt.Sprintf("manifest: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	if m.Storey == "" {
		m.Storey = w.defaultStorey
	}
	if m.ElevationMM == 0 {
		m.ElevationMM = w.defaultElevation
	}
	job.SetStorey(m.Storey)

	if err := ctx.Err(); err != nil {
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	// Phase 2: Build — read meshes, group into records, annotate.
	job.SetStatus(StatusBuilding, "building")
	batch, err := m.Resolve(meshFS(job.meshFiles))
	if err != nil {
		log.Error("build failed", "error", err)
		job.AddError(fmt.Sprintf("build: %s", err))
		job.SetStatus(StatusFailed, "building")
		return
	}
	job.SetUnits(len(batch))
	log.Info("batch built", "records", len(batch), "storey", m.Storey)

	// Phase 3: Export
	job.SetStatus(StatusExporting, "exporting")
	exporter := &ifc.Exporter{
		Storey:    m.Storey,
		Elevation: m.ElevationMM,
	}
	outPath := filepath.Join(w.outputDir, job.ID+".ifc")

	start := time.Now()
	res, err := exporter.Export(batch, outPath)
	if err != nil {
		var exportErr *ifc.ExportError
		if errors.As(err, &exportErr) && exportErr.UnitID != "" {
			log.Error("export failed", "unit_id", exportErr.UnitID, "error", err)
		} else {
			log.Error("export failed", "error", err)
		}
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "exporting")
		return
	}
	w.stats.Record(time.Since(start).Milliseconds(), res.Elements)

	job.SetResult(res)
	job.SetStatus(StatusCompleted, "done")
	log.Info("export complete",
		"path", res.Path,
		"elements", res.Elements,
		"containers", res.Containers,
		"assembly_nodes", res.AssemblyNodes,
	)
}
