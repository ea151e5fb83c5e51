package pipeline

import (
	"context"
	"testing"
	"time"

	"panelforge/internal/config"
)

func testConfig(t *testing.T, queueSize int) config.Config {
	t.Helper()
	return config.Config{
		WorkerCount:   1,
		MaxQueueSize:  queueSize,
		OutputDir:     t.TempDir(),
		DefaultStorey: "Storey",
		JobTTL:        time.Hour,
	}
}

func TestOrchestrator_ProcessesJob(t *testing.T) {
	o := NewOrchestrator(testConfig(t, 4), discardLogger())
	o.Start(context.Background())
	defer o.Stop()

	job := NewJob([]byte(workerManifest), map[string][]byte{
		"meshes/mull.obj": []byte(workerOBJ),
	})
	if err := o.Submit(job); err != nil {
		t.Fatalf("submit: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		snap := o.GetJob(job.ID).Snapshot()
		if snap.Status == StatusCompleted {
			break
		}
		if snap.Status == StatusFailed {
			t.Fatalf("job failed: %v", snap.Progress.Errors)
		}
		select {
		case <-deadline:
			t.Fatalf("timed out in status %q", snap.Status)
		case <-time.After(10 * time.Millisecond):
		}
	}

	if o.Stats().Snapshot().Count != 1 {
		t.Errorf("expected one recorded export, got %d", o.Stats().Snapshot().Count)
	}
}

func TestOrchestrator_SubmitAfterStop(t *testing.T) {
	o := NewOrchestrator(testConfig(t, 4), discardLogger())
	o.Start(context.Background())
	o.Stop()

	job := NewJob(nil, nil)
	if err := o.Submit(job); err == nil {
		t.Fatal("expected rejection after shutdown")
	}
	if snap := job.Snapshot(); snap.Status != StatusFailed || snap.Phase != "shutting_down" {
		t.Errorf("expected failed/shutting_down, got %q / %q", snap.Status, snap.Phase)
	}
	// Stop twice is safe.
	o.Stop()
}

func TestOrchestrator_QueueFull(t *testing.T) {
	// No workers started, so the queue never drains.
	o := NewOrchestrator(testConfig(t, 1), discardLogger())

	if err := o.Submit(NewJob(nil, nil)); err != nil {
		t.Fatalf("first submit should queue: %v", err)
	}
	overflow := NewJob(nil, nil)
	if err := o.Submit(overflow); err == nil {
		t.Fatal("expected queue-full error")
	}
	if snap := overflow.Snapshot(); snap.Status != StatusFailed || snap.Phase != "queue_full" {
		t.Errorf("expected failed/queue_full, got %q / %q", snap.Status, snap.Phase)
	}
	if o.QueueDepth() != 1 {
		t.Errorf("expected queue depth 1, got %d", o.QueueDepth())
	}
}
