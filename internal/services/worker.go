package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"cvtailor/internal/repositories"
)

type Worker interface {
	Start(ctx context.Context)
	Stop()
	EnqueueRun(runID uuid.UUID)
}

type worker struct {
	runRepo     repositories.PipelineRunRepository
	coordinator PipelineCoordinator
	jobQueue    chan uuid.UUID
	concurrency int
	wg          sync.WaitGroup
	stopChan    chan struct{}
}

func NewWorker(
	runRepo repositories.PipelineRunRepository,
	coordinator PipelineCoordinator,
	concurrency int,
) Worker {
	return &worker{
		runRepo:     runRepo,
		coordinator: coordinator,
		jobQueue:    make(chan uuid.UUID, 100),
		concurrency: concurrency,
		stopChan:    make(chan struct{}),
	}
}

// Start implements Worker.
func (w *worker) Start(ctx context.Context) {
	log.Printf("🚀 Starting worker with %d concurrent workers\n", w.concurrency)

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.processRuns(ctx, i+1)
	}

	w.wg.Add(1)
	go w.pollOrphanedRuns()

	log.Println("✅ Worker started successfully")
}

// Stop implements Worker.
func (w *worker) Stop() {
	log.Println("🛑 Stopping worker...")
	close(w.stopChan)
	w.wg.Wait()
	log.Println("✅ Worker stopped")
}

// EnqueueRun implements Worker.
func (w *worker) EnqueueRun(runID uuid.UUID) {
	select {
	case w.jobQueue <- runID:
		log.Printf("📥 Run %s enqueued\n", runID)
	case <-w.stopChan:
		log.Printf("⚠️ Worker stopped, cannot enqueue run %s\n", runID)
	}
}

func (w *worker) processRuns(ctx context.Context, workerID int) {
	defer w.wg.Done()
	log.Printf("👷 Worker #%d started processing runs\n", workerID)

	for {
		select {
		case <-w.stopChan:
			log.Printf("👷 Worker #%d stopped\n", workerID)
			return
		case runID := <-w.jobQueue:
			log.Printf("👷 Worker #%d processing run %s\n", workerID, runID)
			if err := w.coordinator.Execute(ctx, runID); err != nil {
				log.Printf("❌ Worker #%d: run %s failed: %v\n", workerID, runID, err)
			} else {
				log.Printf("✅ Worker #%d completed run %s\n", workerID, runID)
			}
		}
	}
}

// pollOrphanedRuns periodically looks for runs stuck in the running state
// that the coordinator no longer tracks (typically after a restart) and
// marks them failed. They are never silently resumed because their in-memory
// inputs are gone.
func (w *worker) pollOrphanedRuns() {
	defer w.wg.Done()
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	log.Println("🔄 Starting orphaned runs poller")

	for {
		select {
		case <-w.stopChan:
			log.Println("🔄 Orphaned runs poller stopped")
			return
		case <-ticker.C:
			runs, err := w.runRepo.FindRunning(50)
			if err != nil {
				log.Printf("⚠️ Failed to fetch running jobs: %v\n", err)
				continue
			}

			for _, run := range runs {
				if w.coordinator.Tracks(run.ID) {
					continue
				}
				// Give freshly-admitted runs a grace period before declaring
				// them orphaned.
				if time.Since(run.StartedAt) < time.Minute {
					continue
				}
				log.Printf("⚠️ Marking orphaned run %s as failed\n", run.ID)
				if err := w.runRepo.MarkFailed(run.ID, "coordinator", "run interrupted before completion"); err != nil {
					log.Printf("⚠️ Failed to mark orphaned run %s: %v\n", run.ID, err)
				}
			}
		}
	}
}
