package services

import (
	"context"
	"log"
	"sync"
)

// Job is one conversational request executed by the worker.
type Job func(ctx context.Context)

type Worker interface {
	Start(ctx context.Context)
	Stop()
	Run(ctx context.Context, name string, job Job) error
}

type queuedJob struct {
	name string
	ctx  context.Context
	run  Job
	done chan struct{}
}

type worker struct {
	jobQueue    chan queuedJob
	concurrency int
	wg          sync.WaitGroup
	stopChan    chan struct{}
	stopped     chan struct{}
	stopOnce    sync.Once
}

// NewWorker bounds how many jobs run at once. With concurrency 1 jobs
// run one at a time in submission order.
func NewWorker(concurrency int) Worker {
	if concurrency < 1 {
		concurrency = 1
	}

	return &worker{
		jobQueue:    make(chan queuedJob, 100),
		concurrency: concurrency,
		stopChan:    make(chan struct{}),
		stopped:     make(chan struct{}),
	}
}

// Start implements Worker.
func (w *worker) Start(ctx context.Context) {
	log.Printf("🚀 Starting request worker with %d slot(s)\n", w.concurrency)

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(ctx, i+1)
	}
}

// Stop implements Worker. Jobs still queued are abandoned.
func (w *worker) Stop() {
	w.stopOnce.Do(func() {
		log.Println("🛑 Stopping request worker...")
		close(w.stopChan)
		w.wg.Wait()
		close(w.stopped)
		log.Println("✅ Request worker stopped")
	})
}

// Run implements Worker. It blocks until the job has finished, ctx
// ends, or the worker stops.
func (w *worker) Run(ctx context.Context, name string, job Job) error {
	qj := queuedJob{
		name: name,
		ctx:  ctx,
		run:  job,
		done: make(chan struct{}),
	}

	select {
	case w.jobQueue <- qj:
		log.Printf("📥 Job %s enqueued\n", name)
	case <-w.stopChan:
		log.Printf("⚠️  Worker stopped, cannot enqueue job %s\n", name)
		return ErrWorkerStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-qj.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-w.stopped:
		select {
		case <-qj.done:
			return nil
		default:
			return ErrWorkerStopped
		}
	}
}

func (w *worker) processJobs(ctx context.Context, slot int) {
	defer w.wg.Done()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		case qj := <-w.jobQueue:
			if qj.ctx.Err() != nil {
				log.Printf("⚠️  Slot #%d skipping cancelled job %s\n", slot, qj.name)
				close(qj.done)
				continue
			}
			qj.run(qj.ctx)
			close(qj.done)
		}
	}
}
