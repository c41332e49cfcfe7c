package main

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gitclock/agent/agent/types"
	"github.com/gitclock/agent/shared-lib/git"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const syncSuccessMessage = "Changes logged successfully!"

type ChangeDetector interface {
	DetectChanges(ctx context.Context, dir string) ([]git.ChangeRecord, error)
}

type ChangeSyncerIfc interface {
	Start()
	Stop()
	Trigger()
	RunCycle(ctx context.Context) (bool, error)
}

// ChangeSyncer runs detect-and-publish cycles on a ticker. A firing that
// arrives while a cycle is still running is dropped, never queued.
type ChangeSyncer struct {
	detector  ChangeDetector
	publisher ChangelogPublisherIfc
	notifier  Notifier
	workDir   string
	interval  time.Duration
	log       *zap.SugaredLogger

	inProgress atomic.Bool
	trigger    chan struct{}
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	stopOnce   sync.Once
}

func NewChangeSyncer(
	detector ChangeDetector,
	publisher ChangelogPublisherIfc,
	notifier Notifier,
	workDir string,
	interval time.Duration,
	log *zap.SugaredLogger) *ChangeSyncer {
	if interval <= 0 {
		interval = types.IntervalFromMinutes(types.MinIntervalMinutes)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ChangeSyncer{
		detector:  detector,
		publisher: publisher,
		notifier:  notifier,
		workDir:   workDir,
		interval:  interval,
		log:       log,
		trigger:   make(chan struct{}, 1),
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (cs *ChangeSyncer) Start() {
	cs.wg.Add(1)
	go cs.syncLoop()
}

// Stop cancels the running cycle, if any, and waits for it to return.
func (cs *ChangeSyncer) Stop() {
	cs.stopOnce.Do(func() {
		cs.cancel()
		cs.wg.Wait()
	})
}

// Trigger requests an immediate cycle.
func (cs *ChangeSyncer) Trigger() {
	select {
	case cs.trigger <- struct{}{}:
	default: // Already requested
	}
}

func (cs *ChangeSyncer) syncLoop() {
	defer cs.wg.Done()

	ticker := time.NewTicker(cs.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cs.dispatch("timer")
		case <-cs.trigger:
			cs.dispatch("trigger")
		case <-cs.ctx.Done():
			cs.log.Info("Change sync loop stopped")
			return
		}
	}
}

// dispatch runs the cycle off the loop goroutine so the next firing can
// observe the in-progress flag.
func (cs *ChangeSyncer) dispatch(source string) {
	cs.wg.Add(1)
	go func() {
		defer cs.wg.Done()
		ran, err := cs.RunCycle(cs.ctx)
		if !ran {
			cs.log.Debugw("Skipped sync cycle, previous cycle still running", "source", source)
			return
		}
		if err != nil {
			cs.log.Debugw("Sync cycle ended with error", "source", source, "error", err)
		}
	}()
}

// RunCycle detects changes in the working directory and publishes them.
//
// Returns:
//   - ran: false when another cycle was in progress and this one was skipped
//   - err: the detection or publish failure, if any
//
// Detection failures are only logged; publish failures are also shown to
// the user. Neither is retried before the next cycle.
func (cs *ChangeSyncer) RunCycle(ctx context.Context) (bool, error) {
	if !cs.inProgress.CompareAndSwap(false, true) {
		return false, nil
	}
	defer cs.inProgress.Store(false)

	cycleID := uuid.NewString()
	log := cs.log.With("cycleId", cycleID)
	log.Debugw("Sync cycle started", "workDir", cs.workDir)

	records, err := cs.detector.DetectChanges(ctx, cs.workDir)
	if err != nil {
		detectionErr := types.DetectionError(types.AgentOperationDetectingChanges, err)
		log.Warnw("Failed to detect changes", "error", detectionErr)
		return true, detectionErr
	}
	if len(records) == 0 {
		log.Debug("No changes detected")
		return true, nil
	}
	log.Infow("Detected changes", "count", len(records))

	if err := cs.publisher.MergeAndPublish(ctx, records); err != nil {
		log.Errorw("Failed to publish changelog", "error", err)
		cs.notifier.Error("Error handling repository and CHANGELOG: " + err.Error())
		return true, err
	}

	cs.notifier.Info(syncSuccessMessage)
	log.Infow("Sync cycle completed", "rows", len(records))
	return true, nil
}
