// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package progress tracks multi-step research jobs in a keyed state
// machine that polling clients read while the orchestrator works.
package progress

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/topicsmith/pkg/types"
)

const (
	defaultTTL     = time.Hour
	defaultLockTTL = 30 * time.Second

	// mainWeight and subtopicWeight blend overall progress.
	mainWeight     = 0.7
	subtopicWeight = 0.3
)

// record pairs a job's progress data with its advisory lock.
type record struct {
	data          types.ResearchProgressData
	lockedAt      time.Time
	locked        bool
	lastRefreshed time.Time
}

// Tracker is the shared progress store. Mutations take a short-lived
// advisory lock per topic; a failed acquisition skips the update and
// logs it rather than retrying.
type Tracker struct {
	mu      sync.Mutex
	records map[string]*record
	cfg     types.ProgressConfig
	logger  *zap.Logger

	// now is the clock, injected for TTL tests.
	now func() time.Time
}

// New creates a Tracker. A nil logger uses a nop logger.
func New(cfg types.ProgressConfig, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = defaultLockTTL
	}
	return &Tracker{
		records: make(map[string]*record),
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// Init registers a new idle job for topicID, replacing any prior
// record.
func (t *Tracker) Init(topicID string) {
	now := t.now()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.purgeLocked(now)
	t.records[topicID] = &record{
		data: types.ResearchProgressData{
			Status:    types.StatusIdle,
			UpdatedAt: now,
		},
		lastRefreshed: now,
	}
}

// UpdatePhase moves the job to a new phase, recording the previous one
// as completed.
func (t *Tracker) UpdatePhase(topicID string, phase types.ResearchStatus, message string) {
	t.mutate(topicID, "update_phase", func(d *types.ResearchProgressData, now time.Time) {
		if d.Status != types.StatusIdle && d.Status != phase {
			d.CompletedSteps = append(d.CompletedSteps, types.CompletedStep{
				Phase:      d.Status,
				Message:    d.StepDetails,
				FinishedAt: now,
			})
			d.CurrentStepIndex++
		}
		d.Status = phase
		d.StepDetails = message
		if phase == types.StatusMainCompleted || phase == types.StatusProcessingSubtopics {
			d.MainTopicCompleted = true
		}
		recomputeOverall(d)
	})
}

// UpdateSubtopic updates one subtopic's status and progress, creating
// its slot on first sight.
func (t *Tracker) UpdateSubtopic(topicID, subtopicID, title string, status types.SubtopicStatus, progress int) {
	t.mutate(topicID, "update_subtopic", func(d *types.ResearchProgressData, _ time.Time) {
		if progress < 0 {
			progress = 0
		}
		if progress > 100 {
			progress = 100
		}
		for i := range d.SubtopicsProgress {
			if d.SubtopicsProgress[i].SubtopicID == subtopicID {
				d.SubtopicsProgress[i].Status = status
				d.SubtopicsProgress[i].Progress = progress
				recomputeOverall(d)
				return
			}
		}
		d.SubtopicsProgress = append(d.SubtopicsProgress, types.SubtopicProgress{
			SubtopicID: subtopicID,
			Title:      title,
			Status:     status,
			Progress:   progress,
		})
		recomputeOverall(d)
	})
}

// Complete marks the job finished.
func (t *Tracker) Complete(topicID string) {
	t.mutate(topicID, "complete", func(d *types.ResearchProgressData, now time.Time) {
		if d.Status != types.StatusCompleted {
			d.CompletedSteps = append(d.CompletedSteps, types.CompletedStep{
				Phase:      d.Status,
				Message:    d.StepDetails,
				FinishedAt: now,
			})
		}
		d.Status = types.StatusCompleted
		d.MainTopicCompleted = true
		for i := range d.SubtopicsProgress {
			if d.SubtopicsProgress[i].Status != types.SubtopicFailed {
				d.SubtopicsProgress[i].Status = types.SubtopicCompleted
				d.SubtopicsProgress[i].Progress = 100
			}
		}
		d.OverallProgress = 100
	})
}

// SetError marks the job failed with a message.
func (t *Tracker) SetError(topicID, message string) {
	t.mutate(topicID, "set_error", func(d *types.ResearchProgressData, _ time.Time) {
		d.Status = types.StatusError
		d.Error = message
	})
}

// Get returns the job's progress. The second return is false for
// unknown or expired jobs.
func (t *Tracker) Get(topicID string) (types.ResearchProgressData, bool) {
	now := t.now()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.purgeLocked(now)

	rec, ok := t.records[topicID]
	if !ok {
		return types.ResearchProgressData{}, false
	}
	return rec.data, true
}

// PurgeExpired removes records past the TTL and returns how many were
// removed.
func (t *Tracker) PurgeExpired() int {
	now := t.now()
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.purgeLocked(now)
}

// mutate applies fn to the record under the topic's advisory lock. A
// held, unexpired lock means the update is dropped with a warning.
func (t *Tracker) mutate(topicID, op string, fn func(*types.ResearchProgressData, time.Time)) {
	now := t.now()
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[topicID]
	if !ok {
		t.logger.Warn("progress update for unknown topic",
			zap.String("topic_id", topicID), zap.String("op", op))
		return
	}

	if rec.locked && now.Sub(rec.lockedAt) < t.cfg.LockTTL {
		t.logger.Warn("progress lock held, update skipped",
			zap.String("topic_id", topicID), zap.String("op", op))
		return
	}
	rec.locked = true
	rec.lockedAt = now

	fn(&rec.data, now)
	rec.data.UpdatedAt = now
	rec.lastRefreshed = now

	rec.locked = false
}

// recomputeOverall blends main-topic completion (70%) with the mean of
// subtopic progress (30%).
func recomputeOverall(d *types.ResearchProgressData) {
	main := 0.0
	switch d.Status {
	case types.StatusResearchingMain:
		main = 0.5
	case types.StatusMainCompleted, types.StatusProcessingSubtopics:
		main = 1.0
	case types.StatusCompleted:
		main = 1.0
	}

	sub := 0.0
	if len(d.SubtopicsProgress) > 0 {
		total := 0
		for _, sp := range d.SubtopicsProgress {
			total += sp.Progress
		}
		sub = float64(total) / float64(len(d.SubtopicsProgress)) / 100.0
	}

	d.OverallProgress = int(100 * (mainWeight*main + subtopicWeight*sub))
	if d.OverallProgress > 100 {
		d.OverallProgress = 100
	}
}

// purgeLocked removes expired records. Caller holds t.mu.
func (t *Tracker) purgeLocked(now time.Time) int {
	removed := 0
	for id, rec := range t.records {
		if now.Sub(rec.lastRefreshed) >= t.cfg.TTL {
			delete(t.records, id)
			removed++
		}
	}
	return removed
}
