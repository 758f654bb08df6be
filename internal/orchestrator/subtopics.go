// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package orchestrator

import (
	"context"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/topicsmith/pkg/types"
)

// spawnSubtopics starts the detached subtopic pass for a parent whose
// main result has already been returned. The task survives the
// caller's context cancellation; callers observe it through the
// progress tracker or WaitDetached.
func (o *Orchestrator) spawnSubtopics(ctx context.Context, parentSlug string, subtopics []types.SubtopicInfo, opts Options, depth int) {
	detachedCtx := context.WithoutCancel(ctx)
	o.detached.Add(1)
	go func() {
		defer o.detached.Done()
		o.processSubtopics(detachedCtx, parentSlug, subtopics, opts, depth)
	}()
}

// processSubtopics researches subtopics in ascending priority order,
// in strictly sequential batches of at most MaxParallelSubtopics.
// Within a batch subtopics run concurrently and finish in arbitrary
// order. A failed subtopic is marked failed in the parent's progress
// and never aborts its batch or the parent.
func (o *Orchestrator) processSubtopics(ctx context.Context, parentSlug string, subtopics []types.SubtopicInfo, opts Options, depth int) {
	ordered := make([]types.SubtopicInfo, len(subtopics))
	copy(ordered, subtopics)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	for _, sub := range ordered {
		o.tracker.UpdateSubtopic(parentSlug, types.Slugify(sub.Title), sub.Title, types.SubtopicPending, 0)
	}

	batchSize := o.cfg.MaxParallelSubtopics
	for start := 0; start < len(ordered); start += batchSize {
		end := start + batchSize
		if end > len(ordered) {
			end = len(ordered)
		}

		var g errgroup.Group
		for _, sub := range ordered[start:end] {
			sub := sub
			g.Go(func() error {
				o.runSubtopic(ctx, parentSlug, sub, opts, depth)
				return nil
			})
		}
		g.Wait()
	}

	o.tracker.Complete(parentSlug)
}

// runSubtopic researches one subtopic at the given depth and reports
// its lifecycle to the parent's progress entry.
func (o *Orchestrator) runSubtopic(ctx context.Context, parentSlug string, sub types.SubtopicInfo, opts Options, depth int) {
	subSlug := types.Slugify(sub.Title)
	o.tracker.UpdateSubtopic(parentSlug, subSlug, sub.Title, types.SubtopicRunning, 10)

	subOpts := opts
	subOpts.Understanding = nil

	if _, err := o.runTopic(ctx, sub.Title, subOpts, depth, parentSlug); err != nil {
		o.logger.Warn("subtopic research failed",
			zap.String("parent", parentSlug),
			zap.String("subtopic", sub.Title),
			zap.Error(err),
		)
		o.tracker.UpdateSubtopic(parentSlug, subSlug, sub.Title, types.SubtopicFailed, 100)
		return
	}

	o.tracker.UpdateSubtopic(parentSlug, subSlug, sub.Title, types.SubtopicCompleted, 100)
}
