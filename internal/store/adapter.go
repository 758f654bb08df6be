// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists topic and content records behind a narrow
// adapter interface and maintains a full-text document index for
// retrieval-grounded topic analysis. The relational schema is an
// implementation detail of this package; callers see upserts and
// finders keyed by natural identifiers.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/pdiddy/topicsmith/pkg/types"
)

// ErrNotFound is returned by finders when no record matches.
var ErrNotFound = errors.New("record not found")

// TopicRecord is the persisted shape of a researched topic. Slug is
// the natural key; ParentSlug links subtopics to their parent.
type TopicRecord struct {
	Slug           string               `json:"slug" yaml:"slug"`
	Title          string               `json:"title" yaml:"title"`
	ParentSlug     string               `json:"parent_slug,omitempty" yaml:"parent_slug,omitempty"`
	Depth          int                  `json:"depth" yaml:"depth"`
	Status         types.ResearchStatus `json:"status" yaml:"status"`
	LastResearched time.Time            `json:"last_researched" yaml:"last_researched"`
}

// ContentRecord is the persisted shape of generated content. The
// natural key is (topic slug, content type, user level, style), so
// concurrent writers upsert rather than duplicate.
type ContentRecord struct {
	TopicSlug   string                    `json:"topic_slug" yaml:"topic_slug"`
	ContentType string                    `json:"content_type" yaml:"content_type"`
	UserLevel   string                    `json:"user_level" yaml:"user_level"`
	Style       string                    `json:"style" yaml:"style"`
	Result      types.TopicResearchResult `json:"result" yaml:"result"`
	UpdatedAt   time.Time                 `json:"updated_at" yaml:"updated_at"`
}

// TopicNode is a topic with its researched descendants, as returned
// by Hierarchy.
type TopicNode struct {
	TopicRecord `yaml:",inline"`
	Children    []TopicNode `json:"children,omitempty" yaml:"children,omitempty"`
}

// Adapter is the narrow persistence interface the orchestrator
// depends on.
type Adapter interface {
	UpsertTopic(ctx context.Context, rec TopicRecord) error
	FindTopicBySlug(ctx context.Context, slug string) (TopicRecord, error)
	FindTopicsByParent(ctx context.Context, parentSlug string) ([]TopicRecord, error)
	Hierarchy(ctx context.Context, slug string, maxDepth int) (TopicNode, error)

	UpsertContent(ctx context.Context, rec ContentRecord) error
	FindContent(ctx context.Context, topicSlug, contentType, userLevel, style string) (ContentRecord, error)
}
