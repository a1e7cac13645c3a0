// Package store persists speeches, briefs, bills, and bill-topic links
// behind a driver-agnostic interface.
package store

import (
	"context"
	"time"

	"github.com/commonground-hq/commonground/internal/model"
)

// BriefFilter specifies criteria for listing briefs. Zero-value Start/End
// leave the date unconstrained.
type BriefFilter struct {
	Slug   string    `json:"slug,omitempty"`
	Start  time.Time `json:"start,omitempty"`
	End    time.Time `json:"end,omitempty"`
	Limit  int       `json:"limit,omitempty"`
	Offset int       `json:"offset,omitempty"`
}

// BillFilter specifies criteria for listing bills. A TopicSlug filter joins
// through the bill-topic links.
type BillFilter struct {
	Status    string  `json:"status,omitempty"`
	MinScore  float64 `json:"min_score,omitempty"`
	TopicSlug string  `json:"topic_slug,omitempty"`
	Limit     int     `json:"limit,omitempty"`
}

// Store defines the persistence interface for the reconciliation pipeline.
// Each write is an independent, immediately-committed operation; no
// transaction spans pipeline stages.
type Store interface {
	// Speeches
	InsertSpeech(ctx context.Context, speech model.Speech) (*model.Speech, error)
	GetSpeechByGranuleID(ctx context.Context, granuleID string) (*model.Speech, error)
	ListSpeechesByDate(ctx context.Context, start, end time.Time) ([]model.Speech, error)
	MarkSpeechProcessed(ctx context.Context, speechID string) error

	// Briefs
	InsertBrief(ctx context.Context, brief model.Brief) (*model.Brief, error)
	GetBriefBySlug(ctx context.Context, slug string) (*model.Brief, error)
	ListBriefs(ctx context.Context, filter BriefFilter) ([]model.Brief, error)
	ListDistinctTopicSlugs(ctx context.Context) ([]string, error)

	// Bills
	GetBill(ctx context.Context, key model.BillKey) (*model.Bill, error)
	UpsertBill(ctx context.Context, bill model.Bill) (*model.Bill, error)
	ListBills(ctx context.Context, filter BillFilter) ([]model.Bill, error)
	// InsertBillTopicLink is insert-or-ignore: a duplicate (bill, slug)
	// pair is a no-op, not an error.
	InsertBillTopicLink(ctx context.Context, link model.BillTopicLink) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
