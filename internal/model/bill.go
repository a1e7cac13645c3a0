package model

import "time"

// BillStatus is the legislative stage derived from a bill's latest action
// text.
type BillStatus string

const (
	StatusIntroduced BillStatus = "introduced"
	StatusCommittee  BillStatus = "committee"
	StatusFloor      BillStatus = "floor"
	StatusPassedOne  BillStatus = "passed_one"
	StatusPassedBoth BillStatus = "passed_both"
	StatusEnacted    BillStatus = "enacted"
	StatusVetoed     BillStatus = "vetoed"
)

// BillKey is a bill's natural key.
type BillKey struct {
	Congress   string `json:"congress"`
	BillType   string `json:"bill_type"` // hr, s, hjres, sjres
	BillNumber string `json:"bill_number"`
}

// Bill is a tracked piece of legislation, upserted on each sync pass and
// refreshed only when stale beyond the freshness window.
type Bill struct {
	ID                  string     `json:"id"`
	Congress            string     `json:"congress"`
	BillType            string     `json:"bill_type"`
	BillNumber          string     `json:"bill_number"`
	Title               string     `json:"title"`
	PolicyArea          *string    `json:"policy_area,omitempty"`
	LegislativeSubjects []string   `json:"legislative_subjects"`
	SponsorName         *string    `json:"sponsor_name,omitempty"`
	SponsorParty        *string    `json:"sponsor_party,omitempty"`
	SponsorState        *string    `json:"sponsor_state,omitempty"`
	CosponsorCountR     int        `json:"cosponsor_count_r"`
	CosponsorCountD     int        `json:"cosponsor_count_d"`
	CosponsorCountI     int        `json:"cosponsor_count_i"`
	CosponsorTotal      int        `json:"cosponsor_total"`
	BipartisanScore     float64    `json:"bipartisan_score"`
	Status              BillStatus `json:"status"`
	LatestActionText    *string    `json:"latest_action_text,omitempty"`
	LatestActionDate    *time.Time `json:"latest_action_date,omitempty"`
	CongressGovURL      string     `json:"congress_gov_url"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// Key returns the bill's natural key.
func (b Bill) Key() BillKey {
	return BillKey{Congress: b.Congress, BillType: b.BillType, BillNumber: b.BillNumber}
}

// LinkConfidence grades how directly a bill matches a topic.
type LinkConfidence string

const (
	ConfidenceHigh   LinkConfidence = "high"
	ConfidenceMedium LinkConfidence = "medium"
)

// BillTopicLink associates a bill with a brief topic slug. Inserting a
// duplicate (bill, slug) pair is a no-op, not an error.
type BillTopicLink struct {
	BillID     string         `json:"bill_id"`
	TopicSlug  string         `json:"topic_slug"`
	Confidence LinkConfidence `json:"confidence"`
}
