package model

import "time"

// Chamber identifies which chamber of Congress a speech was delivered in.
type Chamber string

const (
	ChamberHouse  Chamber = "HOUSE"
	ChamberSenate Chamber = "SENATE"
)

// Party is a speaker's party affiliation as inferred by the intake agent.
type Party string

const (
	PartyRepublican  Party = "R"
	PartyDemocrat    Party = "D"
	PartyIndependent Party = "I"
	PartyUnknown     Party = "unknown"
)

// Speech is one ingested Congressional Record granule (a single floor
// speech or procedural entry). Created once by ingestion; the only
// mutation the pipeline performs is setting Processed at run completion.
type Speech struct {
	ID        string    `json:"id"`
	GranuleID string    `json:"granule_id"`
	Title     string    `json:"title"`
	Speaker   *string   `json:"speaker,omitempty"`
	Party     *string   `json:"party,omitempty"`
	Chamber   Chamber   `json:"chamber"`
	Date      time.Time `json:"date"`
	RawHTML   string    `json:"raw_html"`
	PlainText string    `json:"plain_text"`
	Processed bool      `json:"processed"`
	CreatedAt time.Time `json:"created_at"`
}

// SpeechMeta is the attribution snapshot of a source speech embedded in a
// persisted brief.
type SpeechMeta struct {
	GranuleID    string  `json:"granuleId"`
	Speaker      *string `json:"speaker,omitempty"`
	Party        Party   `json:"party"`
	Chamber      Chamber `json:"chamber"`
	Title        string  `json:"title"`
	CorePosition string  `json:"corePosition"`
}
