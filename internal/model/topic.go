package model

// IntakeSpeech is the intake agent's annotation of a single speech within
// a topic.
type IntakeSpeech struct {
	GranuleID     string   `json:"granuleId"`
	Speaker       string   `json:"speaker"`
	Party         Party    `json:"party"`
	Chamber       Chamber  `json:"chamber"`
	IsSubstantive bool     `json:"isSubstantive"`
	CorePosition  string   `json:"corePosition"`
	KeyQuotes     []string `json:"keyQuotes"`
}

// IntakeTopic is one topic the intake agent extracted from a day's
// speeches, with per-speech annotations. Exists only within a single
// pipeline run and is never persisted directly.
type IntakeTopic struct {
	Name     string         `json:"name"`
	Slug     string         `json:"slug"`
	Speeches []IntakeSpeech `json:"speeches"`
}

// HasSubstantive reports whether at least one annotated speech carries a
// substantive policy position.
func (t IntakeTopic) HasSubstantive() bool {
	for _, s := range t.Speeches {
		if s.IsSubstantive {
			return true
		}
	}
	return false
}

// PositionsByParty returns the core positions of the topic's speeches for
// the given party, in annotation order.
func (t IntakeTopic) PositionsByParty(p Party) []string {
	var out []string
	for _, s := range t.Speeches {
		if s.Party == p {
			out = append(out, s.CorePosition)
		}
	}
	return out
}

// IntakeResult is the intake agent's full structured output.
type IntakeResult struct {
	Topics []IntakeTopic `json:"topics"`
}

// ScoutTopic is one entry in the opportunity scout's ranking.
type ScoutTopic struct {
	Name             string `json:"name"`
	Slug             string `json:"slug"`
	Score            int    `json:"score"`
	Reason           string `json:"reason"`
	BothSidesEngaged bool   `json:"bothSidesEngaged"`
	SharedUnderlying string `json:"sharedUnderlying"`
}

// ScoutResult is the opportunity scout's structured output. An empty
// ranking is a legitimate outcome: it means nothing looked promising.
type ScoutResult struct {
	RankedTopics []ScoutTopic `json:"rankedTopics"`
	Summary      string       `json:"summary"`
}

// BridgeResult is the bridge agent's five-category common-ground analysis.
// GenuineDifferences and CompromisePaths are independent lists; a
// non-empty compromise list never implies the differences were resolved.
type BridgeResult struct {
	SharedValues       []string `json:"sharedValues"`
	SharedGoals        []string `json:"sharedGoals"`
	FalseDichotomies   []string `json:"falseDichotomies"`
	GenuineDifferences []string `json:"genuineDifferences"`
	CompromisePaths    []string `json:"compromisePaths"`
	Summary            string   `json:"summary"`
}

// FlagSource identifies which stage output a democracy flag refers to.
type FlagSource string

const (
	FlagSourceRed     FlagSource = "red"
	FlagSourceBlue    FlagSource = "blue"
	FlagSourceBridge  FlagSource = "bridge"
	FlagSourceGeneral FlagSource = "general"
)

// FlagSeverity grades a democracy flag.
type FlagSeverity string

const (
	SeverityInfo     FlagSeverity = "info"
	SeverityWarning  FlagSeverity = "warning"
	SeverityCritical FlagSeverity = "critical"
)

// DemocracyFlag is one concern raised by the democracy guard.
type DemocracyFlag struct {
	Source     FlagSource   `json:"source"`
	Principle  string       `json:"principle"`
	Concern    string       `json:"concern"`
	Severity   FlagSeverity `json:"severity"`
	Suggestion string       `json:"suggestion"`
}

// DemocracyResult is the democracy guard's verdict. Passed is authored by
// the guard itself; downstream consumers log it verbatim and never
// recompute it from flag severities.
type DemocracyResult struct {
	Passed  bool            `json:"passed"`
	Flags   []DemocracyFlag `json:"flags"`
	Summary string          `json:"summary"`
}
