package model

import "time"

// AgentRole tags a transcript message with the stage that produced it.
type AgentRole string

const (
	RoleIntake  AgentRole = "intake"
	RoleScout   AgentRole = "scout"
	RoleRed     AgentRole = "red"
	RoleBlue    AgentRole = "blue"
	RoleBridge  AgentRole = "bridge"
	RoleGuard   AgentRole = "guard"
	RoleDrafter AgentRole = "drafter"
)

// AgentMessage is one entry in the agent-conversation transcript attached
// to a brief.
type AgentMessage struct {
	Agent     string    `json:"agent"`
	Role      AgentRole `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Brief is the persisted terminal artifact of one pipeline run for one
// topic on one date. The store may hold multiple briefs for the same slug
// across dates; (slug, date) is the conceptual uniqueness scope.
type Brief struct {
	ID                  string         `json:"id"`
	Date                time.Time      `json:"date"`
	Topic               string         `json:"topic"`
	Slug                string         `json:"slug"`
	RedPosition         string         `json:"red_position"`
	BluePosition        string         `json:"blue_position"`
	SharedValues        []string       `json:"shared_values"`
	Differences         []string       `json:"differences"`
	CompromisePaths     []string       `json:"compromise_paths"`
	DemocracyCheck      string         `json:"democracy_check"`
	DemocracyFlagged    bool           `json:"democracy_flagged"`
	PolicyDraft         string         `json:"policy_draft"`
	AgentConversation   []AgentMessage `json:"agent_conversation"`
	CollaborationScore  *string        `json:"collaboration_score,omitempty"`
	CollaborationReason *string        `json:"collaboration_reason,omitempty"`
	SourceSpeechMeta    []SpeechMeta   `json:"source_speech_meta,omitempty"`
	SourceSpeechIDs     []string       `json:"source_speech_ids"`
	CreatedAt           time.Time      `json:"created_at"`
}
