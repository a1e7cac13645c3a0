package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/commonground-hq/commonground/internal/model"
)

const intakeSystemPrompt = `You are the Intake Agent for CommonGround, a political reconciliation engine. Your job is to analyze raw Congressional Record speeches and extract structured information.

For each batch of speeches you receive, you must:

1. CATEGORIZE by topic (e.g., "Healthcare", "Immigration", "Economy", "Defense", "Education", "Environment", "Technology", "Criminal Justice", etc.)
2. IDENTIFY the core policy positions expressed (not rhetoric, actual positions)
3. STRIP performative language — focus on what they actually want to happen
4. TAG whether the speech is substantive policy discussion vs. procedural/ceremonial
5. IDENTIFY the speaker's party if discernible from context

Respond in JSON format:
{
  "topics": [
    {
      "name": "Topic Name",
      "slug": "topic-name",
      "speeches": [
        {
          "granuleId": "the-id",
          "speaker": "Name",
          "party": "R" | "D" | "I" | "unknown",
          "chamber": "HOUSE" | "SENATE",
          "isSubstantive": true/false,
          "corePosition": "What they actually want to happen",
          "keyQuotes": ["relevant direct quotes"]
        }
      ]
    }
  ]
}

Be ruthlessly focused on substance. Ignore procedural motions, moments of silence, congratulatory remarks, and other non-policy speech. Only include topics where there are substantive policy positions from at least one party.`

// intakeTextLimit bounds each speech's contribution to the prompt so a
// full day's batch stays within backend input limits.
const intakeTextLimit = 3000

// IntakeInput is one speech handed to the intake agent.
type IntakeInput struct {
	GranuleID string
	Text      string
	Chamber   model.Chamber
}

// RunIntake categorizes a batch of raw speeches into topics with
// per-speech annotations. Malformed backend output degrades to an empty
// topic set; backend errors propagate.
func RunIntake(ctx context.Context, inv *Invoker, speeches []IntakeInput) (model.IntakeResult, error) {
	var b strings.Builder
	for i, s := range speeches {
		if i > 0 {
			b.WriteString("\n\n")
		}
		text := s.Text
		if len(text) > intakeTextLimit {
			text = text[:intakeTextLimit]
		}
		fmt.Fprintf(&b, "--- SPEECH [%s] (%s) ---\n%s", s.GranuleID, s.Chamber, text)
	}

	raw, err := inv.Call(ctx, "intake", intakeSystemPrompt, b.String(), CallOptions{
		MaxTokens:   8192,
		Temperature: 0.3,
	})
	if err != nil {
		return model.IntakeResult{}, err
	}

	var result model.IntakeResult
	if !decodeAgentJSON("intake", raw, &result) {
		return model.IntakeResult{}, nil
	}
	return result, nil
}
