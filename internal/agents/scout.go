package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/commonground-hq/commonground/internal/model"
)

const scoutSystemPrompt = `You are the Opportunity Scout for CommonGround, a political reconciliation engine.

You receive a list of topics that were discussed in today's Congressional Record, along with which parties spoke on each topic and their core positions.

Your job is to identify which topics have the HIGHEST potential for bipartisan collaboration. Look for:

1. BOTH SIDES ENGAGED: Topics where both R and D members spoke (highest priority)
2. SHARED UNDERLYING VALUES: Even when framed differently, look for topics where both sides care about the same outcome (e.g., protecting children, reducing costs, national security)
3. CONCRETE OVERLAP: Topics where the actual policy proposals aren't that far apart — just the rhetoric
4. HISTORICAL PRECEDENT: Topics that have seen bipartisan cooperation before (infrastructure, veterans, drug pricing, criminal justice reform, etc.)
5. LOW IDEOLOGICAL STAKES: Topics where partisan identity is less entrenched, making compromise easier

Score each topic from 1-10 on collaboration potential and explain why.

Respond in JSON format:
{
  "rankedTopics": [
    {
      "name": "Topic Name",
      "slug": "topic-slug",
      "score": 8,
      "reason": "Why this topic has high collaboration potential",
      "bothSidesEngaged": true,
      "sharedUnderlying": "The underlying value both sides share"
    }
  ],
  "summary": "1-2 sentence overview of today's best opportunities for bipartisan work"
}

Be honest. If nothing looks promising today, say so. A score of 1-3 means unlikely, 4-6 means possible with effort, 7-10 means genuine opportunity.`

// scoutFallback is the default when the scout's output cannot be parsed.
func scoutFallback() model.ScoutResult {
	return model.ScoutResult{
		RankedTopics: nil,
		Summary:      "Scout analysis failed to parse.",
	}
}

// RunScout ranks intake topics by bipartisan collaboration potential. An
// empty ranking is a legitimate answer: nothing looked promising.
func RunScout(ctx context.Context, inv *Invoker, topics []model.IntakeTopic) (model.ScoutResult, error) {
	blocks := make([]string, 0, len(topics))
	for _, t := range topics {
		var rCount, dCount int
		var positions strings.Builder
		for _, s := range t.Speeches {
			switch s.Party {
			case model.PartyRepublican:
				rCount++
			case model.PartyDemocrat:
				dCount++
			}
			if s.IsSubstantive {
				fmt.Fprintf(&positions, "  [%s] %s: %s\n", s.Party, s.Speaker, s.CorePosition)
			}
		}
		blocks = append(blocks, fmt.Sprintf("TOPIC: %s (slug: %s)\n  Republicans: %d, Democrats: %d\n  Positions:\n%s",
			t.Name, t.Slug, rCount, dCount, positions.String()))
	}

	raw, err := inv.Call(ctx, "scout", scoutSystemPrompt, strings.Join(blocks, "\n\n---\n\n"), CallOptions{
		MaxTokens:   4096,
		Temperature: 0.4,
	})
	if err != nil {
		return scoutFallback(), err
	}

	var result model.ScoutResult
	if !decodeAgentJSON("scout", raw, &result) {
		return scoutFallback(), nil
	}
	return result, nil
}
