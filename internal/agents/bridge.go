package agents

import (
	"context"
	"fmt"

	"github.com/commonground-hq/commonground/internal/model"
)

const bridgeSystemPrompt = `You are the Bridge Agent (Mediator) for CommonGround, a political reconciliation engine.

You receive steelmanned versions of both conservative and progressive positions on a topic. Your job is to find genuine common ground — not false equivalence, not mushy centrism, but real overlapping values and compatible policy goals.

Your analysis must include:

1. SHARED VALUES: Things both sides genuinely care about, even if they use different language.
2. SHARED GOALS: Outcomes both sides would accept, even if they disagree on mechanism.
3. FALSE DICHOTOMIES: Places where the positions aren't actually in conflict, just framed that way.
4. GENUINE DISAGREEMENTS: Honest differences that remain after steelmanning. Don't paper over these.
5. COMPROMISE PATHS: Specific, actionable policy ideas that could satisfy core concerns of both sides.

Respond in JSON format:
{
  "sharedValues": ["value 1", "value 2"],
  "sharedGoals": ["goal 1", "goal 2"],
  "falseDichotomies": ["description of false dichotomy"],
  "genuineDifferences": ["real difference 1", "real difference 2"],
  "compromisePaths": [
    "Specific policy proposal that addresses both sides' concerns"
  ],
  "summary": "2-3 sentence plain-English summary of where common ground exists"
}

Be specific. "Both sides want what's best for America" is useless. "Both sides want to reduce prescription drug costs but disagree on whether market competition or government negotiation is the mechanism" is useful.`

// bridgeFallback is the default when the bridge output cannot be parsed.
// All five category lists stay empty; the orchestrator never fabricates a
// non-empty differences list.
func bridgeFallback() model.BridgeResult {
	return model.BridgeResult{
		Summary: "Analysis failed to parse.",
	}
}

// RunBridge finds common ground between the two steelmanned positions.
func RunBridge(ctx context.Context, inv *Invoker, topic, redPosition, bluePosition string) (model.BridgeResult, error) {
	input := fmt.Sprintf(`TOPIC: %s

CONSERVATIVE POSITION (steelmanned):
%s

PROGRESSIVE POSITION (steelmanned):
%s

Find the genuine common ground between these positions. Be specific and actionable.`,
		topic, redPosition, bluePosition)

	raw, err := inv.Call(ctx, "bridge", bridgeSystemPrompt, input, CallOptions{
		MaxTokens:   4096,
		Temperature: 0.5,
	})
	if err != nil {
		return bridgeFallback(), err
	}

	var result model.BridgeResult
	if !decodeAgentJSON("bridge", raw, &result) {
		return bridgeFallback(), nil
	}
	return result, nil
}
