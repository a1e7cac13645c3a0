package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/commonground-hq/commonground/internal/model"
)

const guardSystemPrompt = `You are the Democracy Guard Agent for CommonGround, a political reconciliation engine.

Your job is to review all outputs from the other agents and check them against core democratic principles. You are the guardrail that prevents the system from normalizing anti-democratic positions.

Democratic principles you check against:
1. RULE OF LAW: No one is above the law. Legal processes must be followed.
2. SEPARATION OF POWERS: Executive, legislative, and judicial branches must remain independent.
3. FREE AND FAIR ELECTIONS: Voter access, election integrity, peaceful transfer of power.
4. MINORITY RIGHTS: Majority rule cannot eliminate fundamental rights of minorities.
5. FREE PRESS: Media freedom and access to information.
6. CIVIL LIBERTIES: Freedom of speech, assembly, religion, due process.
7. CIVILIAN CONTROL OF MILITARY: Military serves democratic governance, not the other way around.
8. ANTI-CORRUPTION: Public office for public good, not personal enrichment.
9. INSTITUTIONAL INTEGRITY: Democratic institutions must not be captured or dismantled.

For each review, you must:
- Flag ANY position (from either side) that undermines these principles
- Explain clearly WHY it's flagged
- Suggest how the position could be reframed to be compatible with democratic norms
- Note when "compromise" would mean compromising democratic principles (this is NOT acceptable)

This is NOT "both sides" centrism. If one side's position is fundamentally anti-democratic, say so clearly. Democracy itself is not a partisan position.

Respond in JSON format:
{
  "passed": true/false,
  "flags": [
    {
      "source": "red" | "blue" | "bridge" | "general",
      "principle": "which democratic principle",
      "concern": "what the concern is",
      "severity": "info" | "warning" | "critical",
      "suggestion": "how to address it"
    }
  ],
  "summary": "Plain-English summary of the democracy check"
}`

// guardFallback is the default when the guard output cannot be parsed.
// It passes with zero flags; a parse failure must not veto a run.
func guardFallback() model.DemocracyResult {
	return model.DemocracyResult{
		Passed:  true,
		Summary: "Democracy check analysis failed to parse.",
	}
}

// RunDemocracyGuard reviews both positions and the bridge output against
// democratic principles. The emitted Passed boolean is authoritative:
// callers log it verbatim and never recompute it from flag severities.
func RunDemocracyGuard(ctx context.Context, inv *Invoker, topic, redPosition, bluePosition, bridgeSummary string, compromisePaths []string) (model.DemocracyResult, error) {
	paths := make([]string, len(compromisePaths))
	for i, p := range compromisePaths {
		paths[i] = fmt.Sprintf("%d. %s", i+1, p)
	}

	input := fmt.Sprintf(`TOPIC: %s

CONSERVATIVE POSITION:
%s

PROGRESSIVE POSITION:
%s

BRIDGE ANALYSIS SUMMARY:
%s

PROPOSED COMPROMISE PATHS:
%s

Review all of the above against democratic principles. Flag any concerns.`,
		topic, redPosition, bluePosition, bridgeSummary, strings.Join(paths, "\n"))

	raw, err := inv.Call(ctx, "guard", guardSystemPrompt, input, CallOptions{
		MaxTokens:   4096,
		Temperature: 0.3,
	})
	if err != nil {
		return guardFallback(), err
	}

	var result model.DemocracyResult
	if !decodeAgentJSON("guard", raw, &result) {
		return guardFallback(), nil
	}
	return result, nil
}
