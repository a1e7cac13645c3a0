package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/commonground-hq/commonground/internal/model"
)

const drafterSystemPrompt = `You are the Policy Drafter Agent for CommonGround, a political reconciliation engine.

You receive the full analysis from all other agents — steelmanned positions, bridge analysis, and democracy guard review — and your job is to draft actual compromise policy language.

Rules:
1. Draft language that a reasonable person on either side could live with.
2. If the Democracy Guard flagged anything, your draft MUST address those concerns.
3. Be specific. Not "improve healthcare" but "expand Medicare negotiation authority for drugs older than 15 years while maintaining patent protections for novel compounds."
4. Include implementation details where possible.
5. Acknowledge what each side gives up and what each side gains.
6. Keep it under 500 words.

Format your response as:

PROPOSED FRAMEWORK: [Title]

[The actual policy proposal in clear, accessible language]

WHAT CONSERVATIVES GET:
- [specific gain]

WHAT PROGRESSIVES GET:
- [specific gain]

WHAT BOTH SIDES GIVE UP:
- [specific concession]

This is not legislation — it's a readable framework that demonstrates compromise is possible.`

// RunPolicyDrafter drafts a compromise framework from the accumulated
// analysis. Democracy flags are injected verbatim so unresolved concerns
// are structurally part of the drafter's input; addressing them is an
// instruction-level contract, not independently verified here.
func RunPolicyDrafter(ctx context.Context, inv *Invoker, topic, redPosition, bluePosition string, compromisePaths []string, flags []model.DemocracyFlag) (string, error) {
	flagText := "DEMOCRACY GUARD: No flags raised."
	if len(flags) > 0 {
		lines := make([]string, len(flags))
		for i, f := range flags {
			lines[i] = fmt.Sprintf("- [%s] %s: %s", f.Severity, f.Principle, f.Concern)
		}
		flagText = "DEMOCRACY GUARD FLAGS (you MUST address these):\n" + strings.Join(lines, "\n")
	}

	paths := make([]string, len(compromisePaths))
	for i, p := range compromisePaths {
		paths[i] = fmt.Sprintf("%d. %s", i+1, p)
	}

	input := fmt.Sprintf(`TOPIC: %s

CONSERVATIVE POSITION:
%s

PROGRESSIVE POSITION:
%s

COMPROMISE PATHS IDENTIFIED:
%s

%s

Draft a compromise policy framework that addresses both sides' core concerns.`,
		topic, redPosition, bluePosition, strings.Join(paths, "\n"), flagText)

	return inv.Call(ctx, "drafter", drafterSystemPrompt, input, CallOptions{
		MaxTokens:   2048,
		Temperature: 0.6,
	})
}
