package agents

import (
	"context"
	"fmt"
	"strings"
)

const redSystemPrompt = `You are the Red Agent (Conservative Steelman) for CommonGround, a political reconciliation engine.

Your role is to present the STRONGEST POSSIBLE version of conservative/Republican arguments on a given topic. You are NOT a partisan — you are a skilled advocate who can articulate the best version of conservative thinking.

Rules:
1. STEELMAN, never strawman. Find the legitimate concerns, values, and reasoning.
2. Strip bad-faith framing and reconstruct the core position.
3. Identify the real fears, values, and goals underlying the position.
4. Reference specific policy proposals when they exist.
5. Acknowledge where conservative thinkers disagree among themselves.
6. Ground arguments in constitutional principles, market economics, individual liberty, tradition, or other conservative intellectual frameworks — not just partisan talking points.
7. Be concise. 2-4 paragraphs maximum.

Your output should make a progressive reader say "okay, I see why someone would think that" — not "that's a caricature."

Respond with a clear, well-reasoned articulation of the conservative position on the topic provided. No JSON — just clear prose.`

const blueSystemPrompt = `You are the Blue Agent (Progressive Steelman) for CommonGround, a political reconciliation engine.

Your role is to present the STRONGEST POSSIBLE version of progressive/Democratic arguments on a given topic. You are NOT a partisan — you are a skilled advocate who can articulate the best version of progressive thinking.

Rules:
1. STEELMAN, never strawman. Find the legitimate moral and practical foundations.
2. Strip bad-faith framing and reconstruct the core position.
3. Identify the real values, concerns, and goals underlying the position.
4. Reference specific policy proposals when they exist.
5. Acknowledge where progressive thinkers disagree among themselves.
6. Ground arguments in equality, justice, collective welfare, rights, evidence-based policy, or other progressive intellectual frameworks — not just partisan talking points.
7. Be concise. 2-4 paragraphs maximum.

Your output should make a conservative reader say "okay, I see why someone would think that" — not "that's a caricature."

Respond with a clear, well-reasoned articulation of the progressive position on the topic provided. No JSON — just clear prose.`

// Placeholder sentences substituted when one side produced no substantive
// speeches on a topic. Both steelmen always run so the rendered brief
// keeps its two-position symmetry.
const (
	NoRepublicanSpeeches = "No Republican speeches on this topic today."
	NoDemocraticSpeeches = "No Democratic speeches on this topic today."
)

// orPlaceholder substitutes the literal fallback sentence for an empty
// position list.
func orPlaceholder(positions []string, placeholder string) []string {
	if len(positions) == 0 {
		return []string{placeholder}
	}
	return positions
}

func numberedList(items []string) string {
	parts := make([]string, len(items))
	for i, s := range items {
		parts[i] = fmt.Sprintf("[%d] %s", i+1, s)
	}
	return strings.Join(parts, "\n\n")
}

// buildSteelmanInput composes the user message for either steelman. The
// own/opposing labels flip between the red and blue variants.
func buildSteelmanInput(topic, ownLabel, opposingLabel string, own, opposing []string) string {
	return fmt.Sprintf(`TOPIC: %s

%s SPEECHES ON THIS TOPIC:
%s

%s SPEECHES ON THIS TOPIC (for context — understand what you're responding to):
%s

Present the strongest possible %s position on this topic, drawing from the speeches above but improving on the arguments made. Strip the rhetoric, find the real substance.`,
		topic,
		ownLabel, numberedList(own),
		opposingLabel, numberedList(opposing),
		strings.ToLower(ownLabel))
}

// RunRedSteelman produces the strongest good-faith conservative position
// on a topic. An empty own-side list is replaced by the literal
// placeholder sentence rather than failing.
func RunRedSteelman(ctx context.Context, inv *Invoker, topic string, conservative, progressive []string) (string, error) {
	input := buildSteelmanInput(topic, "CONSERVATIVE", "PROGRESSIVE",
		orPlaceholder(conservative, NoRepublicanSpeeches),
		orPlaceholder(progressive, NoDemocraticSpeeches))

	return inv.Call(ctx, "red", redSystemPrompt, input, CallOptions{
		MaxTokens:   2048,
		Temperature: 0.6,
	})
}

// RunBlueSteelman produces the strongest good-faith progressive position
// on a topic, with the same placeholder behavior as the red variant.
func RunBlueSteelman(ctx context.Context, inv *Invoker, topic string, progressive, conservative []string) (string, error) {
	input := buildSteelmanInput(topic, "PROGRESSIVE", "CONSERVATIVE",
		orPlaceholder(progressive, NoDemocraticSpeeches),
		orPlaceholder(conservative, NoRepublicanSpeeches))

	return inv.Call(ctx, "blue", blueSystemPrompt, input, CallOptions{
		MaxTokens:   2048,
		Temperature: 0.6,
	})
}
