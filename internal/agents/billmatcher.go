package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/commonground-hq/commonground/internal/model"
)

const billMatcherSystemPrompt = `You are the Bill Matcher for CommonGround, a political reconciliation engine.

You receive two inputs:
1. A list of bipartisan bills with their titles, policy areas, and legislative subjects
2. A list of existing CommonGround topic slugs (these are policy topics analyzed from Congressional speeches)

Your job is to match bills to the most relevant topic slugs. A bill can match multiple topics, and a topic can match multiple bills.

Only match bills where the connection is clear and direct. Do NOT force matches.

Respond in JSON format:
{
  "matches": [
    {
      "billKey": "hr-1234",
      "topicSlugs": ["healthcare", "drug-pricing"],
      "confidence": "high"
    }
  ]
}

Confidence guide:
- "high": Bill directly addresses the topic
- "medium": Bill is related but not a direct match
Do NOT include "low" confidence matches — skip them entirely.`

// BillMatchInput describes one bill offered to the matcher.
type BillMatchInput struct {
	BillKey    string
	Title      string
	PolicyArea string
	Subjects   []string
}

// BillMatch links one bill to the topic slugs it addresses.
type BillMatch struct {
	BillKey    string               `json:"billKey"`
	TopicSlugs []string             `json:"topicSlugs"`
	Confidence model.LinkConfidence `json:"confidence"`
}

// BillMatchResult is the matcher's structured output.
type BillMatchResult struct {
	Matches []BillMatch `json:"matches"`
}

// RunBillMatcher matches bills to existing brief topic slugs. Empty inputs
// short-circuit without a backend call.
func RunBillMatcher(ctx context.Context, inv *Invoker, bills []BillMatchInput, topicSlugs []string) (BillMatchResult, error) {
	if len(bills) == 0 || len(topicSlugs) == 0 {
		return BillMatchResult{}, nil
	}

	blocks := make([]string, len(bills))
	for i, b := range bills {
		policyArea := b.PolicyArea
		if policyArea == "" {
			policyArea = "none"
		}
		subjects := "none"
		if len(b.Subjects) > 0 {
			subjects = strings.Join(b.Subjects, ", ")
		}
		blocks[i] = fmt.Sprintf("BILL %s: %q\n  Policy Area: %s\n  Subjects: %s",
			b.BillKey, b.Title, policyArea, subjects)
	}

	input := fmt.Sprintf("BILLS:\n%s\n\nTOPIC SLUGS:\n%s\n\nMatch each bill to any relevant topic slugs. Only include clear, direct matches.",
		strings.Join(blocks, "\n\n"), strings.Join(topicSlugs, ", "))

	raw, err := inv.Call(ctx, "bill-matcher", billMatcherSystemPrompt, input, CallOptions{
		MaxTokens:   4096,
		Temperature: 0.2,
	})
	if err != nil {
		return BillMatchResult{}, err
	}

	var result BillMatchResult
	if !decodeAgentJSON("bill-matcher", raw, &result) {
		return BillMatchResult{}, nil
	}
	return result, nil
}
