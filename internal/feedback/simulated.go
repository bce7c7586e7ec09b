package feedback

import "encoding/json"

const simulatedStandard = `## Overall Score
7/10 (simulated). No completion API key is configured, so this is example feedback.

## Structure Analysis
- Clarity: the answer is easy to follow.
- Organization: a framework is implied but not stated up front.
- Completeness: most parts of the question are addressed.

## PM Skills Assessment
- Product sense: Adequate
- Analytical thinking: Adequate
- Prioritization: Needs Work
- Communication: Strong
- Customer focus: Adequate

## Improvement Suggestions
1. State your framework before diving into details.
2. Quantify impact with at least one metric.
3. Explain the trade-offs behind your prioritization.

## Summary
A clear answer that would be stronger with explicit structure and measurable outcomes. Configure the completion API key to get real feedback.`

const simulatedAmazonPM = `## Overall Score
7/10 (simulated). No completion API key is configured, so this is example feedback.

## STAR Method Analysis
- Situation: context is present but could be more concise.
- Task: your own responsibility should be stated explicitly.
- Action: describe what you did personally, using "I" rather than "we".
- Result: add a measurable outcome and what you learned.

## Leadership Principles Assessment
- Customer Obsession: partially demonstrated.
- Ownership: demonstrated.
- Deliver Results: needs a concrete metric to be convincing.

## Improvement Suggestions
1. Lead with a one-sentence situation summary.
2. Quantify the result.
3. Tie the story explicitly to the Leadership Principle the question targets.

## Summary
A solid story that needs sharper STAR structure and measurable results. Configure the completion API key to get real feedback.`

type simulatedMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type simulatedChoice struct {
	Index        int              `json:"index"`
	Message      simulatedMessage `json:"message"`
	FinishReason string           `json:"finish_reason"`
}

type simulatedCompletion struct {
	ID        string            `json:"id"`
	Object    string            `json:"object"`
	Model     string            `json:"model"`
	Simulated bool              `json:"simulated"`
	Choices   []simulatedChoice `json:"choices"`
}

// SimulatedResponse is a canned completion-shaped payload used when no
// completion credential is configured. The UI reads it like a real one.
func SimulatedResponse(mode Mode, model string) json.RawMessage {
	content := simulatedStandard
	if mode == ModeAmazonPM {
		content = simulatedAmazonPM
	}
	body, err := json.Marshal(simulatedCompletion{
		ID:        "simulated-feedback",
		Object:    "chat.completion",
		Model:     model,
		Simulated: true,
		Choices: []simulatedChoice{{
			Message:      simulatedMessage{Role: "assistant", Content: content},
			FinishReason: "stop",
		}},
	})
	if err != nil {
		// Only fixed strings are marshaled here.
		panic(err)
	}
	return body
}
