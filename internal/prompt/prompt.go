// Package prompt builds the text prompts sent to the language model and holds
// the fixed strings used when the model cannot be reached.
package prompt

import (
	"fmt"
	"strings"

	"socratic-coach/backend/internal/model"
)

// Output ceilings, in tokens, for each gateway operation.
const (
	QuestionMaxTokens   = 200
	SummaryMaxTokens    = 600
	ActionPlanMaxTokens = 800
	CoachingMaxTokens   = 500
)

const (
	FallbackQuestion   = "What aspect of this situation feels most important to you right now?"
	FallbackSummary    = "Thank you for working through these questions. You've gained valuable insights into your situation through this reflective process."
	FallbackActionPlan = "I'll help you create a structured plan to move forward with the insights you've discovered."
	FallbackCoaching   = "I understand you're working through this challenge. Can you tell me more about what specific aspect you'd like to explore?"

	CoachingGreeting = "I'm here to help you work through your situation. I have full context of your problem and the insights you've discovered through our Socratic dialogue. What would you like to explore further or get help with?"
)

// Question builds the prompt for the next Socratic question. With no history
// (or when first is set) only the problem is used.
func Question(problem string, history []model.QuestionAnswer, first bool) string {
	if first || len(history) == 0 {
		return fmt.Sprintf(`You are a Socratic thinking coach. The user has described this problem: "%s"

Generate a thoughtful Socratic question that will help them think more clearly about their situation. The question should:
- Be open-ended and thought-provoking
- Help them examine their assumptions
- Encourage deeper reflection
- Be specific to their situation

Respond with ONLY the question, no additional text.`, problem)
	}

	return fmt.Sprintf(`You are a Socratic thinking coach. Here's the user's original problem and our conversation so far:

Original problem: "%s"

Conversation history:
%s

Generate the next thoughtful Socratic question that builds on their previous responses and helps them gain deeper insights.

Respond with ONLY the question, no additional text.`, problem, Dialogue(history, "Question", "Answer"))
}

// Summary builds the prompt asking for insights and a situation summary.
func Summary(problem string, history []model.QuestionAnswer) string {
	return fmt.Sprintf(`Based on this Socratic dialogue, provide insights and a summary:

Original problem: "%s"

Dialogue:
%s

Provide:
1. Key insights discovered
2. A clear summary of their situation
3. Actionable next steps or solutions if appropriate

Format your response in clear, encouraging language that helps them see their progress in thinking through this issue.`, problem, Dialogue(history, "Q", "A"))
}

// ActionPlan builds the prompt for a structured plan. It is built from the
// dialogue itself, not from the summary.
func ActionPlan(problem string, history []model.QuestionAnswer) string {
	return fmt.Sprintf(`Based on this Socratic dialogue, create a detailed action plan:

Original problem: "%s"

Dialogue:
%s

Create a structured action plan with:

1. **GOAL CLARITY**: Clear objective based on their insights
2. **KEY DELIVERABLES**: 3-5 specific, actionable deliverables
3. **TIMELINE**: Realistic timeframes for each deliverable
4. **MILESTONES**: Check-in points and progress markers
5. **POTENTIAL OBSTACLES**: What might get in the way and how to handle them
6. **SUCCESS METRICS**: How they'll know they're making progress

Format this as a clear, actionable plan they can reference and follow. Use encouraging, confident language that builds on the insights they've discovered.`, problem, Dialogue(history, "Q", "A"))
}

// Coaching builds the prompt for a coaching reply from the full session context.
func Coaching(problem string, history []model.QuestionAnswer, summary string, chat []model.CoachingMessage, userMessage string) string {
	if summary == "" {
		summary = "No summary available yet"
	}
	lines := make([]string, 0, len(chat))
	for _, m := range chat {
		lines = append(lines, fmt.Sprintf("%s: %s", m.Role, m.Content))
	}

	return fmt.Sprintf(`You are coaching someone through a problem. Here's the full context:

Original problem: "%s"

Socratic dialogue completed:
%s

Previous insights: %s

Conversation history:
%s

User's latest message: %s

Provide helpful, supportive coaching based on all this context.`,
		problem, Dialogue(history, "Q", "A"), summary, strings.Join(lines, "\n"), userMessage)
}

// Dialogue renders the question/answer history with the given labels,
// one blank line between pairs.
func Dialogue(history []model.QuestionAnswer, qLabel, aLabel string) string {
	parts := make([]string, 0, len(history))
	for _, qa := range history {
		parts = append(parts, fmt.Sprintf("%s: %s\n%s: %s", qLabel, qa.Question, aLabel, qa.Answer))
	}
	return strings.Join(parts, "\n\n")
}
