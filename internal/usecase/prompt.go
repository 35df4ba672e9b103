package usecase

import (
	"fmt"
	"strings"

	"hr-assistant/internal/domain"
)

const (
	// documentPromptBudget bounds how much of the reference document is
	// sent with the semantic retrieval call, in characters.
	documentPromptBudget = 15000

	noRelevantContentMarker = "NO_RELEVANT_CONTENT_FOUND"
	sectionMarker           = "===SECTION==="
)

func buildAnswerMessages(persona, grounding string, employee domain.EmployeeContext, history []domain.ChatMessage, question string) []domain.ChatMessage {
	messages := []domain.ChatMessage{
		{Role: "system", Content: buildSystemPrompt(persona, grounding, employee)},
	}
	// Only the most recent turns fit the context window; older ones are
	// dropped silently.
	if len(history) > maxHistoryMessages {
		history = history[len(history)-maxHistoryMessages:]
	}
	messages = append(messages, history...)
	messages = append(messages, domain.ChatMessage{Role: "user", Content: question})
	return messages
}

func buildSystemPrompt(persona, grounding string, employee domain.EmployeeContext) string {
	if strings.TrimSpace(persona) == "" {
		persona = "You are an AI HR Assistant for Valley Water. Your role is to help employees with their HR-related questions in a friendly, personalized way."
	}
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(persona))
	sb.WriteString("\n\n")
	if employee.Name != "" {
		sb.WriteString(fmt.Sprintf("You are speaking with %s from the %s department.\n\n", employee.Name, employee.Department))
	}
	sb.WriteString("Answer using only the reference material below plus general HR knowledge. ")
	sb.WriteString("If the material does not cover the question, say so and point the employee to HR.\n\n")
	sb.WriteString("Reference material:\n")
	sb.WriteString(grounding)
	return sb.String()
}

func buildGroundingPrompt(question, documentText string) []domain.ChatMessage {
	if len(documentText) > documentPromptBudget {
		documentText = documentText[:documentPromptBudget]
	}
	content := fmt.Sprintf(`Given this question from an employee: %q

Identify the 3-5 most relevant sections from this HR document that contain information to answer the question.
Consider different ways the question could be phrased and look for semantic matches, not just keyword matches.

HR Document:
%s

Return the relevant sections, separated by %q markers.
If you can't find any relevant information, respond with %q and suggest related topics the employee might want to ask about instead.`,
		question, documentText, sectionMarker, noRelevantContentMarker)
	return []domain.ChatMessage{{Role: "user", Content: content}}
}

func buildSuggestionPrompt(question, answer, department string) []domain.ChatMessage {
	content := fmt.Sprintf(`Based on this conversation between an employee and HR:

Employee question: %q
HR assistant answer: %q

Generate 3 helpful follow-up questions this employee might want to ask next. These should:
1. Build naturally on the current conversation
2. Be relevant to someone in the %s department
3. Help the employee get more specific information or take next steps
4. Be phrased in a casual, conversational way

Each question should be a single sentence ending with a question mark.`,
		question, answer, department)
	return []domain.ChatMessage{{Role: "user", Content: content}}
}

func buildTopicPrompt(question, answer string) []domain.ChatMessage {
	content := fmt.Sprintf(`Classify the following HR conversation into one of these categories:
- %s

Question: %s
Answer: %s

Category:`, strings.Join(topicCategories, "\n- "), question, answer)
	return []domain.ChatMessage{
		{Role: "system", Content: "You are a helpful assistant that classifies HR conversations."},
		{Role: "user", Content: content},
	}
}

func buildSummaryPrompt(question, answer string) []domain.ChatMessage {
	content := fmt.Sprintf(`Summarize the following HR conversation in one short sentence:

Question: %s
Answer: %s

Summary:`, question, answer)
	return []domain.ChatMessage{
		{Role: "system", Content: "You are a helpful assistant that summarizes conversations concisely."},
		{Role: "user", Content: content},
	}
}
