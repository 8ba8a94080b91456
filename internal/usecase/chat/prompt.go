package chat

import (
	"fmt"
	"strings"

	"github.com/voclabs/vocd/internal/domain"
)

const systemPrompt = `You are a helpful banking insights assistant. You help users explore current online insights about banking topics based on data from customer feedback and discussions.

When answering questions:
- ALWAYS use the provided context from the database to answer the user's question
- Extract key insights, patterns, and specific examples from the context
- Summarize what people are saying about the topic based on the actual posts provided
- Be conversational and helpful
- If the context contains relevant information, USE IT - don't say it's not relevant
- Focus on banking-related topics like fees, credit cards, security, online banking, ATM services, etc.
- Keep responses concise but informative
- Base your response on the actual content provided in the context`

const greetingResponse = "Hello! I'm here to help you explore current online insights about banking. " +
	"What specific banking topic would you like to learn about? For example, you could ask about " +
	"fees, credit cards, security, online banking, or ATM services."

const failureResponse = "I apologize, but I encountered an error processing your request. Please try again."

// buildUserPrompt combines the user message with retrieved context. Only the
// top contextPosts matches are used and each body is capped at bodyCap runes
// to keep the prompt within the completion model's practical budget.
func buildUserPrompt(message string, matches []domain.Match, contextPosts, bodyCap int) string {
	var context strings.Builder
	if len(matches) > 0 {
		context.WriteString("Relevant banking insights from our database:\n\n")
		for i, m := range matches {
			if i >= contextPosts {
				break
			}
			title := m.Title
			if title == "" {
				title = "Untitled"
			}
			body := m.Body
			if r := []rune(body); len(r) > bodyCap {
				body = string(r[:bodyCap])
			}
			fmt.Fprintf(&context, "%d. %s\n%s\n\n", i+1, title, body)
		}
	}

	contextBlock := context.String()
	if contextBlock == "" {
		contextBlock = "No specific context available from the database."
	}

	return fmt.Sprintf(`User question: %s

%s

Based on the context provided above, answer the user's question. Extract and summarize the key insights, concerns, and patterns that people are discussing about this topic. Use specific examples from the context when available.`, message, contextBlock)
}

// isGreeting reports whether the message is a bare greeting or too short to
// be a real question. Such messages get a canned reply without retrieval.
func isGreeting(message string) bool {
	lower := strings.ToLower(strings.TrimSpace(message))
	switch lower {
	case "hi", "hello", "hey", "hi there", "hello there", "hey there":
		return true
	}
	return len(strings.Fields(lower)) <= 2
}
