package generation

import (
	"strings"
	"time"

	"study-backend/internal/contents"
	"study-backend/internal/llm"
)

const (
	summaryTitle     = "Smart Summary"
	summaryMaxTokens = 1500

	summarySystemPrompt = "You are an expert study assistant. Create concise, well-organized summaries that highlight key concepts, main ideas, and important details. Format your response as structured text with clear headings and bullet points."
	summaryUserPrompt   = "Please create a comprehensive summary of the following study material:\n\n"

	emptySummaryText = "No summary could be generated for this material."
)

// Summary produces a heading-and-bullet summary. The response text is stored verbatim.
type Summary struct{}

func (Summary) Kind() contents.Kind { return contents.KindSummary }

func (Summary) Title() string { return summaryTitle }

func (Summary) BuildPrompt(text string) llm.Request {
	return llm.Request{
		System:      summarySystemPrompt,
		User:        summaryUserPrompt + text,
		MaxTokens:   summaryMaxTokens,
		Temperature: generationTemperature,
	}
}

func (Summary) Parse(raw string, at time.Time) Outcome {
	if strings.TrimSpace(raw) == "" {
		return Fallback(contents.SummaryPayload{Summary: emptySummaryText, GeneratedAt: at.UTC()}, "empty response")
	}
	return Parsed(contents.SummaryPayload{Summary: raw, GeneratedAt: at.UTC()})
}
