package extract

import (
	"fmt"

	"study-backend/internal/llm"
)

const (
	extractionMaxTokens   = 3000
	extractionTemperature = 0.1
	maxDocumentTextRunes  = 15000

	visionSystemPrompt = "You are an expert at analyzing images containing text, diagrams, charts, or educational content. Extract all visible text and describe any important visual elements that could be relevant for studying."
	visionUserPrompt   = "Please analyze this image and extract all text content, describe any diagrams, charts, or visual elements that would be useful for creating study materials. Provide a comprehensive description of the educational content."

	documentSystemPrompt = "You are a document analysis assistant. Extract and summarize the key text content from documents. Focus on extracting readable text, main concepts, and important information."
	documentUserPrompt   = "This is a PDF document. Please extract the main text content and provide a comprehensive overview of the material that can be used for creating study materials."
)

func visionRequest(imageURL string) llm.Request {
	return llm.Request{
		System:      visionSystemPrompt,
		User:        visionUserPrompt,
		ImageURL:    imageURL,
		ImageDetail: llm.ImageDetailHigh,
		MaxTokens:   extractionMaxTokens,
		Temperature: extractionTemperature,
	}
}

func documentRequest(name, textLayer string) llm.Request {
	user := fmt.Sprintf("%s\n\nDocument: %s", documentUserPrompt, name)
	if textLayer != "" {
		user += "\n\nText layer:\n" + truncateRunes(textLayer, maxDocumentTextRunes)
	} else {
		user += "\n\nNo text layer could be read from this document."
	}
	return llm.Request{
		System:      documentSystemPrompt,
		User:        user,
		MaxTokens:   extractionMaxTokens,
		Temperature: extractionTemperature,
	}
}
