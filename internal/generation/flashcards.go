package generation

import (
	"encoding/json"
	"time"

	"study-backend/internal/contents"
	"study-backend/internal/llm"
)

const (
	flashcardsTitle     = "Flashcards"
	flashcardsMaxTokens = 2000

	flashcardsSystemPrompt = `You are an expert study assistant. Create flashcards from study material. Each flashcard should have a clear, concise question on the front and a comprehensive answer on the back. Focus on key concepts, definitions, and important facts. Return the response as a JSON array of objects with "front" and "back" properties.`
	flashcardsUserPrompt   = "Create flashcards from this study material. Generate 8-12 flashcards covering the most important concepts:\n\n"

	fallbackFlashcardFront = "Study Summary"
)

// Flashcards produces front/back cards from a JSON array response.
type Flashcards struct{}

func (Flashcards) Kind() contents.Kind { return contents.KindFlashcard }

func (Flashcards) Title() string { return flashcardsTitle }

func (Flashcards) BuildPrompt(text string) llm.Request {
	return llm.Request{
		System:      flashcardsSystemPrompt,
		User:        flashcardsUserPrompt + text,
		MaxTokens:   flashcardsMaxTokens,
		Temperature: generationTemperature,
	}
}

func (Flashcards) Parse(raw string, at time.Time) Outcome {
	fallback := func(reason string) Outcome {
		return Fallback(contents.FlashcardPayload{
			Flashcards:  []contents.Flashcard{{Front: fallbackFlashcardFront, Back: fallbackBack(raw)}},
			GeneratedAt: at.UTC(),
		}, reason)
	}

	items, err := jsonItems(raw, "flashcards")
	if err != nil {
		return fallback(err.Error())
	}

	cards := make([]contents.Flashcard, 0, len(items))
	for _, item := range items {
		var card contents.Flashcard
		if err := json.Unmarshal(item, &card); err != nil || !card.Valid() {
			continue
		}
		cards = append(cards, card)
	}
	if len(cards) == 0 {
		return fallback("no valid flashcards")
	}
	return Parsed(contents.FlashcardPayload{Flashcards: cards, GeneratedAt: at.UTC()})
}
