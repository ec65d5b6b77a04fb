package generation

import (
	"encoding/json"
	"math"
	"time"

	"study-backend/internal/contents"
	"study-backend/internal/llm"
)

const (
	quizTitle     = "Practice Quiz"
	quizMaxTokens = 2000

	quizSystemPrompt = `You are an expert study assistant. Create a practice quiz from study material. Generate multiple-choice questions that test understanding of key concepts. Each question should have 4 options with only one correct answer. Return the response as a JSON array of objects with "question", "options" (array of 4 strings), and "correctAnswer" (index 0-3) properties.`
	quizUserPrompt   = "Create a practice quiz from this study material. Generate 6-8 multiple-choice questions covering the main concepts:\n\n"
)

// FallbackQuestion is the synthetic question used when a quiz response cannot be parsed.
var FallbackQuestion = contents.Question{
	Question:      "What is the main topic of this study material?",
	Options:       []string{"Topic A", "Topic B", "Topic C", "Topic D"},
	CorrectAnswer: 0,
}

// Quiz produces four-option multiple-choice questions from a JSON array response.
type Quiz struct{}

func (Quiz) Kind() contents.Kind { return contents.KindQuiz }

func (Quiz) Title() string { return quizTitle }

func (Quiz) BuildPrompt(text string) llm.Request {
	return llm.Request{
		System:      quizSystemPrompt,
		User:        quizUserPrompt + text,
		MaxTokens:   quizMaxTokens,
		Temperature: generationTemperature,
	}
}

type rawQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer any      `json:"correctAnswer"`
}

func (Quiz) Parse(raw string, at time.Time) Outcome {
	fallback := func(reason string) Outcome {
		q := FallbackQuestion
		q.Options = append([]string(nil), FallbackQuestion.Options...)
		return Fallback(contents.QuizPayload{Questions: []contents.Question{q}, GeneratedAt: at.UTC()}, reason)
	}

	items, err := jsonItems(raw, "questions")
	if err != nil {
		return fallback(err.Error())
	}

	questions := make([]contents.Question, 0, len(items))
	for _, item := range items {
		var rq rawQuestion
		if err := json.Unmarshal(item, &rq); err != nil {
			continue
		}
		answer, ok := answerIndex(rq.CorrectAnswer)
		if !ok {
			continue
		}
		q := contents.Question{Question: rq.Question, Options: rq.Options, CorrectAnswer: answer}
		if !q.Valid() {
			continue
		}
		questions = append(questions, q)
	}
	if len(questions) == 0 {
		return fallback("no valid questions")
	}
	return Parsed(contents.QuizPayload{Questions: questions, GeneratedAt: at.UTC()})
}

func answerIndex(v any) (int, bool) {
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	if f < 0 || f >= contents.QuizOptionCount {
		return 0, false
	}
	return int(f), true
}
