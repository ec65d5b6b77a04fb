package contents

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind identifies the shape of a generated artifact.
type Kind string

const (
	KindSummary   Kind = "summary"
	KindFlashcard Kind = "flashcard"
	KindQuiz      Kind = "quiz"
)

// Kinds lists every supported kind.
var Kinds = []Kind{KindSummary, KindFlashcard, KindQuiz}

// ParseKind maps a wire value to a Kind.
func ParseKind(raw string) (Kind, bool) {
	k := Kind(strings.TrimSpace(raw))
	return k, k.Valid()
}

// Valid reports whether k is a supported kind.
func (k Kind) Valid() bool {
	switch k {
	case KindSummary, KindFlashcard, KindQuiz:
		return true
	}
	return false
}

// GeneratedContent is one immutable AI-produced artifact attached to a study material.
type GeneratedContent struct {
	ID         string
	MaterialID string
	Kind       Kind
	Title      string
	Content    json.RawMessage
	CreatedAt  time.Time
}

// Payload is a kind-specific document stored in GeneratedContent.Content.
type Payload interface {
	Kind() Kind
	Validate() error
}

// New validates payload and builds a record ready to insert.
func New(materialID, title string, payload Payload, now time.Time) (GeneratedContent, error) {
	if strings.TrimSpace(materialID) == "" {
		return GeneratedContent{}, fmt.Errorf("%w: material id is required", ErrInvalidInput)
	}
	if payload == nil {
		return GeneratedContent{}, fmt.Errorf("%w: payload is required", ErrInvalidPayload)
	}
	if err := payload.Validate(); err != nil {
		return GeneratedContent{}, err
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return GeneratedContent{}, fmt.Errorf("marshal payload: %w", err)
	}
	return GeneratedContent{
		ID:         uuid.NewString(),
		MaterialID: materialID,
		Kind:       payload.Kind(),
		Title:      title,
		Content:    raw,
		CreatedAt:  now.UTC(),
	}, nil
}

// SummaryPayload is the content of a summary artifact.
type SummaryPayload struct {
	Summary     string    `json:"summary"`
	GeneratedAt time.Time `json:"generatedAt"`
}

func (SummaryPayload) Kind() Kind { return KindSummary }

func (p SummaryPayload) Validate() error {
	if strings.TrimSpace(p.Summary) == "" {
		return fmt.Errorf("%w: summary is empty", ErrInvalidPayload)
	}
	return nil
}

// Flashcard is a single question/answer pair.
type Flashcard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// Valid reports whether both sides carry text.
func (f Flashcard) Valid() bool {
	return strings.TrimSpace(f.Front) != "" && strings.TrimSpace(f.Back) != ""
}

// FlashcardPayload is the content of a flashcard artifact.
type FlashcardPayload struct {
	Flashcards  []Flashcard `json:"flashcards"`
	GeneratedAt time.Time   `json:"generatedAt"`
}

func (FlashcardPayload) Kind() Kind { return KindFlashcard }

func (p FlashcardPayload) Validate() error {
	if len(p.Flashcards) == 0 {
		return fmt.Errorf("%w: no flashcards", ErrInvalidPayload)
	}
	for i, card := range p.Flashcards {
		if !card.Valid() {
			return fmt.Errorf("%w: flashcard %d has an empty side", ErrInvalidPayload, i)
		}
	}
	return nil
}

// QuizOptionCount is the number of options every question carries.
const QuizOptionCount = 4

// Question is one multiple-choice quiz item.
type Question struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
}

// Valid reports whether the question has text, four options and an in-range answer.
func (q Question) Valid() bool {
	if strings.TrimSpace(q.Question) == "" || len(q.Options) != QuizOptionCount {
		return false
	}
	for _, opt := range q.Options {
		if strings.TrimSpace(opt) == "" {
			return false
		}
	}
	return q.CorrectAnswer >= 0 && q.CorrectAnswer < QuizOptionCount
}

// QuizPayload is the content of a quiz artifact.
type QuizPayload struct {
	Questions   []Question `json:"questions"`
	GeneratedAt time.Time  `json:"generatedAt"`
}

func (QuizPayload) Kind() Kind { return KindQuiz }

func (p QuizPayload) Validate() error {
	if len(p.Questions) == 0 {
		return fmt.Errorf("%w: no questions", ErrInvalidPayload)
	}
	for i, q := range p.Questions {
		if !q.Valid() {
			return fmt.Errorf("%w: question %d is malformed", ErrInvalidPayload, i)
		}
	}
	return nil
}
