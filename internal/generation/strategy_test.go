package generation

import (
	"strings"
	"testing"
	"time"

	"study-backend/internal/contents"
)

var parseTime = time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)

func TestBuildPrompts(t *testing.T) {
	tests := []struct {
		strategy  Strategy
		title     string
		maxTokens int
		mention   string
	}{
		{strategy: Summary{}, title: "Smart Summary", maxTokens: 1500, mention: "headings and bullet points"},
		{strategy: Flashcards{}, title: "Flashcards", maxTokens: 2000, mention: "8-12 flashcards"},
		{strategy: Quiz{}, title: "Practice Quiz", maxTokens: 2000, mention: "6-8 multiple-choice"},
	}
	for _, tt := range tests {
		t.Run(string(tt.strategy.Kind()), func(t *testing.T) {
			req := tt.strategy.BuildPrompt("Osmosis moves water.")
			if tt.strategy.Title() != tt.title {
				t.Fatalf("expected title %q, got %q", tt.title, tt.strategy.Title())
			}
			if req.MaxTokens != tt.maxTokens || req.Temperature != 0.3 {
				t.Fatalf("unexpected params %d %v", req.MaxTokens, req.Temperature)
			}
			if !strings.HasSuffix(req.User, "Osmosis moves water.") {
				t.Fatalf("expected material in user prompt, got %q", req.User)
			}
			if !strings.Contains(req.System+req.User, tt.mention) {
				t.Fatalf("expected prompt to mention %q", tt.mention)
			}
			if req.IsVision() {
				t.Fatalf("generation prompts must be text only")
			}
		})
	}
}

func TestSummaryParseKeepsTextVerbatim(t *testing.T) {
	raw := "## Photosynthesis\n- light → chemical energy"
	out := Summary{}.Parse(raw, parseTime)
	if out.Fallback {
		t.Fatalf("unexpected fallback")
	}
	p := out.Payload.(contents.SummaryPayload)
	if p.Summary != raw || !p.GeneratedAt.Equal(parseTime) {
		t.Fatalf("unexpected payload %+v", p)
	}
}

func TestSummaryParseBlankFallsBack(t *testing.T) {
	out := Summary{}.Parse("  \n", parseTime)
	if !out.Fallback {
		t.Fatalf("expected fallback")
	}
	if err := out.Payload.Validate(); err != nil {
		t.Fatalf("fallback payload invalid: %v", err)
	}
}

func TestFlashcardsParse(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantCards int
		fallback  bool
	}{
		{name: "array", raw: `[{"front":"Q1","back":"A1"},{"front":"Q2","back":"A2"}]`, wantCards: 2},
		{name: "fenced", raw: "```json\n[{\"front\":\"Q1\",\"back\":\"A1\"}]\n```", wantCards: 1},
		{name: "object", raw: `{"flashcards":[{"front":"Q1","back":"A1"}]}`, wantCards: 1},
		{name: "drops invalid items", raw: `[{"front":"Q1","back":""},"text",{"front":"Q2","back":"A2"}]`, wantCards: 1},
		{name: "prose", raw: "Here are some cards: mitochondria", wantCards: 1, fallback: true},
		{name: "object without key", raw: `{"cards":[]}`, wantCards: 1, fallback: true},
		{name: "empty array", raw: `[]`, wantCards: 1, fallback: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Flashcards{}.Parse(tt.raw, parseTime)
			if out.Fallback != tt.fallback {
				t.Fatalf("expected fallback=%v, got %v (%s)", tt.fallback, out.Fallback, out.Reason)
			}
			p := out.Payload.(contents.FlashcardPayload)
			if len(p.Flashcards) != tt.wantCards {
				t.Fatalf("expected %d cards, got %d", tt.wantCards, len(p.Flashcards))
			}
			if err := p.Validate(); err != nil {
				t.Fatalf("payload invalid: %v", err)
			}
		})
	}
}

func TestFlashcardsFallbackShape(t *testing.T) {
	raw := "not json at all"
	out := Flashcards{}.Parse(raw, parseTime)
	p := out.Payload.(contents.FlashcardPayload)
	if p.Flashcards[0].Front != "Study Summary" || p.Flashcards[0].Back != raw {
		t.Fatalf("unexpected fallback card %+v", p.Flashcards[0])
	}
}

func TestQuizParse(t *testing.T) {
	valid := `{"question":"Q","options":["a","b","c","d"],"correctAnswer":2}`
	tests := []struct {
		name     string
		raw      string
		want     int
		fallback bool
	}{
		{name: "array", raw: "[" + valid + "," + valid + "]", want: 2},
		{name: "object", raw: `{"questions":[` + valid + `]}`, want: 1},
		{name: "three options dropped", raw: `[{"question":"Q","options":["a","b","c"],"correctAnswer":0},` + valid + `]`, want: 1},
		{name: "out of range answer", raw: `[{"question":"Q","options":["a","b","c","d"],"correctAnswer":4}]`, want: 1, fallback: true},
		{name: "fractional answer", raw: `[{"question":"Q","options":["a","b","c","d"],"correctAnswer":1.5}]`, want: 1, fallback: true},
		{name: "string answer", raw: `[{"question":"Q","options":["a","b","c","d"],"correctAnswer":"1"}]`, want: 1, fallback: true},
		{name: "garbage", raw: "{oops", want: 1, fallback: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Quiz{}.Parse(tt.raw, parseTime)
			if out.Fallback != tt.fallback {
				t.Fatalf("expected fallback=%v, got %v (%s)", tt.fallback, out.Fallback, out.Reason)
			}
			p := out.Payload.(contents.QuizPayload)
			if len(p.Questions) != tt.want {
				t.Fatalf("expected %d questions, got %d", tt.want, len(p.Questions))
			}
			if err := p.Validate(); err != nil {
				t.Fatalf("payload invalid: %v", err)
			}
		})
	}
}

func TestQuizFallbackShape(t *testing.T) {
	out := Quiz{}.Parse("The quiz is below.", parseTime)
	p := out.Payload.(contents.QuizPayload)
	q := p.Questions[0]
	if q.Question != "What is the main topic of this study material?" || q.CorrectAnswer != 0 {
		t.Fatalf("unexpected fallback question %+v", q)
	}
	if strings.Join(q.Options, ",") != "Topic A,Topic B,Topic C,Topic D" {
		t.Fatalf("unexpected options %v", q.Options)
	}

	q.Options[0] = "changed"
	if FallbackQuestion.Options[0] != "Topic A" {
		t.Fatalf("fallback options must not be shared")
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := map[string]string{
		"```json\n[1]\n```": "[1]",
		"```\n[2]```":       "[2]",
		"  [3]  ":           "[3]",
		"```JSON [4] ```":   "[4]",
	}
	for in, want := range tests {
		if got := stripCodeFence(in); got != want {
			t.Fatalf("stripCodeFence(%q) = %q, want %q", in, got, want)
		}
	}
}
