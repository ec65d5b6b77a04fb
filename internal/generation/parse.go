package generation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var errNotArray = errors.New("response is not a json array")

// jsonItems returns the elements of a JSON array response. The array may be wrapped in a
// markdown code fence or held under key in a top-level object.
func jsonItems(raw, key string) ([]json.RawMessage, error) {
	body := stripCodeFence(raw)
	if body == "" {
		return nil, errors.New("empty response")
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(body), &items); err == nil {
		return items, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &envelope); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	inner, ok := envelope[key]
	if !ok {
		return nil, errNotArray
	}
	if err := json.Unmarshal(inner, &items); err != nil {
		return nil, errNotArray
	}
	return items, nil
}

func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	body := strings.TrimLeft(trimmed[3:], " \t\r\n")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = strings.TrimLeft(body[4:], " \t\r\n")
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}

func fallbackBack(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "No flashcards could be generated for this material."
	}
	return raw
}
