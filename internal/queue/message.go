package queue

import (
	"encoding/json"
	"time"
)

// MessageVersion is the schema version written by this service.
const MessageVersion = 1

// Message is the payload sent to downstream queue consumers.
type Message struct {
	MaterialID  string `json:"materialId"`
	ContentType string `json:"contentType"`
	RequestID   string `json:"requestId"`
	EnqueuedAt  string `json:"enqueuedAt"`
	Version     int    `json:"version"`
}

// NewMessage stamps a job message for a material.
func NewMessage(materialID, contentType, requestID string, now time.Time) Message {
	return Message{
		MaterialID:  materialID,
		ContentType: contentType,
		RequestID:   requestID,
		EnqueuedAt:  now.UTC().Format(time.RFC3339),
		Version:     MessageVersion,
	}
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
