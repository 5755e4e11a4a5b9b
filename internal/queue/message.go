package queue

import "encoding/json"

// MessageVersion is the current payload schema version.
const MessageVersion = 1

// Message asks a worker to batch-score every referral of a job.
type Message struct {
	OrganizationID  string `json:"organizationId"`
	JobID           string `json:"jobId"`
	Status          string `json:"status,omitempty"`
	DisableSemantic bool   `json:"disableSemantic,omitempty"`
	RequestID       string `json:"requestId"`
	EnqueuedAt      string `json:"enqueuedAt"`
	Attempt         int    `json:"attempt,omitempty"`
	Version         int    `json:"version"`
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
