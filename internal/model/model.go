package model

import "time"

// Reading is a single environmental sample. Immutable once constructed;
// produced either by decoding an MQTT payload or from a stored Message.
type Reading struct {
	Timestamp   time.Time `json:"timestamp"`
	CO2         float64   `json:"co2"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
}

// Message is a stored broker message as the backend returns it. The backend
// owns these records; this service only reads and forwards them by id.
type Message struct {
	ID                  string    `json:"id"`
	Timestamp           time.Time `json:"timestamp"`
	Topic               string    `json:"topic"`
	DeserializedPayload Reading   `json:"deserializedPayload"`
}

// Snapshot is a named, persisted collection of Messages. Title and
// description are editable after creation; the message set is fixed.
type Snapshot struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Messages    []Message `json:"messages"`
}
