package telemetry_test

import (
	"errors"
	"testing"
	"time"

	"github.com/airmon/air-monitor-service/internal/telemetry"
)

var receivedAt = time.Date(2024, 3, 10, 14, 30, 0, 0, time.UTC)

func TestDecodeReading_Valid(t *testing.T) {
	payload := []byte(`{"co2": 825, "temperature": 22.3, "humidity": 37.9}`)

	reading, err := telemetry.DecodeReading(payload, receivedAt)
	if err != nil {
		t.Fatalf("Failed to decode reading: %v", err)
	}

	if reading.CO2 != 825 {
		t.Errorf("Expected co2 825, got %v", reading.CO2)
	}
	if reading.Temperature != 22.3 {
		t.Errorf("Expected temperature 22.3, got %v", reading.Temperature)
	}
	if reading.Humidity != 37.9 {
		t.Errorf("Expected humidity 37.9, got %v", reading.Humidity)
	}
	if !reading.Timestamp.Equal(receivedAt) {
		t.Errorf("Expected arrival timestamp for unstamped payload, got %v", reading.Timestamp)
	}
}

func TestDecodeReading_ExplicitTimestamp(t *testing.T) {
	payload := []byte(`{"timestamp": "2024-03-10T12:00:00+02:00", "co2": 500, "temperature": 20, "humidity": 45}`)

	reading, err := telemetry.DecodeReading(payload, receivedAt)
	if err != nil {
		t.Fatalf("Failed to decode reading: %v", err)
	}

	expected := time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC)
	if !reading.Timestamp.Equal(expected) {
		t.Errorf("Expected timestamp normalized to UTC %v, got %v", expected, reading.Timestamp)
	}
}

func TestDecodeReading_MalformedJSON(t *testing.T) {
	_, err := telemetry.DecodeReading([]byte(`{"co2": `), receivedAt)

	var decodeErr *telemetry.DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("Expected DecodeError, got %v", err)
	}
}

func TestDecodeReading_MissingField(t *testing.T) {
	_, err := telemetry.DecodeReading([]byte(`{"co2": 600, "temperature": 21}`), receivedAt)

	var decodeErr *telemetry.DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("Expected DecodeError for missing humidity, got %v", err)
	}
}

func TestDecodeReading_OutOfBounds(t *testing.T) {
	payloads := []string{
		`{"co2": -5, "temperature": 21, "humidity": 40}`,
		`{"co2": 600, "temperature": 300, "humidity": 40}`,
		`{"co2": 600, "temperature": 21, "humidity": 140}`,
	}

	for _, payload := range payloads {
		_, err := telemetry.DecodeReading([]byte(payload), receivedAt)
		var decodeErr *telemetry.DecodeError
		if !errors.As(err, &decodeErr) {
			t.Errorf("Expected DecodeError for %s, got %v", payload, err)
		}
	}
}
