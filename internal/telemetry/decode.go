package telemetry

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/airmon/air-monitor-service/internal/model"
)

// Physical plausibility bounds for a decoded reading. Values outside these
// indicate a sensor or encoding fault and are discarded like malformed JSON.
const (
	minCO2         = 0
	maxCO2         = 40000
	minTemperature = -50
	maxTemperature = 100
	minHumidity    = 0
	maxHumidity    = 100
)

// DecodeError marks a single inbound payload that could not be turned into
// a Reading. It is never fatal to the connection; the message is dropped.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode reading: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("decode reading: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// wireReading is the raw payload shape. Pointer fields distinguish a
// missing key from a zero value so the schema can fail closed.
type wireReading struct {
	Timestamp   *time.Time `json:"timestamp"`
	CO2         *float64   `json:"co2"`
	Temperature *float64   `json:"temperature"`
	Humidity    *float64   `json:"humidity"`
}

// DecodeReading validates and deserializes one broker payload. The sensor
// does not stamp its samples, so a missing timestamp gets receivedAt.
func DecodeReading(payload []byte, receivedAt time.Time) (model.Reading, error) {
	var wire wireReading
	if err := json.Unmarshal(payload, &wire); err != nil {
		return model.Reading{}, &DecodeError{Reason: "malformed JSON", Err: err}
	}

	if wire.CO2 == nil || wire.Temperature == nil || wire.Humidity == nil {
		return model.Reading{}, &DecodeError{Reason: "missing co2, temperature or humidity field"}
	}

	if *wire.CO2 < minCO2 || *wire.CO2 > maxCO2 {
		return model.Reading{}, &DecodeError{Reason: fmt.Sprintf("co2 %.1f outside [%d, %d]", *wire.CO2, minCO2, maxCO2)}
	}
	if *wire.Temperature < minTemperature || *wire.Temperature > maxTemperature {
		return model.Reading{}, &DecodeError{Reason: fmt.Sprintf("temperature %.1f outside [%d, %d]", *wire.Temperature, minTemperature, maxTemperature)}
	}
	if *wire.Humidity < minHumidity || *wire.Humidity > maxHumidity {
		return model.Reading{}, &DecodeError{Reason: fmt.Sprintf("humidity %.1f outside [%d, %d]", *wire.Humidity, minHumidity, maxHumidity)}
	}

	ts := receivedAt.UTC()
	if wire.Timestamp != nil {
		ts = wire.Timestamp.UTC()
	}

	return model.Reading{
		Timestamp:   ts,
		CO2:         *wire.CO2,
		Temperature: *wire.Temperature,
		Humidity:    *wire.Humidity,
	}, nil
}
