package httpapi_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/airmon/air-monitor-service/internal/backend"
	"github.com/airmon/air-monitor-service/internal/history"
	"github.com/airmon/air-monitor-service/internal/httpapi"
	"github.com/airmon/air-monitor-service/internal/livebuffer"
	"github.com/airmon/air-monitor-service/internal/model"
	"github.com/airmon/air-monitor-service/internal/snapshot"
	"github.com/airmon/air-monitor-service/internal/telemetry"
	"go.uber.org/zap"
)

const testTopic = "z2m/air-monitor"

// testStack wires the full service stack against a scripted backend.
type testStack struct {
	api          http.Handler
	live         *livebuffer.Buffer
	snapshots    *snapshot.Service
	backendCalls *int64
}

func newTestStack(t *testing.T, backendHandler http.HandlerFunc) *testStack {
	t.Helper()

	var calls int64
	backendSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		backendHandler(w, r)
	}))
	t.Cleanup(backendSrv.Close)

	logger := zap.NewNop()
	bc := backend.NewClient(backendSrv.URL, 5*time.Second, logger)
	live := livebuffer.NewBuffer(100)
	hs := history.NewService(bc, testTopic, logger)
	ss := snapshot.NewService(bc, logger)
	tc := telemetry.NewClient(telemetry.Config{
		BrokerURL: "tcp://broker.test:1883",
		Topic:     testTopic,
	}, live, logger, func(telemetry.Config, telemetry.ConnectionEvents) telemetry.Connection {
		return nopConn{}
	})
	t.Cleanup(tc.Close)

	server := httpapi.NewServer(0, live, tc, hs, ss, logger)
	return &testStack{api: server.Handler(), live: live, snapshots: ss, backendCalls: &calls}
}

type nopConn struct{}

func (nopConn) Connect() error                                         { return nil }
func (nopConn) Subscribe(string, byte, telemetry.MessageHandler) error { return nil }
func (nopConn) Disconnect(uint)                                        {}

func (ts *testStack) request(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.api.ServeHTTP(rec, req)
	return rec
}

func messagesJSON() string {
	return `[
		{"id": "m1", "timestamp": "2024-01-01T08:00:00.000Z", "topic": "z2m/air-monitor",
		 "deserializedPayload": {"timestamp": "2024-01-01T08:00:00.000Z", "co2": 510, "temperature": 21, "humidity": 40}},
		{"id": "m2", "timestamp": "2024-01-02T09:00:00.000Z", "topic": "z2m/air-monitor",
		 "deserializedPayload": {"timestamp": "2024-01-02T09:00:00.000Z", "co2": 530, "temperature": 21.5, "humidity": 41}}
	]`
}

func TestHistory_MissingFromRejectedBeforeBackend(t *testing.T) {
	stack := newTestStack(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[]`))
	})

	rec := stack.request(t, http.MethodGet, "/api/history?to=2024-01-02", "")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
	if atomic.LoadInt64(stack.backendCalls) != 0 {
		t.Errorf("Expected zero backend calls, got %d", atomic.LoadInt64(stack.backendCalls))
	}
}

func TestHistory_ReturnsRangeMessages(t *testing.T) {
	var gotStart, gotEnd string
	stack := newTestStack(t, func(w http.ResponseWriter, r *http.Request) {
		gotStart = r.URL.Query().Get("start")
		gotEnd = r.URL.Query().Get("end")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(messagesJSON()))
	})

	rec := stack.request(t, http.MethodGet, "/api/history?from=2024-01-01&to=2024-01-02", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotStart != "2024-01-01T00:00:00.000Z" || gotEnd != "2024-01-02T23:59:59.999Z" {
		t.Errorf("Unexpected interval sent to backend: [%s, %s]", gotStart, gotEnd)
	}

	var messages []model.Message
	if err := json.Unmarshal(rec.Body.Bytes(), &messages); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(messages) != 2 || messages[0].ID != "m1" {
		t.Errorf("Unexpected messages: %+v", messages)
	}
}

func TestHistory_BackendNotFoundMeansEmptyList(t *testing.T) {
	stack := newTestStack(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	rec := stack.request(t, http.MethodGet, "/api/history?from=2024-01-01", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 for empty range, got %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("Expected empty array, got %s", body)
	}
}

func TestHistory_BackendErrorSurfacesAsQueryFailure(t *testing.T) {
	stack := newTestStack(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"Message": "storage unavailable"}`))
	})

	rec := stack.request(t, http.MethodGet, "/api/history?from=2024-01-01", "")

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("Expected 502, got %d", rec.Code)
	}
	var apiErr httpapi.APIError
	if err := json.Unmarshal(rec.Body.Bytes(), &apiErr); err != nil {
		t.Fatalf("Failed to decode error body: %v", err)
	}
	if apiErr.Code != httpapi.ErrorCodeQueryFailed {
		t.Errorf("Expected query_failed code, got %s", apiErr.Code)
	}
	if !strings.Contains(apiErr.Message, "storage unavailable") {
		t.Errorf("Expected backend detail in message, got %q", apiErr.Message)
	}
}

func TestCreateSnapshot_EmptySetRejectedLocally(t *testing.T) {
	stack := newTestStack(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{}`))
	})

	rec := stack.request(t, http.MethodPost, "/api/snapshot", `{"title": "Empty", "description": ""}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
	if atomic.LoadInt64(stack.backendCalls) != 0 {
		t.Errorf("Expected zero backend calls, got %d", atomic.LoadInt64(stack.backendCalls))
	}
}

func TestCreateSnapshot_DefaultsToLastQueryResult(t *testing.T) {
	stack := newTestStack(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasPrefix(r.URL.Path, "/mqtt/"):
			w.Write([]byte(messagesJSON()))
		case r.Method == http.MethodPost && r.URL.Path == "/snapshots":
			var req struct {
				Messages []model.Message `json:"messages"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			if len(req.Messages) != 2 {
				t.Errorf("Expected snapshot created from 2 fetched messages, got %d", len(req.Messages))
			}
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id": "s1", "title": "From query", "description": "", "messages": []}`))
		default:
			t.Errorf("Unexpected backend request: %s %s", r.Method, r.URL.Path)
		}
	})

	if rec := stack.request(t, http.MethodGet, "/api/history?from=2024-01-01&to=2024-01-02", ""); rec.Code != http.StatusOK {
		t.Fatalf("History fetch failed: %d", rec.Code)
	}

	rec := stack.request(t, http.MethodPost, "/api/snapshot", `{"title": "From query", "description": ""}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestDeleteSnapshot_ClearsDisplayedDetail(t *testing.T) {
	stack := newTestStack(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(`{"id": "s1", "title": "One", "description": "", "messages": []}`))
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		}
	})

	if rec := stack.request(t, http.MethodGet, "/api/snapshot/s1", ""); rec.Code != http.StatusOK {
		t.Fatalf("Detail fetch failed: %d", rec.Code)
	}
	if stack.snapshots.CurrentDetail() == nil {
		t.Fatal("Expected detail held after fetch")
	}

	if rec := stack.request(t, http.MethodDelete, "/api/snapshot/s1", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d", rec.Code)
	}
	if stack.snapshots.CurrentDetail() != nil {
		t.Error("Expected displayed detail cleared after delete")
	}
}

func TestLiveReadings_ReportsStateAndWindow(t *testing.T) {
	stack := newTestStack(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{}`))
	})

	stack.live.Append(model.Reading{
		Timestamp: time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
		CO2:       615, Temperature: 21.2, Humidity: 38,
	})

	rec := stack.request(t, http.MethodGet, "/api/live/readings", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var resp struct {
		State    string          `json:"state"`
		Readings []model.Reading `json:"readings"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.State != "disconnected" {
		t.Errorf("Expected disconnected state before connect, got %q", resp.State)
	}
	if len(resp.Readings) != 1 || resp.Readings[0].CO2 != 615 {
		t.Errorf("Unexpected readings: %+v", resp.Readings)
	}
}
