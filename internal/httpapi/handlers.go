package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/airmon/air-monitor-service/internal/history"
	"github.com/airmon/air-monitor-service/internal/model"
	"github.com/airmon/air-monitor-service/tools/dateparse"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// liveReadingsResponse pairs the window contents with the connection state
// so the dashboard can tell "no data yet" from "feed is down".
type liveReadingsResponse struct {
	State    string          `json:"state"`
	Readings []model.Reading `json:"readings"`
}

func (s *Server) handleLiveReadings(w http.ResponseWriter, _ *http.Request) {
	s.respondWithJSON(w, http.StatusOK, liveReadingsResponse{
		State:    s.telemetry.State().String(),
		Readings: s.live.Snapshot(),
	})
}

// parseDateParam reads an optional calendar-date query parameter. A present
// but unparseable value is a client error.
func parseDateParam(r *http.Request, name string) (*time.Time, *APIError) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := dateparse.ParseDate(raw)
	if err != nil {
		return nil, &APIError{
			Code:       ErrorCodeBadRequest,
			Message:    name + " is not a valid date: " + raw,
			StatusCode: http.StatusBadRequest,
		}
	}
	return &t, nil
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	from, apiErr := parseDateParam(r, "from")
	if apiErr != nil {
		s.respondWithAPIError(w, *apiErr)
		return
	}
	if from == nil {
		s.respondWithAPIError(w, APIError{
			Code:       ErrorCodeMissingParam,
			Message:    "from is required",
			StatusCode: http.StatusBadRequest,
		})
		return
	}
	to, apiErr := parseDateParam(r, "to")
	if apiErr != nil {
		s.respondWithAPIError(w, *apiErr)
		return
	}

	res, err := s.history.Fetch(r.Context(), history.DateRange{From: from, To: to})
	if err != nil {
		s.respondWithError(w, err)
		return
	}
	if !s.history.Apply(res) {
		s.logger.Debug("superseded history fetch served without updating state",
			zap.Uint64("token", res.Token),
		)
	}
	s.respondWithJSON(w, http.StatusOK, res.Messages)
}

// createSnapshotRequest is the POST /api/snapshot body. Messages may be
// omitted, in which case the last successful historical query is captured.
type createSnapshotRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Messages    []model.Message `json:"messages"`
}

func (s *Server) handleCreateSnapshot(w http.ResponseWriter, r *http.Request) {
	var req createSnapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithAPIError(w, APIError{
			Code:       ErrorCodeBadRequest,
			Message:    "invalid request payload",
			StatusCode: http.StatusBadRequest,
		})
		return
	}
	defer r.Body.Close()

	messages := req.Messages
	if len(messages) == 0 {
		messages = s.history.Current()
	}

	created, err := s.snapshots.Create(r.Context(), req.Title, req.Description, messages)
	if err != nil {
		s.respondWithError(w, err)
		return
	}
	s.respondWithJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	snaps, err := s.snapshots.List(r.Context())
	if err != nil {
		s.respondWithError(w, err)
		return
	}
	s.respondWithJSON(w, http.StatusOK, map[string]interface{}{"snapshots": snaps})
}

func (s *Server) handleSnapshotDetail(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	snap, err := s.snapshots.Detail(r.Context(), id)
	if err != nil {
		s.respondWithError(w, err)
		return
	}
	s.respondWithJSON(w, http.StatusOK, snap)
}

// updateSnapshotRequest is the PUT /api/snapshot/{id} body. Only title and
// description are editable; the message set is fixed at creation.
type updateSnapshotRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (s *Server) handleUpdateSnapshot(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req updateSnapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithAPIError(w, APIError{
			Code:       ErrorCodeBadRequest,
			Message:    "invalid request payload",
			StatusCode: http.StatusBadRequest,
		})
		return
	}
	defer r.Body.Close()

	updated, err := s.snapshots.Update(r.Context(), id, req.Title, req.Description)
	if err != nil {
		s.respondWithError(w, err)
		return
	}
	s.respondWithJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.snapshots.Delete(r.Context(), id); err != nil {
		s.respondWithError(w, err)
		return
	}
	s.respondWithJSON(w, http.StatusNoContent, nil)
}
