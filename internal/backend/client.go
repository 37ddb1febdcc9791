package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/airmon/air-monitor-service/internal/model"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Timestamps on the wire carry millisecond precision with an explicit UTC
// offset, matching what the backend stores.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// Client talks to the storage backend's REST surface. The backend is an
// opaque collaborator; this client only maps its responses into typed
// results and errors.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

// NewClient creates a backend client for the given base URL.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &Client{http: rc, logger: logger}
}

// errorBody is the backend's error envelope.
type errorBody struct {
	Message string `json:"Message"`
}

// detail extracts the backend's message from an error response body, or
// returns the empty string when the body has some other shape.
func detail(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return ""
	}
	return eb.Message
}

// MessagesByTimeRange fetches all stored messages on the topic whose
// timestamps fall inside [start, end]. A backend 404 means no data in
// range and yields an empty, non-nil slice rather than an error.
func (c *Client) MessagesByTimeRange(ctx context.Context, topic string, start, end time.Time) ([]model.Message, error) {
	var messages []model.Message

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("start", start.UTC().Format(timeLayout)).
		SetQueryParam("end", end.UTC().Format(timeLayout)).
		SetResult(&messages).
		Get(fmt.Sprintf("/mqtt/%s/messages-by-time-range", url.PathEscape(topic)))
	if err != nil {
		return nil, &QueryFailedError{Detail: err.Error()}
	}

	if resp.StatusCode() == http.StatusNotFound {
		c.logger.Debug("no messages in range",
			zap.String("topic", topic),
			zap.Time("start", start),
			zap.Time("end", end),
		)
		return []model.Message{}, nil
	}
	if resp.IsError() {
		return nil, &QueryFailedError{StatusCode: resp.StatusCode(), Detail: detail(resp.Body())}
	}

	if messages == nil {
		messages = []model.Message{}
	}
	return messages, nil
}

// createSnapshotRequest is the POST /snapshots body.
type createSnapshotRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Messages    []model.Message `json:"messages"`
}

// CreateSnapshot persists a new snapshot and returns the backend's record
// of it.
func (c *Client) CreateSnapshot(ctx context.Context, title, description string, messages []model.Message) (*model.Snapshot, error) {
	var created model.Snapshot

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(createSnapshotRequest{Title: title, Description: description, Messages: messages}).
		SetResult(&created).
		Post("/snapshots")
	if err != nil {
		return nil, &PersistenceError{Op: "create", Detail: err.Error()}
	}
	if resp.IsError() {
		return nil, &PersistenceError{Op: "create", StatusCode: resp.StatusCode(), Detail: detail(resp.Body())}
	}

	return &created, nil
}

// listEnvelope is the GET /snapshot response. The pointer distinguishes a
// present-but-empty list from a response missing the snapshots field.
type listEnvelope struct {
	Snapshots *[]model.Snapshot `json:"snapshots"`
}

// ListSnapshots returns all stored snapshots. A response without the
// expected snapshots field is reported and treated as zero results, never
// as an error.
func (c *Client) ListSnapshots(ctx context.Context) ([]model.Snapshot, error) {
	var envelope listEnvelope

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&envelope).
		Get("/snapshot")
	if err != nil {
		return nil, &PersistenceError{Op: "list", Detail: err.Error()}
	}
	if resp.IsError() {
		return nil, &PersistenceError{Op: "list", StatusCode: resp.StatusCode(), Detail: detail(resp.Body())}
	}

	if envelope.Snapshots == nil {
		c.logger.Warn("snapshot list response missing snapshots field",
			zap.Int("status", resp.StatusCode()),
		)
		return []model.Snapshot{}, nil
	}
	return *envelope.Snapshots, nil
}

// SnapshotDetail fetches one snapshot including its embedded messages.
func (c *Client) SnapshotDetail(ctx context.Context, id string) (*model.Snapshot, error) {
	var snap model.Snapshot

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&snap).
		Get("/snapshot/" + url.PathEscape(id))
	if err != nil {
		return nil, &PersistenceError{Op: "detail", Detail: err.Error()}
	}
	if resp.IsError() {
		return nil, &PersistenceError{Op: "detail", StatusCode: resp.StatusCode(), Detail: detail(resp.Body())}
	}

	return &snap, nil
}

// updateSnapshotRequest is the PUT /snapshot/{id} body. The message set is
// fixed at creation and cannot be replaced.
type updateSnapshotRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// UpdateSnapshot replaces a snapshot's title and description.
func (c *Client) UpdateSnapshot(ctx context.Context, id, title, description string) (*model.Snapshot, error) {
	var updated model.Snapshot

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(updateSnapshotRequest{Title: title, Description: description}).
		SetResult(&updated).
		Put("/snapshot/" + url.PathEscape(id))
	if err != nil {
		return nil, &PersistenceError{Op: "update", Detail: err.Error()}
	}
	if resp.IsError() {
		return nil, &PersistenceError{Op: "update", StatusCode: resp.StatusCode(), Detail: detail(resp.Body())}
	}

	return &updated, nil
}

// DeleteSnapshot removes a snapshot by id.
func (c *Client) DeleteSnapshot(ctx context.Context, id string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		Delete("/snapshot/" + url.PathEscape(id))
	if err != nil {
		return &PersistenceError{Op: "delete", Detail: err.Error()}
	}
	if resp.IsError() {
		return &PersistenceError{Op: "delete", StatusCode: resp.StatusCode(), Detail: detail(resp.Body())}
	}

	return nil
}
