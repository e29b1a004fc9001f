package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/resume-form-filler/internal/core/domain"
)

// pointNamespace derives stable point ids from chunk ids, so re-upserting a
// chunk overwrites its point instead of duplicating it.
var pointNamespace = uuid.MustParse("6f1c5b8e-4d0a-4c55-9a53-0b9f0e0d7a11")

type Client struct {
	baseURL    string
	collection string
	httpClient *http.Client

	ensureMu          sync.Mutex
	ensuredCollection bool
	ensuredVectorSize int
}

func New(baseURL, collection string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

func (c *Client) Upsert(ctx context.Context, sessionID string, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	points := make([]point, 0, len(chunks))
	for _, chunk := range chunks {
		if chunk.SessionID != sessionID {
			return domain.WrapError(domain.ErrInvalidInput, "qdrant upsert", fmt.Errorf("chunk %s belongs to session %s", chunk.ID, chunk.SessionID))
		}
		if len(chunk.Vector) == 0 {
			return domain.WrapError(domain.ErrInvalidInput, "qdrant upsert", fmt.Errorf("chunk %s has no vector", chunk.ID))
		}
		points = append(points, point{
			ID:     uuid.NewSHA1(pointNamespace, []byte(chunk.ID)).String(),
			Vector: chunk.Vector,
			Payload: map[string]any{
				"session_id": chunk.SessionID,
				"chunk_id":   chunk.ID,
				"text":       chunk.Text,
				"start":      chunk.Start,
				"end":        chunk.End,
				"section":    chunk.Section.String(),
				"priority":   chunk.Priority,
			},
		})
	}

	if err := c.ensureCollection(ctx, len(points[0].Vector)); err != nil {
		return err
	}

	url := fmt.Sprintf("%s/collections/%s/points?wait=true", c.baseURL, c.collection)
	return c.do(ctx, http.MethodPut, url, map[string]any{"points": points}, nil, "upsert")
}

func (c *Client) Search(
	ctx context.Context,
	sessionID string,
	queryVector []float32,
	limit int,
	filter domain.SearchFilter,
) ([]domain.ScoredChunk, error) {
	if limit <= 0 {
		return nil, nil
	}
	reqBody := map[string]any{
		"vector":       queryVector,
		"limit":        limit,
		"with_payload": true,
		"filter":       sessionFilter(sessionID, filter),
	}

	var searchResp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, c.collection)
	if err := c.do(ctx, http.MethodPost, url, reqBody, &searchResp, "search"); err != nil {
		return nil, err
	}

	out := make([]domain.ScoredChunk, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		chunk := chunkFromPayload(r.Payload)
		// The payload filter is the primary guard; this catches misconfigured collections.
		if chunk.SessionID != sessionID {
			continue
		}
		out = append(out, domain.ScoredChunk{Chunk: chunk, Score: r.Score})
	}
	return out, nil
}

func (c *Client) DropSession(ctx context.Context, sessionID string) error {
	url := fmt.Sprintf("%s/collections/%s/points/delete?wait=true", c.baseURL, c.collection)
	err := c.do(ctx, http.MethodPost, url, map[string]any{
		"filter": sessionFilter(sessionID, domain.SearchFilter{}),
	}, nil, "delete")
	var statusErr *statusError
	if asStatusError(err, &statusErr) && statusErr.code == http.StatusNotFound {
		return nil
	}
	return err
}

func (c *Client) Name() string   { return "qdrant" }
func (c *Client) Critical() bool { return true }

// Ping is used by the health check.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/collections", nil)
	if err != nil {
		return fmt.Errorf("create qdrant ping request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant ping: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant ping status: %s", resp.Status)
	}
	return nil
}

func sessionFilter(sessionID string, filter domain.SearchFilter) map[string]any {
	must := []map[string]any{
		{"key": "session_id", "match": map[string]any{"value": sessionID}},
	}
	if filter.PriorityOnly {
		must = append(must, map[string]any{"key": "priority", "match": map[string]any{"value": true}})
	}
	return map[string]any{"must": must}
}

func (c *Client) ensureCollection(ctx context.Context, vectorSize int) error {
	c.ensureMu.Lock()
	if c.ensuredCollection && c.ensuredVectorSize == vectorSize {
		c.ensureMu.Unlock()
		return nil
	}
	c.ensureMu.Unlock()

	reqBody := map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	}
	url := fmt.Sprintf("%s/collections/%s", c.baseURL, c.collection)
	err := c.do(ctx, http.MethodPut, url, reqBody, nil, "ensure collection")

	// 409 means the collection already exists.
	var statusErr *statusError
	if err != nil && !(asStatusError(err, &statusErr) && statusErr.code == http.StatusConflict) {
		return err
	}
	c.markCollectionEnsured(vectorSize)
	return nil
}

func (c *Client) markCollectionEnsured(vectorSize int) {
	c.ensureMu.Lock()
	defer c.ensureMu.Unlock()
	c.ensuredCollection = true
	c.ensuredVectorSize = vectorSize
}

func (c *Client) do(ctx context.Context, method, url string, payload any, out any, operation string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s body: %w", operation, err)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &statusError{operation: operation, code: resp.StatusCode, status: resp.Status, body: strings.TrimSpace(string(raw))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

func chunkFromPayload(payload map[string]any) domain.Chunk {
	section, _ := domain.ParseSection(getStringPayload(payload, "section"))
	priority, _ := payload["priority"].(bool)
	return domain.Chunk{
		ID:        getStringPayload(payload, "chunk_id"),
		SessionID: getStringPayload(payload, "session_id"),
		Text:      getStringPayload(payload, "text"),
		Start:     getIntPayload(payload, "start"),
		End:       getIntPayload(payload, "end"),
		Section:   section,
		Priority:  priority,
	}
}

func getStringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func getIntPayload(payload map[string]any, key string) int {
	switch v := payload[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}
