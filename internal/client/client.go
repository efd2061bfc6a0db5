package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"trackbot-be/internal/dto"
)

// APIError is a non-2xx reply. Message is the server's message verbatim.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Client talks to the trackbot REST API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New returns a client for baseURL, e.g. http://localhost:3000/api.
// LLM calls can be slow, hence the generous timeout.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 5 * time.Minute},
	}
}

func (c *Client) CreateSession(ctx context.Context) (*dto.CreateTrackSessionResponse, error) {
	var out dto.CreateTrackSessionResponse
	if _, err := c.do(ctx, http.MethodPost, "/trackbot/v1/sessions", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Show(ctx context.Context, sessionID string) (*dto.ShowTrackSessionResponse, error) {
	var out dto.ShowTrackSessionResponse
	if _, err := c.do(ctx, http.MethodGet, "/trackbot/v1/sessions/"+sessionID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Send(ctx context.Context, sessionID, text string) (*dto.SendMessageResponse, error) {
	var out dto.SendMessageResponse
	body := dto.SendMessageRequest{Text: text}
	if _, err := c.do(ctx, http.MethodPost, "/trackbot/v1/sessions/"+sessionID+"/messages", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Reset(ctx context.Context, sessionID string) (*dto.ShowTrackSessionResponse, error) {
	var out dto.ShowTrackSessionResponse
	if _, err := c.do(ctx, http.MethodDelete, "/trackbot/v1/sessions/"+sessionID+"/data", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Save returns the server message, which on success is the saved notice.
func (c *Client) Save(ctx context.Context, sessionID string) (string, error) {
	var out dto.SaveRecordResponse
	if _, err := c.do(ctx, http.MethodPost, "/trackbot/v1/sessions/"+sessionID+"/save", nil, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *Client) GenerateDocument(ctx context.Context, sessionID, kind string) (*dto.GeneratedDocumentResponse, error) {
	var out dto.GeneratedDocumentResponse
	if _, err := c.do(ctx, http.MethodPost, "/trackbot/v1/sessions/"+sessionID+"/documents/"+kind, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Ingest(ctx context.Context, source, content string, async bool) (*dto.IngestKnowledgeResponse, error) {
	var out dto.IngestKnowledgeResponse
	body := dto.IngestKnowledgeRequest{Source: source, Content: content, Async: async}
	if _, err := c.do(ctx, http.MethodPost, "/knowledge/v1", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) (string, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return "", err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= 300 {
			return "", &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		}
		return "", fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode >= 300 || !env.Success {
		return "", &APIError{Status: resp.StatusCode, Message: env.Message}
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return "", fmt.Errorf("decode data: %w", err)
		}
	}
	return env.Message, nil
}
