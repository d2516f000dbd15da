/*
PURPOSE:
  Client for OpenAI-compatible vision chat APIs.
  Sends one instruction plus one inline image and returns the cleaned text.

REQUIREMENTS:
  User-specified:
  - Fixed instruction, image as a data URI (data:<type>;base64,<payload>).
  - Strip every '*', '#' and space from the reply.
  - Any transport/auth/response failure is a per-image failure.

  Implementation-discovered:
  - Needs http.Client with timeouts.
  - Error bodies from the API are useful in the log; keep them short.
  - list-models needs GET /models against the same endpoint.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine (per image), internal/cli (list-models)
  - Uses: internal/config, internal/model

ERROR HANDLING:
  - Every failure is returned as *model.RecognitionError.
  - No retries. A failed image is logged and skipped by the caller.

IMPLEMENTATION RULES:
  - Use net/http.
  - Enforce timeouts (client and request context).
  - Safe for concurrent use.

USAGE:
  c := recognition.NewClient(cfg)
  text, err := c.Recognize(ctx, "scan.png", payload)

SELF-HEALING INSTRUCTIONS:
  - If the provider changes its response shape, update chatResponse.

RELATED FILES:
  - internal/recognition/recognizer.go
  - internal/model/types.go

MAINTENANCE:
  - Update for new chat completion features.
*/

package recognition

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/daryltucker/ocr-runner/internal/config"
	"github.com/daryltucker/ocr-runner/internal/model"
)

// Instruction is sent with every image.
const Instruction = "识别图片的文字："

// ErrNoText means the API answered without any text.
var ErrNoText = errors.New("response contained no text")

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type message struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Client talks to an OpenAI-compatible endpoint.
type Client struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
	HTTP    *http.Client
}

// NewClient creates a new Client from cfg.
func NewClient(cfg *config.Config) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	return &Client{
		BaseURL: strings.TrimRight(cfg.BaseURL, "/"),
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		Timeout: cfg.RequestTimeout,
		HTTP: &http.Client{
			Transport: transport,
			Timeout:   cfg.RequestTimeout,
		},
	}
}

func (c *Client) Name() string { return "openai" }

// Recognize sends one image and returns the cleaned reply text.
func (c *Client) Recognize(ctx context.Context, filename string, p model.Payload) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.Model,
		Messages: []message{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: Instruction},
				{Type: "image_url", ImageURL: &imageURL{URL: p.DataURI()}},
			},
		}},
	})
	if err != nil {
		return "", &model.RecognitionError{Filename: filename, Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", &model.RecognitionError{Filename: filename, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", &model.RecognitionError{Filename: filename, Err: fmt.Errorf("network/connection error: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &model.RecognitionError{Filename: filename, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &model.RecognitionError{
			Filename:   filename,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("server error (%s): %s", resp.Status, snippet(respBody)),
		}
	}

	var data chatResponse
	if err := json.Unmarshal(respBody, &data); err != nil {
		return "", &model.RecognitionError{Filename: filename, StatusCode: resp.StatusCode, Err: fmt.Errorf("invalid JSON: %w (body: %s)", err, snippet(respBody))}
	}
	if data.Error != nil && data.Error.Message != "" {
		return "", &model.RecognitionError{Filename: filename, StatusCode: resp.StatusCode, Err: fmt.Errorf("API error: %s", data.Error.Message)}
	}
	if len(data.Choices) == 0 || data.Choices[0].Message.Content == "" {
		return "", &model.RecognitionError{Filename: filename, StatusCode: resp.StatusCode, Err: ErrNoText}
	}

	return Clean(data.Choices[0].Message.Content), nil
}

// ListModels returns the model ids served by the endpoint, sorted.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/models", nil)
	if err != nil {
		return nil, err
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	var payload struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(payload.Data))
	for _, m := range payload.Data {
		names = append(names, m.ID)
	}
	sort.Strings(names)
	return names, nil
}

func snippet(b []byte) string {
	const limit = 300
	s := strings.TrimSpace(string(b))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
