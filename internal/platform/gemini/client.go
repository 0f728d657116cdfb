package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/tejaspachgade2315/Voosh/internal/platform/ctxutil"
	"github.com/tejaspachgade2315/Voosh/internal/platform/envutil"
	"github.com/tejaspachgade2315/Voosh/internal/platform/logger"
)

// Turn is one prior conversation turn. Role is "user" or "model".
type Turn struct {
	Role string
	Text string
}

// Client is the text-generation API client.
type Client interface {
	// GenerateText returns the full answer for a system instruction plus
	// ordered conversation turns ending with the user's message.
	GenerateText(ctx context.Context, system string, turns []Turn) (string, error)

	// StreamText forwards output deltas to onDelta as they arrive and
	// returns the concatenated answer once the stream completes.
	StreamText(ctx context.Context, system string, turns []Turn, onDelta func(delta string)) (string, error)
}

type client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewClient(log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	apiKey := strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	if apiKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY")
	}

	baseURL := strings.TrimSpace(os.Getenv("GEMINI_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	model := strings.TrimSpace(os.Getenv("GEMINI_MODEL"))
	if model == "" {
		model = "gemini-2.0-flash"
	}

	timeout := envutil.Seconds("GEMINI_TIMEOUT_SECONDS", 60*time.Second)

	return &client{
		log:        log.With("service", "GeminiClient"),
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type generatePart struct {
	Text string `json:"text"`
}

type generateContent struct {
	Role  string         `json:"role,omitempty"`
	Parts []generatePart `json:"parts"`
}

type generateRequest struct {
	SystemInstruction *generateContent  `json:"systemInstruction,omitempty"`
	Contents          []generateContent `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content generateContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (c *client) buildRequest(system string, turns []Turn) (generateRequest, error) {
	contents := make([]generateContent, 0, len(turns))
	for _, t := range turns {
		role := strings.TrimSpace(t.Role)
		if role != "user" && role != "model" {
			return generateRequest{}, fmt.Errorf("invalid turn role %q", t.Role)
		}
		contents = append(contents, generateContent{
			Role:  role,
			Parts: []generatePart{{Text: t.Text}},
		})
	}
	if len(contents) == 0 {
		return generateRequest{}, fmt.Errorf("at least one turn required")
	}

	req := generateRequest{Contents: contents}
	if s := strings.TrimSpace(system); s != "" {
		req.SystemInstruction = &generateContent{Parts: []generatePart{{Text: s}}}
	}
	return req, nil
}

func (c *client) GenerateText(ctx context.Context, system string, turns []Turn) (string, error) {
	reqBody, err := c.buildRequest(system, turns)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(reqBody); err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), http.MethodPost, url, &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", fmt.Errorf("gemini read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("gemini http status=%d body=%q", resp.StatusCode, truncate(raw, 512))
	}

	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("gemini decode response: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("gemini error status=%s: %s", out.Error.Status, out.Error.Message)
	}

	text := extractText(out)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("gemini returned no candidates")
	}
	return text, nil
}

func (c *client) StreamText(ctx context.Context, system string, turns []Turn, onDelta func(delta string)) (string, error) {
	reqBody, err := c.buildRequest(system, turns)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(reqBody); err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:streamGenerateContent?alt=sse", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), http.MethodPost, url, &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini stream request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("gemini http status=%d body=%q", resp.StatusCode, truncate(raw, 512))
	}

	var full strings.Builder
	err = streamSSE(resp.Body, func(_ string, data string) error {
		data = strings.TrimSpace(data)
		if data == "" || data == "[DONE]" {
			return nil
		}

		var chunk generateResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			// Non-JSON keepalive lines are skipped.
			return nil
		}
		if chunk.Error != nil {
			return fmt.Errorf("gemini stream error status=%s: %s", chunk.Error.Status, chunk.Error.Message)
		}

		delta := extractText(chunk)
		if delta == "" {
			return nil
		}
		full.WriteString(delta)
		if onDelta != nil {
			onDelta(delta)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(full.String()) == "" {
		return "", fmt.Errorf("gemini stream produced no output")
	}
	return full.String(), nil
}

func extractText(resp generateResponse) string {
	if len(resp.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

func truncate(raw []byte, n int) string {
	if len(raw) <= n {
		return string(raw)
	}
	return string(raw[:n]) + "..."
}
