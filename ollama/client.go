package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/invopop/jsonschema"

	"github.com/randalmurphal/hybrid/backend"
)

// Client implements backend.Backend against a local Ollama server.
type Client struct {
	cfg  Config
	http *http.Client

	// diffSchema is the reflected reply schema, built once when
	// structured output is enabled.
	diffSchema json.RawMessage
}

// generateRequest is the /api/generate request body.
type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Options map[string]any  `json:"options,omitempty"`
	Stream  bool            `json:"stream"`
	Format  json.RawMessage `json:"format,omitempty"`
}

// generateResponse is the /api/generate response body.
type generateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// diffReply is the structured-output payload. Its reflected JSON schema is
// sent in the "format" field so the model must answer with this shape.
type diffReply struct {
	Diff string `json:"diff" jsonschema:"description=A unified diff and nothing else"`
	Note string `json:"note,omitempty" jsonschema:"description=Optional one-line remark"`
}

// NewClient creates a new Ollama client.
func NewClient(opts ...Option) *Client {
	c := &Client{cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(c)
	}
	c.init()
	return c
}

// NewClientWithConfig creates a new Ollama client from a Config.
func NewClientWithConfig(cfg Config) *Client {
	c := &Client{cfg: cfg.WithDefaults()}
	c.init()
	return c
}

func (c *Client) init() {
	// Per-request timeouts come from context; the http.Client itself has
	// no deadline so a longer explicit Request.Timeout is honored.
	c.http = &http.Client{}

	if c.cfg.StructuredOutput {
		reflector := jsonschema.Reflector{DoNotReference: true}
		schema := reflector.Reflect(&diffReply{})
		if data, err := json.Marshal(schema); err == nil {
			c.diffSchema = data
		}
	}
}

// Name implements backend.Backend.
func (c *Client) Name() string {
	return "ollama"
}

// Generate implements backend.Backend.
func (c *Client) Generate(ctx context.Context, req backend.Request) (*backend.Reply, error) {
	model := req.Model
	if model == "" {
		model = c.cfg.Model
	}
	model = PickModel(model)

	timeout := req.Timeout
	if timeout == 0 {
		timeout = c.cfg.Timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	body := generateRequest{
		Model:   model,
		Prompt:  req.Prompt,
		Options: map[string]any{"temperature": c.cfg.Temperature},
		Stream:  false,
		Format:  c.diffSchema,
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, backend.NewError("ollama", "generate", err, false)
	}

	url := fmt.Sprintf("http://%s/api/generate", c.cfg.Host)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, backend.NewError("ollama", "generate", err, false)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backend.NewError("ollama", "generate",
				fmt.Errorf("%w: %v", backend.ErrTimeout, ctx.Err()), true)
		}
		return nil, backend.NewError("ollama", "generate",
			fmt.Errorf("%w: %v", backend.ErrUnavailable, err), true)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, backend.NewError("ollama", "generate", fmt.Errorf("read response: %w", err), true)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, backend.NewError("ollama", "generate",
			fmt.Errorf("%w: status %d: %s", backend.ErrUnavailable, resp.StatusCode, strings.TrimSpace(string(raw))),
			resp.StatusCode >= 500)
	}

	gen, err := parseGenerateResponse(raw)
	if err != nil {
		return nil, backend.NewError("ollama", "generate", err, false)
	}
	if gen.Error != "" {
		return nil, backend.NewError("ollama", "generate", errors.New(gen.Error), false)
	}

	text := strings.TrimSpace(gen.Response)
	if c.cfg.StructuredOutput && text != "" {
		text = unwrapStructured(text)
	}
	if text == "" {
		return nil, backend.NewError("ollama", "generate", backend.ErrEmptyOutput, true)
	}

	replyModel := gen.Model
	if replyModel == "" {
		replyModel = model
	}

	return &backend.Reply{
		Text:     text,
		Model:    replyModel,
		Duration: time.Since(start),
	}, nil
}

// parseGenerateResponse decodes the response body, tolerating NDJSON by
// falling back to the last non-empty line.
func parseGenerateResponse(raw []byte) (*generateResponse, error) {
	var gen generateResponse
	if err := json.Unmarshal(raw, &gen); err == nil {
		return &gen, nil
	}

	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		if err := json.Unmarshal([]byte(line), &gen); err != nil {
			return nil, fmt.Errorf("parse response: %w", err)
		}
		return &gen, nil
	}
	return nil, errors.New("parse response: no JSON document found")
}

// unwrapStructured extracts the diff text from a structured reply.
// Falls back to the raw text when it does not parse as the expected shape.
func unwrapStructured(text string) string {
	var reply diffReply
	if err := json.Unmarshal([]byte(text), &reply); err != nil {
		return text
	}
	if reply.Diff == "" {
		return text
	}
	return strings.TrimSpace(reply.Diff)
}
