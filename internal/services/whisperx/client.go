package whisperx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"whisperbatch/internal/services"
	"whisperbatch/internal/transcript"
)

const maxErrorBody = 4 << 10

type loadRequest struct {
	Kind        string `json:"kind"`
	Model       string `json:"model,omitempty"`
	Language    string `json:"language,omitempty"`
	Device      string `json:"device"`
	ComputeType string `json:"compute_type,omitempty"`
	Token       string `json:"token,omitempty"`
}

type loadResponse struct {
	Handle   string `json:"handle"`
	Metadata struct {
		Language string `json:"language"`
		Model    string `json:"model"`
	} `json:"metadata"`
}

type transcribeRequest struct {
	Handle    string `json:"handle"`
	Audio     string `json:"audio"`
	BatchSize int    `json:"batch_size,omitempty"`
	Language  string `json:"language,omitempty"`
}

type alignRequest struct {
	Handle               string               `json:"handle"`
	Audio                string               `json:"audio"`
	Segments             []transcript.Segment `json:"segments"`
	ReturnCharAlignments bool                 `json:"return_char_alignments"`
}

type alignResponse struct {
	Segments     []transcript.Segment `json:"segments"`
	WordSegments []transcript.Word    `json:"word_segments"`
}

type diarizeRequest struct {
	Handle      string `json:"handle"`
	Audio       string `json:"audio"`
	MinSpeakers int    `json:"min_speakers,omitempty"`
	MaxSpeakers int    `json:"max_speakers,omitempty"`
}

type diarizeResponse struct {
	Turns []transcript.SpeakerTurn `json:"turns"`
}

type handleRequest struct {
	Handle string `json:"handle"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// client speaks the worker's JSON protocol.
type client struct {
	base string
	http *http.Client
}

func newClient(base string, hc *http.Client) *client {
	return &client{base: strings.TrimRight(base, "/"), http: hc}
}

func (c *client) health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("worker health: status %d", resp.StatusCode)
	}
	return nil
}

func (c *client) load(ctx context.Context, req loadRequest) (loadResponse, error) {
	var out loadResponse
	if err := c.post(ctx, "/load", req, &out); err != nil {
		return out, err
	}
	if out.Handle == "" {
		return out, services.Wrap(services.ErrExternalTool, "models", "load "+req.Kind, "worker returned no model handle", nil)
	}
	return out, nil
}

func (c *client) transcribe(ctx context.Context, req transcribeRequest) (*transcript.Result, error) {
	var out transcript.Result
	if err := c.post(ctx, "/transcribe", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) align(ctx context.Context, req alignRequest) (alignResponse, error) {
	var out alignResponse
	err := c.post(ctx, "/align", req, &out)
	return out, err
}

func (c *client) diarize(ctx context.Context, req diarizeRequest) ([]transcript.SpeakerTurn, error) {
	var out diarizeResponse
	if err := c.post(ctx, "/diarize", req, &out); err != nil {
		return nil, err
	}
	return out.Turns, nil
}

func (c *client) unload(ctx context.Context, handle string) error {
	return c.post(ctx, "/unload", handleRequest{Handle: handle}, nil)
}

func (c *client) shutdown(ctx context.Context) error {
	return c.post(ctx, "/shutdown", struct{}{}, nil)
}

// post sends body as JSON and decodes a 2xx reply into out. Transport and
// worker failures wrap services.ErrExternalTool; cancellation is returned as is.
func (c *client) post(ctx context.Context, path string, body, out any) error {
	op := "worker " + strings.TrimPrefix(path, "/")
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return services.Wrap(services.ErrExternalTool, "models", op, "worker unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var e errorResponse
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return services.Wrap(services.ErrExternalTool, "models", op,
			fmt.Sprintf("status %d: %s", resp.StatusCode, msg), nil)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return services.Wrap(services.ErrExternalTool, "models", op, "invalid worker response", err)
	}
	return nil
}
