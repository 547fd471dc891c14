package openrouter

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/reelcut/reelcut/internal/ports"
	"github.com/reelcut/reelcut/internal/types"
)

// Adapter asks a vision model to judge frames over the OpenRouter chat
// completions API. Every failure mode maps to *ports.OracleError so the
// scoring layer can count it against the failure budget instead of
// aborting the run.
type Adapter struct {
	key     string
	model   string
	baseURL string
	client  *http.Client
}

const requestTimeout = 90 * time.Second

func New(apiKey, model, baseURL string) *Adapter {
	if model == "" {
		model = "anthropic/claude-3.5-sonnet"
	}
	baseURL = normalizeBaseURL(baseURL)
	return &Adapter{key: apiKey, model: model, baseURL: baseURL, client: &http.Client{Timeout: 5 * time.Minute}}
}

func (a *Adapter) Evaluate(ctx context.Context, frame image.Image, objective types.Objective) (types.OracleResult, error) {
	return a.judge(ctx, frame, evaluatePrompt(objective))
}

func (a *Adapter) Describe(ctx context.Context, frame image.Image) (types.OracleResult, error) {
	return a.judge(ctx, frame, describePrompt)
}

const describePrompt = "Describe this video frame. " +
	"Return strictly valid JSON (no markdown, no code fences) matching the provided schema. " +
	"Set relevance to 5. In attributes, include a \"description\" entry with one or two sentences, " +
	"a \"keywords\" entry with comma-separated nouns and verbs visible in the frame, " +
	"and any other notable attribute as extra entries."

func evaluatePrompt(obj types.Objective) string {
	var want string
	switch {
	case obj.Example != nil && len(obj.Example.Keywords) > 0:
		want = "content featuring: " + strings.Join(obj.Example.Keywords, ", ")
	case obj.Example != nil && obj.Example.Description != "":
		want = "content similar to: " + obj.Example.Description
	case obj.Example != nil:
		want = "visually distinctive, eventful content"
	default:
		want = obj.Prompt
	}
	if obj.Example != nil && obj.Prompt != "" {
		want = obj.Prompt + ", and " + want
	}
	return "Rate how well this video frame matches the request: " + want + ". " +
		"Return strictly valid JSON (no markdown, no code fences) matching the provided schema. " +
		"Set relevance to an integer from 0 (no match) to 10 (perfect match). " +
		"In attributes, include a \"description\" entry describing what is visible " +
		"and a \"keywords\" entry with comma-separated terms for the visible content."
}

func (a *Adapter) judge(ctx context.Context, frame image.Image, prompt string) (types.OracleResult, error) {
	dataURL, err := encodeFrame(frame)
	if err != nil {
		return types.OracleResult{}, ports.Oraclef(err, "encode frame")
	}

	payload := map[string]any{
		"model":  a.model,
		"stream": false,
		"messages": []map[string]any{
			{
				"role": "user",
				"content": []map[string]any{
					{"type": "text", "text": prompt},
					{"type": "image_url", "image_url": map[string]any{"url": dataURL}},
				},
			},
		},
		"response_format": map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name": "frame_judgment",
				"schema": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"relevance": map[string]any{"type": "number"},
						"attributes": map[string]any{
							"type":                 "object",
							"additionalProperties": map[string]any{"type": "string"},
						},
					},
					"required": []string{"relevance", "attributes"},
				},
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return types.OracleResult{}, ports.Oraclef(err, "marshal request")
	}

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, "POST", a.baseURL+"/api/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return types.OracleResult{}, ports.Oraclef(err, "build request")
	}
	req.Header.Set("Authorization", "Bearer "+a.key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return types.OracleResult{}, ports.Oraclef(nil, "timeout after %s (model=%s)", requestTimeout, a.model)
		}
		return types.OracleResult{}, ports.Oraclef(err, "request failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return types.OracleResult{}, ports.Oraclef(readErr, "status %d and read body failed", resp.StatusCode)
		}
		return types.OracleResult{}, ports.Oraclef(nil, "status %d: %s", resp.StatusCode, truncate(redactSecrets(string(rb), a.key), 400))
	}

	var raw struct {
		Choices []struct {
			Message struct {
				Content any `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return types.OracleResult{}, ports.Oraclef(err, "decode response")
	}
	if len(raw.Choices) == 0 {
		return types.OracleResult{}, ports.Oraclef(nil, "no choices in response")
	}

	content, err := messageContentToString(raw.Choices[0].Message.Content)
	if err != nil {
		return types.OracleResult{}, ports.Oraclef(err, "unreadable content")
	}
	clean, err := extractJSONObject(content)
	if err != nil {
		return types.OracleResult{}, ports.Oraclef(err, "no JSON in content")
	}
	return parseJudgment(clean)
}

// parseJudgment reads the model's JSON leniently. Models occasionally
// nest attributes oddly or return relevance as a string; gjson tolerates
// both.
func parseJudgment(s string) (types.OracleResult, error) {
	if !gjson.Valid(s) {
		return types.OracleResult{}, ports.Oraclef(nil, "invalid JSON: %s", truncate(s, 200))
	}
	rel := gjson.Get(s, "relevance")
	if !rel.Exists() {
		return types.OracleResult{}, ports.Oraclef(nil, "missing relevance: %s", truncate(s, 200))
	}
	res := types.OracleResult{Relevance: rel.Float()}
	if res.Relevance < 0 {
		res.Relevance = 0
	}
	if res.Relevance > 10 {
		res.Relevance = 10
	}

	attrs := gjson.Get(s, "attributes")
	if attrs.IsObject() {
		res.Attributes = make(map[string]string)
		attrs.ForEach(func(k, v gjson.Result) bool {
			res.Attributes[k.String()] = v.String()
			return true
		})
	}
	return res, nil
}

func encodeFrame(frame image.Image) (string, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame, &jpeg.Options{Quality: 85}); err != nil {
		return "", err
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func messageContentToString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case []any:
		// Some providers return an array of {type,text} parts.
		var b strings.Builder
		for _, it := range x {
			m, ok := it.(map[string]any)
			if !ok {
				continue
			}
			if t, ok := m["text"].(string); ok {
				b.WriteString(t)
			}
		}
		s := b.String()
		if strings.TrimSpace(s) == "" {
			return "", errors.New("openrouter: empty content")
		}
		return s, nil
	default:
		return "", fmt.Errorf("openrouter: unexpected content type %T", v)
	}
}

func extractJSONObject(s string) (string, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return "", errors.New("openrouter: empty content")
	}

	// Strip markdown code fences.
	if strings.HasPrefix(t, "```") {
		if i := strings.Index(t, "\n"); i >= 0 {
			t = t[i+1:]
		}
		if j := strings.LastIndex(t, "```"); j >= 0 {
			t = t[:j]
		}
		t = strings.TrimSpace(t)
	}

	// Best-effort: take the first JSON object found.
	start := strings.Index(t, "{")
	end := strings.LastIndex(t, "}")
	if start >= 0 && end > start {
		return t[start : end+1], nil
	}

	return "", fmt.Errorf("openrouter: could not locate JSON object in: %q", truncate(t, 200))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

var (
	bearerTokenRE = regexp.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9._-]+\b`)
	authHeaderRE  = regexp.MustCompile(`(?i)(authorization\s*[:=]\s*)([^\n\r,;]+)`)
	apiKeyFieldRE = regexp.MustCompile(`(?i)(api[_-]?key\s*[:=]\s*)([^\n\r,;]+)`)
)

func redactSecrets(s, apiKey string) string {
	if s == "" {
		return s
	}
	out := s
	if apiKey != "" {
		out = strings.ReplaceAll(out, apiKey, "[REDACTED]")
	}
	out = bearerTokenRE.ReplaceAllString(out, "Bearer [REDACTED]")
	out = authHeaderRE.ReplaceAllString(out, "${1}[REDACTED]")
	out = apiKeyFieldRE.ReplaceAllString(out, "${1}[REDACTED]")
	return out
}
