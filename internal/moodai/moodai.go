// Package moodai turns free-text mood descriptions into scored mood labels
// using a locally running Ollama chat model.
package moodai

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
)

const (
	// DefaultBaseURL is the standard local Ollama address.
	DefaultBaseURL = "http://localhost:11434"

	// DefaultModel is the chat model used when none is configured.
	DefaultModel = "llama3.2"

	chatPath = "/api/chat"
)

// ErrUnavailable is returned when the Ollama server cannot be reached or
// rejects the request.
var ErrUnavailable = errors.New("moodai: model unavailable")

// defaultLabels are the mood labels the classifier is prompted with when
// the caller does not supply its own set.
var defaultLabels = []string{"happy", "sad", "calm", "energetic", "focus", "party"}

// LabelScore is one mood label with the model's confidence in [0, 1].
type LabelScore struct {
	Label string
	Score float64
}

// Config controls the classifier client.
type Config struct {
	BaseURL string   // Ollama server, default DefaultBaseURL
	Model   string   // chat model name, default DefaultModel
	Labels  []string // permitted labels, default the six mood presets
}

// Client is an Ollama-backed mood classifier.
type Client struct {
	httpClient *http.Client
	baseURL    string
	model      string
	labels     []string
}

// NewClient creates a classifier client from the provided configuration.
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	labels := cfg.Labels
	if len(labels) == 0 {
		labels = defaultLabels
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		labels:  labels,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format,omitempty"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Error   string      `json:"error,omitempty"`
}

// classification is the JSON shape the model is instructed to produce.
type classification struct {
	Labels []string  `json:"labels"`
	Scores []float64 `json:"scores"`
}

// ClassifyMood scores text against the configured mood labels and returns
// them sorted by descending score. Labels the model invents are dropped.
// When the model answers with unusable output the neutral fallback (the
// "calm" label at score 1.0) is returned instead of an error, so a flaky
// local model still yields a workable mood. Transport and server failures
// are errors.
func (c *Client) ClassifyMood(ctx context.Context, text string) ([]LabelScore, error) {
	content, err := c.chat(ctx, chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: c.systemPrompt()},
			{Role: "user", Content: text},
		},
		Stream: false,
		Format: "json",
	})
	if err != nil {
		return nil, err
	}

	parsed, ok := parseClassification(content)
	if !ok {
		return c.fallback(), nil
	}

	scores := make([]LabelScore, 0, len(parsed.Labels))
	for i, label := range parsed.Labels {
		if i >= len(parsed.Scores) {
			break
		}
		label = strings.ToLower(strings.TrimSpace(label))
		if !c.knownLabel(label) {
			continue
		}
		scores = append(scores, LabelScore{Label: label, Score: parsed.Scores[i]})
	}
	if len(scores) == 0 {
		return c.fallback(), nil
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})
	return scores, nil
}

// Labels returns the label set the classifier is prompted with.
func (c *Client) Labels() []string {
	out := make([]string, len(c.labels))
	copy(out, c.labels)
	return out
}

func (c *Client) systemPrompt() string {
	return "You are a mood classifier. " +
		"Given the user's description of their mood or context, " +
		"choose scores for these labels: " + strings.Join(c.labels, ", ") + ".\n" +
		"Respond ONLY with a JSON object of the form:\n" +
		"{\"labels\": [\"happy\"], \"scores\": [0.9]}\n" +
		"Scores must be between 0 and 1."
}

func (c *Client) knownLabel(label string) bool {
	for _, l := range c.labels {
		if strings.EqualFold(l, label) {
			return true
		}
	}
	return false
}

func (c *Client) fallback() []LabelScore {
	label := "calm"
	if !c.knownLabel(label) {
		label = c.labels[0]
	}
	return []LabelScore{{Label: label, Score: 1.0}}
}

// parseClassification decodes the model's message content. Models sometimes
// wrap the JSON object in prose, so a brace-delimited substring is tried
// before giving up.
func parseClassification(content string) (classification, bool) {
	var parsed classification
	if err := json.Unmarshal([]byte(content), &parsed); err == nil {
		return parsed, len(parsed.Labels) > 0
	}

	first := strings.Index(content, "{")
	last := strings.LastIndex(content, "}")
	if first == -1 || last <= first {
		return classification{}, false
	}
	if err := json.Unmarshal([]byte(content[first:last+1]), &parsed); err != nil {
		return classification{}, false
	}
	return parsed, len(parsed.Labels) > 0
}

// chat performs one non-streaming chat call and returns the assistant
// message content.
func (c *Client) chat(ctx context.Context, payload chatRequest) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatPath, bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var cr chatResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return "", fmt.Errorf("parsing chat response: %w", err)
	}
	if cr.Error != "" {
		return "", fmt.Errorf("%w: %s", ErrUnavailable, cr.Error)
	}
	return cr.Message.Content, nil
}
