package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"eventscout/internal/model"
)

// Provider is one LLM backend for event refinement.
type Provider interface {
	// Name returns the provider name
	Name() string

	// Refine turns raw page text into structured event fields
	Refine(ctx context.Context, req RefineRequest) (*RefineResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// RefineRequest is the input for one refinement call.
type RefineRequest struct {
	// Text is the visible page text (already truncated by the caller)
	Text string

	// SourceURL is included in the prompt for context
	SourceURL string

	// Model overrides the configured model when set
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// RefineResponse carries the structured fields the model produced.
type RefineResponse struct {
	Fields     RefinedFields
	Model      string
	TokensUsed int
}

// RefinedFields is the JSON contract the model is asked to fill.
// Times are RFC 3339 strings; empty means unknown.
type RefinedFields struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	StartTime   string   `json:"start_time"`
	EndTime     string   `json:"end_time"`
	Speakers    []string `json:"speakers"`
	Sponsors    []string `json:"sponsors"`
}

// Config holds LLM provider configuration.
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests, seconds
	Timeout int

	// MaxTokens for response generation
	MaxTokens int
}

// DefaultConfig returns sensible defaults (provider disabled).
func DefaultConfig() Config {
	return Config{
		Provider:  "",
		Timeout:   30,
		MaxTokens: 1000,
	}
}

const systemPrompt = "You extract event details from web page text. Respond with a single JSON object and nothing else."

// BuildPrompt constructs the refinement prompt.
func BuildPrompt(text, sourceURL string) string {
	return fmt.Sprintf(`Extract the event described by this page into JSON with exactly these keys:
{"name": "", "description": "", "location": "", "start_time": "", "end_time": "", "speakers": [], "sponsors": []}

Rules:
- start_time/end_time are RFC 3339 timestamps, or "" if the page does not state them.
- description is at most two sentences taken from the page, not invented.
- speakers/sponsors list only names the page mentions; use [] when none.
- Leave any field you cannot find empty. Never guess.

Page URL: %s

Page text:
%s`, sourceURL, text)
}

// ParseFields extracts the JSON object from a model response, tolerating
// surrounding prose and markdown code fences.
func ParseFields(response string) (RefinedFields, error) {
	var fields RefinedFields

	cleaned := strings.TrimSpace(response)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return fields, fmt.Errorf("no JSON object in response")
	}

	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &fields); err != nil {
		return fields, fmt.Errorf("decode fields: %w", err)
	}
	return fields, nil
}

// Apply merges refined fields into an event, filling only gaps: parser
// output from the page always wins over model output.
func (f RefinedFields) Apply(ev *model.Event) {
	if ev.Name == "" {
		ev.Name = strings.TrimSpace(f.Name)
	}
	if ev.Description == "" {
		ev.Description = strings.TrimSpace(f.Description)
	}
	if ev.Location == "" {
		ev.Location = strings.TrimSpace(f.Location)
	}
	if ev.StartTime == nil {
		ev.StartTime = parseRFC3339(f.StartTime)
	}
	if ev.EndTime == nil {
		ev.EndTime = parseRFC3339(f.EndTime)
	}
	if len(ev.Speakers) == 0 {
		ev.Speakers = trimAll(f.Speakers)
	}
	if len(ev.Sponsors) == 0 {
		ev.Sponsors = trimAll(f.Sponsors)
	}
}

func parseRFC3339(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}

func trimAll(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
