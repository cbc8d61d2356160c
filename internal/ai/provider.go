// Package ai extracts structured wine fields from a label photo through an
// interchangeable set of vision-capable providers.
package ai

import (
	"context"
	"net/http"
	"time"

	"wine-service/pkg/config"
)

// Error codes surfaced to the client as the "error" field.
const (
	CodeNoAPIKey        = "no_api_key"
	CodeNoImage         = "no_image"
	CodeInvalidProvider = "invalid_provider"
	CodeParseError      = "parse_error"
	CodeTimeout         = "timeout"
	CodeAPIError        = "api_error"
)

// Error is a classified analysis failure. ImageFilename carries the
// already-saved upload (when one exists) so the client can retry without
// re-uploading.
type Error struct {
	Code          string
	Message       string
	ImageFilename string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Code + ": " + e.Message
	}
	return e.Code
}

// Provider is one vision-capable AI backend: given a base64 image and a
// prompt, return the model's raw text.
type Provider interface {
	Analyze(ctx context.Context, imageB64, mediaType, prompt string, opts config.Options) (string, error)
}

// callTimeout bounds every provider call. The self-hosted and hosted
// variants share it uniformly.
const callTimeout = 2 * time.Minute

// newRegistry builds the provider registry. Adding a provider means adding
// one implementation and one entry here.
func newRegistry(client *http.Client) map[string]Provider {
	return map[string]Provider{
		"anthropic":  &anthropicProvider{client: client},
		"openai":     &chatCompletionsProvider{client: client, name: "openai"},
		"openrouter": &chatCompletionsProvider{client: client, name: "openrouter"},
		"ollama":     &ollamaProvider{client: client},
	}
}

// extractionPrompt is identical for all providers.
const extractionPrompt = `Analyze this wine bottle label image. Extract the following fields and return ONLY valid JSON:
{
  "name": "wine name",
  "wine_type": "one of: Red, White, Rosé, Sparkling, Dessert, Other",
  "vintage": year as integer or null,
  "region": "wine region",
  "grape": "grape variety/varieties",
  "price": number or null,
  "drink_from": year as integer or null,
  "drink_until": year as integer or null,
  "notes": "brief tasting notes if visible on label"
}
Rules:
- wine_type MUST be exactly one of the 6 listed values
- vintage must be a 4-digit year or null
- drink_from/drink_until: drinking window years if mentioned on label, otherwise null
- price as number without currency symbol, or null if not visible
- If a field cannot be determined, set it to null or empty string
- Return ONLY the JSON object, no markdown, no explanation`
