package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"wine-service/pkg/config"
)

const (
	openaiBaseURL     = "https://api.openai.com/v1"
	openrouterBaseURL = "https://openrouter.ai/api/v1"
)

// chatCompletionsProvider speaks the OpenAI chat-completions wire format.
// OpenRouter uses the same format under a different base URL and key.
type chatCompletionsProvider struct {
	client *http.Client
	name   string

	// baseURL overrides the hosted endpoint, used in tests.
	baseURL string
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string     `json:"role"`
	Content []chatPart `json:"content"`
}

type chatPart struct {
	Type     string        `json:"type"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`
	Text     string        `json:"text,omitempty"`
}

type chatImageURL struct {
	URL string `json:"url"`
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

func (p *chatCompletionsProvider) settings(opts config.Options) (baseURL, apiKey, model string) {
	defaults := config.DefaultOptions()
	if p.name == "openrouter" {
		baseURL = openrouterBaseURL
		apiKey = strings.TrimSpace(opts.OpenRouterAPIKey)
		model = strings.TrimSpace(opts.OpenRouterModel)
		if model == "" {
			model = defaults.OpenRouterModel
		}
	} else {
		baseURL = openaiBaseURL
		apiKey = strings.TrimSpace(opts.OpenAIAPIKey)
		model = strings.TrimSpace(opts.OpenAIModel)
		if model == "" {
			model = defaults.OpenAIModel
		}
	}
	if p.baseURL != "" {
		baseURL = p.baseURL
	}
	return baseURL, apiKey, model
}

func (p *chatCompletionsProvider) Analyze(ctx context.Context, imageB64, mediaType, prompt string, opts config.Options) (string, error) {
	baseURL, apiKey, model := p.settings(opts)

	body, err := json.Marshal(chatRequest{
		Model:     model,
		MaxTokens: 1024,
		Messages: []chatMessage{{
			Role: "user",
			Content: []chatPart{
				{Type: "image_url", ImageURL: &chatImageURL{URL: fmt.Sprintf("data:%s;base64,%s", mediaType, imageB64)}},
				{Type: "text", Text: prompt},
			},
		}},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("%s: unexpected response (status %d)", p.name, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		msg := string(data)
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return "", fmt.Errorf("%s: status %d: %s", p.name, resp.StatusCode, msg)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%s: empty response", p.name)
	}
	return parsed.Choices[0].Message.Content, nil
}
