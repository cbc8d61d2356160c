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

// ollamaProvider calls a self-hosted Ollama chat endpoint.
type ollamaProvider struct {
	client *http.Client
}

type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type ollamaMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images"`
}

type ollamaResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Error string `json:"error"`
}

func (p *ollamaProvider) Analyze(ctx context.Context, imageB64, mediaType, prompt string, opts config.Options) (string, error) {
	defaults := config.DefaultOptions()
	host := strings.TrimRight(strings.TrimSpace(opts.OllamaHost), "/")
	if host == "" {
		host = defaults.OllamaHost
	}
	model := strings.TrimSpace(opts.OllamaModel)
	if model == "" {
		model = defaults.OllamaModel
	}

	body, err := json.Marshal(ollamaRequest{
		Model: model,
		Messages: []ollamaMessage{{
			Role:    "user",
			Content: prompt,
			Images:  []string{imageB64},
		}},
		Stream: false,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, host+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var parsed ollamaResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("ollama: unexpected response (status %d)", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		msg := string(data)
		if parsed.Error != "" {
			msg = parsed.Error
		}
		return "", fmt.Errorf("ollama: status %d: %s", resp.StatusCode, msg)
	}
	return parsed.Message.Content, nil
}
