package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"wine-service/internal/imagestore"
	"wine-service/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubProvider returns a canned response or error and records what it was
// asked.
type stubProvider struct {
	resp   string
	err    error
	prompt string
	image  string
}

func (p *stubProvider) Analyze(_ context.Context, imageB64, _, prompt string, _ config.Options) (string, error) {
	p.image = imageB64
	p.prompt = prompt
	if p.err != nil {
		return "", p.err
	}
	return p.resp, nil
}

// newTestAnalyzer builds an analyzer over a temp image store with the given
// options persisted to disk and the stub registered as the ollama provider.
func newTestAnalyzer(t *testing.T, opts config.Options, stub Provider) (*Analyzer, *imagestore.Store) {
	t.Helper()

	dir := t.TempDir()
	optionsPath := filepath.Join(dir, "options.json")
	data, err := json.Marshal(opts)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(optionsPath, data, 0o644))

	images, err := imagestore.New(filepath.Join(dir, "uploads"), nil)
	require.NoError(t, err)

	a := &Analyzer{
		cfg:    &config.Config{OptionsPath: optionsPath},
		images: images,
		log:    zap.NewNop(),
	}
	if stub != nil {
		a.providers = map[string]Provider{"ollama": stub}
	}
	return a, images
}

func ollamaOptions() config.Options {
	opts := config.DefaultOptions()
	opts.AIProvider = "ollama"
	return opts
}

func fileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r := multipart.NewReader(&body, w.Boundary())
	form, err := r.ReadForm(1 << 20)
	require.NoError(t, err)
	return form.File["image"][0]
}

func TestAnalyzeParsesFencedResponse(t *testing.T) {
	stub := &stubProvider{resp: "```json\n{\"name\": \"Barolo\", \"wine_type\": \"Red\", \"vintage\": 2015}\n```"}
	a, images := newTestAnalyzer(t, ollamaOptions(), stub)

	res, aerr := a.Analyze(context.Background(), fileHeader(t, "label.jpg", []byte("image-bytes")))
	require.Nil(t, aerr)

	assert.Equal(t, "Barolo", res.Fields["name"])
	assert.Equal(t, "Red", res.Fields["wine_type"])
	assert.Equal(t, float64(2015), res.Fields["vintage"])

	assert.NotEmpty(t, res.ImageFilename)
	assert.True(t, images.Exists(res.ImageFilename), "upload persisted for form pre-fill")
	assert.NotEmpty(t, stub.image, "image passed to provider as base64")
	assert.Contains(t, stub.prompt, "wine_type")
}

func TestAnalyzeBlanksUnknownWineType(t *testing.T) {
	stub := &stubProvider{resp: `{"name": "Something", "wine_type": "Merlot"}`}
	a, _ := newTestAnalyzer(t, ollamaOptions(), stub)

	res, aerr := a.Analyze(context.Background(), fileHeader(t, "label.jpg", []byte("x")))
	require.Nil(t, aerr)
	assert.Equal(t, "", res.Fields["wine_type"], "out-of-set type is blanked")
	assert.Equal(t, "Something", res.Fields["name"], "other fields kept")
}

func TestAnalyzeNoProviderSelected(t *testing.T) {
	opts := config.DefaultOptions() // provider "none"
	a, _ := newTestAnalyzer(t, opts, &stubProvider{})

	_, aerr := a.Analyze(context.Background(), fileHeader(t, "label.jpg", []byte("x")))
	require.NotNil(t, aerr)
	assert.Equal(t, CodeNoAPIKey, aerr.Code)
}

func TestAnalyzeMissingCredential(t *testing.T) {
	opts := config.DefaultOptions()
	opts.AIProvider = "openai" // no key set
	a, _ := newTestAnalyzer(t, opts, &stubProvider{})

	_, aerr := a.Analyze(context.Background(), fileHeader(t, "label.jpg", []byte("x")))
	require.NotNil(t, aerr)
	assert.Equal(t, CodeNoAPIKey, aerr.Code)
}

func TestAnalyzeWithoutImage(t *testing.T) {
	a, _ := newTestAnalyzer(t, ollamaOptions(), &stubProvider{})

	_, aerr := a.Analyze(context.Background(), nil)
	require.NotNil(t, aerr)
	assert.Equal(t, CodeNoImage, aerr.Code)
}

func TestAnalyzeUnregisteredProvider(t *testing.T) {
	a, _ := newTestAnalyzer(t, ollamaOptions(), nil)
	a.providers = map[string]Provider{} // configured but not registered

	_, aerr := a.Analyze(context.Background(), fileHeader(t, "label.jpg", []byte("x")))
	require.NotNil(t, aerr)
	assert.Equal(t, CodeInvalidProvider, aerr.Code)
	assert.NotEmpty(t, aerr.ImageFilename, "upload already saved at this point")
}

func TestAnalyzeClassifiesTimeout(t *testing.T) {
	for _, err := range []error{
		context.DeadlineExceeded,
		errors.New("Post \"http://localhost:11434/api/chat\": net/http: request canceled (Client.Timeout exceeded while awaiting headers)"),
	} {
		stub := &stubProvider{err: err}
		a, _ := newTestAnalyzer(t, ollamaOptions(), stub)

		_, aerr := a.Analyze(context.Background(), fileHeader(t, "label.jpg", []byte("x")))
		require.NotNil(t, aerr)
		assert.Equal(t, CodeTimeout, aerr.Code)
		assert.NotEmpty(t, aerr.ImageFilename, "saved image survives the failure")
	}
}

func TestAnalyzeClassifiesAPIError(t *testing.T) {
	stub := &stubProvider{err: errors.New("ollama: status 500: model not found")}
	a, _ := newTestAnalyzer(t, ollamaOptions(), stub)

	_, aerr := a.Analyze(context.Background(), fileHeader(t, "label.jpg", []byte("x")))
	require.NotNil(t, aerr)
	assert.Equal(t, CodeAPIError, aerr.Code)
	assert.Contains(t, aerr.Message, "model not found")
	assert.NotEmpty(t, aerr.ImageFilename)
}

func TestAnalyzeClassifiesParseError(t *testing.T) {
	stub := &stubProvider{resp: "Sorry, I cannot read this label."}
	a, _ := newTestAnalyzer(t, ollamaOptions(), stub)

	_, aerr := a.Analyze(context.Background(), fileHeader(t, "label.jpg", []byte("x")))
	require.NotNil(t, aerr)
	assert.Equal(t, CodeParseError, aerr.Code)
	assert.NotEmpty(t, aerr.ImageFilename)
}

func TestParseFields(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		ok   bool
	}{
		{"plain object", `{"name":"x"}`, true},
		{"json fence", "```json\n{\"name\":\"x\"}\n```", true},
		{"bare fence", "```\n{\"name\":\"x\"}\n```", true},
		{"surrounding whitespace", "  \n{\"name\":\"x\"}\n  ", true},
		{"prose", "here you go", false},
		{"array", `[1,2]`, false},
		{"empty", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fields, ok := parseFields(tc.raw)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, "x", fields["name"])
			}
		})
	}
}

func TestOllamaProviderRequestShape(t *testing.T) {
	var got ollamaRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]any{"content": `{"name":"Barolo"}`},
		})
	}))
	defer srv.Close()

	opts := config.DefaultOptions()
	opts.OllamaHost = srv.URL + "/"
	opts.OllamaModel = "llava:13b"

	p := &ollamaProvider{client: srv.Client()}
	raw, err := p.Analyze(context.Background(), "aW1n", "image/jpeg", extractionPrompt, opts)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"Barolo"}`, raw)

	assert.Equal(t, "llava:13b", got.Model)
	assert.False(t, got.Stream)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, []string{"aW1n"}, got.Messages[0].Images)
	assert.Equal(t, extractionPrompt, got.Messages[0].Content)
}

func TestChatCompletionsRequestShape(t *testing.T) {
	var got chatRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": `{"name":"Barolo"}`}},
			},
		})
	}))
	defer srv.Close()

	opts := config.DefaultOptions()
	opts.OpenAIAPIKey = "sk-test"
	opts.OpenAIModel = "gpt-5.2-mini"

	p := &chatCompletionsProvider{client: srv.Client(), name: "openai", baseURL: srv.URL}
	raw, err := p.Analyze(context.Background(), "aW1n", "image/png", extractionPrompt, opts)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"Barolo"}`, raw)

	assert.Equal(t, "Bearer sk-test", auth)
	assert.Equal(t, "gpt-5.2-mini", got.Model)
	require.Len(t, got.Messages, 1)
	require.Len(t, got.Messages[0].Content, 2)
	require.NotNil(t, got.Messages[0].Content[0].ImageURL)
	assert.Equal(t, "data:image/png;base64,aW1n", got.Messages[0].Content[0].ImageURL.URL)
	assert.Equal(t, extractionPrompt, got.Messages[0].Content[1].Text)
}

func TestChatCompletionsOpenRouterCredentials(t *testing.T) {
	var auth string
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "{}"}},
			},
		})
	}))
	defer srv.Close()

	opts := config.DefaultOptions()
	opts.OpenAIAPIKey = "sk-wrong"
	opts.OpenRouterAPIKey = "or-right"

	p := &chatCompletionsProvider{client: srv.Client(), name: "openrouter", baseURL: srv.URL}
	_, err := p.Analyze(context.Background(), "aW1n", "image/jpeg", extractionPrompt, opts)
	require.NoError(t, err)

	assert.Equal(t, "Bearer or-right", auth, "openrouter uses its own key")
	assert.Equal(t, config.DefaultOptions().OpenRouterModel, got.Model)
}

func TestChatCompletionsEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	p := &chatCompletionsProvider{client: srv.Client(), name: "openai", baseURL: srv.URL}
	_, err := p.Analyze(context.Background(), "aW1n", "image/jpeg", extractionPrompt, config.DefaultOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty response")
}

func TestOllamaProviderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]any{"error": "model 'llava' not found"})
	}))
	defer srv.Close()

	opts := config.DefaultOptions()
	opts.OllamaHost = srv.URL

	p := &ollamaProvider{client: srv.Client()}
	_, err := p.Analyze(context.Background(), "aW1n", "image/jpeg", extractionPrompt, opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
	assert.Contains(t, err.Error(), "model 'llava' not found")
}
