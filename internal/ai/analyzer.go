package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"wine-service/internal/imagestore"
	"wine-service/internal/model"
	"wine-service/pkg/config"

	"go.uber.org/zap"
)

// Analyzer runs one label analysis per call: save the photo, ask the
// configured provider for structured fields, validate what comes back.
// No retries; every failure is classified into an *Error.
type Analyzer struct {
	cfg       *config.Config
	images    *imagestore.Store
	providers map[string]Provider
	log       *zap.Logger
}

// NewAnalyzer wires the analyzer with the full provider registry and one
// shared HTTP client so the call timeout is uniform across providers.
func NewAnalyzer(cfg *config.Config, images *imagestore.Store, log *zap.Logger) *Analyzer {
	return &Analyzer{
		cfg:       cfg,
		images:    images,
		providers: newRegistry(&http.Client{Timeout: callTimeout}),
		log:       log,
	}
}

// Result carries the extracted fields and the saved upload filename, so the
// caller can pre-fill an add form without a re-upload.
type Result struct {
	Fields        map[string]any `json:"fields"`
	ImageFilename string         `json:"image_filename"`
}

// Analyze runs the single-pass analysis state machine. Options are re-read
// on every call so credential changes apply without a restart. The image is
// persisted before the provider call and survives any later failure.
func (a *Analyzer) Analyze(ctx context.Context, file *multipart.FileHeader) (*Result, *Error) {
	opts := a.cfg.CurrentOptions()
	provider := opts.Provider()

	if provider == "none" || !opts.ProviderConfigured() {
		return nil, &Error{Code: CodeNoAPIKey}
	}
	if file == nil || file.Filename == "" {
		return nil, &Error{Code: CodeNoImage}
	}

	imageFilename, err := a.images.Save(file)
	if err != nil {
		return nil, &Error{Code: CodeNoImage}
	}

	data, err := a.images.Read(imageFilename)
	if err != nil {
		return nil, &Error{Code: CodeAPIError, Message: err.Error(), ImageFilename: imageFilename}
	}
	imageB64 := base64.StdEncoding.EncodeToString(data)
	mediaType := imagestore.MediaType(imageFilename)

	p, ok := a.providers[provider]
	if !ok {
		return nil, &Error{Code: CodeInvalidProvider, ImageFilename: imageFilename}
	}

	raw, err := p.Analyze(ctx, imageB64, mediaType, extractionPrompt, opts)
	if err != nil {
		a.log.Error("AI label analysis failed",
			zap.String("provider", provider),
			zap.Error(err))
		return nil, classify(err, imageFilename)
	}

	fields, ok := parseFields(raw)
	if !ok {
		a.log.Error("AI response is not valid JSON", zap.String("provider", provider))
		return nil, &Error{Code: CodeParseError, ImageFilename: imageFilename}
	}

	// An out-of-set wine type is blanked, not a reason to reject the rest.
	if wt, ok := fields["wine_type"].(string); ok && wt != "" && !model.IsWineType(wt) {
		fields["wine_type"] = ""
	}

	return &Result{Fields: fields, ImageFilename: imageFilename}, nil
}

// parseFields strips an optional markdown code fence and decodes the JSON
// object.
func parseFields(raw string) (map[string]any, bool) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		if _, rest, found := strings.Cut(raw, "\n"); found {
			raw = rest
		}
		raw = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "```"))
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, false
	}
	return fields, true
}

// classify maps a provider failure onto the error taxonomy. Timeouts get
// their own code so the UI can suggest retrying.
func classify(err error, imageFilename string) *Error {
	if errors.Is(err, context.DeadlineExceeded) || strings.Contains(strings.ToLower(err.Error()), "timeout") {
		return &Error{Code: CodeTimeout, ImageFilename: imageFilename}
	}
	return &Error{Code: CodeAPIError, Message: err.Error(), ImageFilename: imageFilename}
}
