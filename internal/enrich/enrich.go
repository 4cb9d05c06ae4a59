// Package enrich asks a hosted language model to improve, tag, extract and read prompts aloud.
package enrich

import (
	"context"
	"encoding/base64"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/dpshade/promptlib/internal/errors"
	"github.com/dpshade/promptlib/internal/models"
)

// Enricher is the AI collaborator used by the CLI
type Enricher interface {
	Optimize(ctx context.Context, p models.Prompt) (string, error)
	Tags(ctx context.Context, objective string, category models.Category) ([]string, error)
	Extract(ctx context.Context, name string, data []byte) ([]models.Draft, error)
	Speak(ctx context.Context, text string, w io.Writer) error
}

// FallbackTags is returned by Tags when the model cannot be reached
var FallbackTags = []string{"AI", "Productivity"}

const (
	defaultModel       = "gpt-4o"
	defaultFastModel   = "gpt-4o-mini"
	defaultSpeechModel = openai.SpeechModelTTS1HD
	defaultVoice       = "onyx"
)

// Config holds the OpenAI client settings
type Config struct {
	APIKey      string
	BaseURL     string // optional, any OpenAI compatible endpoint
	Model       string // reasoning tasks: optimize, extract
	FastModel   string // low latency tasks: tags
	SpeechModel string
	Voice       string
	MaxRetries  int
	Timeout     time.Duration
	HTTPClient  *http.Client // optional (tests)
	Logger      *slog.Logger
}

// OpenAI implements Enricher on the OpenAI API
type OpenAI struct {
	cfg    Config
	client openai.Client
	logger *slog.Logger
}

// NewOpenAI creates a client. Nothing is sent until the first call.
func NewOpenAI(cfg Config) *OpenAI {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.FastModel == "" {
		cfg.FastModel = defaultFastModel
	}
	if cfg.SpeechModel == "" {
		cfg.SpeechModel = defaultSpeechModel
	}
	if cfg.Voice == "" {
		cfg.Voice = defaultVoice
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 2
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAI{
		cfg:    cfg,
		client: openai.NewClient(opts...),
		logger: cfg.Logger.With("component", "enrich"),
	}
}

// Optimize rewrites the prompt body with prompt engineering techniques. An empty answer
// keeps the current content.
func (c *OpenAI) Optimize(ctx context.Context, p models.Prompt) (string, error) {
	current := p.Content
	if strings.TrimSpace(current) == "" {
		current = "No especificado aún"
	}

	instructions := fmt.Sprintf(`Actúa como un ingeniero de prompts experto y meticuloso.
Tengo un borrador de un prompt o una idea para un prompt con los siguientes detalles:

- Objetivo: %s
- Rol/Persona: %s
- Contenido actual: %s

Por favor, piensa paso a paso cómo mejorar esto. Escribe una versión optimizada y profesional de este prompt.
Usa técnicas de prompt engineering (claridad, contexto, pasos, formato de salida).
Solo devuelve el texto del prompt optimizado, sin explicaciones adicionales.`, p.Objective, p.Persona, current)

	text, err := c.complete(ctx, c.cfg.Model, openai.UserMessage(instructions))
	if err != nil {
		return "", errors.EnrichError("optimize", err)
	}
	if strings.TrimSpace(text) == "" {
		return p.Content, nil
	}
	return strings.TrimSpace(text), nil
}

// Tags suggests three short tags. Any failure yields FallbackTags.
func (c *OpenAI) Tags(ctx context.Context, objective string, category models.Category) ([]string, error) {
	instructions := fmt.Sprintf(`Genera 3 etiquetas (tags) cortas y relevantes para un prompt de IA basado en:
Categoría: %s
Objetivo: %s

Devuelve solo las etiquetas separadas por comas. Ejemplo: "Email, Ventas, Formal".`, category, objective)

	text, err := c.complete(ctx, c.cfg.FastModel, openai.UserMessage(instructions))
	if err != nil {
		c.logger.Warn("tag generation failed, using fallback", "error", err)
		return append([]string(nil), FallbackTags...), nil
	}

	tags := splitTags(text)
	if len(tags) == 0 {
		return append([]string(nil), FallbackTags...), nil
	}
	return tags, nil
}

const extractInstructions = `Analiza el archivo proporcionado. Parece contener un prompt, una idea para un prompt, o un documento del cual se puede extraer un prompt útil.
Si contiene varios prompts, extrae cada uno.

Tu tarea es extraer la información y estructurarla para una biblioteca de prompts.
1. Identifica el objetivo principal.
2. Identifica el rol o persona sugerida.
3. Extrae o redacta el contenido del prompt.
4. Sugiere 3 tags relevantes.
5. Sugiere un nombre corto para el prompt.

Responde estrictamente en formato JSON: un objeto con las claves name, objective, persona, content y tags, o una lista de esos objetos.`

// Extract reads a document or image and returns the prompts found in it
func (c *OpenAI) Extract(ctx context.Context, name string, data []byte) ([]models.Draft, error) {
	if len(data) == 0 {
		return nil, errors.ValidationError("nothing to extract from an empty file")
	}

	var msg openai.ChatCompletionMessageParamUnion
	if mime := imageMIME(name, data); mime != "" {
		url := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
		msg = openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
			openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: url}),
			openai.TextContentPart(extractInstructions),
		})
	} else {
		msg = openai.UserMessage(fmt.Sprintf("Contenido del archivo %s:\n%s\n\n%s", name, data, extractInstructions))
	}

	text, err := c.complete(ctx, c.cfg.Model, msg)
	if err != nil {
		return nil, errors.EnrichError("extract", err)
	}

	drafts, err := decodeDrafts(text)
	if err != nil {
		return nil, errors.EnrichError("extract", err).WithDetails("the model answer was not a usable prompt")
	}
	c.logger.Info("extracted prompts", "file", name, "count", len(drafts))
	return drafts, nil
}

// Speak synthesizes text and streams the audio to w. Empty text is a no-op.
func (c *OpenAI) Speak(ctx context.Context, text string, w io.Writer) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	resp, err := c.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Input:          text,
		Model:          openai.SpeechModel(c.cfg.SpeechModel),
		Voice:          openai.AudioSpeechNewParamsVoice(c.cfg.Voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		return errors.EnrichError("speak", mapError(err))
	}
	defer resp.Body.Close()

	if _, err := io.Copy(w, resp.Body); err != nil {
		return errors.EnrichError("speak", fmt.Errorf("failed reading audio response: %w", err))
	}
	return nil
}

func (c *OpenAI) complete(ctx context.Context, model string, msg openai.ChatCompletionMessageParamUnion) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{msg},
	})
	if err != nil {
		return "", mapError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

func mapError(err error) error {
	var apiErr *openai.Error
	if stderrors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return fmt.Errorf("OpenAI error (status %d): %s", apiErr.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("OpenAI error (status %d)", apiErr.StatusCode)
	}
	return err
}

func imageMIME(name string, data []byte) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	}
	if mime := http.DetectContentType(data); strings.HasPrefix(mime, "image/") {
		return mime
	}
	return ""
}

var _ Enricher = (*OpenAI)(nil)
