package aiparser

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/snackwatch/konbini-crawler/internal/models"
)

// Service is the opaque AI capability used upstream of ingestion. Both
// operations are slow and fallible; callers must tolerate partial
// results and carry on with whatever fields came back.
type Service interface {
	ParseProductPage(ctx context.Context, url, html string) (*models.RawProduct, error)
	TranslateToTraditionalChinese(ctx context.Context, text string) (string, error)
}

// OpenAIService implements Service against the OpenAI chat API.
type OpenAIService struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

func NewOpenAIService(apiKey, model string, logger *slog.Logger) *OpenAIService {
	return &OpenAIService{
		client: openai.NewClient(apiKey),
		model:  model,
		logger: logger.With("component", "aiparser"),
	}
}

const parseSystemPrompt = `You extract structured product data from Japanese convenience-store and fast-food product pages.
Respond with a single JSON object with these keys (omit keys you cannot determine):
original_name, translated_name (Traditional Chinese), source_url, image_urls (array),
price ({"amount": number, "currency": "JPY"}), is_new (bool), release_date (string as shown on the page),
allergens (array of strings).`

// ParseProductPage asks the model to extract product fields from page
// HTML. Fields the model cannot determine stay at their zero values.
func (s *OpenAIService) ParseProductPage(ctx context.Context, url, html string) (*models.RawProduct, error) {
	// Keep the prompt within a sane token budget; the interesting
	// markup is at the top of the product pages.
	if len(html) > 32000 {
		html = html[:32000]
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: parseSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("URL: %s\n\nHTML:\n%s", url, html)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse product page: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty completion for %s", url)
	}

	var product models.RawProduct
	content := resp.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(content), &product); err != nil {
		return nil, fmt.Errorf("failed to decode parsed product: %w", err)
	}

	if product.SourceURL == "" {
		product.SourceURL = url
	}

	s.logger.Debug("parsed product page",
		"url", url,
		"original_name", product.OriginalName)

	return &product, nil
}

// TranslateToTraditionalChinese translates source-language text. The
// input is returned unchanged when it is empty.
func (s *OpenAIService) TranslateToTraditionalChinese(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "Translate the product name into Traditional Chinese (Taiwan usage). Respond with the translation only.",
			},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to translate: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty translation response")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
