package eino

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	// LLM Provider integrations - easily switchable
	gemini "github.com/cloudwego/eino-ext/components/model/gemini"
	// openai "github.com/cloudwego/eino-ext/components/model/openai" // Uncomment to use OpenAI
	// claude "github.com/cloudwego/eino-ext/components/model/claude" // Uncomment to use Claude
	"google.golang.org/genai"
)

// Config represents the configuration for Eino LLM integration
type Config struct {
	Provider string `json:"provider"` // "gemini", "openai", "claude", etc.
	APIKey   string `json:"api_key"`
	BaseURL  string `json:"base_url,omitempty"`
	Model    string `json:"model"`
	// FallbackModel, when set, is tried once whenever Model fails to
	// produce a parseable JSON reply.
	FallbackModel string `json:"fallback_model,omitempty"`
}

// Service wraps the Eino LLM functionality with proper Eino integration
type Service struct {
	config        Config
	chatModel     model.BaseChatModel
	fallbackModel model.BaseChatModel
	geminiClient  *genai.Client
}

// TokenUsage represents token usage information
type TokenUsage struct {
	InputTokens  int32 `json:"input_tokens"`
	OutputTokens int32 `json:"output_tokens"`
	TotalTokens  int32 `json:"total_tokens"`
}

// NewService creates a new Eino service instance with proper provider initialization
func NewService(config Config) (*Service, error) {
	service := &Service{config: config}
	if err := service.initializeChatModel(); err != nil {
		return nil, fmt.Errorf("failed to initialize chat model: %w", err)
	}
	return service, nil
}

// NewServiceWithModel creates a new Eino service instance with a pre-configured chat model
func NewServiceWithModel(config Config, chatModel model.BaseChatModel) *Service {
	return &Service{config: config, chatModel: chatModel}
}

// initializeChatModel initializes the chat model based on provider using proper Eino components
func (s *Service) initializeChatModel() error {
	switch strings.ToLower(s.config.Provider) {
	case "gemini":
		return s.initializeGeminiModel()

	// case "openai":
	// 	return s.initializeOpenAIModel()
	//
	// case "claude":
	// 	return s.initializeClaudeModel()

	default:
		return fmt.Errorf("unsupported provider: %s. Supported: gemini", s.config.Provider)
	}
}

// initializeGeminiModel sets up Google Gemini as the LLM provider
func (s *Service) initializeGeminiModel() error {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: s.config.APIKey,
	})
	if err != nil {
		return fmt.Errorf("failed to create Gemini client: %w", err)
	}

	// Store client for token counting
	s.geminiClient = client

	geminiModel, err := gemini.NewChatModel(context.Background(), &gemini.Config{
		Client: client,
		Model:  s.config.Model, // e.g., "gemini-1.5-flash", "gemini-1.5-pro"
	})
	if err != nil {
		return fmt.Errorf("failed to create Gemini chat model: %w", err)
	}
	s.chatModel = geminiModel

	if s.config.FallbackModel != "" && s.config.FallbackModel != s.config.Model {
		fallback, err := gemini.NewChatModel(context.Background(), &gemini.Config{
			Client: client,
			Model:  s.config.FallbackModel,
		})
		if err != nil {
			return fmt.Errorf("failed to create Gemini fallback chat model: %w", err)
		}
		s.fallbackModel = fallback
	}
	return nil
}

// GenerateJSON formats template with vars, calls the model and returns
// the decoded JSON object. Markdown code fences around the JSON are
// tolerated and stripped. When a fallback model is configured it gets
// one attempt after the primary model fails or returns unusable JSON.
func (s *Service) GenerateJSON(ctx context.Context, template prompt.ChatTemplate, vars map[string]any) (map[string]interface{}, error) {
	if s.chatModel == nil {
		return nil, fmt.Errorf("chat model not initialized")
	}

	messages, err := template.Format(ctx, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to format chat template: %w", err)
	}

	result, primaryErr := s.generateWith(ctx, s.chatModel, messages)
	if primaryErr == nil {
		return result, nil
	}
	if s.fallbackModel == nil {
		return nil, primaryErr
	}

	result, err = s.generateWith(ctx, s.fallbackModel, messages)
	if err != nil {
		return nil, fmt.Errorf("fallback model %s also failed: %w (primary: %v)", s.config.FallbackModel, err, primaryErr)
	}
	return result, nil
}

func (s *Service) generateWith(ctx context.Context, chatModel model.BaseChatModel, messages []*schema.Message) (map[string]interface{}, error) {
	response, err := chatModel.Generate(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("LLM generation failed: %w", err)
	}
	return ParseJSONResponse(response.Content)
}

// ParseJSONResponse decodes a model reply into a JSON object, stripping
// any markdown formatting the model added despite instructions.
func ParseJSONResponse(content string) (map[string]interface{}, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var result map[string]interface{}
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return nil, fmt.Errorf("invalid JSON response: %w", err)
	}
	return result, nil
}

// CleanTextForLLM collapses blank lines and trims each line so page text
// spends fewer tokens. maxLength <= 0 means no truncation.
func CleanTextForLLM(text string, maxLength int) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	cleanLines := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			cleanLines = append(cleanLines, trimmed)
		}
	}
	cleaned := strings.Join(cleanLines, "\n")

	if maxLength > 0 && len(cleaned) > maxLength {
		cleaned = cleaned[:maxLength] + "\n...[content truncated for processing]"
	}
	return cleaned
}

// GetChatModel returns the underlying chat model for advanced usage
func (s *Service) GetChatModel() model.BaseChatModel {
	return s.chatModel
}

// GetAvailableProviders returns list of supported LLM providers
func GetAvailableProviders() []string {
	return []string{
		"gemini", // Active: Google Gemini (gemini-1.5-flash, gemini-1.5-pro)
		// "openai",  // Commented: OpenAI - uncomment import & function
		// "claude",  // Commented: Anthropic Claude - uncomment import & function
	}
}

// CountPromptTokens counts input tokens for a prompt using Gemini's official CountTokens API
func (s *Service) CountPromptTokens(ctx context.Context, messages []*schema.Message) (int32, error) {
	if s.geminiClient == nil {
		return 0, fmt.Errorf("gemini client not initialized")
	}

	var contents []*genai.Content
	for _, msg := range messages {
		contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
	}

	countResp, err := s.geminiClient.Models.CountTokens(ctx, s.config.Model, contents, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count tokens with Gemini API: %w", err)
	}
	return countResp.TotalTokens, nil
}

// CountTokensInText counts tokens in any text string using character estimation
func (s *Service) CountTokensInText(text string) int32 {
	// Gemini documents roughly 4 characters per token
	return int32(len(text) / 4)
}
