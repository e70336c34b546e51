package insight

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultGeminiModel = "gemini-1.5-flash"

// GeminiProvider wraps the Google generative AI client.
type GeminiProvider struct {
	mu        sync.Mutex
	client    *genai.Client
	model     *genai.GenerativeModel
	modelName string
	keys      *KeyManager
}

// NewGeminiProvider builds a provider from the available API keys. The first
// key is used immediately; the rest rotate in on rate limits.
func NewGeminiProvider(ctx context.Context, keys []string, modelName string) (*GeminiProvider, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("gemini: no API key configured (set GOOGLE_API_KEY)")
	}
	if modelName == "" {
		modelName = defaultGeminiModel
	}
	p := &GeminiProvider{
		keys:      NewKeyManager(keys),
		modelName: modelName,
	}
	if err := p.connect(ctx, p.keys.Current()); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *GeminiProvider) connect(ctx context.Context, key string) error {
	client, err := genai.NewClient(ctx, option.WithAPIKey(key))
	if err != nil {
		return fmt.Errorf("gemini: initializing client: %w", err)
	}

	model := client.GenerativeModel(p.modelName)

	// Low temperature keeps the SQL deterministic.
	temp := float32(0.2)
	model.Temperature = &temp
	model.SafetySettings = []*genai.SafetySetting{
		{
			Category:  genai.HarmCategoryHarassment,
			Threshold: genai.HarmBlockNone,
		},
		{
			Category:  genai.HarmCategoryHateSpeech,
			Threshold: genai.HarmBlockNone,
		},
	}

	p.mu.Lock()
	if p.client != nil {
		p.client.Close()
	}
	p.client = client
	p.model = model
	p.mu.Unlock()
	return nil
}

func (p *GeminiProvider) Name() string {
	return "gemini"
}

func (p *GeminiProvider) Generate(ctx context.Context, prompt string) (string, error) {
	p.mu.Lock()
	model := p.model
	p.mu.Unlock()

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil ||
		len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini: no response candidates")
	}
	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", fmt.Errorf("gemini: unexpected response type: %T", resp.Candidates[0].Content.Parts[0])
	}
	return string(text), nil
}

// Rotate reconnects with the next API key.
func (p *GeminiProvider) Rotate(ctx context.Context) error {
	if p.keys.Len() < 2 {
		return nil
	}
	return p.connect(ctx, p.keys.Next())
}

func (p *GeminiProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}
