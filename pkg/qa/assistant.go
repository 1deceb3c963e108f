package qa

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"product-search/pkg/index"
)

const (
	// GroqBaseURL is Groq's OpenAI-compatible endpoint
	GroqBaseURL  = "https://api.groq.com/openai/v1"
	DefaultModel = "meta-llama/llama-4-maverick-17b-128e-instruct"

	DefaultMaxTokens   = 250
	DefaultTemperature = 0.1
	DefaultTopK        = 3

	evidenceWidth = 800
	placeholder   = " ..."
)

// NoEvidenceAnswer is returned, without calling the model, when retrieval finds nothing
const NoEvidenceAnswer = "I couldn't find product data to answer that — try rephrasing or index more products."

const systemPrompt = "You are a concise, honest product assistant who replies like a helpful friend. " +
	"When given product evidence (title, description, price, and a few reviews), " +
	"answer the user's question directly in 2-4 sentences, include 1 short pro and 1 short con if applicable, " +
	"and mention the source URL at the end."

// ErrNoEvidence means retrieval returned no product documents
var ErrNoEvidence = errors.New("no product evidence")

// ChatClient is the subset of the OpenAI client the assistant uses
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Retriever returns the stored documents closest to a query
type Retriever interface {
	Query(ctx context.Context, text string, topK int) ([]index.Match, error)
}

// Config holds the chat completion settings
type Config struct {
	Model       string
	MaxTokens   int
	Temperature float32
}

// Assistant answers product questions from retrieved evidence
type Assistant struct {
	chat      ChatClient
	retriever Retriever
	cfg       Config
}

// NewGroqClient builds an OpenAI-compatible client for Groq. An empty
// baseURL uses GroqBaseURL.
func NewGroqClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL == "" {
		baseURL = GroqBaseURL
	}
	cfg.BaseURL = baseURL
	return openai.NewClientWithConfig(cfg)
}

// NewAssistant creates an assistant. Zero config values take the defaults.
func NewAssistant(chat ChatClient, retriever Retriever, cfg Config) *Assistant {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = DefaultTemperature
	}
	return &Assistant{chat: chat, retriever: retriever, cfg: cfg}
}

// Answer retrieves up to topK products for retrievalQuery (the question
// itself when empty) and asks the model to answer question from them
func (a *Assistant) Answer(ctx context.Context, question, retrievalQuery string, topK int) (string, error) {
	evidence, err := a.Evidence(ctx, question, retrievalQuery, topK)
	if errors.Is(err, ErrNoEvidence) {
		return NoEvidenceAnswer, nil
	}
	if err != nil {
		return "", err
	}

	resp, err := a.chat.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: UserPrompt(question, evidence)},
		},
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Evidence runs retrieval and renders the evidence blocks
func (a *Assistant) Evidence(ctx context.Context, question, retrievalQuery string, topK int) (string, error) {
	if strings.TrimSpace(retrievalQuery) == "" {
		retrievalQuery = question
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	matches, err := a.retriever.Query(ctx, retrievalQuery, topK)
	if err != nil {
		return "", fmt.Errorf("retrieve %q: %w", retrievalQuery, err)
	}
	if len(matches) == 0 {
		return "", ErrNoEvidence
	}
	log.Printf("QA: %d products retrieved for %q", len(matches), retrievalQuery)
	return EvidenceBlock(matches), nil
}

// EvidenceBlock renders numbered PRODUCT blocks separated by "---"
func EvidenceBlock(matches []index.Match) string {
	blocks := make([]string, 0, len(matches))
	for i, m := range matches {
		blocks = append(blocks, fmt.Sprintf("PRODUCT %d:\nTITLE: %s\n%s\nURL: %s\n",
			i+1, m.Title(), Shorten(m.Document, evidenceWidth), m.URL()))
	}
	return strings.Join(blocks, "\n---\n")
}

// UserPrompt frames the question with its evidence
func UserPrompt(question, evidence string) string {
	return "User question: " + question + "\n\n" +
		"Use the following product evidence (do not invent facts):\n" + evidence + "\n\n" +
		"Answer concisely and truthfully."
}

// Shorten collapses whitespace and, when the result is longer than width
// runes, cuts it at a word boundary so that it ends in " ..." and fits
func Shorten(text string, width int) string {
	words := strings.Fields(text)
	joined := strings.Join(words, " ")
	if len([]rune(joined)) <= width {
		return joined
	}

	limit := width - len([]rune(placeholder))
	var b strings.Builder
	n := 0
	for _, w := range words {
		wl := len([]rune(w))
		sep := 0
		if n > 0 {
			sep = 1
		}
		if n+sep+wl > limit {
			break
		}
		if sep == 1 {
			b.WriteByte(' ')
		}
		b.WriteString(w)
		n += sep + wl
	}
	if n == 0 {
		return strings.TrimSpace(placeholder)
	}
	return b.String() + placeholder
}
