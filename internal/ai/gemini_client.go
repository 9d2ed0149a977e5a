package ai

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"lecture-rag-backend/internal/config"
	"lecture-rag-backend/internal/logger"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	genai "github.com/google/generative-ai-go/genai"
)

// GeminiClient wraps the Gemini SDK for answer generation and embeddings.
// All outbound calls go through a circuit breaker and a client-side rate
// limiter sized for the configured API tier. The breaker only fails fast;
// nothing here ever retries a failed call.
type GeminiClient struct {
	client         *genai.Client
	modelName      string
	embeddingModel string
	breaker        *gobreaker.CircuitBreaker
	rateLimiter    *rate.Limiter
	tokenCounter   *TokenCounter
	tier           string
}

// TokenCounter tracks request and token consumption across the per-minute
// and per-day windows the Gemini API enforces.
type TokenCounter struct {
	mu              sync.Mutex
	limits          RateLimits
	minuteTokens    int
	dailyTokens     int
	minuteRequests  int
	dailyRequests   int
	lastMinuteReset time.Time
	lastDayReset    time.Time
}

type RateLimits struct {
	RPM int // Requests per minute
	TPM int // Tokens per minute
	RPD int // Requests per day
}

var ErrRateLimited = errors.New("rate limit exceeded: wait before retry")

func NewGeminiClient(ctx context.Context, cfg *config.Config) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, err
	}

	limits := getRateLimits(cfg.GeminiTier)

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "GeminiAPI",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	// RPM limit with some buffer
	rateLimiter := rate.NewLimiter(rate.Limit(float64(limits.RPM)*0.9/60.0), burstFor(limits.RPM))

	return &GeminiClient{
		client:         client,
		modelName:      cfg.GeminiModelName,
		embeddingModel: cfg.EmbeddingModel,
		breaker:        breaker,
		rateLimiter:    rateLimiter,
		tokenCounter:   &TokenCounter{limits: limits},
		tier:           cfg.GeminiTier,
	}, nil
}

func getRateLimits(tier string) RateLimits {
	switch tier {
	case "free":
		return RateLimits{RPM: 10, TPM: 250000, RPD: 250}
	case "tier1":
		return RateLimits{RPM: 1000, TPM: 1000000, RPD: 10000}
	case "tier2":
		return RateLimits{RPM: 2000, TPM: 4000000, RPD: 50000}
	default:
		return RateLimits{RPM: 10, TPM: 250000, RPD: 250}
	}
}

func burstFor(rpm int) int {
	burst := rpm / 10
	if burst < 1 {
		burst = 1
	}
	return burst
}

// GenerateAnswer sends the question and retrieved context to Gemini and
// returns the generated text plus actual token usage.
func (gc *GeminiClient) GenerateAnswer(ctx context.Context, query string, contextChunks []string) (string, int, error) {
	tracer := otel.Tracer("gemini-client")
	ctx, span := tracer.Start(ctx, "gemini.generate_answer")
	defer span.End()

	estimatedTokens := estimateTokens(query, contextChunks)
	span.SetAttributes(
		attribute.Int("gemini.estimated_tokens", estimatedTokens),
		attribute.Int("gemini.context_chunks", len(contextChunks)),
		attribute.String("gemini.model", gc.modelName),
	)

	if !gc.tokenCounter.CanConsume(estimatedTokens, 1) {
		span.SetAttributes(attribute.Bool("gemini.rate_limited", true))
		return "", 0, ErrRateLimited
	}

	if err := gc.rateLimiter.Wait(ctx); err != nil {
		span.SetAttributes(attribute.Bool("gemini.rate_limited", true))
		return "", 0, err
	}

	result, err := gc.breaker.Execute(func() (interface{}, error) {
		model := gc.client.GenerativeModel(gc.modelName)
		model.SetTemperature(0.2)
		model.SetMaxOutputTokens(2048)

		fullPrompt := BuildPrompt(query, contextChunks)

		resp, err := model.GenerateContent(ctx, genai.Text(fullPrompt))
		if err != nil {
			span.SetAttributes(attribute.Bool("gemini.error", true))
			span.SetAttributes(attribute.String("gemini.error_message", err.Error()))
			return nil, err
		}

		actualTokens := extractTokenUsage(resp)
		gc.tokenCounter.RecordUsage(actualTokens, 1)
		span.SetAttributes(attribute.Int("gemini.actual_tokens", actualTokens))

		return resp, nil
	})
	if err != nil {
		if err == gobreaker.ErrOpenState {
			span.SetAttributes(attribute.Bool("gemini.circuit_breaker_open", true))
			return "", 0, fmt.Errorf("gemini api unavailable: %w", err)
		}
		span.SetAttributes(attribute.Bool("gemini.error", true))
		return "", 0, err
	}

	resp := result.(*genai.GenerateContentResponse)
	text := extractResponseText(resp)
	if text == "" {
		return "", 0, fmt.Errorf("gemini returned no candidates")
	}

	span.SetAttributes(attribute.Bool("gemini.success", true))
	return text, extractTokenUsage(resp), nil
}

// EmbedQuery returns the embedding vector for a single query text.
func (gc *GeminiClient) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if err := gc.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	result, err := gc.breaker.Execute(func() (interface{}, error) {
		model := gc.client.EmbeddingModel(gc.embeddingModel)
		resp, err := model.EmbedContent(ctx, genai.Text(text))
		if err != nil {
			return nil, err
		}
		if resp.Embedding == nil {
			return nil, fmt.Errorf("no embedding returned")
		}
		return resp.Embedding.Values, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]float32), nil
}

// EmbedDocuments embeds a batch of chunk texts in a single API call.
func (gc *GeminiClient) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := gc.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	result, err := gc.breaker.Execute(func() (interface{}, error) {
		model := gc.client.EmbeddingModel(gc.embeddingModel)
		batch := model.NewBatch()
		for _, text := range texts {
			batch.AddContent(genai.Text(text))
		}
		resp, err := model.BatchEmbedContents(ctx, batch)
		if err != nil {
			return nil, err
		}
		if len(resp.Embeddings) != len(texts) {
			return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings))
		}
		vectors := make([][]float32, len(resp.Embeddings))
		for i, emb := range resp.Embeddings {
			if emb == nil {
				return nil, fmt.Errorf("no embedding returned for chunk %d", i)
			}
			vectors[i] = emb.Values
		}
		return vectors, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([][]float32), nil
}

func (tc *TokenCounter) CanConsume(tokens, requests int) bool {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	now := time.Now()

	// Reset counters if time windows expired
	if now.Sub(tc.lastMinuteReset) >= time.Minute {
		tc.minuteTokens = 0
		tc.minuteRequests = 0
		tc.lastMinuteReset = now
	}

	if now.Sub(tc.lastDayReset) >= 24*time.Hour {
		tc.dailyTokens = 0
		tc.dailyRequests = 0
		tc.lastDayReset = now
	}

	if tc.minuteRequests+requests > tc.limits.RPM {
		return false
	}
	if tc.minuteTokens+tokens > tc.limits.TPM {
		return false
	}
	if tc.dailyRequests+requests > tc.limits.RPD {
		return false
	}

	return true
}

func (tc *TokenCounter) RecordUsage(tokens, requests int) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	tc.minuteTokens += tokens
	tc.minuteRequests += requests
	tc.dailyTokens += tokens
	tc.dailyRequests += requests
}

// estimateTokens gives a rough upper bound: 1 token ~ 4 characters.
func estimateTokens(prompt string, chunks []string) int {
	total := len(prompt)
	for _, chunk := range chunks {
		total += len(chunk) + 1
	}
	estimated := total / 4
	if estimated < 1 {
		estimated = 1
	}
	return estimated
}

// extractTokenUsage reads actual usage from response metadata, falling back
// to a character-based estimate.
func extractTokenUsage(resp *genai.GenerateContentResponse) int {
	if resp.UsageMetadata != nil {
		return int(resp.UsageMetadata.TotalTokenCount)
	}

	estimated := len(extractResponseText(resp)) / 4
	if estimated < 1 {
		estimated = 1
	}
	return estimated
}

func extractResponseText(resp *genai.GenerateContentResponse) string {
	text := ""
	for _, candidate := range resp.Candidates {
		if candidate.Content != nil {
			for _, part := range candidate.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text += string(t)
				}
			}
		}
	}
	return text
}

// Close the client
func (gc *GeminiClient) Close() error {
	if gc.client != nil {
		return gc.client.Close()
	}
	return nil
}
