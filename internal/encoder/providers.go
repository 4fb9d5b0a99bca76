package encoder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ThisaraAriyawansha/vueon-search/pkg/types"
)

// Provider configuration
const (
	ProviderOpenAI = "openai"
	ProviderJina   = "jina"
	ProviderLocal  = "local"

	// Environment variables consulted by NewFromEnv
	EnvProvider     = "VUEON_ENCODER_PROVIDER"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	EnvJinaAPIKey   = "JINA_API_KEY"

	// Default models
	DefaultOpenAIModel = "text-embedding-3-small"
	DefaultJinaModel   = "jina-embeddings-v3"

	// Dimensions
	OpenAIDimension = 1536
	JinaDimension   = 1024
	LocalDimension  = 384

	// Retry configuration
	MaxRetries        = 3
	InitialBackoffMs  = 100
	MaxBackoffMs      = 5000
	BackoffMultiplier = 2.0

	defaultHTTPTimeout = 30 * time.Second
)

// apiEncoder is the shared implementation for remote embedding APIs. The
// OpenAI and Jina endpoints accept the same request shape, so only the URL,
// auth key and reported dimension differ per provider.
type apiEncoder struct {
	provider   string
	endpoint   string
	apiKey     string
	model      string
	dimension  int
	httpClient *http.Client
	cache      *Cache
	retry      retryPolicy
}

// NewOpenAIEncoder creates an encoder backed by the OpenAI embeddings API.
func NewOpenAIEncoder(apiKey, model string, cache *Cache) (Encoder, error) {
	if apiKey == "" {
		apiKey = os.Getenv(EnvOpenAIAPIKey)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s not set", ErrNoProviderEnabled, EnvOpenAIAPIKey)
	}
	if model == "" {
		model = DefaultOpenAIModel
	}

	return &apiEncoder{
		provider:   ProviderOpenAI,
		endpoint:   "https://api.openai.com/v1/embeddings",
		apiKey:     apiKey,
		model:      model,
		dimension:  OpenAIDimension,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		cache:      cache,
		retry:      defaultRetryPolicy(),
	}, nil
}

// NewJinaEncoder creates an encoder backed by the Jina AI embeddings API.
func NewJinaEncoder(apiKey, model string, cache *Cache) (Encoder, error) {
	if apiKey == "" {
		apiKey = os.Getenv(EnvJinaAPIKey)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s not set", ErrNoProviderEnabled, EnvJinaAPIKey)
	}
	if model == "" {
		model = DefaultJinaModel
	}

	return &apiEncoder{
		provider:   ProviderJina,
		endpoint:   "https://api.jina.ai/v1/embeddings",
		apiKey:     apiKey,
		model:      model,
		dimension:  JinaDimension,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		cache:      cache,
		retry:      defaultRetryPolicy(),
	}, nil
}

func (a *apiEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	if err := validateText(text); err != nil {
		return nil, err
	}

	hash := ComputeHash(text)
	if a.cache != nil {
		if vec, ok := a.cache.Get(hash); ok {
			return vec, nil
		}
	}

	vec, err := withRetry(ctx, a.retry, func() ([]float32, error) {
		return a.callAPI(ctx, text)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s provider after %d attempts: %v", types.ErrEncoding, a.provider, a.retry.attempts, err)
	}

	if a.cache != nil {
		a.cache.Set(hash, vec)
	}

	return vec, nil
}

func (a *apiEncoder) callAPI(ctx context.Context, text string) ([]float32, error) {
	reqBody := map[string]interface{}{
		"input": []string{text},
		"model": a.model,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", a.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api call: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("api error %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var apiResp struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		} `json:"data"`
		Model string `json:"model"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if len(apiResp.Data) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}

	return apiResp.Data[0].Embedding, nil
}

func (a *apiEncoder) Dimension() int {
	return a.dimension
}

func (a *apiEncoder) Provider() string {
	return a.provider
}

func (a *apiEncoder) Close() error {
	a.httpClient.CloseIdleConnections()
	return nil
}

// LocalEncoder is an offline bag-of-words encoder. Each whitespace token is
// hashed into one of LocalDimension buckets and the resulting count vector
// is normalized to unit length. Texts sharing tokens land near each other
// under cosine similarity, which is enough for development and tests; it is
// not a substitute for a real embedding model.
type LocalEncoder struct {
	cache *Cache
}

// NewLocalEncoder creates a deterministic offline encoder.
func NewLocalEncoder(cache *Cache) (*LocalEncoder, error) {
	return &LocalEncoder{cache: cache}, nil
}

func (l *LocalEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	if err := validateText(text); err != nil {
		return nil, err
	}

	hash := ComputeHash(text)
	if l.cache != nil {
		if vec, ok := l.cache.Get(hash); ok {
			return vec, nil
		}
	}

	vec := make([]float32, LocalDimension)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(token))
		vec[h.Sum32()%LocalDimension] += 1
	}
	vec = NormalizeVector(vec)

	if l.cache != nil {
		l.cache.Set(hash, vec)
	}

	return vec, nil
}

func (l *LocalEncoder) Dimension() int {
	return LocalDimension
}

func (l *LocalEncoder) Provider() string {
	return ProviderLocal
}

func (l *LocalEncoder) Close() error {
	return nil
}

// NormalizeVector normalizes a vector to unit length.
func NormalizeVector(v []float32) []float32 {
	var sum float64
	for _, val := range v {
		sum += float64(val * val)
	}

	if sum == 0 {
		return v
	}

	norm := float32(math.Sqrt(sum))
	result := make([]float32, len(v))
	for i, val := range v {
		result[i] = val / norm
	}

	return result
}
