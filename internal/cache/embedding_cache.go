package cache

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"

	"studymate/internal/retrieval"
)

// EmbeddingCache memoizes embeddings in Redis. Keys carry the provider and
// model name so vectors from different backends never mix.
type EmbeddingCache struct {
	next     retrieval.Embedder
	client   *redisv9.Client
	provider string
	model    string
	ttl      time.Duration
}

func NewEmbeddingCache(next retrieval.Embedder, client *redisv9.Client, provider, model string, ttl time.Duration) *EmbeddingCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &EmbeddingCache{
		next:     next,
		client:   client,
		provider: provider,
		model:    model,
		ttl:      ttl,
	}
}

// Embed returns the cached vector or computes and stores it. Redis errors
// fall through to the wrapped embedder.
func (c *EmbeddingCache) Embed(ctx context.Context, text string) ([]float32, error) {
	key := EmbeddingKey(c.provider, c.model, text)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var vec []float32
		if jsonErr := json.Unmarshal(raw, &vec); jsonErr == nil && len(vec) > 0 {
			return vec, nil
		}
	case !errors.Is(err, redisv9.Nil):
		log.Printf("embedding cache get failed: %v", err)
	}

	vec, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(vec) == 0 {
		return vec, nil
	}

	payload, err := json.Marshal(vec)
	if err == nil {
		if setErr := c.client.Set(ctx, key, payload, c.ttl).Err(); setErr != nil {
			log.Printf("embedding cache set failed: %v", setErr)
		}
	}
	return vec, nil
}

func EmbeddingKey(provider, model, text string) string {
	sum := blake2b.Sum256([]byte(text))
	return "study:emb:" + provider + ":" + model + ":" + hex.EncodeToString(sum[:])
}
