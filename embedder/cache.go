package embedder

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/viant/vecdb/vector"
	"go.etcd.io/bbolt"
)

var bucketEmbeddings = []byte("embeddings")

// Cache is a persistent embedding cache in front of another backend, keyed
// by the model identifier and the exact text.
type Cache struct {
	db      *bbolt.DB
	model   string
	backend Backend
}

// NewCache opens (or creates) the bbolt file at path.
func NewCache(path, model string, backend Backend) (*Cache, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedding cache: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketEmbeddings)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket %s: %w", bucketEmbeddings, err)
	}
	return &Cache{db: db, model: model, backend: backend}, nil
}

// CachedFactory wraps the backend produced by next with a Cache at path.
func CachedFactory(path, model string, next Factory) Factory {
	return func(ctx context.Context) (Backend, error) {
		b, err := next(ctx)
		if err != nil {
			return nil, err
		}
		return NewCache(path, model, b)
	}
}

func (c *Cache) key(text string) []byte {
	sum := sha256.Sum256([]byte(c.model + "\x00" + text))
	return sum[:]
}

// Embed returns the cached output or computes and stores it.
func (c *Cache) Embed(ctx context.Context, text string) (*Output, error) {
	key := c.key(text)
	var cached []float32
	err := c.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketEmbeddings).Get(key)
		if data == nil {
			return nil
		}
		var err error
		cached, err = vector.DecodeEmbedding(data)
		return err
	})
	if err == nil && len(cached) > 0 {
		return &Output{Data: cached, Dims: []int{1, len(cached)}}, nil
	}

	out, err := c.backend.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	// only well-formed single vectors are cached
	if out == nil || len(out.Dims) != 2 || out.Dims[0] != 1 || out.Dims[1] != len(out.Data) || len(out.Data) == 0 {
		return out, nil
	}
	blob, err := vector.EncodeEmbedding(out.Data)
	if err != nil {
		return out, nil
	}
	if err := c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketEmbeddings).Put(key, blob)
	}); err != nil {
		return nil, fmt.Errorf("failed to write embedding cache: %w", err)
	}
	return out, nil
}

// Len returns the number of cached embeddings.
func (c *Cache) Len() int {
	n := 0
	_ = c.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketEmbeddings).Stats().KeyN
		return nil
	})
	return n
}

// Close closes the cache file and the wrapped backend when closable.
func (c *Cache) Close() error {
	if closer, ok := c.backend.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	return c.db.Close()
}
