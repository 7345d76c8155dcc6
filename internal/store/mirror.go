package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"pranzo-storefront/internal/domain"
	"pranzo-storefront/internal/filestore"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CartMirror durably keeps the cart between sessions. Only the cart is mirrored;
// products and filters are reloaded on every start.
type CartMirror interface {
	Load(ctx context.Context) ([]domain.CartItem, error)
	Save(ctx context.Context, cart []domain.CartItem) error
}

// FileMirror stores {"cart": [...]} in a JSON file.
type FileMirror struct {
	doc *filestore.Document[domain.CartDocument]
}

func NewFileMirror(path string, logger *zap.Logger) (*FileMirror, error) {
	doc, err := filestore.Open[domain.CartDocument](path, logger)
	if err != nil {
		return nil, err
	}
	return &FileMirror{doc: doc}, nil
}

func (m *FileMirror) Load(ctx context.Context) ([]domain.CartItem, error) {
	doc, err := m.doc.Read(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Cart, nil
}

func (m *FileMirror) Save(ctx context.Context, cart []domain.CartItem) error {
	return m.doc.Replace(ctx, domain.CartDocument{Cart: cart})
}

// RedisMirror stores the same document under one namespaced key.
type RedisMirror struct {
	client *redis.Client
	key    string
	logger *zap.Logger
}

// CartKey returns the redis key for a cart namespace.
func CartKey(namespace string) string {
	return fmt.Sprintf("storefront:%s:cart", namespace)
}

func NewRedisMirror(client *redis.Client, namespace string, logger *zap.Logger) *RedisMirror {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisMirror{client: client, key: CartKey(namespace), logger: logger}
}

func (m *RedisMirror) Load(ctx context.Context) ([]domain.CartItem, error) {
	raw, err := m.client.Get(ctx, m.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart %s: %w", m.key, err)
	}
	var doc domain.CartDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode cart %s: %w", m.key, err)
	}
	m.logger.Debug("cart loaded", zap.String("key", m.key), zap.Int("lines", len(doc.Cart)))
	return doc.Cart, nil
}

func (m *RedisMirror) Save(ctx context.Context, cart []domain.CartItem) error {
	raw, err := json.Marshal(domain.CartDocument{Cart: cart})
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := m.client.Set(ctx, m.key, raw, 0).Err(); err != nil {
		return fmt.Errorf("save cart %s: %w", m.key, err)
	}
	return nil
}
