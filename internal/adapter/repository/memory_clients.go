package repository

import (
	"context"
	"sync"

	"github.com/jsiptv/mobipay/internal/domain/entity"
	apperrors "github.com/jsiptv/mobipay/internal/domain/errors"
)

// MemoryClientRegistry keeps provisioned clients in process memory
type MemoryClientRegistry struct {
	mu      sync.RWMutex
	clients map[string]*entity.Client
}

func NewMemoryClientRegistry() *MemoryClientRegistry {
	return &MemoryClientRegistry{
		clients: make(map[string]*entity.Client),
	}
}

func (r *MemoryClientRegistry) Save(ctx context.Context, client *entity.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *client
	r.clients[client.Username] = &copied
	return nil
}

func (r *MemoryClientRegistry) GetByUsername(ctx context.Context, username string) (*entity.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	client, exists := r.clients[username]
	if !exists {
		return nil, apperrors.ErrClientNotFound
	}

	copied := *client
	return &copied, nil
}
