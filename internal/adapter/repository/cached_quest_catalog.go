package repository

import (
	"context"

	lru "github.com/hashicorp/golang-lru"

	"questrank/internal/domain/entity"
	"questrank/internal/domain/repository"
)

// cachedQuestCatalog is a read-through LRU in front of the catalog store.
// Definitions are append-only reference data, so caching by id never serves
// a stale requirement list.
type cachedQuestCatalog struct {
	inner repository.QuestCatalogRepository
	cache *lru.Cache
}

func NewCachedQuestCatalog(inner repository.QuestCatalogRepository, size int) (repository.QuestCatalogRepository, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &cachedQuestCatalog{
		inner: inner,
		cache: cache,
	}, nil
}

func (r *cachedQuestCatalog) GetByID(ctx context.Context, questID string) (*entity.QuestDefinition, error) {
	if cached, ok := r.cache.Get(questID); ok {
		return cached.(*entity.QuestDefinition), nil
	}

	def, err := r.inner.GetByID(ctx, questID)
	if err != nil {
		return nil, err
	}
	r.cache.Add(questID, def)
	return def, nil
}

func (r *cachedQuestCatalog) ListActive(ctx context.Context) ([]entity.QuestDefinition, error) {
	return r.inner.ListActive(ctx)
}

func (r *cachedQuestCatalog) Create(ctx context.Context, def *entity.QuestDefinition) error {
	if err := r.inner.Create(ctx, def); err != nil {
		return err
	}
	r.cache.Add(def.ID, def)
	return nil
}
