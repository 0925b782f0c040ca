package query

import (
	"context"

	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/progression"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/shared"
)

// ListCatalogHandler serves the trail/module catalog read operations.
type ListCatalogHandler struct {
	catalog progression.CatalogRepository
}

// NewListCatalogHandler creates a new ListCatalogHandler.
func NewListCatalogHandler(catalog progression.CatalogRepository) *ListCatalogHandler {
	return &ListCatalogHandler{catalog: catalog}
}

// ListTrails returns all trails ordered by position.
func (h *ListCatalogHandler) ListTrails(ctx context.Context) ([]*progression.Trail, error) {
	return h.catalog.ListTrails(ctx)
}

// ListModules returns the trail's modules ordered by position.
func (h *ListCatalogHandler) ListModules(ctx context.Context, trailID string) ([]*progression.Module, error) {
	if trailID == "" {
		return nil, shared.NewDomainError("progression", "ListModules", shared.ErrEmptyValue, "trail_id is required")
	}
	// Resolve the trail first so an unknown ID reads as not-found rather
	// than an empty module list.
	if _, err := h.catalog.GetTrail(ctx, trailID); err != nil {
		return nil, err
	}
	return h.catalog.ListModulesByTrail(ctx, trailID)
}
