package postgres

import (
	"context"

	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/progression"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/shared"
)

// CatalogRepository is the PostgreSQL implementation of
// progression.CatalogRepository. The catalog is read-only from the
// application's point of view; rows arrive through migrations or admin
// tooling.
type CatalogRepository struct {
	conn *Connection
}

// NewCatalogRepository creates a new catalog repository.
func NewCatalogRepository(conn *Connection) *CatalogRepository {
	return &CatalogRepository{conn: conn}
}

// GetTrail returns a trail by ID.
func (r *CatalogRepository) GetTrail(ctx context.Context, trailID string) (*progression.Trail, error) {
	var t progression.Trail
	err := r.conn.QueryRow(ctx, `
		SELECT id, title, description, position, created_at
		FROM trails
		WHERE id = $1
	`, trailID).Scan(&t.ID, &t.Title, &t.Description, &t.Position, &t.CreatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrTrailNotFound
		}
		return nil, storeErr("catalog.get_trail", err)
	}
	return &t, nil
}

// GetModule returns a module by ID.
func (r *CatalogRepository) GetModule(ctx context.Context, moduleID string) (*progression.Module, error) {
	var m progression.Module
	err := r.conn.QueryRow(ctx, `
		SELECT id, trail_id, title, xp_reward, position, created_at
		FROM modules
		WHERE id = $1
	`, moduleID).Scan(&m.ID, &m.TrailID, &m.Title, &m.XPReward, &m.Position, &m.CreatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrModuleNotFound
		}
		return nil, storeErr("catalog.get_module", err)
	}
	return &m, nil
}

// ListTrails returns all trails ordered by position.
func (r *CatalogRepository) ListTrails(ctx context.Context) ([]*progression.Trail, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, title, description, position, created_at
		FROM trails
		ORDER BY position, title
	`)
	if err != nil {
		return nil, storeErr("catalog.list_trails", err)
	}
	defer rows.Close()

	var trails []*progression.Trail
	for rows.Next() {
		var t progression.Trail
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Position, &t.CreatedAt); err != nil {
			return nil, storeErr("catalog.list_trails", err)
		}
		trails = append(trails, &t)
	}
	return trails, rows.Err()
}

// ListModulesByTrail returns the trail's modules ordered by position.
func (r *CatalogRepository) ListModulesByTrail(ctx context.Context, trailID string) ([]*progression.Module, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, trail_id, title, xp_reward, position, created_at
		FROM modules
		WHERE trail_id = $1
		ORDER BY position, title
	`, trailID)
	if err != nil {
		return nil, storeErr("catalog.list_modules", err)
	}
	defer rows.Close()

	var modules []*progression.Module
	for rows.Next() {
		var m progression.Module
		if err := rows.Scan(&m.ID, &m.TrailID, &m.Title, &m.XPReward, &m.Position, &m.CreatedAt); err != nil {
			return nil, storeErr("catalog.list_modules", err)
		}
		modules = append(modules, &m)
	}
	return modules, rows.Err()
}
