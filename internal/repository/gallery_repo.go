package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lumiere/internal/model"
)

const gallerySelect = `
	SELECT g.id, g.user_id, COALESCE(u.email, ''), g.s3_key, g.category, g.title, g.created_at
	FROM galleries g
	LEFT JOIN users u ON u.id = g.user_id`

type GalleryRepository struct {
	pool *pgxpool.Pool
}

func NewGalleryRepository(pool *pgxpool.Pool) *GalleryRepository {
	return &GalleryRepository{pool: pool}
}

// List returns every gallery item, newest first.
func (r *GalleryRepository) List(ctx context.Context) ([]model.Gallery, error) {
	rows, err := r.pool.Query(ctx, gallerySelect+` ORDER BY g.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list galleries: %w", err)
	}
	return collectGalleries(rows)
}

func (r *GalleryRepository) ListByOwner(ctx context.Context, userID string) ([]model.Gallery, error) {
	rows, err := r.pool.Query(ctx, gallerySelect+` WHERE g.user_id = $1 ORDER BY g.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list galleries by owner: %w", err)
	}
	return collectGalleries(rows)
}

func (r *GalleryRepository) FindByID(ctx context.Context, id string) (model.Gallery, error) {
	rows, err := r.pool.Query(ctx, gallerySelect+` WHERE g.id = $1`, id)
	if err != nil {
		return model.Gallery{}, fmt.Errorf("find gallery: %w", err)
	}

	g, err := pgx.CollectExactlyOneRow(rows, scanGallery)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Gallery{}, model.ErrGalleryNotFound
	}
	if err != nil {
		return model.Gallery{}, fmt.Errorf("find gallery: %w", err)
	}
	return g, nil
}

func (r *GalleryRepository) Create(ctx context.Context, g model.Gallery) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO galleries (id, user_id, s3_key, category, title, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		g.ID, g.UserID, g.ObjectKey, g.Category, g.Title, g.CreatedAt)
	if err != nil {
		return fmt.Errorf("create gallery: %w", err)
	}
	return nil
}

// Update changes title and category of an item owned by userID.
func (r *GalleryRepository) Update(ctx context.Context, id string, userID string, title string, category string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE galleries SET title = $3, category = $4 WHERE id = $1 AND user_id = $2`,
		id, userID, title, category)
	if err != nil {
		return fmt.Errorf("update gallery: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrGalleryNotFound
	}
	return nil
}

func (r *GalleryRepository) Delete(ctx context.Context, id string, userID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM galleries WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete gallery: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrGalleryNotFound
	}
	return nil
}

func collectGalleries(rows pgx.Rows) ([]model.Gallery, error) {
	items, err := pgx.CollectRows(rows, scanGallery)
	if err != nil {
		return nil, fmt.Errorf("scan galleries: %w", err)
	}
	return items, nil
}

func scanGallery(row pgx.CollectableRow) (model.Gallery, error) {
	var g model.Gallery
	err := row.Scan(&g.ID, &g.UserID, &g.OwnerEmail, &g.ObjectKey, &g.Category, &g.Title, &g.CreatedAt)
	return g, err
}
