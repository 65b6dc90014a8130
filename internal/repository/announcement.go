package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Amanss21229/LearnSansaLearn21nov/internal/logger"
	"github.com/Amanss21229/LearnSansaLearn21nov/internal/model"
)

type AnnouncementRepository struct {
	pool *pgxpool.Pool
}

func NewAnnouncementRepository(pool *pgxpool.Pool) *AnnouncementRepository {
	return &AnnouncementRepository{pool: pool}
}

func (r *AnnouncementRepository) Create(ctx context.Context, a *model.Announcement) error {
	defer logger.DeferLogDuration("announcement.Create", time.Now())()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO announcements (id, title, content, stream, class, created_at)
		 VALUES ($1, $2, $3, NULLIF($4,''), NULLIF($5,''), $6)`,
		a.ID, a.Title, a.Content, a.Stream, a.Class, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("announcementRepo.Create: %w", err)
	}
	return nil
}

// List returns announcements newest first; empty stream/class match all.
func (r *AnnouncementRepository) List(ctx context.Context, stream, class string) ([]model.Announcement, error) {
	defer logger.DeferLogDuration("announcement.List", time.Now())()
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, content, COALESCE(stream,''), COALESCE(class,''), created_at
		 FROM announcements
		 WHERE ($1 = '' OR stream IS NULL OR stream = $1)
		   AND ($2 = '' OR class IS NULL OR class = $2)
		 ORDER BY created_at DESC`, stream, class,
	)
	if err != nil {
		return nil, fmt.Errorf("announcementRepo.List query: %w", err)
	}
	defer rows.Close()

	items := make([]model.Announcement, 0, 16)
	for rows.Next() {
		var a model.Announcement
		if err := rows.Scan(&a.ID, &a.Title, &a.Content, &a.Stream, &a.Class, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("announcementRepo.List scan: %w", err)
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("announcementRepo.List rows: %w", err)
	}
	return items, nil
}
