package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Amanss21229/LearnSansaLearn21nov/internal/logger"
	"github.com/Amanss21229/LearnSansaLearn21nov/internal/model"
)

type ChatSettingRepository struct {
	pool *pgxpool.Pool
}

func NewChatSettingRepository(pool *pgxpool.Pool) *ChatSettingRepository {
	return &ChatSettingRepository{pool: pool}
}

// GetChatSetting returns the setting for a stream; ErrNotFound when no row
// exists (callers treat that as enabled).
func (r *ChatSettingRepository) GetChatSetting(ctx context.Context, stream string) (*model.ChatSetting, error) {
	defer logger.DeferLogDuration("setting.GetChatSetting", time.Now())()
	s := &model.ChatSetting{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, stream, is_enabled FROM chat_settings WHERE stream = $1`, stream,
	).Scan(&s.ID, &s.Stream, &s.IsEnabled)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("settingRepo.GetChatSetting: %w", err)
	}
	return s, nil
}

// SetChatEnabled upserts the per-stream flag.
func (r *ChatSettingRepository) SetChatEnabled(ctx context.Context, stream string, enabled bool) error {
	defer logger.DeferLogDuration("setting.SetChatEnabled", time.Now())()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO chat_settings (id, stream, is_enabled)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (stream) DO UPDATE SET is_enabled = EXCLUDED.is_enabled`,
		uuid.New().String(), stream, enabled,
	)
	if err != nil {
		return fmt.Errorf("settingRepo.SetChatEnabled: %w", err)
	}
	return nil
}
