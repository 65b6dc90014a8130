package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Amanss21229/LearnSansaLearn21nov/internal/logger"
	"github.com/Amanss21229/LearnSansaLearn21nov/internal/model"
)

// MessageRepository persists chat messages. Reactions live in a single jsonb
// column because the toggle protocol reads and rewrites the whole map.
type MessageRepository struct {
	pool *pgxpool.Pool
}

func NewMessageRepository(pool *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{pool: pool}
}

const messageCols = `m.id, COALESCE(m.group_id,''), COALESCE(m.stream,''), m.user_id, m.content, m.type, m.is_pinned, m.reactions, m.created_at`

// scanMessage scans a row (order matches messageCols) and decodes reactions.
func scanMessage(s interface{ Scan(dest ...any) error }, m *model.Message, extra ...any) error {
	var reactions []byte
	dest := []any{&m.ID, &m.GroupID, &m.Stream, &m.UserID, &m.Content, &m.Type, &m.IsPinned, &reactions, &m.CreatedAt}
	dest = append(dest, extra...)
	if err := s.Scan(dest...); err != nil {
		return err
	}
	m.Reactions = model.ReactionMap{}
	if len(reactions) > 0 {
		if err := json.Unmarshal(reactions, &m.Reactions); err != nil {
			return fmt.Errorf("decode reactions: %w", err)
		}
	}
	return nil
}

func (r *MessageRepository) CreateMessage(ctx context.Context, m *model.Message) error {
	defer logger.DeferLogDuration("msg.CreateMessage", time.Now())()
	reactions, err := json.Marshal(m.Reactions)
	if err != nil {
		return fmt.Errorf("msgRepo.CreateMessage marshal: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO messages (id, group_id, stream, user_id, content, type, is_pinned, reactions, created_at)
		 VALUES ($1, NULLIF($2,''), NULLIF($3,''), $4, $5, $6, $7, $8, $9)`,
		m.ID, m.GroupID, m.Stream, m.UserID, m.Content, m.Type, m.IsPinned, reactions, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("msgRepo.CreateMessage: %w", err)
	}
	return nil
}

func (r *MessageRepository) GetMessageByID(ctx context.Context, id string) (*model.Message, error) {
	defer logger.DeferLogDuration("msg.GetMessageByID", time.Now())()
	m := &model.Message{}
	row := r.pool.QueryRow(ctx,
		`SELECT `+messageCols+` FROM messages m WHERE m.id = $1`, id,
	)
	if err := scanMessage(row, m); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("msgRepo.GetMessageByID: %w", err)
	}
	return m, nil
}

// GetRoomMessages returns the history for one room (exactly one of groupID
// and stream set), createdAt ascending, enriched with sender name/photo.
func (r *MessageRepository) GetRoomMessages(ctx context.Context, groupID, stream string) ([]model.Message, error) {
	defer logger.DeferLogDuration("msg.GetRoomMessages", time.Now())()
	var (
		rows pgx.Rows
		err  error
	)
	sel := `SELECT ` + messageCols + `, u.name, COALESCE(u.profile_photo,'')
	        FROM messages m
	        JOIN users u ON u.id = m.user_id`
	if groupID != "" {
		rows, err = r.pool.Query(ctx, sel+` WHERE m.group_id = $1 ORDER BY m.created_at ASC`, groupID)
	} else {
		rows, err = r.pool.Query(ctx, sel+` WHERE m.stream = $1 AND m.group_id IS NULL ORDER BY m.created_at ASC`, stream)
	}
	if err != nil {
		return nil, fmt.Errorf("msgRepo.GetRoomMessages query: %w", err)
	}
	defer rows.Close()

	messages := make([]model.Message, 0, 64)
	for rows.Next() {
		var m model.Message
		if err := scanMessage(rows, &m, &m.UserName, &m.UserPhoto); err != nil {
			return nil, fmt.Errorf("msgRepo.GetRoomMessages scan: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("msgRepo.GetRoomMessages rows: %w", err)
	}
	return messages, nil
}

func (r *MessageRepository) UpdateMessageReactions(ctx context.Context, id string, reactions model.ReactionMap) (*model.Message, error) {
	defer logger.DeferLogDuration("msg.UpdateMessageReactions", time.Now())()
	data, err := json.Marshal(reactions)
	if err != nil {
		return nil, fmt.Errorf("msgRepo.UpdateMessageReactions marshal: %w", err)
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE messages SET reactions = $2 WHERE id = $1`, id, data,
	)
	if err != nil {
		return nil, fmt.Errorf("msgRepo.UpdateMessageReactions: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return r.GetMessageByID(ctx, id)
}

func (r *MessageRepository) UpdateMessagePinned(ctx context.Context, id string, pinned bool) (*model.Message, error) {
	defer logger.DeferLogDuration("msg.UpdateMessagePinned", time.Now())()
	tag, err := r.pool.Exec(ctx,
		`UPDATE messages SET is_pinned = $2 WHERE id = $1`, id, pinned,
	)
	if err != nil {
		return nil, fmt.Errorf("msgRepo.UpdateMessagePinned: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return r.GetMessageByID(ctx, id)
}
