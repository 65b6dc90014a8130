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

type GroupRepository struct {
	pool *pgxpool.Pool
}

func NewGroupRepository(pool *pgxpool.Pool) *GroupRepository {
	return &GroupRepository{pool: pool}
}

// Create inserts the group and its creator's accepted membership in one
// transaction (the creator is a member from the start).
func (r *GroupRepository) Create(ctx context.Context, g *model.Group) error {
	defer logger.DeferLogDuration("group.Create", time.Now())()
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("groupRepo.Create begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO groups (id, name, username, creator_id, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		g.ID, g.Name, g.Username, g.CreatorID, g.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("groupRepo.Create group: %w", err)
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO group_members (id, group_id, user_id, status, joined_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		uuid.New().String(), g.ID, g.CreatorID, model.MemberStatusAccepted, g.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("groupRepo.Create member: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("groupRepo.Create commit: %w", err)
	}
	return nil
}

func (r *GroupRepository) GetByUsername(ctx context.Context, username string) (*model.Group, error) {
	defer logger.DeferLogDuration("group.GetByUsername", time.Now())()
	g := &model.Group{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, username, creator_id, created_at FROM groups WHERE username = $1`, username,
	).Scan(&g.ID, &g.Name, &g.Username, &g.CreatorID, &g.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("groupRepo.GetByUsername: %w", err)
	}
	return g, nil
}

func (r *GroupRepository) GetByID(ctx context.Context, id string) (*model.Group, error) {
	defer logger.DeferLogDuration("group.GetByID", time.Now())()
	g := &model.Group{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, username, creator_id, created_at FROM groups WHERE id = $1`, id,
	).Scan(&g.ID, &g.Name, &g.Username, &g.CreatorID, &g.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("groupRepo.GetByID: %w", err)
	}
	return g, nil
}

// GetByUser returns groups where the user has an accepted membership.
func (r *GroupRepository) GetByUser(ctx context.Context, userID string) ([]model.Group, error) {
	defer logger.DeferLogDuration("group.GetByUser", time.Now())()
	rows, err := r.pool.Query(ctx,
		`SELECT g.id, g.name, g.username, g.creator_id, g.created_at
		 FROM groups g
		 JOIN group_members gm ON gm.group_id = g.id
		 WHERE gm.user_id = $1 AND gm.status = 'accepted'
		 ORDER BY g.created_at`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("groupRepo.GetByUser query: %w", err)
	}
	defer rows.Close()

	groups := make([]model.Group, 0, 8)
	for rows.Next() {
		var g model.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Username, &g.CreatorID, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("groupRepo.GetByUser scan: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("groupRepo.GetByUser rows: %w", err)
	}
	return groups, nil
}

// CreateMember inserts a membership row. The (group_id, user_id) uniqueness
// constraint dedupes repeat requests; on conflict the existing row is
// returned unchanged.
func (r *GroupRepository) CreateMember(ctx context.Context, m *model.GroupMember) error {
	defer logger.DeferLogDuration("group.CreateMember", time.Now())()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO group_members (id, group_id, user_id, status, joined_at)
		 VALUES ($1, $2, $3, $4, $5) ON CONFLICT (group_id, user_id) DO NOTHING`,
		m.ID, m.GroupID, m.UserID, m.Status, m.JoinedAt,
	)
	if err != nil {
		return fmt.Errorf("groupRepo.CreateMember: %w", err)
	}
	err = r.pool.QueryRow(ctx,
		`SELECT id, status, joined_at FROM group_members WHERE group_id = $1 AND user_id = $2`,
		m.GroupID, m.UserID,
	).Scan(&m.ID, &m.Status, &m.JoinedAt)
	if err != nil {
		return fmt.Errorf("groupRepo.CreateMember fetch: %w", err)
	}
	return nil
}

// GetGroupMembers implements the chat gateway's MembershipStore.
func (r *GroupRepository) GetGroupMembers(ctx context.Context, groupID string) ([]model.GroupMember, error) {
	defer logger.DeferLogDuration("group.GetGroupMembers", time.Now())()
	rows, err := r.pool.Query(ctx,
		`SELECT gm.id, gm.group_id, gm.user_id, gm.status, gm.joined_at, u.name
		 FROM group_members gm
		 JOIN users u ON u.id = gm.user_id
		 WHERE gm.group_id = $1
		 ORDER BY gm.joined_at`, groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("groupRepo.GetGroupMembers query: %w", err)
	}
	defer rows.Close()

	members := make([]model.GroupMember, 0, 16)
	for rows.Next() {
		var m model.GroupMember
		if err := rows.Scan(&m.ID, &m.GroupID, &m.UserID, &m.Status, &m.JoinedAt, &m.UserName); err != nil {
			return nil, fmt.Errorf("groupRepo.GetGroupMembers scan: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("groupRepo.GetGroupMembers rows: %w", err)
	}
	return members, nil
}

func (r *GroupRepository) GetMemberByID(ctx context.Context, id string) (*model.GroupMember, error) {
	defer logger.DeferLogDuration("group.GetMemberByID", time.Now())()
	m := &model.GroupMember{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, group_id, user_id, status, joined_at FROM group_members WHERE id = $1`, id,
	).Scan(&m.ID, &m.GroupID, &m.UserID, &m.Status, &m.JoinedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("groupRepo.GetMemberByID: %w", err)
	}
	return m, nil
}

// UpdateMemberStatus transitions a membership (pending -> accepted). It does
// not touch any live room subscription; the member's connection rejoins.
func (r *GroupRepository) UpdateMemberStatus(ctx context.Context, id string, status model.MemberStatus) error {
	defer logger.DeferLogDuration("group.UpdateMemberStatus", time.Now())()
	tag, err := r.pool.Exec(ctx,
		`UPDATE group_members SET status = $2 WHERE id = $1`, id, status,
	)
	if err != nil {
		return fmt.Errorf("groupRepo.UpdateMemberStatus: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
