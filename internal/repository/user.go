package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Amanss21229/LearnSansaLearn21nov/internal/logger"
	"github.com/Amanss21229/LearnSansaLearn21nov/internal/model"
)

var ErrNotFound = errors.New("not found")

// userCols is the SELECT column list; nullable text columns are coalesced.
const userCols = `id, name, username, password, gender, stream, class, COALESCE(phone,''), COALESCE(email,''), COALESCE(profile_photo,''), language, user_type, is_admin, COALESCE(admin_class,''), created_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// scanUser scans a row into model.User (order matches userCols).
func scanUser(s interface{ Scan(dest ...any) error }, u *model.User) error {
	return s.Scan(&u.ID, &u.Name, &u.Username, &u.PasswordHash, &u.Gender, &u.Stream, &u.Class,
		&u.Phone, &u.Email, &u.ProfilePhoto, &u.Language, &u.UserType, &u.IsAdmin, &u.AdminClass, &u.CreatedAt)
}

func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	defer logger.DeferLogDuration("user.Create", time.Now())()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, name, username, password, gender, stream, class, phone, email, profile_photo, language, user_type, is_admin, admin_class, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		u.ID, u.Name, u.Username, u.PasswordHash, u.Gender, u.Stream, u.Class, u.Phone, u.Email,
		u.ProfilePhoto, u.Language, u.UserType, u.IsAdmin, u.AdminClass, u.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("userRepo.Create: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	defer logger.DeferLogDuration("user.GetByID", time.Now())()
	u := &model.User{}
	row := r.pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id)
	if err := scanUser(row, u); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("userRepo.GetByID: %w", err)
	}
	return u, nil
}

// GetUser implements the chat gateway's UserDirectory.
func (r *UserRepository) GetUser(ctx context.Context, id string) (*model.User, error) {
	return r.GetByID(ctx, id)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	defer logger.DeferLogDuration("user.GetByUsername", time.Now())()
	u := &model.User{}
	row := r.pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE username = $1`, username)
	if err := scanUser(row, u); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("userRepo.GetByUsername: %w", err)
	}
	return u, nil
}

// ProfileUpdate carries the user-editable profile fields; nil pointers are
// left untouched.
type ProfileUpdate struct {
	Name         *string `json:"name"`
	Phone        *string `json:"phone"`
	Email        *string `json:"email"`
	ProfilePhoto *string `json:"profile_photo"`
	Language     *string `json:"language"`
	Class        *string `json:"class"`
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (*model.User, error) {
	defer logger.DeferLogDuration("user.UpdateProfile", time.Now())()
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET
		   name = COALESCE($2, name),
		   phone = COALESCE($3, phone),
		   email = COALESCE($4, email),
		   profile_photo = COALESCE($5, profile_photo),
		   language = COALESCE($6, language),
		   class = COALESCE($7, class)
		 WHERE id = $1`,
		id, upd.Name, upd.Phone, upd.Email, upd.ProfilePhoto, upd.Language, upd.Class,
	)
	if err != nil {
		return nil, fmt.Errorf("userRepo.UpdateProfile: %w", err)
	}
	return r.GetByID(ctx, id)
}
