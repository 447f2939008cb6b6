package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/gamenight/backend/internal/db"
	"github.com/gamenight/backend/internal/models"
)

const uniqueViolation = "23505"

// PostgresFriendDirectory provides PostgreSQL-backed persistence for the friend directory.
type PostgresFriendDirectory struct {
	pool db.Pool
}

var _ FriendDirectory = (*PostgresFriendDirectory)(nil)

// NewPostgresFriendDirectory constructs a friend directory backed by PostgreSQL.
func NewPostgresFriendDirectory(pool db.Pool) *PostgresFriendDirectory {
	return &PostgresFriendDirectory{pool: pool}
}

// Get fetches a friend by id.
func (r *PostgresFriendDirectory) Get(ctx context.Context, id int) (models.Friend, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Friend{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, name, email
        FROM friends
        WHERE id = $1
    `, id)

	var friend models.Friend
	if err := row.Scan(&friend.ID, &friend.Name, &friend.Email); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Friend{}, ErrNotFound
		}
		return models.Friend{}, fmt.Errorf("select friend: %w", err)
	}
	return friend, nil
}

// List returns every friend ordered by id.
func (r *PostgresFriendDirectory) List(ctx context.Context) ([]models.Friend, error) {
	return r.query(ctx, `
        SELECT id, name, email
        FROM friends
        ORDER BY id
    `)
}

// Search matches query case-insensitively against names and emails.
func (r *PostgresFriendDirectory) Search(ctx context.Context, query string) ([]models.Friend, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return r.List(ctx)
	}

	pattern := "%" + strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(query) + "%"
	return r.query(ctx, `
        SELECT id, name, email
        FROM friends
        WHERE name ILIKE $1 OR email ILIKE $1
        ORDER BY id
    `, pattern)
}

// Add inserts a friend. The database assigns the id when none is set.
func (r *PostgresFriendDirectory) Add(ctx context.Context, friend models.Friend) (models.Friend, error) {
	if strings.TrimSpace(friend.Name) == "" {
		return models.Friend{}, ErrInvalidArgument
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Friend{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var row pgx.Row
	if friend.ID == 0 {
		row = conn.QueryRow(ctx, `
            INSERT INTO friends (name, email)
            VALUES ($1, $2)
            RETURNING id
        `, friend.Name, friend.Email)
	} else {
		row = conn.QueryRow(ctx, `
            INSERT INTO friends (id, name, email)
            VALUES ($1, $2, $3)
            RETURNING id
        `, friend.ID, friend.Name, friend.Email)
	}

	if err := row.Scan(&friend.ID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return models.Friend{}, ErrConflict
		}
		return models.Friend{}, fmt.Errorf("insert friend: %w", err)
	}
	return friend, nil
}

// Update modifies an existing friend.
func (r *PostgresFriendDirectory) Update(ctx context.Context, friend models.Friend) (models.Friend, error) {
	if strings.TrimSpace(friend.Name) == "" {
		return models.Friend{}, ErrInvalidArgument
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Friend{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE friends
        SET name = $2, email = $3
        WHERE id = $1
    `, friend.ID, friend.Name, friend.Email)
	if err != nil {
		return models.Friend{}, fmt.Errorf("update friend: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.Friend{}, ErrNotFound
	}
	return friend, nil
}

// Delete removes a friend.
func (r *PostgresFriendDirectory) Delete(ctx context.Context, id int) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM friends WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete friend: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresFriendDirectory) query(ctx context.Context, sql string, args ...any) ([]models.Friend, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query friends: %w", err)
	}
	defer rows.Close()

	var friends []models.Friend
	for rows.Next() {
		var friend models.Friend
		if err := rows.Scan(&friend.ID, &friend.Name, &friend.Email); err != nil {
			return nil, fmt.Errorf("scan friend: %w", err)
		}
		friends = append(friends, friend)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate friends: %w", err)
	}
	return friends, nil
}
