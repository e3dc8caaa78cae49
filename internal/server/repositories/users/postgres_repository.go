package users

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/astroprofile/internal/common"
	"github.com/dmitrijs2005/astroprofile/internal/dbx"
	"github.com/dmitrijs2005/astroprofile/internal/server/models"
)

// PostgresRepository stores users in the users table. Insertion order is
// the seq column; profiles are JSONB.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectUserQuery = `SELECT username, password_hash, email, profile, created_at FROM users`

func (r *PostgresRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error) {
	if username != "" {
		u, err := scanUser(r.db.QueryRowContext(ctx, selectUserQuery+`
		 WHERE username = $1`, username))
		if err == nil || !errors.Is(err, common.ErrorNotFound) {
			return u, err
		}
	}

	if email != "" {
		return scanUser(r.db.QueryRowContext(ctx, selectUserQuery+`
		 WHERE email = $1
		 ORDER BY seq
		 LIMIT 1`, email))
	}

	return nil, common.ErrorNotFound
}

func scanUser(row *sql.Row) (*models.User, error) {
	var (
		u       models.User
		profile []byte
	)
	err := row.Scan(&u.Username, &u.PasswordHash, &u.Email, &profile, &u.CreatedAt)
	if err = dbx.NotFound(err, common.ErrorNotFound); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	u.Profile, err = decodeProfile(profile)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PostgresRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, username).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, user *models.User) error {
	query :=
		`INSERT INTO users (username, password_hash, email, profile, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (username) DO NOTHING`

	profile, err := encodeProfile(user.Profile)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, query, user.Username, user.PasswordHash, user.Email, profile, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}

	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrDuplicateUsername
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

// UpdateProfile locks the row for the duration of the mutation so that
// concurrent updates of one user are applied sequentially.
func (r *PostgresRepository) UpdateProfile(ctx context.Context, username string, mutate ProfileMutator) (models.Profile, error) {
	var next models.Profile

	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var raw []byte
		err := tx.QueryRowContext(ctx,
			`SELECT profile FROM users
			 WHERE username = $1
			 FOR UPDATE`, username).Scan(&raw)
		if err = dbx.NotFound(err, common.ErrorNotFound); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return err
			}
			return fmt.Errorf("db error: %w", err)
		}

		current, err := decodeProfile(raw)
		if err != nil {
			return err
		}

		next, err = mutate(current)
		if err != nil {
			return err
		}

		encoded, err := encodeProfile(next)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET profile = $2
			 WHERE username = $1`, username, encoded); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return next, nil
}

func decodeProfile(raw []byte) (models.Profile, error) {
	p := models.Profile{}
	if len(raw) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return p, nil
}

func encodeProfile(p models.Profile) (string, error) {
	if p == nil {
		p = models.Profile{}
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode profile: %w", err)
	}
	return string(b), nil
}
