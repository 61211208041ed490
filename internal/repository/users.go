package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/bubelovv/bounty-board/internal/domain"
	"github.com/jackc/pgx/v5"
)

const userColumns = `user_id, email, github_username, github_avatar, wallet_address, role, created_at, updated_at`

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	var role string
	if err := row.Scan(&u.ID, &u.Email, &u.GithubUsername, &u.GithubAvatar, &u.WalletAddress, &role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return domain.User{}, err
	}
	u.Role = domain.Role(role)
	return u, nil
}

// UpsertUser creates the user on first login. A returning user keeps the role
// chosen at registration, and empty fields never overwrite stored ones.
func (r *Repository) UpsertUser(ctx context.Context, tx pgx.Tx, user domain.User) (domain.User, error) {
	if tx == nil {
		return domain.User{}, errTxRequired
	}

	stored, err := scanUser(tx.QueryRow(ctx, `
		INSERT INTO users (user_id, email, github_username, github_avatar, wallet_address, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id)
		DO UPDATE SET email = COALESCE(NULLIF(EXCLUDED.email, ''), users.email),
		              github_username = COALESCE(NULLIF(EXCLUDED.github_username, ''), users.github_username),
		              github_avatar = COALESCE(NULLIF(EXCLUDED.github_avatar, ''), users.github_avatar),
		              wallet_address = COALESCE(NULLIF(EXCLUDED.wallet_address, ''), users.wallet_address),
		              updated_at = NOW()
		RETURNING `+userColumns,
		user.ID, user.Email, user.GithubUsername, user.GithubAvatar, user.WalletAddress, string(user.Role)))
	if err != nil {
		return domain.User{}, fmt.Errorf("upsert user: %w", err)
	}

	return stored, nil
}

func (r *Repository) GetUser(ctx context.Context, userID string) (domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = $1`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("select user: %w", err)
	}
	return user, nil
}

func (r *Repository) UpdateUserProfile(ctx context.Context, userID string, upd domain.ProfileUpdate) (domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, `
		UPDATE users
		SET github_username = COALESCE($2, github_username),
		    github_avatar = COALESCE($3, github_avatar),
		    wallet_address = COALESCE($4, wallet_address),
		    updated_at = NOW()
		WHERE user_id = $1
		RETURNING `+userColumns,
		userID, upd.GithubUsername, upd.GithubAvatar, upd.WalletAddress))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("update user profile: %w", err)
	}
	return user, nil
}
