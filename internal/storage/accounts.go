package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/aidledger/internal/common"
	"github.com/Veraticus/aidledger/internal/model"
)

// GetAccount returns the cached account at address or common.ErrNotFound.
func (s *SQLiteStorage) GetAccount(ctx context.Context, address string) (*model.CachedAccount, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(address, "address"); err != nil {
		return nil, err
	}

	var account model.CachedAccount
	err := s.db.QueryRowContext(ctx, `
		SELECT address, kind, data, fetched_at
		FROM accounts
		WHERE address = ?
	`, address).Scan(&account.Address, &account.Kind, &account.Data, &account.FetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("account %s: %w", address, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached account: %w", err)
	}
	return &account, nil
}

// PutAccount inserts or replaces a cached account.
func (s *SQLiteStorage) PutAccount(ctx context.Context, account *model.CachedAccount) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCachedAccount(account); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (address, kind, data, fetched_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(address) DO UPDATE SET
			kind = excluded.kind,
			data = excluded.data,
			fetched_at = excluded.fetched_at
	`, account.Address, account.Kind, account.Data, account.FetchedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to cache account: %w", err)
	}
	return nil
}

// DeleteAccount removes address from the cache. Deleting a missing entry is not an error.
func (s *SQLiteStorage) DeleteAccount(ctx context.Context, address string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(address, "address"); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE address = ?`, address); err != nil {
		return fmt.Errorf("failed to delete cached account: %w", err)
	}
	return nil
}

// PurgeAccountsBefore deletes entries fetched before cutoff and returns how many were removed.
func (s *SQLiteStorage) PurgeAccountsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE fetched_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge account cache: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged accounts: %w", err)
	}
	return n, nil
}
