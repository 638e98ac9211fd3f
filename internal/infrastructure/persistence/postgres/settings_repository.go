package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
)

var ErrSettingNotFound = errors.New("setting not found")

// SettingsRepository reads and writes service-level settings such as the
// delivery charge applied to materialized orders. Values are stored as text
// and parsed by the accessor.
type SettingsRepository struct {
	q Executor
}

func NewSettingsRepository(db *DB) *SettingsRepository {
	return &SettingsRepository{q: db.Pool}
}

func (r *SettingsRepository) GetInt(ctx context.Context, key string) (int64, error) {
	query := `SELECT value FROM settings WHERE key = $1`

	var raw string
	err := r.q.QueryRow(ctx, query, key).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrSettingNotFound
		}
		return 0, fmt.Errorf("failed to read setting %s: %w", key, err)
	}

	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("setting %s is not an integer: %w", key, err)
	}

	return value, nil
}

func (r *SettingsRepository) SetInt(ctx context.Context, key string, value int64) error {
	query := `
		INSERT INTO settings (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`

	_, err := r.q.Exec(ctx, query, key, strconv.FormatInt(value, 10))
	if err != nil {
		return fmt.Errorf("failed to write setting %s: %w", key, err)
	}

	return nil
}
