package repository

import (
	"context"
	"database/sql"

	"hydromet-data/internal/domain"

	"go.uber.org/zap"
)

type PostgresLogsRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresLogsRepo(db *sql.DB, logger *zap.Logger) *PostgresLogsRepo {
	return &PostgresLogsRepo{db: db, logger: logger}
}

func (r *PostgresLogsRepo) AppendLog(ctx context.Context, event *domain.LogEvent) error {
	q := `
		INSERT INTO event_logs (
			log_id, device_id, user_id, event_type, severity, message, device_name, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, q,
		event.LogID,
		event.DeviceID,
		event.UserID,
		event.Type,
		event.Severity,
		event.Message,
		event.DeviceName,
		event.Timestamp,
	)
	return err
}

func (r *PostgresLogsRepo) ListRecentLogs(ctx context.Context, userID string, limit int) ([]*domain.LogEvent, error) {
	if userID == "" {
		return []*domain.LogEvent{}, nil
	}
	if limit <= 0 {
		limit = 200
	}

	q := `
		SELECT log_id, device_id, user_id, event_type, severity, message, device_name, created_at
		FROM event_logs
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*domain.LogEvent{}
	for rows.Next() {
		var e domain.LogEvent
		if err := rows.Scan(
			&e.LogID,
			&e.DeviceID,
			&e.UserID,
			&e.Type,
			&e.Severity,
			&e.Message,
			&e.DeviceName,
			&e.Timestamp,
		); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (r *PostgresLogsRepo) GetLog(ctx context.Context, userID, logID string) (*domain.LogEvent, error) {
	q := `
		SELECT log_id, device_id, user_id, event_type, severity, message, device_name, created_at
		FROM event_logs
		WHERE user_id = $1 AND log_id = $2
	`
	var e domain.LogEvent
	err := r.db.QueryRowContext(ctx, q, userID, logID).Scan(
		&e.LogID,
		&e.DeviceID,
		&e.UserID,
		&e.Type,
		&e.Severity,
		&e.Message,
		&e.DeviceName,
		&e.Timestamp,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *PostgresLogsRepo) DeleteLog(ctx context.Context, userID, logID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM event_logs WHERE user_id = $1 AND log_id = $2`,
		userID, logID,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
