package repository_test

import (
	"context"
	"testing"
	"time"

	"hydromet-data/internal/domain"
	"hydromet-data/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var logCols = []string{
	"log_id", "device_id", "user_id", "event_type",
	"severity", "message", "device_name", "created_at",
}

func TestAppendLog(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewPostgresLogsRepo(db, zap.NewNop())

	ts := time.Now()
	mock.ExpectExec("INSERT INTO event_logs").
		WithArgs("log-1", "dev-1", "u-1", domain.EventThreshold,
			domain.SeverityHigh, "Water level exceeded threshold", "Alpha", ts).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.AppendLog(context.Background(), &domain.LogEvent{
		LogID:      "log-1",
		DeviceID:   "dev-1",
		UserID:     "u-1",
		Type:       domain.EventThreshold,
		Severity:   domain.SeverityHigh,
		Message:    "Water level exceeded threshold",
		DeviceName: "Alpha",
		Timestamp:  ts,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListRecentLogs(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewPostgresLogsRepo(db, zap.NewNop())

	rows := mock.NewRows(logCols).
		AddRow("log-2", "dev-1", "u-1", domain.EventConnection,
			domain.SeverityLow, "Device reconnected", "Alpha", time.Now()).
		AddRow("log-1", "dev-1", "u-1", domain.EventThreshold,
			domain.SeverityHigh, "Water level exceeded threshold", "Alpha", time.Now().Add(-time.Hour))
	mock.ExpectQuery("SELECT(.|\n)*FROM event_logs(.|\n)*ORDER BY created_at DESC").
		WithArgs("u-1", 500).
		WillReturnRows(rows)

	logs, err := repo.ListRecentLogs(context.Background(), "u-1", 500)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	require.Equal(t, "log-2", logs[0].LogID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListRecentLogs_DefaultLimit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewPostgresLogsRepo(db, zap.NewNop())

	mock.ExpectQuery("SELECT(.|\n)*FROM event_logs").
		WithArgs("u-1", 200).
		WillReturnRows(mock.NewRows(logCols))

	logs, err := repo.ListRecentLogs(context.Background(), "u-1", 0)
	require.NoError(t, err)
	require.Empty(t, logs)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetLog_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewPostgresLogsRepo(db, zap.NewNop())

	mock.ExpectQuery("SELECT(.|\n)*FROM event_logs(.|\n)*WHERE user_id = \\$1 AND log_id = \\$2").
		WithArgs("u-1", "missing").
		WillReturnRows(mock.NewRows(logCols))

	_, err = repo.GetLog(context.Background(), "u-1", "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteLog_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewPostgresLogsRepo(db, zap.NewNop())

	mock.ExpectExec("DELETE FROM event_logs").
		WithArgs("u-1", "gone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.DeleteLog(context.Background(), "u-1", "gone")
	require.ErrorIs(t, err, repository.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
