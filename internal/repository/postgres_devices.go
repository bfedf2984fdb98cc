package repository

import (
	"context"
	"database/sql"
	"time"

	"hydromet-data/internal/domain"

	"go.uber.org/zap"
)

type PostgresDevicesRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresDevicesRepo(db *sql.DB, logger *zap.Logger) *PostgresDevicesRepo {
	return &PostgresDevicesRepo{db: db, logger: logger}
}

const deviceColumns = `
	device_id,
	user_id,
	device_name,
	location,
	latitude,
	longitude,
	registration_date,
	threshold,
	battery_level,
	last_update`

func (r *PostgresDevicesRepo) ListDevices(ctx context.Context, userID string) ([]*domain.Device, error) {
	if userID == "" {
		return []*domain.Device{}, nil
	}

	q := `
		SELECT ` + deviceColumns + `
		FROM devices
		WHERE user_id = $1
		ORDER BY device_name
	`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*domain.Device{}
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *PostgresDevicesRepo) GetDevice(ctx context.Context, userID, deviceID string) (*domain.Device, error) {
	q := `
		SELECT ` + deviceColumns + `
		FROM devices
		WHERE user_id = $1 AND device_id = $2
	`
	d, err := scanDevice(r.db.QueryRowContext(ctx, q, userID, deviceID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *PostgresDevicesRepo) CreateDevice(ctx context.Context, device *domain.Device) error {
	q := `
		INSERT INTO devices (
			device_id, user_id, device_name, location,
			latitude, longitude, registration_date, threshold,
			battery_level, last_update
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	var lastUpdate sql.NullTime
	if !device.LastUpdate.IsZero() {
		lastUpdate = sql.NullTime{Time: device.LastUpdate, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, q,
		device.DeviceID,
		device.UserID,
		device.Name,
		device.Location,
		device.Coordinates.Lat,
		device.Coordinates.Lng,
		device.RegistrationDate,
		device.Threshold,
		device.BatteryLevel,
		lastUpdate,
	)
	return err
}

func (r *PostgresDevicesRepo) UpdateDevice(ctx context.Context, userID string, device *domain.Device) error {
	q := `
		UPDATE devices
		SET device_name = $3,
		    location = $4,
		    latitude = $5,
		    longitude = $6,
		    threshold = $7
		WHERE user_id = $1 AND device_id = $2
	`
	res, err := r.db.ExecContext(ctx, q,
		userID,
		device.DeviceID,
		device.Name,
		device.Location,
		device.Coordinates.Lat,
		device.Coordinates.Lng,
		device.Threshold,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateTelemetry 上报路径更新遥测快照
// 不带 user_id 条件：上报身份已由 token 校验，按 device_id 直写。
func (r *PostgresDevicesRepo) UpdateTelemetry(ctx context.Context, deviceID string, batteryLevel int, lastUpdateUnix int64) error {
	q := `
		UPDATE devices
		SET battery_level = $2, last_update = $3
		WHERE device_id = $1
	`
	res, err := r.db.ExecContext(ctx, q, deviceID, batteryLevel, time.Unix(lastUpdateUnix, 0))
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresDevicesRepo) DeleteDevice(ctx context.Context, userID, deviceID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM devices WHERE user_id = $1 AND device_id = $2`,
		userID, deviceID,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// scanner 兼容 *sql.Row 和 *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanDevice(s scanner) (*domain.Device, error) {
	var d domain.Device
	var lastUpdate sql.NullTime
	if err := s.Scan(
		&d.DeviceID,
		&d.UserID,
		&d.Name,
		&d.Location,
		&d.Coordinates.Lat,
		&d.Coordinates.Lng,
		&d.RegistrationDate,
		&d.Threshold,
		&d.BatteryLevel,
		&lastUpdate,
	); err != nil {
		return nil, err
	}
	if lastUpdate.Valid {
		d.LastUpdate = lastUpdate.Time
	}
	return &d, nil
}
