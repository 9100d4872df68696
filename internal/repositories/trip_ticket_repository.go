package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	intconfig "dtt/internal/config"
	intdb "dtt/internal/db"
	"dtt/internal/domain/models"
)

const tripTicketTable = "trip_tickets"

const tripTicketDDL = `CREATE TABLE IF NOT EXISTS trip_tickets (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	dtt_id VARCHAR(64) NOT NULL,
	driver_name VARCHAR(255) NOT NULL DEFAULT '',
	vehicle_brand VARCHAR(100) NOT NULL DEFAULT '',
	vehicle_model VARCHAR(100) NOT NULL DEFAULT '',
	plate_no VARCHAR(32) NOT NULL DEFAULT '',
	passengers JSON NULL,
	destination VARCHAR(512) NOT NULL DEFAULT '',
	purpose TEXT NULL,
	purposes JSON NULL,
	period_from VARCHAR(32) NULL,
	period_to VARCHAR(32) NULL,
	trip_log JSON NULL,
	drive_file_id VARCHAR(128) NULL,
	drive_view_link VARCHAR(512) NULL,
	drive_download_link VARCHAR(512) NULL,
	drive_public_link VARCHAR(512) NULL,
	uploaded_at DATETIME NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NULL,
	UNIQUE KEY uq_trip_tickets_dtt_id (dtt_id),
	KEY idx_trip_tickets_period_from (period_from)
) DEFAULT CHARSET=utf8mb4`

const tripTicketColumns = `
	id,
	COALESCE(dtt_id,''),
	COALESCE(driver_name,''),
	COALESCE(vehicle_brand,''),
	COALESCE(vehicle_model,''),
	COALESCE(plate_no,''),
	passengers,
	COALESCE(destination,''),
	COALESCE(purpose,''),
	purposes,
	COALESCE(period_from,''),
	COALESCE(period_to,''),
	trip_log,
	COALESCE(drive_file_id,''),
	COALESCE(drive_view_link,''),
	COALESCE(drive_download_link,''),
	COALESCE(drive_public_link,''),
	uploaded_at,
	created_at`

// TripTicketRepository stores trip tickets in MySQL.
type TripTicketRepository struct {
	DB *sql.DB
}

func (r TripTicketRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

// EnsureSchema creates the table on first start and adds the trip_log column
// to tables created before it existed.
func (r TripTicketRepository) EnsureSchema() error {
	db := r.db()
	if db == nil {
		return sql.ErrConnDone
	}
	if !intdb.HasTable(db, tripTicketTable) {
		if _, err := db.Exec(tripTicketDDL); err != nil {
			return fmt.Errorf("create %s: %w", tripTicketTable, err)
		}
		return nil
	}
	if !intdb.HasColumn(db, tripTicketTable, "trip_log") {
		if _, err := db.Exec(`ALTER TABLE ` + tripTicketTable + ` ADD COLUMN trip_log JSON NULL`); err != nil {
			return fmt.Errorf("add trip_log column: %w", err)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTripTicket(row rowScanner) (models.TripTicket, error) {
	var (
		t                             models.TripTicket
		passengers, purposes, tripLog sql.NullString
		uploadedAt, createdAt         sql.NullTime
	)
	err := row.Scan(
		&t.ID,
		&t.DttID,
		&t.DriverName,
		&t.VehicleBrand,
		&t.VehicleModel,
		&t.PlateNo,
		&passengers,
		&t.Destination,
		&t.Purpose,
		&purposes,
		&t.PeriodFrom,
		&t.PeriodTo,
		&tripLog,
		&t.Drive.FileID,
		&t.Drive.ViewLink,
		&t.Drive.DownloadLink,
		&t.Drive.PublicLink,
		&uploadedAt,
		&createdAt,
	)
	if err != nil {
		return models.TripTicket{}, err
	}
	if err := intdb.ScanJSON(passengers, &t.Passengers); err != nil {
		return t, fmt.Errorf("trip ticket %d passengers: %w", t.ID, err)
	}
	if err := intdb.ScanJSON(purposes, &t.Purposes); err != nil {
		return t, fmt.Errorf("trip ticket %d purposes: %w", t.ID, err)
	}
	if err := intdb.ScanJSON(tripLog, &t.TripLog); err != nil {
		return t, fmt.Errorf("trip ticket %d trip_log: %w", t.ID, err)
	}
	if uploadedAt.Valid {
		v := uploadedAt.Time
		t.Drive.UploadedAt = &v
	}
	if createdAt.Valid {
		v := createdAt.Time
		t.CreatedAt = &v
	}
	return t, nil
}

// GetByID loads one ticket. Missing rows yield sql.ErrNoRows.
func (r TripTicketRepository) GetByID(id int64) (models.TripTicket, error) {
	if id <= 0 {
		return models.TripTicket{}, sql.ErrNoRows
	}
	db := r.db()
	if db == nil {
		return models.TripTicket{}, sql.ErrConnDone
	}
	row := db.QueryRow(`SELECT `+tripTicketColumns+` FROM `+tripTicketTable+` WHERE id=? LIMIT 1`, id)
	return scanTripTicket(row)
}

// List returns tickets whose period starts within [from, to], newest first.
// Blank bounds are open.
func (r TripTicketRepository) List(from, to string) ([]models.TripTicket, error) {
	db := r.db()
	if db == nil {
		return nil, sql.ErrConnDone
	}
	where := []string{}
	args := []any{}
	if from = strings.TrimSpace(from); from != "" {
		where = append(where, "period_from >= ?")
		args = append(args, from)
	}
	if to = strings.TrimSpace(to); to != "" {
		where = append(where, "period_from <= ?")
		args = append(args, to)
	}
	query := `SELECT ` + tripTicketColumns + ` FROM ` + tripTicketTable
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY id DESC LIMIT 1000`

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.TripTicket{}
	for rows.Next() {
		t, err := scanTripTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Create inserts t and returns it with ID and CreatedAt set.
func (r TripTicketRepository) Create(t models.TripTicket) (models.TripTicket, error) {
	db := r.db()
	if db == nil {
		return t, sql.ErrConnDone
	}
	passengers, err := intdb.JSONColumn(t.Passengers)
	if err != nil {
		return t, err
	}
	purposes, err := intdb.JSONColumn(t.Purposes)
	if err != nil {
		return t, err
	}
	tripLog, err := intdb.JSONColumn(t.TripLog)
	if err != nil {
		return t, err
	}
	now := time.Now()
	if t.CreatedAt != nil {
		now = *t.CreatedAt
	}

	res, err := db.Exec(`
		INSERT INTO `+tripTicketTable+`
			(dtt_id, driver_name, vehicle_brand, vehicle_model, plate_no, passengers,
			 destination, purpose, purposes, period_from, period_to, trip_log, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		t.DttID, t.DriverName, t.VehicleBrand, t.VehicleModel, t.PlateNo, passengers,
		t.Destination, t.Purpose, purposes,
		intdb.NullIfEmpty(t.PeriodFrom), intdb.NullIfEmpty(t.PeriodTo), tripLog, now,
	)
	if err != nil {
		return t, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return t, err
	}
	t.ID = id
	t.CreatedAt = &now
	return t, nil
}

// UpdateTripLog replaces the post-trip readings of a ticket.
func (r TripTicketRepository) UpdateTripLog(id int64, log models.TripLog) error {
	db := r.db()
	if db == nil {
		return sql.ErrConnDone
	}
	raw, err := intdb.JSONColumn(log)
	if err != nil {
		return err
	}
	return expectOneRow(db.Exec(`UPDATE `+tripTicketTable+` SET trip_log=?, updated_at=? WHERE id=?`, raw, time.Now(), id))
}

// SaveUploadResult records the Drive links of an uploaded ticket.
func (r TripTicketRepository) SaveUploadResult(id int64, links models.DriveLinks) error {
	db := r.db()
	if db == nil {
		return sql.ErrConnDone
	}
	uploadedAt := time.Now()
	if links.UploadedAt != nil {
		uploadedAt = *links.UploadedAt
	}
	return expectOneRow(db.Exec(`
		UPDATE `+tripTicketTable+`
		SET drive_file_id=?, drive_view_link=?, drive_download_link=?, drive_public_link=?, uploaded_at=?, updated_at=?
		WHERE id=?`,
		links.FileID,
		intdb.NullIfEmpty(links.ViewLink),
		intdb.NullIfEmpty(links.DownloadLink),
		intdb.NullIfEmpty(links.PublicLink),
		uploadedAt, time.Now(), id,
	))
}

// ClearUploadResult forgets the Drive links after the file was deleted.
func (r TripTicketRepository) ClearUploadResult(id int64) error {
	db := r.db()
	if db == nil {
		return sql.ErrConnDone
	}
	return expectOneRow(db.Exec(`
		UPDATE `+tripTicketTable+`
		SET drive_file_id=NULL, drive_view_link=NULL, drive_download_link=NULL, drive_public_link=NULL, uploaded_at=NULL, updated_at=?
		WHERE id=?`, time.Now(), id))
}

func expectOneRow(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
