package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"dtt/internal/domain"
	"dtt/internal/domain/models"
	"dtt/internal/drive"
	"dtt/internal/modal"
	"dtt/internal/utils"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// BatchUploadLimit caps concurrent Drive uploads of one batch.
const BatchUploadLimit = 3

// TicketStore persists trip tickets.
type TicketStore interface {
	GetByID(id int64) (models.TripTicket, error)
	List(from, to string) ([]models.TripTicket, error)
	Create(t models.TripTicket) (models.TripTicket, error)
	UpdateTripLog(id int64, log models.TripLog) error
	SaveUploadResult(id int64, links models.DriveLinks) error
	ClearUploadResult(id int64) error
}

// FileStore is the cloud side of an upload.
type FileStore interface {
	UploadPDF(ctx context.Context, pdf []byte, fileName string, meta map[string]any) (drive.UploadResult, error)
	DeleteFile(ctx context.Context, fileID string) (bool, error)
}

// Dialogs presents progress, alerts and confirmations. *modal.Manager
// implements it.
type Dialogs interface {
	Loading(cfg modal.LoadingConfig) string
	Notify(cfg modal.AlertConfig) string
	Confirm(ctx context.Context, cfg modal.ConfirmConfig) bool
	Close(id string)
}

// TicketService ties the trip ticket store, renderer, Drive and dialogs together.
type TicketService struct {
	Repo     TicketStore
	Renderer *TicketRenderer
	Files    FileStore
	Dialogs  Dialogs

	RequestID string
	Now       func() time.Time
}

// BatchResult is the outcome of one ticket in an upload batch.
type BatchResult struct {
	ID     int64               `json:"id"`
	Result *drive.UploadResult `json:"result,omitempty"`
	Error  string              `json:"error,omitempty"`
}

func (s TicketService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s TicketService) Get(id int64) (models.TripTicket, error) {
	if id <= 0 {
		return models.TripTicket{}, domain.ValidationError{Field: "id", Msg: "invalid id"}
	}
	t, err := s.Repo.GetByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.TripTicket{}, domain.NotFoundError{Resource: "trip ticket", ID: id, Err: err}
		}
		return models.TripTicket{}, domain.InternalError{Msg: "load trip ticket", Err: err}
	}
	return t, nil
}

func (s TicketService) List(from, to string) ([]models.TripTicket, error) {
	if err := validateRange(from, to); err != nil {
		return nil, err
	}
	list, err := s.Repo.List(from, to)
	if err != nil {
		return nil, domain.InternalError{Msg: "list trip tickets", Err: err}
	}
	return list, nil
}

// Create validates and stores a new ticket. A missing control number is
// generated as DTT-YYYYMMDD-XXXXXX.
func (s TicketService) Create(t models.TripTicket) (models.TripTicket, error) {
	t.DttID = strings.TrimSpace(t.DttID)
	t.DriverName = utils.NormalizeSpace(t.DriverName)
	t.Destination = utils.NormalizeSpace(t.Destination)
	t.PlateNo = strings.ToUpper(utils.NormalizeSpace(t.PlateNo))
	t.PeriodFrom = strings.TrimSpace(t.PeriodFrom)
	t.PeriodTo = strings.TrimSpace(t.PeriodTo)
	t.Passengers = utils.CleanNameList(t.Passengers)
	t.Drive = models.DriveLinks{}

	if t.DriverName == "" {
		return t, domain.ValidationError{Field: "driverName", Msg: "driver name is required"}
	}
	if t.Destination == "" {
		return t, domain.ValidationError{Field: "destination", Msg: "destination is required"}
	}
	if err := validateRange(t.PeriodFrom, t.PeriodTo); err != nil {
		return t, err
	}
	if t.DttID == "" {
		t.DttID = fmt.Sprintf("DTT-%s-%s", s.now().Format("20060102"), strings.ToUpper(uuid.NewString()[:6]))
	}

	created, err := s.Repo.Create(t)
	if err != nil {
		if strings.Contains(err.Error(), "Duplicate entry") {
			return t, domain.ConflictError{Resource: "trip ticket", Msg: "control number already used", Err: err}
		}
		return t, domain.InternalError{Msg: "create trip ticket", Err: err}
	}
	utils.LogEvent(s.RequestID, "trip_ticket", "create", fmt.Sprintf("id=%d dtt_id=%s", created.ID, created.DttID))
	return created, nil
}

// UpdateTripLog stores the readings the driver filled in after the trip.
func (s TicketService) UpdateTripLog(id int64, log models.TripLog) (models.TripTicket, error) {
	t, err := s.Get(id)
	if err != nil {
		return t, err
	}
	if err := validateTripLog(log); err != nil {
		return t, err
	}
	if err := s.Repo.UpdateTripLog(id, log); err != nil {
		return t, domain.InternalError{Msg: "update trip log", Err: err}
	}
	t.TripLog = log
	utils.LogEvent(s.RequestID, "trip_ticket", "update_trip_log", fmt.Sprintf("id=%d", id))
	return t, nil
}

// Render returns the PDF and its download filename.
func (s TicketService) Render(id int64, layout Layout) ([]byte, string, error) {
	t, err := s.Get(id)
	if err != nil {
		return nil, "", err
	}
	pdf, err := s.Renderer.Render(t, layout)
	if err != nil {
		return nil, "", err
	}
	utils.LogEvent(s.RequestID, "trip_ticket", "render", fmt.Sprintf("id=%d layout=%s bytes=%d", id, layout, len(pdf)))
	return pdf, TicketFilename(t, s.now()), nil
}

// Upload renders the government form, uploads it to Drive and records the
// links. A loading dialog is shown for the duration and failures raise an
// error alert.
func (s TicketService) Upload(ctx context.Context, id int64) (drive.UploadResult, error) {
	if s.Dialogs != nil {
		loading := s.Dialogs.Loading(modal.LoadingConfig{Title: "Uploading", Message: "Uploading trip ticket to Google Drive..."})
		defer s.Dialogs.Close(loading)
	}
	res, err := s.upload(ctx, id)
	if err != nil {
		s.alert("Upload Failed", err.Error(), modal.AlertError)
		return res, err
	}
	return res, nil
}

// UploadBatch uploads several tickets, at most BatchUploadLimit at a time.
// One failure does not stop the others.
func (s TicketService) UploadBatch(ctx context.Context, ids []int64) ([]BatchResult, error) {
	if len(ids) == 0 {
		return nil, domain.ValidationError{Field: "ids", Msg: "at least one id is required"}
	}
	if s.Dialogs != nil {
		loading := s.Dialogs.Loading(modal.LoadingConfig{
			Title:   "Uploading",
			Message: fmt.Sprintf("Uploading %d trip tickets to Google Drive...", len(ids)),
		})
		defer s.Dialogs.Close(loading)
	}

	results := make([]BatchResult, len(ids))
	var (
		mu     sync.Mutex
		failed int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(BatchUploadLimit)
	for i, id := range ids {
		g.Go(func() error {
			res, err := s.upload(gctx, id)
			results[i] = BatchResult{ID: id}
			if err != nil {
				results[i].Error = err.Error()
				mu.Lock()
				failed++
				mu.Unlock()
				return nil
			}
			results[i].Result = &res
			return nil
		})
	}
	_ = g.Wait()

	if failed > 0 {
		s.alert("Upload Incomplete", fmt.Sprintf("%d of %d trip tickets failed to upload.", failed, len(ids)), modal.AlertWarning)
	}
	utils.LogEvent(s.RequestID, "trip_ticket", "upload_batch", fmt.Sprintf("count=%d failed=%d", len(ids), failed))
	return results, nil
}

func (s TicketService) upload(ctx context.Context, id int64) (drive.UploadResult, error) {
	if s.Files == nil {
		return drive.UploadResult{}, domain.UnavailableError{Service: "Google Drive uploader"}
	}
	t, err := s.Get(id)
	if err != nil {
		return drive.UploadResult{}, err
	}
	pdf, err := s.Renderer.Render(t, LayoutGovernmentForm)
	if err != nil {
		return drive.UploadResult{}, err
	}
	name := TicketFilename(t, s.now())
	res, err := s.Files.UploadPDF(ctx, pdf, name, UploadMetadata(t))
	if err != nil {
		return drive.UploadResult{}, fmt.Errorf("upload %s: %w", name, err)
	}

	uploadedAt := s.now()
	links := models.DriveLinks{
		FileID:       res.FileID,
		ViewLink:     res.ViewLink,
		DownloadLink: res.DownloadLink,
		PublicLink:   res.PublicLink,
		UploadedAt:   &uploadedAt,
	}
	if err := s.Repo.SaveUploadResult(id, links); err != nil {
		return res, domain.InternalError{Msg: "file uploaded but links were not saved", Err: err}
	}
	utils.LogEvent(s.RequestID, "trip_ticket", "upload", fmt.Sprintf("id=%d file_id=%s", id, res.FileID))
	return res, nil
}

// DeleteDriveFile asks for confirmation and then removes the uploaded file
// and the stored links. It reports false when the operator declined.
func (s TicketService) DeleteDriveFile(ctx context.Context, id int64) (bool, error) {
	t, err := s.Get(id)
	if err != nil {
		return false, err
	}
	if !t.Drive.Uploaded() {
		return false, domain.ConflictError{Resource: "trip ticket", Msg: "ticket has not been uploaded"}
	}
	if s.Files == nil {
		return false, domain.UnavailableError{Service: "Google Drive uploader"}
	}

	if s.Dialogs != nil {
		ok := s.Dialogs.Confirm(ctx, modal.ConfirmConfig{
			Title:        "Delete Uploaded File",
			Message:      fmt.Sprintf("Remove %s from Google Drive? The trip ticket itself is kept.", TicketFilename(t, s.now())),
			ConfirmText:  "Delete",
			ConfirmStyle: modal.StyleDanger,
		})
		if !ok {
			utils.LogEvent(s.RequestID, "trip_ticket", "delete_drive_file", fmt.Sprintf("id=%d declined", id))
			return false, nil
		}
	}

	deleted, err := s.Files.DeleteFile(ctx, t.Drive.FileID)
	if err != nil || !deleted {
		msg := "Google Drive rejected the delete request."
		if err != nil {
			msg = err.Error()
		}
		s.alert("Delete Failed", msg, modal.AlertError)
		return false, domain.InternalError{Msg: "delete drive file", Err: err}
	}
	if err := s.Repo.ClearUploadResult(id); err != nil {
		return true, domain.InternalError{Msg: "drive file deleted but links were not cleared", Err: err}
	}
	s.alert("File Deleted", "The uploaded trip ticket was removed from Google Drive.", modal.AlertSuccess)
	utils.LogEvent(s.RequestID, "trip_ticket", "delete_drive_file", fmt.Sprintf("id=%d file_id=%s", id, t.Drive.FileID))
	return true, nil
}

func (s TicketService) alert(title, message string, kind modal.AlertType) {
	if s.Dialogs == nil {
		return
	}
	s.Dialogs.Notify(modal.AlertConfig{Title: title, Message: message, Type: kind})
}

func validateRange(from, to string) error {
	var start, end time.Time
	var err error
	if from != "" {
		if start, err = utils.ParseDate(from); err != nil {
			return domain.ValidationError{Field: "periodFrom", Msg: "date must be YYYY-MM-DD", Err: err}
		}
	}
	if to != "" {
		if end, err = utils.ParseDate(to); err != nil {
			return domain.ValidationError{Field: "periodTo", Msg: "date must be YYYY-MM-DD", Err: err}
		}
	}
	if from != "" && to != "" && end.Before(start) {
		return domain.ValidationError{Field: "periodTo", Msg: "period end is before period start"}
	}
	return nil
}

func validateTripLog(l models.TripLog) error {
	for name, v := range map[string]*float64{
		"distanceKm": l.DistanceKm, "fuelBalance": l.FuelBalance, "fuelIssued": l.FuelIssued,
		"fuelPurchased": l.FuelPurchased, "fuelUsed": l.FuelUsed, "fuelBalanceEnd": l.FuelBalanceEnd,
		"motorOil": l.MotorOil, "lubricatingOil": l.LubricatingOil, "grease": l.Grease,
		"brakeFluid": l.BrakeFluid, "odometerEnd": l.OdometerEnd, "odometerStart": l.OdometerStart,
	} {
		if v != nil && *v < 0 {
			return domain.ValidationError{Field: name, Msg: "reading cannot be negative"}
		}
	}
	if d := l.OdometerDistance(); d != nil && *d < 0 {
		return domain.ValidationError{Field: "odometerEnd", Msg: "odometer end is below odometer start"}
	}
	return nil
}
