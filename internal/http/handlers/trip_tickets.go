package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"dtt/internal/domain/models"
	"dtt/internal/http/middleware"
	"dtt/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// confirmTimeout bounds how long a delete waits for the operator.
const confirmTimeout = 10 * time.Minute

const (
	pdfMime  = "application/pdf"
	xlsxMime = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// GET /api/trip-tickets?from=&to=
func (h *Handlers) ListTripTickets(c *gin.Context) {
	list, err := h.tickets(c).List(c.Query("from"), c.Query("to"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GET /api/trip-tickets/:id
func (h *Handlers) GetTripTicket(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	t, err := h.tickets(c).Get(id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// POST /api/trip-tickets
func (h *Handlers) CreateTripTicket(c *gin.Context) {
	var req models.TripTicket
	if !BindJSONOrError(c, &req) {
		return
	}
	created, err := h.tickets(c).Create(req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// PUT /api/trip-tickets/:id/trip-log
func (h *Handlers) UpdateTripLog(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req models.TripLog
	if !BindJSONOrError(c, &req) {
		return
	}
	t, err := h.tickets(c).UpdateTripLog(id, req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// GET /api/trip-tickets/:id/pdf?layout=government|summary
func (h *Handlers) TripTicketPDF(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	layout, err := services.ParseLayout(c.Query("layout"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	pdf, name, err := h.tickets(c).Render(id, layout)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="%s"`, name))
	c.Data(http.StatusOK, pdfMime, pdf)
}

// POST /api/trip-tickets/:id/upload
func (h *Handlers) UploadTripTicket(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	res, err := h.tickets(c).Upload(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type batchUploadRequest struct {
	IDs []int64 `json:"ids"`
}

// POST /api/trip-tickets/upload-batch
func (h *Handlers) UploadTripTicketBatch(c *gin.Context) {
	var req batchUploadRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	results, err := h.tickets(c).UploadBatch(c.Request.Context(), req.IDs)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "failed": failed})
}

// DELETE /api/trip-tickets/:id/drive-file
//
// The operator confirms through the modal stack, so the request only
// validates and returns 202. The outcome is reported by alert modals.
func (h *Handlers) DeleteTripTicketDriveFile(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	svc := h.tickets(c)
	t, err := svc.Get(id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	if !t.Drive.Uploaded() {
		respondError(c, http.StatusConflict, "conflict", "ticket has not been uploaded", nil)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), confirmTimeout)
	h.background.Add(1)
	go func() {
		defer h.background.Done()
		defer cancel()
		deleted, err := svc.DeleteDriveFile(ctx, id)
		if err != nil {
			h.log().Warn("delete drive file failed",
				zap.Int64("id", id),
				zap.String("request_id", svc.RequestID),
				zap.Error(err))
			return
		}
		h.log().Info("delete drive file finished", zap.Int64("id", id), zap.Bool("deleted", deleted))
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"message":    "waiting for confirmation",
		"id":         id,
		"request_id": middleware.GetRequestID(c),
	})
}

// GET /api/trip-tickets/export.xlsx?from=&to=
func (h *Handlers) ExportTripTickets(c *gin.Context) {
	data, name, err := h.tickets(c).ExportRegister(c.Query("from"), c.Query("to"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Header("Content-Length", strconv.Itoa(len(data)))
	c.Data(http.StatusOK, xlsxMime, data)
}
