package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"dtt/internal/modal"

	"github.com/gin-gonic/gin"
)

type modalView struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Size        modal.Size         `json:"size"`
	Classes     []string           `json:"classes"`
	HTML        string             `json:"html"`
	Dismissible bool               `json:"dismissible"`
	Active      bool               `json:"active"`
	Buttons     []modal.ButtonView `json:"buttons"`
}

func viewOf(el *modal.Element) modalView {
	return modalView{
		ID:          el.ID,
		Title:       el.Title,
		Size:        el.Size,
		Classes:     el.Classes,
		HTML:        el.HTML,
		Dismissible: el.Dismissible,
		Active:      el.Active(),
		Buttons:     el.Buttons,
	}
}

func (h *Handlers) modalsReady(c *gin.Context) bool {
	if h.Modals == nil {
		RespondError(c, http.StatusServiceUnavailable, "modal manager is not running", nil)
		return false
	}
	return true
}

func (h *Handlers) modalState(c *gin.Context, status int) {
	stack := []modalView{}
	for _, id := range h.Modals.Stack() {
		if el, ok := h.Modals.Get(id); ok {
			stack = append(stack, viewOf(el))
		}
	}
	active := ""
	if el := h.Modals.ActiveModal(); el != nil {
		active = el.ID
	}
	c.JSON(status, gin.H{
		"open":   h.Modals.IsOpen(),
		"active": active,
		"stack":  stack,
	})
}

// GET /api/modals
func (h *Handlers) ListModals(c *gin.Context) {
	if !h.modalsReady(c) {
		return
	}
	h.modalState(c, http.StatusOK)
}

// POST /api/modals/:id/buttons/:index
func (h *Handlers) ActivateModalButton(c *gin.Context) {
	if !h.modalsReady(c) {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid button index", nil)
		return
	}
	switch err := h.Modals.Activate(c.Request.Context(), c.Param("id"), index); {
	case errors.Is(err, modal.ErrNotOpen):
		RespondError(c, http.StatusNotFound, "modal is not open", nil)
		return
	case errors.Is(err, modal.ErrNoSuchButton):
		RespondError(c, http.StatusBadRequest, "modal has no such button", nil)
		return
	case err != nil:
		RespondError(c, http.StatusUnprocessableEntity, "button action failed", err)
		return
	}
	h.modalState(c, http.StatusOK)
}

type keydownRequest struct {
	Key string `json:"key"`
}

// POST /api/modals/keydown
func (h *Handlers) ModalKeydown(c *gin.Context) {
	if !h.modalsReady(c) {
		return
	}
	var req keydownRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	handled := h.Modals.HandleKey(req.Key)
	c.JSON(http.StatusOK, gin.H{"handled": handled, "open": h.Modals.IsOpen()})
}

// POST /api/modals/backdrop
func (h *Handlers) ModalBackdrop(c *gin.Context) {
	if !h.modalsReady(c) {
		return
	}
	handled := h.Modals.BackdropClick()
	c.JSON(http.StatusOK, gin.H{"handled": handled, "open": h.Modals.IsOpen()})
}

// DELETE /api/modals/:id
func (h *Handlers) CloseModal(c *gin.Context) {
	if !h.modalsReady(c) {
		return
	}
	h.Modals.Close(c.Param("id"))
	c.Status(http.StatusNoContent)
}

// DELETE /api/modals
func (h *Handlers) CloseAllModals(c *gin.Context) {
	if !h.modalsReady(c) {
		return
	}
	h.Modals.CloseAll()
	c.Status(http.StatusNoContent)
}
