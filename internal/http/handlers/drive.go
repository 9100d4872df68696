package handlers

import (
	"crypto/subtle"
	"net/http"

	"dtt/internal/http/middleware"
	"dtt/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const oauthStateCookie = "dtt_drive_state"

func (h *Handlers) driveReady(c *gin.Context) bool {
	if h.Drive == nil {
		RespondError(c, http.StatusServiceUnavailable, "Google Drive is not configured", nil)
		return false
	}
	return true
}

// GET /api/drive/auth
//
// Browsers are redirected to the consent page. JSON clients get the URL.
func (h *Handlers) AuthorizeDrive(c *gin.Context) {
	if !h.driveReady(c) {
		return
	}
	state := uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, 600, "/api/drive", "", c.Request.TLS != nil, true)
	consent := h.Drive.ConsentURL(state)
	if c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON {
		c.JSON(http.StatusOK, gin.H{"url": consent})
		return
	}
	c.Redirect(http.StatusFound, consent)
}

// GET /api/drive/oauth-callback?code=&state=
func (h *Handlers) DriveOAuthCallback(c *gin.Context) {
	if !h.driveReady(c) {
		return
	}
	if msg := c.Query("error"); msg != "" {
		RespondError(c, http.StatusBadRequest, "authorization was refused: "+msg, nil)
		return
	}
	want, err := c.Cookie(oauthStateCookie)
	got := c.Query("state")
	if err != nil || got == "" || subtle.ConstantTimeCompare([]byte(want), []byte(got)) != 1 {
		RespondError(c, http.StatusBadRequest, "oauth state mismatch", nil)
		return
	}
	code := c.Query("code")
	if code == "" {
		RespondError(c, http.StatusBadRequest, "missing authorization code", nil)
		return
	}
	if err := h.Drive.Exchange(c.Request.Context(), code); err != nil {
		RespondError(c, http.StatusBadGateway, "token exchange failed", err)
		return
	}
	c.SetCookie(oauthStateCookie, "", -1, "/api/drive", "", c.Request.TLS != nil, true)
	utils.LogEvent(middleware.GetRequestID(c), "drive", "authorize", "token stored")
	c.JSON(http.StatusOK, gin.H{"message": "Google Drive authorized", "status": h.Drive.Status()})
}

// GET /api/drive/status
func (h *Handlers) DriveStatus(c *gin.Context) {
	if !h.driveReady(c) {
		return
	}
	c.JSON(http.StatusOK, h.Drive.Status())
}

// POST /api/drive/revoke
func (h *Handlers) DriveRevoke(c *gin.Context) {
	if !h.driveReady(c) {
		return
	}
	if err := h.Drive.Revoke(c.Request.Context()); err != nil {
		// The local token is already forgotten at this point.
		c.JSON(http.StatusOK, gin.H{"message": "local token removed, remote revoke failed", "details": err.Error()})
		return
	}
	utils.LogEvent(middleware.GetRequestID(c), "drive", "revoke", "token revoked")
	c.JSON(http.StatusOK, gin.H{"message": "Google Drive access revoked"})
}
