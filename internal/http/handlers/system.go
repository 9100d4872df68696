package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "dtt backend running"})
}

func (h *Handlers) DBCheck(c *gin.Context) {
	if h.Users == nil {
		RespondError(c, http.StatusServiceUnavailable, "database not connected", nil)
		return
	}
	if h.PingDB != nil {
		if err := h.PingDB(); err != nil {
			RespondError(c, http.StatusServiceUnavailable, "database not reachable", err)
			return
		}
	}
	count, err := h.Users.CountUsers()
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "database query failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "database connection OK", "users_in_db": count})
}

func (h *Handlers) Routes(c *gin.Context) {
	h.routerMu.RLock()
	r := h.router
	h.routerMu.RUnlock()
	if r == nil {
		RespondError(c, http.StatusServiceUnavailable, "router not ready", nil)
		return
	}

	routes := r.Routes()
	out := make([]gin.H, 0, len(routes))
	for _, rt := range routes {
		out = append(out, gin.H{
			"method":  rt.Method,
			"path":    rt.Path,
			"handler": rt.Handler,
		})
	}
	c.JSON(http.StatusOK, gin.H{"routes": out})
}
