package handlers

import (
	"context"
	"sync"

	"dtt/internal/drive"
	"dtt/internal/http/middleware"
	"dtt/internal/modal"
	"dtt/internal/repositories"
	"dtt/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DriveAuth is the OAuth side of the Drive integration. *drive.TokenStore
// implements it.
type DriveAuth interface {
	ConsentURL(state string) string
	Exchange(ctx context.Context, code string) error
	Status() drive.Status
	Revoke(ctx context.Context) error
}

// UserLookup finds operator accounts. repositories.UserRepository implements it.
type UserLookup interface {
	FindByLogin(login string) (repositories.User, error)
	CountUsers() (int, error)
}

// Handlers holds the dependencies of every API endpoint.
type Handlers struct {
	Tickets   services.TicketService
	Modals    *modal.Manager
	Drive     DriveAuth
	Users     UserLookup
	JWTSecret []byte
	Log       *zap.Logger
	// PingDB checks the connection before /api/db-check counts users.
	PingDB func() error

	routerMu sync.RWMutex
	router   *gin.Engine

	// background holds confirmations that outlive their request.
	background sync.WaitGroup
}

// SetRouter stores the active gin engine for /api/routes.
func (h *Handlers) SetRouter(r *gin.Engine) {
	h.routerMu.Lock()
	defer h.routerMu.Unlock()
	h.router = r
}

// Wait blocks until background work started by requests has finished.
// Disposing the modal manager first resolves pending confirmations.
func (h *Handlers) Wait() { h.background.Wait() }

func (h *Handlers) log() *zap.Logger {
	if h.Log == nil {
		return zap.NewNop()
	}
	return h.Log
}

// tickets returns the ticket service bound to the request id.
func (h *Handlers) tickets(c *gin.Context) services.TicketService {
	svc := h.Tickets
	svc.RequestID = middleware.GetRequestID(c)
	if h.Modals != nil {
		svc.Dialogs = h.Modals
	}
	return svc
}
