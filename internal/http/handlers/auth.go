package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"dtt/internal/http/middleware"
	"dtt/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 24 * time.Hour

type loginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// POST /api/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var req loginRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	login := utils.Fallback(req.Email, req.Username)
	if login == "" || req.Password == "" {
		RespondError(c, http.StatusBadRequest, "email/username and password are required", nil)
		return
	}
	if h.Users == nil {
		RespondError(c, http.StatusServiceUnavailable, "database not connected", nil)
		return
	}

	user, err := h.Users.FindByLogin(login)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			RespondError(c, http.StatusUnauthorized, "wrong email/username or password", nil)
			return
		}
		RespondError(c, http.StatusInternalServerError, "user lookup failed", err)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		RespondError(c, http.StatusUnauthorized, "wrong email/username or password", nil)
		return
	}
	if s := strings.ToLower(user.Status); s != "" && s != "active" {
		RespondError(c, http.StatusForbidden, "account is "+s, nil)
		return
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	})
	signed, err := token.SignedString(h.JWTSecret)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "could not sign token", err)
		return
	}
	utils.LogEvent(middleware.GetRequestID(c), "auth", "login", "user_id="+strconv.FormatInt(user.ID, 10))

	c.JSON(http.StatusOK, gin.H{
		"token": signed,
		"user":  user,
	})
}
