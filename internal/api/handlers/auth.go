package handlers

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	"github.com/jmcallister/golfpool/internal/api/middleware"
	"github.com/jmcallister/golfpool/pkg/config"
	"github.com/jmcallister/golfpool/pkg/utils"
)

type AuthHandler struct {
	cfg *config.Config
}

func NewAuthHandler(cfg *config.Config) *AuthHandler {
	return &AuthHandler{cfg: cfg}
}

type loginRequest struct {
	Password string `json:"password" binding:"required"`
}

// Login exchanges the shared pool password for a session token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "password is required", err.Error())
		return
	}

	if h.cfg.PoolPassword == "" {
		utils.SendUnauthorized(c, "pool password is not configured")
		return
	}
	if subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.cfg.PoolPassword)) != 1 {
		utils.SendUnauthorized(c, "wrong password")
		return
	}

	token, err := middleware.IssueToken(h.cfg.JWTSecret)
	if err != nil {
		utils.SendInternalError(c, "failed to issue token")
		return
	}

	utils.SendSuccess(c, gin.H{"token": token})
}
