package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-order-app/middlewares"
	"github.com/yeremiapane/table-order-app/utils"
	"golang.org/x/crypto/bcrypt"
)

var errInvalidCredentials = errors.New("invalid username or password")

// AdminController guards the back office with one fixed account.
type AdminController struct {
	Username     string
	passwordHash []byte
	secret       []byte
	tokenTTL     time.Duration
}

// NewAdminController takes either a plain password or a bcrypt hash; the hash
// wins when both are set.
func NewAdminController(username, password, passwordHash string, secret []byte, ttl time.Duration) (*AdminController, error) {
	hash := []byte(passwordHash)
	if len(hash) == 0 {
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
	}
	if _, err := bcrypt.Cost(hash); err != nil {
		return nil, err
	}
	return &AdminController{Username: username, passwordHash: hash, secret: secret, tokenTTL: ttl}, nil
}

// Login -> POST /admin/login
func (ac *AdminController) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	// bcrypt selalu dijalankan agar waktu respons sama
	pwErr := bcrypt.CompareHashAndPassword(ac.passwordHash, []byte(req.Password))
	if req.Username != ac.Username || pwErr != nil {
		utils.InfoLogger.WithField("ip", c.ClientIP()).Warn("Failed admin login")
		utils.RespondError(c, http.StatusUnauthorized, errInvalidCredentials)
		return
	}

	token, err := utils.GenerateToken(ac.secret, ac.Username, utils.RoleAdmin, ac.tokenTTL)
	if err != nil {
		utils.RespondMessage(c, http.StatusInternalServerError, "could not issue token")
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Login successful", gin.H{
		"token":      token,
		"expires_at": time.Now().Add(ac.tokenTTL).UTC(),
	})
}

// Logout -> POST /admin/logout, token masuk blacklist sampai kadaluarsa
func (ac *AdminController) Logout(c *gin.Context) {
	token := c.GetString(middlewares.CtxToken)
	expires, ok := c.Get(middlewares.CtxTokenExpires)
	expiry := time.Now().Add(ac.tokenTTL)
	if t, isTime := expires.(time.Time); ok && isTime {
		expiry = t
	}
	utils.BlacklistToken(token, expiry)
	utils.RespondJSON(c, http.StatusOK, "Logout successful", nil)
}
