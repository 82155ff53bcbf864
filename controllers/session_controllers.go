package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-order-app/services"
	"github.com/yeremiapane/table-order-app/utils"
)

type SessionController struct {
	Engine *services.OrderEngine
}

func NewSessionController(engine *services.OrderEngine) *SessionController {
	return &SessionController{Engine: engine}
}

type sessionResponse struct {
	Order      services.OrderSummary `json:"order"`
	JoinCode   string                `json:"join_code"`
	IsNewOrder bool                  `json:"is_new_order"`
}

// StartSession -> POST /sessions, membuka atau bergabung ke sesi meja
func (sc *SessionController) StartSession(c *gin.Context) {
	var req struct {
		TableNumber  string `json:"table_number"`
		MobileNumber string `json:"mobile_number"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	res, err := sc.Engine.Initialize(c.Request.Context(), req.TableNumber, req.MobileNumber)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	body := sessionResponse{
		Order:      services.Summarize(*res.Order),
		JoinCode:   res.JoinCode,
		IsNewOrder: res.IsNewOrder,
	}
	if res.IsNewOrder {
		utils.RespondJSON(c, http.StatusCreated, "Session started", body)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Joined existing session", body)
}

// GetSessionByCode -> GET /sessions/:code
func (sc *SessionController) GetSessionByCode(c *gin.Context) {
	session, err := sc.Engine.JoinByCode(c.Request.Context(), c.Param("code"), c.Query("mobile_number"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session found", gin.H{
		"order": services.Summarize(*session.Order),
		"table": session.Table,
	})
}
