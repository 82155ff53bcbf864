package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/yeremiapane/table-order-app/kds"
	"github.com/yeremiapane/table-order-app/utils"
)

// KDSController exposes the kitchen change stream (push) and the same
// snapshot for pollers.
type KDSController struct {
	Hub      *kds.Hub
	upgrader websocket.Upgrader
}

// NewKDSController allows websocket origins matching allowedOrigin ("*" for
// any).
func NewKDSController(hub *kds.Hub, allowedOrigin string) *KDSController {
	return &KDSController{
		Hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return allowedOrigin == "*" || r.Header.Get("Origin") == "" || r.Header.Get("Origin") == allowedOrigin
			},
		},
	}
}

// Stream -> GET /ws?token=<admin jwt>, dijaga WebSocketAuth di router
func (kc *KDSController) Stream(c *gin.Context) {
	ws, err := kc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.Printf("WebSocket upgrade error: %v", err)
		return
	}
	utils.InfoLogger.WithField("ip", c.ClientIP()).Info("KDS client connected")
	kc.Hub.Serve(c.Request.Context(), ws)
}

// KitchenOrders -> GET /admin/kitchen/orders, antrian FIFO order aktif
func (kc *KDSController) KitchenOrders(c *gin.Context) {
	msg, err := kc.Hub.Snapshot(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Active orders", gin.H{
		"seq":    msg.Seq,
		"orders": msg.Orders,
	})
}
