package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yeremiapane/table-order-app/controllers"
	"github.com/yeremiapane/table-order-app/kds"
	"github.com/yeremiapane/table-order-app/middlewares"
	"github.com/yeremiapane/table-order-app/services"
	"github.com/yeremiapane/table-order-app/utils"
)

// Deps is everything the HTTP layer needs, built once in main.
type Deps struct {
	Engine    *services.OrderEngine
	Tables    *services.TableRegistry
	Menu      *services.MenuCatalog
	Hub       *kds.Hub
	Admin     *controllers.AdminController
	JWTSecret []byte

	CORSOrigin     string
	CurrencySymbol string
	RateLimit      int
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// Apply security middlewares
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(d.CORSOrigin))
	r.Use(middlewares.LoggerMiddleware())
	if d.RateLimit > 0 {
		r.Use(middlewares.NewRateLimiter(d.RateLimit).RateLimit())
	}

	// Inisialisasi controller
	sessionCtrl := controllers.NewSessionController(d.Engine)
	orderCtrl := controllers.NewOrderController(d.Engine, d.CurrencySymbol)
	tableCtrl := controllers.NewTableController(d.Tables, d.Engine)
	menuCtrl := controllers.NewMenuController(d.Menu)
	kdsCtrl := controllers.NewKDSController(d.Hub, d.CORSOrigin)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		utils.RespondJSON(c, 200, "pong", nil)
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// -- TABLE SIDE (tanpa auth) --
	r.POST("/sessions", sessionCtrl.StartSession)
	r.GET("/sessions/:code", sessionCtrl.GetSessionByCode)

	r.GET("/orders/:order_id", orderCtrl.GetOrderByID)
	r.POST("/orders/:order_id/items", orderCtrl.AddItem)
	r.PUT("/order-items/:item_id", orderCtrl.UpdateItem)
	r.DELETE("/order-items/:item_id", orderCtrl.RemoveItem)

	r.GET("/menu", menuCtrl.GetAvailableMenus)
	r.GET("/menu/categories", menuCtrl.GetCategories)

	// Stream perubahan untuk layar dapur, token admin lewat ?token=
	wsGroup := r.Group("/ws")
	wsGroup.Use(middlewares.WebSocketAuth(d.JWTSecret), middlewares.RequireRole(utils.RoleAdmin))
	wsGroup.GET("", kdsCtrl.Stream)

	// Rate limiter ketat untuk login
	r.POST("/admin/login", middlewares.NewStrictRateLimiter().RateLimit(), d.Admin.Login)

	// ----------------------------------------------------------------
	//                      ADMIN ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/admin")
	auth.Use(middlewares.AdminAuth(d.JWTSecret), middlewares.RequireRole(utils.RoleAdmin))

	auth.POST("/logout", d.Admin.Logout)

	// TABLE
	auth.GET("/tables", tableCtrl.GetAllTables)
	auth.POST("/tables", tableCtrl.CreateTable)
	auth.POST("/tables/reconcile", tableCtrl.ReconcileTables)
	auth.GET("/tables/:table_id", tableCtrl.GetTableByID)
	auth.PUT("/tables/:table_id", tableCtrl.UpdateTable)
	auth.DELETE("/tables/:table_id", tableCtrl.DeleteTable)

	// MENU
	auth.GET("/menu", menuCtrl.GetAllMenus)
	auth.POST("/menu", menuCtrl.CreateMenu)
	auth.GET("/menu/:menu_id", menuCtrl.GetMenuByID)
	auth.PUT("/menu/:menu_id", menuCtrl.UpdateMenu)
	auth.PATCH("/menu/:menu_id/availability", menuCtrl.SetAvailability)
	auth.DELETE("/menu/:menu_id", menuCtrl.DeleteMenu)

	// ORDERS
	auth.GET("/orders", orderCtrl.SearchOrders)
	auth.GET("/orders/export.csv", orderCtrl.ExportOrdersCSV)
	auth.GET("/orders/:order_id", orderCtrl.GetOrderByID)
	auth.PUT("/orders/:order_id/status", orderCtrl.UpdateOrderStatus)
	auth.DELETE("/orders/:order_id", orderCtrl.DeleteOrder)
	auth.GET("/orders/:order_id/ticket.pdf", orderCtrl.KitchenTicketPDF)

	// KITCHEN
	auth.GET("/kitchen/orders", kdsCtrl.KitchenOrders)

	return r
}
