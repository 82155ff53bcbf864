package Controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/table-order-app/codegen"
	"github.com/yeremiapane/table-order-app/config"
	"github.com/yeremiapane/table-order-app/controllers"
	"github.com/yeremiapane/table-order-app/database"
	"github.com/yeremiapane/table-order-app/kds"
	"github.com/yeremiapane/table-order-app/repository"
	"github.com/yeremiapane/table-order-app/router"
	"github.com/yeremiapane/table-order-app/services"
	"github.com/yeremiapane/table-order-app/utils"
)

var testSecret = []byte("controller-test-secret")

const (
	adminUser     = "admin"
	adminPassword = "s3cret-pass"
)

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testApp struct {
	router *gin.Engine
	store  repository.Store
	engine *services.OrderEngine
	hub    *kds.Hub
	token  string
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	utils.SilenceLoggers()
	gin.SetMode(gin.TestMode)

	db, err := config.InitDB("sqlite", "file::memory:?_foreign_keys=1")
	require.NoError(t, err)
	t.Cleanup(func() { config.CloseDB(db) })
	require.NoError(t, database.Migrate(db))
	store := repository.NewStore(db)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := kds.NewHub(store.Orders().ListActive)
	go hub.Run(ctx)

	engine := services.NewOrderEngine(store, codegen.Default, hub, services.EngineOptions{})
	admin, err := controllers.NewAdminController(adminUser, adminPassword, "", testSecret, time.Hour)
	require.NoError(t, err)

	app := &testApp{
		router: router.SetupRouter(router.Deps{
			Engine:         engine,
			Tables:         services.NewTableRegistry(store, hub),
			Menu:           services.NewMenuCatalog(store, hub, nil),
			Hub:            hub,
			Admin:          admin,
			JWTSecret:      testSecret,
			CORSOrigin:     "*",
			CurrencySymbol: "$",
		}),
		store:  store,
		engine: engine,
		hub:    hub,
	}
	app.token = app.login(t, adminUser, adminPassword)
	return app
}

func (a *testApp) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// admin is do with the admin token attached.
func (a *testApp) admin(method, path string, body interface{}) *httptest.ResponseRecorder {
	return a.do(method, path, body, a.token)
}

func (a *testApp) login(t *testing.T, username, password string) string {
	t.Helper()
	w := a.do(http.MethodPost, "/admin/login", map[string]string{"username": username, "password": password}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var data struct {
		Token string `json:"token"`
	}
	decodeData(t, w, &data)
	require.NotEmpty(t, data.Token)
	return data.Token
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	env := decode(t, w)
	require.NoError(t, json.Unmarshal(env.Data, out), string(env.Data))
}

type tableView struct {
	ID             string  `json:"id"`
	TableNumber    string  `json:"table_number"`
	Locked         bool    `json:"locked"`
	ActiveJoinCode *string `json:"active_join_code"`
}

type menuView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Price       string `json:"price"`
	IsAvailable bool   `json:"is_available"`
}

type itemView struct {
	ID         string `json:"id"`
	OrderID    string `json:"order_id"`
	MenuItemID string `json:"menu_item_id"`
	Quantity   int    `json:"quantity"`
}

type orderView struct {
	ID        string     `json:"id"`
	TableID   string     `json:"table_id"`
	JoinCode  string     `json:"join_code"`
	Status    string     `json:"status"`
	Items     []itemView `json:"items"`
	ItemCount int        `json:"item_count"`
	Total     string     `json:"total"`
}

type sessionView struct {
	Order      orderView `json:"order"`
	JoinCode   string    `json:"join_code"`
	IsNewOrder bool      `json:"is_new_order"`
}

func (a *testApp) createTable(t *testing.T, number string) tableView {
	t.Helper()
	w := a.admin(http.MethodPost, "/admin/tables", map[string]string{"table_number": number})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var table tableView
	decodeData(t, w, &table)
	return table
}

func (a *testApp) createMenu(t *testing.T, name, category, price string, available bool) menuView {
	t.Helper()
	w := a.admin(http.MethodPost, "/admin/menu", map[string]interface{}{
		"name":         name,
		"category":     category,
		"price":        price,
		"is_available": available,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var item menuView
	decodeData(t, w, &item)
	return item
}

func (a *testApp) startSession(t *testing.T, table, mobile string) sessionView {
	t.Helper()
	w := a.do(http.MethodPost, "/sessions", map[string]string{"table_number": table, "mobile_number": mobile}, "")
	require.Contains(t, []int{http.StatusOK, http.StatusCreated}, w.Code, w.Body.String())
	var s sessionView
	decodeData(t, w, &s)
	return s
}
