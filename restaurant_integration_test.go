package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
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

func TestMain(m *testing.M) {
	utils.SilenceLoggers()
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

var e2eSecret = []byte("e2e-secret")

type apiResponse struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// setupServer -> sqlite in-memory, hub berjalan, server httptest
func setupServer(t *testing.T) *httptest.Server {
	db, err := config.InitDB("sqlite", "file::memory:?_foreign_keys=1")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	store := repository.NewStore(db)

	ctx, cancel := context.WithCancel(context.Background())
	hub := kds.NewHub(store.Orders().ListActive)
	go hub.Run(ctx)

	engine := services.NewOrderEngine(store, codegen.Default, hub, services.EngineOptions{})
	admin, err := controllers.NewAdminController("admin", "secret123", "", e2eSecret, time.Hour)
	require.NoError(t, err)

	srv := httptest.NewServer(router.SetupRouter(router.Deps{
		Engine:         engine,
		Tables:         services.NewTableRegistry(store, hub),
		Menu:           services.NewMenuCatalog(store, hub, nil),
		Hub:            hub,
		Admin:          admin,
		JWTSecret:      e2eSecret,
		CORSOrigin:     "*",
		CurrencySymbol: "$",
	}))
	t.Cleanup(func() {
		srv.Close()
		cancel()
		config.CloseDB(db)
	})
	return srv
}

func call(t *testing.T, srv *httptest.Server, method, path, token string, body interface{}, out interface{}) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env apiResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	if out != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return resp.StatusCode
}

func readKDS(t *testing.T, conn *websocket.Conn) kds.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg kds.Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

// waitForEvent skips messages until one of the given type arrives.
func waitForEvent(t *testing.T, conn *websocket.Conn, eventType string) kds.Message {
	t.Helper()
	for i := 0; i < 10; i++ {
		msg := readKDS(t, conn)
		if msg.Event.Type == eventType {
			return msg
		}
	}
	t.Fatalf("event %s not received", eventType)
	return kds.Message{}
}

// TestEndToEndTableSession menguji flow utama:
// 0. Login admin, buat meja dan menu
// 1. Tamu membuka sesi, layar dapur menerima event
// 2. Tamu kedua bergabung via kode dan menambah item
// 3. Dapur memproses sampai Served, meja terbuka lagi
func TestEndToEndTableSession(t *testing.T) {
	srv := setupServer(t)

	var login struct {
		Token string `json:"token"`
	}
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodPost, "/admin/login", "", map[string]string{"username": "admin", "password": "secret123"}, &login))
	token := login.Token

	var table struct {
		ID string `json:"id"`
	}
	require.Equal(t, http.StatusCreated, call(t, srv, http.MethodPost, "/admin/tables", token, map[string]string{"table_number": "T01"}, &table))
	var pizza struct {
		ID string `json:"id"`
	}
	require.Equal(t, http.StatusCreated, call(t, srv, http.MethodPost, "/admin/menu", token, map[string]interface{}{
		"name": "Margherita", "category": "Mains", "price": "12.50",
	}, &pizza))

	// Layar dapur terhubung sebelum ada order
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+token, nil)
	require.NoError(t, err)
	defer conn.Close()
	initial := readKDS(t, conn)
	assert.Empty(t, initial.Orders)

	var session struct {
		Order struct {
			ID string `json:"id"`
		} `json:"order"`
		JoinCode string `json:"join_code"`
	}
	require.Equal(t, http.StatusCreated, call(t, srv, http.MethodPost, "/sessions", "", map[string]string{
		"table_number": "T01", "mobile_number": "5551234567",
	}, &session))

	created := waitForEvent(t, conn, kds.EventOrderCreated)
	assert.Greater(t, created.Seq, initial.Seq)
	require.Len(t, created.Orders, 1)
	assert.Equal(t, session.Order.ID, created.Orders[0].ID)

	// Tamu kedua bergabung lewat kode
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/sessions/"+strings.ToLower(session.JoinCode)+"?mobile_number=5559876543", "", nil, nil))
	require.Equal(t, http.StatusCreated, call(t, srv, http.MethodPost, "/orders/"+session.Order.ID+"/items", "", map[string]interface{}{
		"menu_item_id": pizza.ID, "quantity": 2,
	}, nil))

	added := waitForEvent(t, conn, kds.EventOrderItemAdded)
	require.Len(t, added.Orders[0].Items, 1)
	assert.Equal(t, 2, added.Orders[0].Items[0].Quantity)

	for _, status := range []string{"Preparing", "Ready", "Served"} {
		require.Equal(t, http.StatusOK, call(t, srv, http.MethodPut, "/admin/orders/"+session.Order.ID+"/status", token, map[string]string{"status": status}, nil))
	}

	var after struct {
		Locked         bool    `json:"locked"`
		ActiveJoinCode *string `json:"active_join_code"`
	}
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/admin/tables/"+table.ID, token, nil, &after))
	assert.False(t, after.Locked)
	assert.Nil(t, after.ActiveJoinCode)

	// Sesi berikutnya di meja yang sama mendapat order baru
	var next struct {
		Order struct {
			ID string `json:"id"`
		} `json:"order"`
	}
	require.Equal(t, http.StatusCreated, call(t, srv, http.MethodPost, "/sessions", "", map[string]string{
		"table_number": "T01", "mobile_number": "5551234567",
	}, &next))
	assert.NotEqual(t, session.Order.ID, next.Order.ID)
}

// Stream dapur membawa kode join dan nomor HP tamu, jadi wajib token admin
func TestKitchenStreamRequiresAdminToken(t *testing.T) {
	srv := setupServer(t)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	var table struct {
		ID string `json:"id"`
	}
	var login struct {
		Token string `json:"token"`
	}
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodPost, "/admin/login", "", map[string]string{"username": "admin", "password": "secret123"}, &login))
	require.Equal(t, http.StatusCreated, call(t, srv, http.MethodPost, "/admin/tables", login.Token, map[string]string{"table_number": "T01"}, &table))
	require.Equal(t, http.StatusCreated, call(t, srv, http.MethodPost, "/sessions", "", map[string]string{
		"table_number": "T01", "mobile_number": "5551234567",
	}, nil))

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if conn != nil {
		conn.Close()
	}
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(wsURL+"?token=not-a-jwt", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Setelah logout token yang sama ditolak
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodPost, "/admin/logout", login.Token, nil, nil))
	_, resp, err = websocket.DefaultDialer.Dial(wsURL+"?token="+login.Token, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
