package services

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/table-order-app/codegen"
	"github.com/yeremiapane/table-order-app/config"
	"github.com/yeremiapane/table-order-app/database"
	"github.com/yeremiapane/table-order-app/kds"
	"github.com/yeremiapane/table-order-app/models"
	"github.com/yeremiapane/table-order-app/repository"
	"github.com/yeremiapane/table-order-app/utils"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []kds.Event
}

func (p *recordingPublisher) Publish(ev kds.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

func (p *recordingPublisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}

// scriptedCodes replays join codes in order and repeats the last one.
type scriptedCodes struct {
	mu    sync.Mutex
	codes []string
	next  int
}

func (s *scriptedCodes) NewID() string { return codegen.NewID() }

func (s *scriptedCodes) NewJoinCode() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.next
	if i >= len(s.codes) {
		i = len(s.codes) - 1
	}
	s.next++
	return s.codes[i], nil
}

type testEnv struct {
	store    repository.Store
	engine   *OrderEngine
	tables   *TableRegistry
	menu     *MenuCatalog
	events   *recordingPublisher
	pizza    *models.MenuItem
	cola     *models.MenuItem
	soldOut  *models.MenuItem
	tableIDs map[string]string
}

func newTestStore(t *testing.T) repository.Store {
	t.Helper()
	utils.SilenceLoggers()
	db, err := config.InitDB("sqlite", "file::memory:?_foreign_keys=1")
	require.NoError(t, err)
	t.Cleanup(func() { config.CloseDB(db) })
	require.NoError(t, database.Migrate(db))
	return repository.NewStore(db)
}

func newTestEnv(t *testing.T, codes codegen.Generator, tableNumbers ...string) *testEnv {
	t.Helper()
	store := newTestStore(t)
	events := &recordingPublisher{}
	env := &testEnv{
		store:    store,
		engine:   NewOrderEngine(store, codes, events, EngineOptions{JoinCodeMaxAttempts: 3}),
		tables:   NewTableRegistry(store, events),
		menu:     NewMenuCatalog(store, events, nil),
		events:   events,
		tableIDs: make(map[string]string),
	}

	ctx := context.Background()
	if len(tableNumbers) == 0 {
		tableNumbers = []string{"T01"}
	}
	for _, n := range tableNumbers {
		table, err := env.tables.Create(ctx, n)
		require.NoError(t, err)
		env.tableIDs[n] = table.ID
	}

	no := false
	var err error
	env.pizza, err = env.menu.Create(ctx, MenuInput{Name: "Margherita", Category: "Mains", Price: decimal.RequireFromString("12.50")})
	require.NoError(t, err)
	env.cola, err = env.menu.Create(ctx, MenuInput{Name: "Cola", Category: "Drinks", Price: decimal.RequireFromString("2.35")})
	require.NoError(t, err)
	env.soldOut, err = env.menu.Create(ctx, MenuInput{Name: "Tiramisu", Category: "Desserts", Price: decimal.RequireFromString("6"), IsAvailable: &no})
	require.NoError(t, err)

	events.reset()
	return env
}

func (env *testEnv) table(t *testing.T, number string) *models.Table {
	t.Helper()
	table, err := env.store.Tables().FindByID(context.Background(), env.tableIDs[number])
	require.NoError(t, err)
	return table
}
