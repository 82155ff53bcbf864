package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/table-order-app/codegen"
	"github.com/yeremiapane/table-order-app/kds"
	"github.com/yeremiapane/table-order-app/models"
)

func TestInitializeThenRejoin(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	first, err := env.engine.Initialize(ctx, "T01", "5551234567")
	require.NoError(t, err)
	assert.True(t, first.IsNewOrder)
	assert.True(t, codegen.ValidJoinCode(first.JoinCode))
	assert.Equal(t, models.OrderStatusPending, first.Order.Status)
	assert.Equal(t, first.JoinCode, first.Order.JoinCode)
	assert.Empty(t, first.Order.Items)

	table := env.table(t, "T01")
	assert.True(t, table.Locked)
	assert.Equal(t, first.JoinCode, table.JoinCode())

	second, err := env.engine.Initialize(ctx, "T01", "5550000000")
	require.NoError(t, err)
	assert.False(t, second.IsNewOrder)
	assert.Equal(t, first.Order.ID, second.Order.ID)
	assert.Equal(t, first.JoinCode, second.JoinCode)

	session, err := env.engine.JoinByCode(ctx, first.JoinCode, "+4915112345678")
	require.NoError(t, err)
	assert.Equal(t, first.Order.ID, session.Order.ID)
	require.NotNil(t, session.Table)
	assert.Equal(t, "T01", session.Table.TableNumber)

	users, err := env.store.Users().ListByOrder(ctx, first.Order.ID)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	assert.Equal(t, []string{kds.EventOrderCreated, kds.EventTableLocked}, env.events.types())
}

func TestJoinByCodeNormalizesInput(t *testing.T) {
	env := newTestEnv(t, &scriptedCodes{codes: []string{"AB12CD"}})
	ctx := context.Background()

	_, err := env.engine.Initialize(ctx, "T01", "5551234567")
	require.NoError(t, err)

	session, err := env.engine.JoinByCode(ctx, " ab12cd ", "")
	require.NoError(t, err)
	assert.Equal(t, "AB12CD", session.Order.JoinCode)

	_, err = env.engine.JoinByCode(ctx, "ZZZZZZ", "")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	var verr *ValidationError
	_, err = env.engine.JoinByCode(ctx, "AB-12", "")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "code", verr.Field)
}

func TestInitializeValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	var verr *ValidationError

	_, err := env.engine.Initialize(ctx, "  ", "5551234567")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "table_number", verr.Field)

	for _, mobile := range []string{"", "12345", "555-123-4567", "+1234567890123456"} {
		_, err = env.engine.Initialize(ctx, "T01", mobile)
		require.ErrorAs(t, err, &verr, mobile)
		assert.Equal(t, "mobile_number", verr.Field)
	}

	_, err = env.engine.Initialize(ctx, "T99", "5551234567")
	assert.ErrorIs(t, err, ErrTableNotFound)

	assert.False(t, env.table(t, "T01").Locked)
}

func TestConcurrentInitializeCreatesOneOrder(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	const callers = 8
	var wg sync.WaitGroup
	results := make([]*SessionResult, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = env.engine.Initialize(ctx, "T01", "5551234567")
		}(i)
	}
	wg.Wait()

	newOrders := 0
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0].Order.ID, results[i].Order.ID)
		if results[i].IsNewOrder {
			newOrders++
		}
	}
	assert.Equal(t, 1, newOrders)

	active, err := env.engine.ActiveOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestInitializeRelocksInconsistentTable(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	// Terkunci tanpa order aktif
	require.NoError(t, env.store.Tables().ForceLock(ctx, env.tableIDs["T01"], "OLD123"))

	res, err := env.engine.Initialize(ctx, "T01", "5551234567")
	require.NoError(t, err)
	assert.True(t, res.IsNewOrder)
	assert.NotEqual(t, "OLD123", res.JoinCode)
	assert.Equal(t, res.JoinCode, env.table(t, "T01").JoinCode())
}

func TestAddItemMergesLines(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	session, err := env.engine.Initialize(ctx, "T01", "5551234567")
	require.NoError(t, err)

	first, err := env.engine.AddItem(ctx, AddItemInput{OrderID: session.Order.ID, MenuItemID: env.pizza.ID, Quantity: 2})
	require.NoError(t, err)
	assert.False(t, first.CreatedTicket)
	assert.Equal(t, 2, first.Item.Quantity)

	second, err := env.engine.AddItem(ctx, AddItemInput{OrderID: session.Order.ID, MenuItemID: env.pizza.ID, Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, first.Item.ID, second.Item.ID)
	assert.Equal(t, 5, second.Item.Quantity)
	require.NotNil(t, second.Item.MenuItem)
	assert.Equal(t, "Margherita", second.Item.MenuItem.Name)

	_, err = env.engine.AddItem(ctx, AddItemInput{OrderID: session.Order.ID, MenuItemID: env.cola.ID, Quantity: 1})
	require.NoError(t, err)

	order, err := env.engine.GetOrder(ctx, session.Order.ID)
	require.NoError(t, err)
	require.Len(t, order.Items, 2)
	assert.Equal(t, 6, order.ItemCount())
	assert.Equal(t, "64.85", order.Total().StringFixed(2))
}

func TestAddItemRejections(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	session, err := env.engine.Initialize(ctx, "T01", "5551234567")
	require.NoError(t, err)
	orderID := session.Order.ID

	var verr *ValidationError
	_, err = env.engine.AddItem(ctx, AddItemInput{OrderID: orderID, MenuItemID: env.pizza.ID, Quantity: 0})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "quantity", verr.Field)

	_, err = env.engine.AddItem(ctx, AddItemInput{OrderID: orderID, MenuItemID: "missing", Quantity: 1})
	assert.ErrorIs(t, err, ErrMenuItemNotFound)

	_, err = env.engine.AddItem(ctx, AddItemInput{OrderID: "missing", MenuItemID: env.pizza.ID, Quantity: 1})
	assert.ErrorIs(t, err, ErrOrderNotFound)

	_, err = env.engine.AddItem(ctx, AddItemInput{OrderID: orderID, MenuItemID: env.soldOut.ID, Quantity: 1})
	assert.ErrorIs(t, err, ErrMenuUnavailable)

	_, err = env.engine.AdvanceStatus(ctx, orderID, "Served")
	require.NoError(t, err)
	_, err = env.engine.AddItem(ctx, AddItemInput{OrderID: orderID, MenuItemID: env.pizza.ID, Quantity: 1})
	assert.ErrorIs(t, err, ErrOrderClosed)
}

func TestNewTicketSharesCodeAndHoldsLock(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	session, err := env.engine.Initialize(ctx, "T01", "5551234567")
	require.NoError(t, err)

	// Order masih kosong: item masuk ke order yang sama
	res, err := env.engine.AddItem(ctx, AddItemInput{OrderID: session.Order.ID, MenuItemID: env.pizza.ID, Quantity: 1, NewTicket: true})
	require.NoError(t, err)
	assert.False(t, res.CreatedTicket)
	assert.Equal(t, session.Order.ID, res.OrderID)

	env.events.reset()
	res, err = env.engine.AddItem(ctx, AddItemInput{OrderID: session.Order.ID, MenuItemID: env.cola.ID, Quantity: 2, NewTicket: true})
	require.NoError(t, err)
	assert.True(t, res.CreatedTicket)
	assert.NotEqual(t, session.Order.ID, res.OrderID)
	assert.Equal(t, []string{kds.EventOrderCreated, kds.EventOrderItemAdded}, env.events.types())

	ticket, err := env.engine.GetOrder(ctx, res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, session.JoinCode, ticket.JoinCode)
	assert.Equal(t, session.Order.TableID, ticket.TableID)
	assert.Equal(t, models.OrderStatusPending, ticket.Status)
	require.Len(t, ticket.Items, 1)
	assert.Equal(t, 2, ticket.Items[0].Quantity)

	active, err := env.engine.ActiveOrders(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, session.Order.ID, active[0].ID)

	// Served order pertama: masih ada tiket aktif, meja tetap terkunci
	st, err := env.engine.AdvanceStatus(ctx, session.Order.ID, "Served")
	require.NoError(t, err)
	assert.False(t, st.TableUnlocked)
	assert.True(t, env.table(t, "T01").Locked)

	joined, err := env.engine.JoinByCode(ctx, session.JoinCode, "")
	require.NoError(t, err)
	assert.Equal(t, ticket.ID, joined.Order.ID)

	st, err = env.engine.AdvanceStatus(ctx, ticket.ID, "Served")
	require.NoError(t, err)
	assert.True(t, st.TableUnlocked)
	table := env.table(t, "T01")
	assert.False(t, table.Locked)
	assert.Nil(t, table.ActiveJoinCode)
}

func TestUpdateItemQuantity(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	session, err := env.engine.Initialize(ctx, "T01", "5551234567")
	require.NoError(t, err)
	added, err := env.engine.AddItem(ctx, AddItemInput{OrderID: session.Order.ID, MenuItemID: env.pizza.ID, Quantity: 2})
	require.NoError(t, err)

	item, err := env.engine.UpdateItemQuantity(ctx, added.Item.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, item.Quantity)

	item, err = env.engine.UpdateItemQuantity(ctx, added.Item.ID, 0)
	require.NoError(t, err)
	assert.Nil(t, item)

	order, err := env.engine.GetOrder(ctx, session.Order.ID)
	require.NoError(t, err)
	assert.Empty(t, order.Items)

	_, err = env.engine.UpdateItemQuantity(ctx, added.Item.ID, 1)
	assert.ErrorIs(t, err, ErrOrderItemNotFound)
	assert.ErrorIs(t, env.engine.RemoveItem(ctx, "missing"), ErrOrderItemNotFound)
}

func TestUpdateItemOnServedOrderRejected(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	session, err := env.engine.Initialize(ctx, "T01", "5551234567")
	require.NoError(t, err)
	added, err := env.engine.AddItem(ctx, AddItemInput{OrderID: session.Order.ID, MenuItemID: env.pizza.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = env.engine.AdvanceStatus(ctx, session.Order.ID, "Served")
	require.NoError(t, err)

	_, err = env.engine.UpdateItemQuantity(ctx, added.Item.ID, 3)
	assert.ErrorIs(t, err, ErrOrderClosed)
}

func TestAdvanceStatusRules(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	session, err := env.engine.Initialize(ctx, "T01", "5551234567")
	require.NoError(t, err)
	id := session.Order.ID

	res, err := env.engine.AdvanceStatus(ctx, id, "preparing")
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, models.OrderStatusPreparing, res.Order.Status)

	res, err = env.engine.AdvanceStatus(ctx, id, "Preparing")
	require.NoError(t, err)
	assert.False(t, res.Changed)

	_, err = env.engine.AdvanceStatus(ctx, id, "Pending")
	assert.ErrorIs(t, err, ErrIllegalTransition)

	var verr *ValidationError
	_, err = env.engine.AdvanceStatus(ctx, id, "Cancelled")
	assert.True(t, errors.As(err, &verr))

	_, err = env.engine.AdvanceStatus(ctx, "missing", "Ready")
	assert.ErrorIs(t, err, ErrOrderNotFound)

	assert.True(t, env.table(t, "T01").Locked)
}

func TestServedFromPendingUnlocksTable(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	first, err := env.engine.Initialize(ctx, "T01", "5551234567")
	require.NoError(t, err)

	env.events.reset()
	res, err := env.engine.AdvanceStatus(ctx, first.Order.ID, "Served")
	require.NoError(t, err)
	assert.True(t, res.TableUnlocked)
	assert.Equal(t, []string{kds.EventOrderStatusChanged, kds.EventTableUnlocked}, env.events.types())

	table := env.table(t, "T01")
	assert.False(t, table.Locked)
	assert.Nil(t, table.ActiveJoinCode)

	_, err = env.engine.JoinByCode(ctx, first.JoinCode, "")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// Served order tetap bisa dibaca dan mempertahankan kodenya
	old, err := env.engine.GetOrder(ctx, first.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, first.JoinCode, old.JoinCode)

	next, err := env.engine.Initialize(ctx, "T01", "5551234567")
	require.NoError(t, err)
	assert.True(t, next.IsNewOrder)
	assert.NotEqual(t, first.Order.ID, next.Order.ID)
}

func TestJoinCodeCollisionRetry(t *testing.T) {
	codes := &scriptedCodes{codes: []string{"AAAAAA", "AAAAAA", "BBBBBB"}}
	env := newTestEnv(t, codes, "T01", "T02")
	ctx := context.Background()

	first, err := env.engine.Initialize(ctx, "T01", "5551234567")
	require.NoError(t, err)
	assert.Equal(t, "AAAAAA", first.JoinCode)

	second, err := env.engine.Initialize(ctx, "T02", "5551234567")
	require.NoError(t, err)
	assert.Equal(t, "BBBBBB", second.JoinCode)
}

func TestJoinCodeExhaustionRollsBack(t *testing.T) {
	codes := &scriptedCodes{codes: []string{"AAAAAA"}}
	env := newTestEnv(t, codes, "T01", "T02")
	ctx := context.Background()

	_, err := env.engine.Initialize(ctx, "T01", "5551234567")
	require.NoError(t, err)

	_, err = env.engine.Initialize(ctx, "T02", "5551234567")
	assert.ErrorIs(t, err, ErrJoinCodeExhausted)

	table := env.table(t, "T02")
	assert.False(t, table.Locked)
	assert.Nil(t, table.ActiveJoinCode)
}

func TestDeleteOrderFreesTable(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	session, err := env.engine.Initialize(ctx, "T01", "5551234567")
	require.NoError(t, err)
	_, err = env.engine.AddItem(ctx, AddItemInput{OrderID: session.Order.ID, MenuItemID: env.pizza.ID, Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, env.engine.DeleteOrder(ctx, session.Order.ID))
	assert.False(t, env.table(t, "T01").Locked)

	_, err = env.engine.GetOrder(ctx, session.Order.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)
	assert.ErrorIs(t, env.engine.DeleteOrder(ctx, session.Order.ID), ErrOrderNotFound)

	// Menu tidak lagi direferensikan
	require.NoError(t, env.menu.Delete(ctx, env.pizza.ID))
}

func TestReconcileRepairsLocks(t *testing.T) {
	env := newTestEnv(t, nil, "T01", "T02", "T03")
	ctx := context.Background()

	session, err := env.engine.Initialize(ctx, "T01", "5551234567")
	require.NoError(t, err)
	require.NoError(t, env.store.Tables().ForceUnlock(ctx, env.tableIDs["T01"]))
	require.NoError(t, env.store.Tables().ForceLock(ctx, env.tableIDs["T02"], "STALE1"))

	report, err := env.engine.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Checked)
	require.Len(t, report.Repairs, 2)

	actions := map[string]string{}
	for _, r := range report.Repairs {
		actions[r.TableNumber] = r.Action
	}
	assert.Equal(t, RepairRelocked, actions["T01"])
	assert.Equal(t, RepairUnlocked, actions["T02"])

	assert.Equal(t, session.JoinCode, env.table(t, "T01").JoinCode())
	assert.False(t, env.table(t, "T02").Locked)

	again, err := env.engine.Reconcile(ctx)
	require.NoError(t, err)
	assert.Empty(t, again.Repairs)
}

func TestLockReconcilerStartStop(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	tableID := env.tableIDs["T01"]
	require.NoError(t, env.store.Tables().ForceLock(ctx, tableID, "STALE1"))

	lr := NewLockReconciler(env.engine, 10*time.Millisecond)
	lr.Start()
	assert.Eventually(t, func() bool {
		table, err := env.store.Tables().FindByID(ctx, tableID)
		return err == nil && !table.Locked
	}, 2*time.Second, 20*time.Millisecond)
	lr.Stop()
}
