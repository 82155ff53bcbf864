package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/table-order-app/codegen"
	"github.com/yeremiapane/table-order-app/kds"
	"github.com/yeremiapane/table-order-app/models"
	"github.com/yeremiapane/table-order-app/repository"
	"github.com/yeremiapane/table-order-app/utils"
)

const defaultJoinCodeAttempts = 8

var mobilePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// EngineOptions tunes the order engine.
type EngineOptions struct {
	// JoinCodeMaxAttempts bounds how many codes are drawn before giving up.
	JoinCodeMaxAttempts int
}

// OrderEngine owns the session lifecycle: locking tables, creating tickets,
// merging line items and moving orders through the kitchen states.
type OrderEngine struct {
	store       repository.Store
	codes       codegen.Generator
	events      EventPublisher
	maxAttempts int
}

func NewOrderEngine(store repository.Store, codes codegen.Generator, events EventPublisher, opts EngineOptions) *OrderEngine {
	if codes == nil {
		codes = codegen.Default
	}
	if opts.JoinCodeMaxAttempts <= 0 {
		opts.JoinCodeMaxAttempts = defaultJoinCodeAttempts
	}
	return &OrderEngine{
		store:       store,
		codes:       codes,
		events:      publisherOrNoop(events),
		maxAttempts: opts.JoinCodeMaxAttempts,
	}
}

// SessionResult is returned by Initialize.
type SessionResult struct {
	Order      *models.Order `json:"order"`
	JoinCode   string        `json:"join_code"`
	IsNewOrder bool          `json:"is_new_order"`
}

// Session is what a guest sees after joining by code.
type Session struct {
	Order *models.Order `json:"order"`
	Table *models.Table `json:"table"`
}

func normalizeMobile(mobile string) (string, error) {
	mobile = strings.ReplaceAll(strings.TrimSpace(mobile), " ", "")
	if mobile == "" {
		return "", invalid("mobile_number", "is required")
	}
	if !mobilePattern.MatchString(mobile) {
		return "", invalid("mobile_number", "must be 7 to 15 digits with an optional leading +")
	}
	return mobile, nil
}

// Initialize starts or rejoins the session of a table. A locked table with a
// live order is a rejoin and changes nothing. Otherwise the table is locked
// with a fresh join code and a Pending order is created in one transaction.
func (e *OrderEngine) Initialize(ctx context.Context, tableNumber, mobileNumber string) (*SessionResult, error) {
	tableNumber = strings.TrimSpace(tableNumber)
	if tableNumber == "" {
		return nil, invalid("table_number", "is required")
	}
	mobile, err := normalizeMobile(mobileNumber)
	if err != nil {
		return nil, err
	}

	// Kalah race pada lock: ulangi sekali, pasti masuk jalur rejoin
	for attempt := 0; attempt < 2; attempt++ {
		res, err := e.initializeOnce(ctx, tableNumber, mobile)
		if errors.Is(err, ErrTableLocked) {
			continue
		}
		return res, err
	}
	return nil, fmt.Errorf("initialize table %s: %w", tableNumber, ErrTableLocked)
}

func (e *OrderEngine) initializeOnce(ctx context.Context, tableNumber, mobile string) (*SessionResult, error) {
	table, err := findTableByNumber(ctx, e.store, tableNumber)
	if err != nil {
		return nil, err
	}

	if table.Locked {
		active, err := e.store.Orders().FindActiveByTable(ctx, table.ID)
		if err == nil {
			sessionsStarted.WithLabelValues("rejoin").Inc()
			return &SessionResult{Order: active, JoinCode: active.JoinCode, IsNewOrder: false}, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		utils.InfoLogger.WithField("table", tableNumber).Warn("Locked table has no active order, relocking")
	}

	var (
		result *SessionResult
		events pendingEvents
	)
	err = e.store.WithTx(ctx, func(tx repository.Store) error {
		code, err := e.freshJoinCode(ctx, tx)
		if err != nil {
			return err
		}

		if table.Locked {
			// Only relock if nobody created an order since we looked.
			n, err := tx.Orders().CountActiveByTable(ctx, table.ID, "")
			if err != nil {
				return err
			}
			if n > 0 {
				return ErrTableLocked
			}
			// Conditional on the code we read: a concurrent relock already
			// swapped it, so this caller retries onto the rejoin path.
			ok, err := tx.Tables().Relock(ctx, table.ID, table.JoinCode(), code)
			if err != nil {
				return err
			}
			if !ok {
				return ErrTableLocked
			}
		} else if err := lockTable(ctx, tx, table.ID, code); err != nil {
			return err
		}

		order := &models.Order{
			ID:           e.codes.NewID(),
			TableID:      table.ID,
			JoinCode:     code,
			Status:       models.OrderStatusPending,
			MobileNumber: mobile,
		}
		if err := tx.Orders().Create(ctx, order); err != nil {
			return err
		}
		if err := tx.Users().Create(ctx, &models.User{ID: e.codes.NewID(), MobileNumber: mobile, OrderID: order.ID}); err != nil {
			return err
		}

		detailed, err := tx.Orders().FindDetailed(ctx, order.ID)
		if err != nil {
			return err
		}
		result = &SessionResult{Order: detailed, JoinCode: code, IsNewOrder: true}
		events.add(kds.EventOrderCreated, order.ID, table.ID)
		events.add(kds.EventTableLocked, order.ID, table.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sessionsStarted.WithLabelValues("new").Inc()
	utils.InfoLogger.WithFields(logrus.Fields{
		"table":    tableNumber,
		"order_id": result.Order.ID,
	}).Info("Session started")
	events.flush(e.events)
	return result, nil
}

// freshJoinCode draws codes until one is not held by a live order or table.
func (e *OrderEngine) freshJoinCode(ctx context.Context, tx repository.Store) (string, error) {
	for i := 0; i < e.maxAttempts; i++ {
		code, err := e.codes.NewJoinCode()
		if err != nil {
			return "", err
		}
		inUse, err := tx.Orders().CodeInUse(ctx, code)
		if err != nil {
			return "", err
		}
		if !inUse {
			return code, nil
		}
		joinCodeCollisions.Inc()
	}
	return "", ErrJoinCodeExhausted
}

// JoinByCode finds the newest live order carrying code. A mobile number, if
// given, is recorded against that order.
func (e *OrderEngine) JoinByCode(ctx context.Context, code, mobileNumber string) (*Session, error) {
	code = codegen.NormalizeJoinCode(code)
	if !codegen.ValidJoinCode(code) {
		return nil, invalid("code", "must be 6 letters or digits")
	}
	var mobile string
	if strings.TrimSpace(mobileNumber) != "" {
		m, err := normalizeMobile(mobileNumber)
		if err != nil {
			return nil, err
		}
		mobile = m
	}

	order, err := e.store.Orders().FindActiveByCode(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	if mobile != "" {
		if err := e.store.Users().Create(ctx, &models.User{ID: e.codes.NewID(), MobileNumber: mobile, OrderID: order.ID}); err != nil {
			return nil, err
		}
	}
	return &Session{Order: order, Table: order.Table}, nil
}

// AddItemInput describes one add-to-cart request.
type AddItemInput struct {
	OrderID    string
	MenuItemID string
	Quantity   int
	// NewTicket puts the item on a fresh order for the same table when the
	// given order already has items.
	NewTicket bool
}

// AddItemResult reports the stored line and which order it landed on.
type AddItemResult struct {
	Item          *models.OrderItem `json:"item"`
	OrderID       string            `json:"order_id"`
	CreatedTicket bool              `json:"created_ticket"`
}

// AddItem inserts the line or increments the existing line for the same menu
// item in a single upsert.
func (e *OrderEngine) AddItem(ctx context.Context, in AddItemInput) (*AddItemResult, error) {
	if strings.TrimSpace(in.MenuItemID) == "" {
		return nil, invalid("menu_item_id", "is required")
	}
	if in.Quantity <= 0 {
		return nil, invalid("quantity", "must be greater than zero")
	}

	var (
		result AddItemResult
		events pendingEvents
	)
	err := e.store.WithTx(ctx, func(tx repository.Store) error {
		order, err := tx.Orders().FindByID(ctx, in.OrderID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrOrderNotFound
		}
		if err != nil {
			return err
		}
		if order.Status.IsTerminal() {
			return ErrOrderClosed
		}

		menu, err := tx.Menus().FindByID(ctx, in.MenuItemID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrMenuItemNotFound
		}
		if err != nil {
			return err
		}
		if !menu.IsAvailable {
			return fmt.Errorf("%s: %w", menu.Name, ErrMenuUnavailable)
		}

		target := order
		if in.NewTicket {
			n, err := tx.Orders().CountItems(ctx, order.ID)
			if err != nil {
				return err
			}
			if n > 0 {
				ticket := &models.Order{
					ID:           e.codes.NewID(),
					TableID:      order.TableID,
					JoinCode:     order.JoinCode,
					Status:       models.OrderStatusPending,
					MobileNumber: order.MobileNumber,
				}
				if err := tx.Orders().Create(ctx, ticket); err != nil {
					return err
				}
				target = ticket
				result.CreatedTicket = true
				events.add(kds.EventOrderCreated, ticket.ID, ticket.TableID)
			}
		}

		item, err := tx.Orders().UpsertItem(ctx, target.ID, menu.ID, in.Quantity)
		if err != nil {
			return err
		}
		result.Item = item
		result.OrderID = target.ID
		events.add(kds.EventOrderItemAdded, target.ID, target.TableID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.CreatedTicket {
		itemsAdded.WithLabelValues("new").Inc()
	} else {
		itemsAdded.WithLabelValues("existing").Inc()
	}
	events.flush(e.events)
	return &result, nil
}

// UpdateItemQuantity overwrites the quantity; zero or less removes the line
// and returns a nil item.
func (e *OrderEngine) UpdateItemQuantity(ctx context.Context, itemID string, quantity int) (*models.OrderItem, error) {
	var (
		updated *models.OrderItem
		events  pendingEvents
	)
	err := e.store.WithTx(ctx, func(tx repository.Store) error {
		item, err := tx.Orders().FindItem(ctx, itemID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrOrderItemNotFound
		}
		if err != nil {
			return err
		}
		order, err := tx.Orders().FindByID(ctx, item.OrderID)
		if err != nil {
			return err
		}
		if order.Status.IsTerminal() {
			return ErrOrderClosed
		}

		if quantity <= 0 {
			if err := tx.Orders().DeleteItem(ctx, itemID); err != nil {
				return err
			}
			events.add(kds.EventOrderItemRemoved, order.ID, order.TableID)
			return nil
		}

		if err := tx.Orders().SetItemQuantity(ctx, itemID, quantity); err != nil {
			return err
		}
		item.Quantity = quantity
		updated = item
		events.add(kds.EventOrderItemUpdated, order.ID, order.TableID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	events.flush(e.events)
	return updated, nil
}

// RemoveItem deletes a line item.
func (e *OrderEngine) RemoveItem(ctx context.Context, itemID string) error {
	_, err := e.UpdateItemQuantity(ctx, itemID, 0)
	return err
}

// StatusResult reports the order after a status change.
type StatusResult struct {
	Order         *models.Order `json:"order"`
	Changed       bool          `json:"changed"`
	TableUnlocked bool          `json:"table_unlocked"`
}

// AdvanceStatus moves an order forward. Skips are allowed, the same status is
// a no-op and backward moves fail with ErrIllegalTransition. Serving the last
// live order of a table unlocks the table in the same transaction.
func (e *OrderEngine) AdvanceStatus(ctx context.Context, orderID, status string) (*StatusResult, error) {
	target, ok := models.ParseOrderStatus(status)
	if !ok {
		return nil, invalid("status", "must be one of Pending, Preparing, Ready, Served")
	}

	var (
		result StatusResult
		from   models.OrderStatus
		events pendingEvents
	)
	err := e.store.WithTx(ctx, func(tx repository.Store) error {
		order, err := tx.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrOrderNotFound
		}
		if err != nil {
			return err
		}
		from = order.Status

		if order.Status != target {
			if !models.IsLegalTransition(order.Status, target) {
				return fmt.Errorf("%w: %s to %s", ErrIllegalTransition, order.Status, target)
			}
			if err := tx.Orders().UpdateStatus(ctx, order.ID, target); err != nil {
				return err
			}
			result.Changed = true
			events.add(kds.EventOrderStatusChanged, order.ID, order.TableID)

			if target.IsTerminal() {
				unlocked, err := releaseTableIfIdle(ctx, tx, order)
				if err != nil {
					return err
				}
				if unlocked {
					result.TableUnlocked = true
					events.add(kds.EventTableUnlocked, order.ID, order.TableID)
				}
			}
		}

		detailed, err := tx.Orders().FindDetailed(ctx, order.ID)
		if err != nil {
			return err
		}
		result.Order = detailed
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Changed {
		statusTransitions.WithLabelValues(string(target)).Inc()
		utils.InfoLogger.WithFields(logrus.Fields{
			"order_id": orderID,
			"from":     from,
			"to":       target,
			"unlocked": result.TableUnlocked,
		}).Info("Order status changed")
	}
	events.flush(e.events)
	return &result, nil
}

// releaseTableIfIdle unlocks the order's table when no other live order
// remains and the table still holds this order's code.
func releaseTableIfIdle(ctx context.Context, tx repository.Store, order *models.Order) (bool, error) {
	n, err := tx.Orders().CountActiveByTable(ctx, order.TableID, order.ID)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	return tx.Tables().Unlock(ctx, order.TableID, order.JoinCode)
}

// GetOrder loads an order with its table and priced items.
func (e *OrderEngine) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	order, err := e.store.Orders().FindDetailed(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	return order, err
}

// ActiveOrders is the kitchen queue: every live order, oldest first.
func (e *OrderEngine) ActiveOrders(ctx context.Context) ([]models.Order, error) {
	return e.store.Orders().ListActive(ctx)
}

// DeleteOrder removes an order and its items, freeing the table if this was
// its last live order.
func (e *OrderEngine) DeleteOrder(ctx context.Context, id string) error {
	var events pendingEvents
	err := e.store.WithTx(ctx, func(tx repository.Store) error {
		order, err := tx.Orders().FindByID(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrOrderNotFound
		}
		if err != nil {
			return err
		}
		if err := tx.Orders().Delete(ctx, id); err != nil {
			return err
		}
		events.add(kds.EventOrderDeleted, order.ID, order.TableID)

		if order.IsActive() {
			unlocked, err := releaseTableIfIdle(ctx, tx, order)
			if err != nil {
				return err
			}
			if unlocked {
				events.add(kds.EventTableUnlocked, order.ID, order.TableID)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	utils.InfoLogger.WithField("order_id", id).Info("Order deleted")
	events.flush(e.events)
	return nil
}
