package services

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/table-order-app/kds"
	"github.com/yeremiapane/table-order-app/repository"
	"github.com/yeremiapane/table-order-app/utils"
)

// Repair actions
const (
	RepairUnlocked = "unlocked"
	RepairRelocked = "relocked"
)

type TableRepair struct {
	TableID     string `json:"table_id"`
	TableNumber string `json:"table_number"`
	Action      string `json:"action"`
	JoinCode    string `json:"join_code,omitempty"`
}

type ReconcileReport struct {
	Checked int           `json:"checked"`
	Repairs []TableRepair `json:"repairs"`
}

// Reconcile derives every table's lock from whether it has a live order.
// Locked tables without one are unlocked; tables with one are locked with the
// newest live order's code.
func (e *OrderEngine) Reconcile(ctx context.Context) (*ReconcileReport, error) {
	report := &ReconcileReport{Repairs: []TableRepair{}}
	var events pendingEvents

	err := e.store.WithTx(ctx, func(tx repository.Store) error {
		tables, err := tx.Tables().ListAll(ctx)
		if err != nil {
			return err
		}
		report.Checked = len(tables)

		for _, t := range tables {
			active, err := tx.Orders().FindActiveByTable(ctx, t.ID)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return err
			}

			if active == nil {
				if t.Locked || t.ActiveJoinCode != nil {
					if err := tx.Tables().ForceUnlock(ctx, t.ID); err != nil {
						return err
					}
					report.Repairs = append(report.Repairs, TableRepair{TableID: t.ID, TableNumber: t.TableNumber, Action: RepairUnlocked})
					events.add(kds.EventTableUnlocked, "", t.ID)
				}
				continue
			}

			if !t.Locked || t.JoinCode() != active.JoinCode {
				if err := tx.Tables().ForceLock(ctx, t.ID, active.JoinCode); err != nil {
					return err
				}
				report.Repairs = append(report.Repairs, TableRepair{
					TableID:     t.ID,
					TableNumber: t.TableNumber,
					Action:      RepairRelocked,
					JoinCode:    active.JoinCode,
				})
				events.add(kds.EventTableLocked, active.ID, t.ID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, r := range report.Repairs {
		tablesReconciled.WithLabelValues(r.Action).Inc()
		utils.InfoLogger.WithFields(logrus.Fields{
			"table":  r.TableNumber,
			"action": r.Action,
		}).Warn("Table lock repaired")
	}
	events.flush(e.events)
	return report, nil
}
