package services

import (
	"context"
	"sync"
	"time"

	"github.com/yeremiapane/table-order-app/utils"
)

// LockReconciler runs Reconcile on a ticker.
type LockReconciler struct {
	Engine   *OrderEngine
	Interval time.Duration

	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewLockReconciler(engine *OrderEngine, interval time.Duration) *LockReconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &LockReconciler{
		Engine:   engine,
		Interval: interval,
		stopChan: make(chan struct{}),
	}
}

func (lr *LockReconciler) Start() {
	lr.wg.Add(1)
	go func() {
		defer lr.wg.Done()
		ticker := time.NewTicker(lr.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				lr.runOnce()
			case <-lr.stopChan:
				return
			}
		}
	}()
}

// Stop ends the loop and waits for a running pass to finish.
func (lr *LockReconciler) Stop() {
	close(lr.stopChan)
	lr.wg.Wait()
}

func (lr *LockReconciler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), lr.Interval)
	defer cancel()

	report, err := lr.Engine.Reconcile(ctx)
	if err != nil {
		utils.ErrorLogger.Printf("Error reconciling table locks: %v", err)
		return
	}
	if len(report.Repairs) > 0 {
		utils.InfoLogger.Printf("Reconciled %d of %d tables", len(report.Repairs), report.Checked)
	}
}
