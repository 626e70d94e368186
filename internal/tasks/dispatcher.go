package tasks

import (
	"context"
	"encoding/json"
	"time"

	applog "gradedesk/internal/log"
	"gradedesk/internal/repos"
)

// Dispatcher drains the outbox in the background and hands each task to its
// collaborator. Collaborator failures are advisory: logged, the row marked
// sent, never surfaced to the request that queued the task.
type Dispatcher struct {
	Outbox       *repos.OutboxRepo
	Writer       SaleWriter
	Scheduler    RefreshScheduler
	RefreshDelay time.Duration
	Poll         time.Duration
	BatchSize    int
}

func NewDispatcher(outbox *repos.OutboxRepo, writer SaleWriter, scheduler RefreshScheduler, refreshDelay, poll time.Duration) *Dispatcher {
	return &Dispatcher{
		Outbox:       outbox,
		Writer:       writer,
		Scheduler:    scheduler,
		RefreshDelay: refreshDelay,
		Poll:         poll,
		BatchSize:    50,
	}
}

// Run polls until ctx is done. Callers start it on its own goroutine.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.Poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.DrainOnce(ctx)
		}
	}
}

// DrainOnce delivers one batch of pending tasks. Exposed for tests and for a
// final flush on shutdown.
func (d *Dispatcher) DrainOnce(ctx context.Context) {
	records, err := d.Outbox.FetchPending(d.BatchSize)
	if err != nil {
		applog.Error(nil, "outbox.fetch", err, nil)
		return
	}
	for _, rec := range records {
		d.deliver(ctx, rec)
		if err := d.Outbox.MarkSent(rec.ID); err != nil {
			applog.Error(nil, "outbox.mark_sent", err, map[string]any{"id": rec.ID})
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, rec repos.OutboxRecord) {
	switch rec.Kind {
	case repos.TaskSaleHistory:
		var facts SaleFacts
		if err := json.Unmarshal(rec.Payload, &facts); err != nil {
			applog.Error(nil, "outbox.decode", err, map[string]any{"id": rec.ID, "kind": rec.Kind})
			return
		}
		if err := d.Writer.Append(ctx, facts); err != nil {
			applog.Advisory(nil, "ledger.append", err, map[string]any{"asset_id": facts.AssetID})
		}
	case repos.TaskPriceRefresh:
		var job RefreshJob
		if err := json.Unmarshal(rec.Payload, &job); err != nil {
			applog.Error(nil, "outbox.decode", err, map[string]any{"id": rec.ID, "kind": rec.Kind})
			return
		}
		if err := d.Scheduler.Schedule(ctx, job.AssetID, d.RefreshDelay); err != nil {
			applog.Advisory(nil, "refresh.schedule", err, map[string]any{"asset_id": job.AssetID})
		}
	default:
		applog.Error(nil, "outbox.unknown_kind", nil, map[string]any{"id": rec.ID, "kind": rec.Kind})
	}
}
