// Package notify turns warning-level escalations into alerts.
package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mr1hm/go-flood-watch/internal/broadcast"
	"github.com/mr1hm/go-flood-watch/internal/models"
	"github.com/mr1hm/go-flood-watch/internal/worker"
)

type Notifier struct {
	broadcaster *broadcast.Broadcaster
	sender      Sender
	minLevel    models.WarningLevel
	pool        *worker.Pool[models.Alert]
	wg          sync.WaitGroup
}

func NewNotifier(broadcaster *broadcast.Broadcaster, sender Sender, minLevel models.WarningLevel, workers, buffer int) *Notifier {
	n := &Notifier{
		broadcaster: broadcaster,
		sender:      sender,
		minLevel:    minLevel,
	}
	n.pool = worker.NewPool[models.Alert]("notify", workers, buffer, n.sender.Send)
	return n
}

// ShouldAlert reports whether c raised the level to at least the
// configured minimum.
func (n *Notifier) ShouldAlert(c models.Change) bool {
	return c.Escalated() && c.Current.WarningLevel >= n.minLevel
}

func (n *Notifier) Start(ctx context.Context) {
	n.pool.Start(ctx)

	id, events := n.broadcaster.Subscribe()
	n.wg.Add(1)
	go n.run(ctx, id, events)
}

func (n *Notifier) run(ctx context.Context, id uint64, events <-chan broadcast.Event) {
	defer n.wg.Done()
	defer n.broadcaster.Unsubscribe(id)
	slog.Info("notifier listening", "min_level", n.minLevel.String())

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if e.Type != broadcast.EventObservation || e.Change == nil || !n.ShouldAlert(*e.Change) {
				continue
			}
			alert := models.NewAlert(*e.Change)
			if err := n.pool.Submit(ctx, alert); err != nil {
				slog.Warn("alert dropped", "station", alert.Station, "error", err)
			}
		}
	}
}

// Stop waits for the subscription loop, which exits when the Start context
// ends or the broadcaster closes, then drains the alert queue.
func (n *Notifier) Stop() {
	n.wg.Wait()
	n.pool.Stop()
	slog.Info("notifier stopped")
}
