package refresh

import (
	"context"
	"encoding/binary"
	"hash/fnv"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/mr1hm/go-flood-watch/internal/broadcast"
	"github.com/mr1hm/go-flood-watch/internal/models"
)

type Lister interface {
	List(ctx context.Context) ([]models.Observation, error)
}

// fingerprint summarizes the list content. Any change to a record's
// status fields, stamp or id changes the hash.
type fingerprint struct {
	count int
	hash  uint64
}

func fingerprintOf(list []models.Observation) fingerprint {
	h := fnv.New64a()
	var b [8]byte
	writeInt := func(v int64) {
		binary.LittleEndian.PutUint64(b[:], uint64(v))
		h.Write(b[:])
	}

	for _, o := range list {
		writeInt(o.ID)
		writeInt(int64(o.WarningLevel))
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(o.WaterLevel))
		h.Write(b[:])
		writeInt(int64(len(o.Weather)))
		h.Write([]byte(o.Weather))
		writeInt(o.LastUpdated.UnixMilli())
	}
	return fingerprint{count: len(list), hash: h.Sum64()}
}

// Refresher polls the store and broadcasts a snapshot whenever its contents
// change, including writes made by other processes.
type Refresher struct {
	repo        Lister
	broadcaster *broadcast.Broadcaster
	interval    time.Duration
	now         func() time.Time

	mu   sync.Mutex
	last *fingerprint
	wg   sync.WaitGroup
}

func NewRefresher(repo Lister, broadcaster *broadcast.Broadcaster, interval time.Duration) *Refresher {
	return &Refresher{
		repo:        repo,
		broadcaster: broadcaster,
		interval:    interval,
		now:         time.Now,
	}
}

func (r *Refresher) Start(ctx context.Context) {
	r.wg.Add(1)
	go r.runPoller(ctx)
}

func (r *Refresher) runPoller(ctx context.Context) {
	defer r.wg.Done()
	slog.Info("starting refresher", "interval", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	// Initial poll records the baseline
	r.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("refresher shutting down")
			return
		case <-ticker.C:
			r.poll(ctx)
		}
	}
}

func (r *Refresher) poll(ctx context.Context) {
	if _, err := r.Poll(ctx); err != nil && ctx.Err() == nil {
		slog.Error("refresh failed", "error", err)
	}
}

// Poll loads the list once and broadcasts a snapshot if it differs from
// the previous poll. The first poll only records a baseline. It reports
// whether a snapshot was sent.
func (r *Refresher) Poll(ctx context.Context) (bool, error) {
	list, err := r.repo.List(ctx)
	if err != nil {
		return false, err
	}
	fp := fingerprintOf(list)

	r.mu.Lock()
	prev := r.last
	r.last = &fp
	r.mu.Unlock()

	if prev == nil || *prev == fp {
		return false, nil
	}

	slog.Debug("store changed, broadcasting snapshot", "count", fp.count)
	r.broadcaster.Broadcast(broadcast.SnapshotEvent(list, r.now()))
	return true, nil
}

// Stop waits for the poll loop, which exits when the Start context ends.
func (r *Refresher) Stop() {
	r.wg.Wait()
	slog.Info("refresher stopped")
}
