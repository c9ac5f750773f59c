package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/thebreadishard/CosmicNetworkSim1/internal/core/event"
	"github.com/thebreadishard/CosmicNetworkSim1/internal/sim"
)

// Supernova is one terminal death awaiting a flush.
type Supernova struct {
	StarID  uint64
	Age     float64
	SimTime time.Duration
}

// StatsRepo buffers per-run samples and writes them in batches. Record and
// RecordSupernova are called from the frame loop; Flush writes everything
// buffered in a single transaction.
type StatsRepo struct {
	db    *DB
	runID string

	samples    []sim.Stats
	supernovae []Supernova
}

func NewStatsRepo(db *DB, runID string) *StatsRepo {
	return &StatsRepo{db: db, runID: runID}
}

func (r *StatsRepo) RunID() string { return r.runID }

// Record buffers a stats sample.
func (r *StatsRepo) Record(st sim.Stats) {
	r.samples = append(r.samples, st)
}

// RecordSupernova buffers a terminal death observed at simTime.
func (r *StatsRepo) RecordSupernova(ev event.StarDied, simTime time.Duration) {
	r.supernovae = append(r.supernovae, Supernova{
		StarID:  uint64(ev.StarID),
		Age:     ev.Age,
		SimTime: simTime,
	})
}

// Pending is the number of buffered rows.
func (r *StatsRepo) Pending() int { return len(r.samples) + len(r.supernovae) }

// Flush atomically writes the buffered rows. On failure the buffer is kept
// for the next attempt.
func (r *StatsRepo) Flush(ctx context.Context) error {
	if r.Pending() == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("stats begin: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, s := range r.samples {
		batch.Queue(
			`INSERT INTO stats_samples (run_id, tick, sim_time_ms, stars, active, connections,
			                            obscured, clouds, births, deaths, supernovae)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			r.runID, int64(s.Ticks), s.SimTime.Milliseconds(), s.Stars, s.Active, s.Connections,
			s.Obscured, s.Clouds, s.Births, s.Deaths, s.Supernovae,
		)
	}
	for _, sn := range r.supernovae {
		batch.Queue(
			`INSERT INTO supernovae (run_id, star_id, age, sim_time_ms) VALUES ($1, $2, $3, $4)`,
			r.runID, int64(sn.StarID), sn.Age, sn.SimTime.Milliseconds(),
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("stats insert: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("stats commit: %w", err)
	}
	r.samples = r.samples[:0]
	r.supernovae = r.supernovae[:0]
	return nil
}

// Recent returns up to limit samples of this run, newest first.
func (r *StatsRepo) Recent(ctx context.Context, limit int) ([]sim.Stats, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT tick, sim_time_ms, stars, active, connections, obscured, clouds,
		        births, deaths, supernovae
		 FROM stats_samples WHERE run_id = $1 ORDER BY tick DESC LIMIT $2`,
		r.runID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []sim.Stats
	for rows.Next() {
		var (
			s     sim.Stats
			tick  int64
			simMs int64
		)
		if err := rows.Scan(&tick, &simMs, &s.Stars, &s.Active, &s.Connections, &s.Obscured,
			&s.Clouds, &s.Births, &s.Deaths, &s.Supernovae); err != nil {
			return nil, err
		}
		s.Ticks = uint64(tick)
		s.SimTime = time.Duration(simMs) * time.Millisecond
		out = append(out, s)
	}
	return out, rows.Err()
}

// SupernovaCount is the number of supernovae stored for this run.
func (r *StatsRepo) SupernovaCount(ctx context.Context) (int, error) {
	var n int
	err := r.db.Pool.QueryRow(ctx,
		`SELECT count(*) FROM supernovae WHERE run_id = $1`, r.runID,
	).Scan(&n)
	return n, err
}
