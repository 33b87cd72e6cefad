package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"bottlesim/transmission"

	_ "modernc.org/sqlite"
)

/*
Results of finished runs, kept in SQLite so sweeps over many seeds and
parameters can be pulled back out together. Safe for concurrent use by the
workers of a sweep.
*/
type DB struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite",
		path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	// One writer
	db.SetMaxOpenConns(1)

	if err := initSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return &DB{db: db, path: path}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) Path() string {
	return d.path
}

/*
Store one run's Stats, replacing any earlier row for the same run id and
repetition. The sampled genomes aren't stored; they're in the result file.
Returns the row id.
*/
func (d *DB) SaveRun(ctx context.Context, st *transmission.Stats) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM runs WHERE run_id = ? AND repetition = ?`,
		st.RunId, st.Repetition)
	if err != nil {
		return 0, fmt.Errorf("replacing run %s/%d: %w", st.RunId, st.Repetition, err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (run_id, repetition, seed, mutation_rate, genome_length,
			carrying_capacity, sample_size, source_generations,
			recipient_generations, bottleneck, num_bins, iterations, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.RunId, st.Repetition, st.Seed, st.MutationRate, st.GenomeLength,
		st.CarryingCapacity, st.SampleSize, st.SourceGenerations,
		st.RecipientGenerations, st.Bottleneck, st.NumBins, st.Iterations,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("inserting run %s/%d: %w", st.RunId, st.Repetition, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	fracStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO fractions (run, combo_size, tier_1, tier_2, combined, clumpiness)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer fracStmt.Close()

	segStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO seg_diffs (run, combo_size, trial, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer segStmt.Close()

	for _, c := range st.Combos {
		_, err := fracStmt.ExecContext(ctx, id, c.Size,
			c.Tier1Fraction, c.Tier2Fraction, c.CombinedFraction,
			c.ClumpinessFraction)
		if err != nil {
			return 0, fmt.Errorf("inserting combo %d: %w", c.Size, err)
		}
		for trial, v := range c.SegDiffs {
			if _, err := segStmt.ExecContext(ctx, id, c.Size, trial, v); err != nil {
				return 0, fmt.Errorf("inserting seg diffs for combo %d: %w", c.Size, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// All the run ids stored, oldest first
func (d *DB) RunIds(ctx context.Context) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	rows, err := d.db.QueryContext(ctx,
		`SELECT run_id FROM runs GROUP BY run_id ORDER BY MIN(id)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ret := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ret = append(ret, id)
	}
	return ret, rows.Err()
}

/*
Read back the stored Stats for runId (every run if runId is empty), ordered
by run id then repetition.
*/
func (d *DB) Runs(ctx context.Context, runId string) ([]*transmission.Stats, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	rows, err := d.db.QueryContext(ctx, `
		SELECT id, run_id, repetition, seed, mutation_rate, genome_length,
			carrying_capacity, sample_size, source_generations,
			recipient_generations, bottleneck, num_bins, iterations
		FROM runs
		WHERE ? = '' OR run_id = ?
		ORDER BY run_id, repetition`, runId, runId)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}

	ret := make([]*transmission.Stats, 0)
	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		st := &transmission.Stats{}
		err := rows.Scan(&id, &st.RunId, &st.Repetition, &st.Seed,
			&st.MutationRate, &st.GenomeLength, &st.CarryingCapacity,
			&st.SampleSize, &st.SourceGenerations, &st.RecipientGenerations,
			&st.Bottleneck, &st.NumBins, &st.Iterations)
		if err != nil {
			rows.Close()
			return nil, err
		}
		ret = append(ret, st)
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, st := range ret {
		if err := d.loadCombos(ctx, ids[i], st); err != nil {
			return nil, err
		}
	}
	return ret, nil
}

func (d *DB) loadCombos(ctx context.Context, id int64, st *transmission.Stats) error {
	rows, err := d.db.QueryContext(ctx, `
		SELECT combo_size, tier_1, tier_2, combined, clumpiness
		FROM fractions WHERE run = ? ORDER BY combo_size`, id)
	if err != nil {
		return fmt.Errorf("querying fractions: %w", err)
	}
	for rows.Next() {
		var c transmission.ComboStats
		if err := rows.Scan(&c.Size, &c.Tier1Fraction, &c.Tier2Fraction,
			&c.CombinedFraction, &c.ClumpinessFraction); err != nil {
			rows.Close()
			return err
		}
		st.Combos = append(st.Combos, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range st.Combos {
		c := &st.Combos[i]
		c.SegDiffs = make([]int, 0, st.Iterations)

		rows, err := d.db.QueryContext(ctx, `
			SELECT value FROM seg_diffs
			WHERE run = ? AND combo_size = ? ORDER BY trial`, id, c.Size)
		if err != nil {
			return fmt.Errorf("querying seg diffs: %w", err)
		}
		for rows.Next() {
			var v int
			if err := rows.Scan(&v); err != nil {
				rows.Close()
				return err
			}
			c.SegDiffs = append(c.SegDiffs, v)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
	}
	return nil
}

// Write the stored runs as one JSON array. Returns how many there were.
func (d *DB) ExportJSON(ctx context.Context, runId string, w io.Writer) (int, error) {
	runs, err := d.Runs(ctx, runId)
	if err != nil {
		return 0, err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(runs); err != nil {
		return 0, err
	}
	return len(runs), nil
}
