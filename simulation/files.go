package simulation

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"bottlesim/config"
	"bottlesim/database"
	"bottlesim/logging"
	"bottlesim/population"
	"bottlesim/random"
	"bottlesim/utils"
)

/*
Analyze two populations saved by an earlier run instead of evolving new
ones. p supplies the sampling and analysis parameters and whatever gets
echoed into the header.
*/
func AnalyzeFiles(ctx context.Context, p *config.Params,
	srcPath, recPath string, rep int, log *slog.Logger) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	EnsureRunId(p)

	seed := p.Seed + int64(rep)
	rs := random.New(seed)
	log = logging.OrDiscard(log).With("run", p.RunId, "rep", rep)

	src, err := population.Load(srcPath, "source", p.Population(), rs, log)
	if err != nil {
		return nil, err
	}
	rec, err := population.Load(recPath, "recipient", p.Population(), rs, log)
	if err != nil {
		return nil, err
	}
	log.Info("loaded populations", "source", srcPath, "source_size", src.Len(),
		"recipient", recPath, "recipient_size", rec.Len())

	st, err := analyze(ctx, p, header(p, rep, seed),
		src.Genomes(), rec.Genomes(), rs)
	if err != nil {
		return nil, err
	}
	return &Result{Stats: st, Source: src, Recipient: rec}, nil
}

/*
Writes each Result where the output config says: the stats, segs and
result files, optionally both populations, and a row in the database if
there is one. Safe to hand to Sweep since every repetition has its own file
names and the database locks.
*/
type Writer struct {
	out config.OutputConfig
	db  *database.DB
	log *slog.Logger
}

// db may be nil
func NewWriter(out config.OutputConfig, db *database.DB, log *slog.Logger) *Writer {
	return &Writer{out: out, db: db, log: logging.OrDiscard(log)}
}

func (w *Writer) path(name string) string {
	return utils.MaybeGzip(filepath.Join(w.out.Dir, name), w.out.Gzip)
}

// Returns the names of the files written
func (w *Writer) Write(ctx context.Context, res *Result) ([]string, error) {
	st := res.Stats
	written := make([]string, 0, 5)

	if w.out.Dir != "" {
		outputs := []struct {
			name  string
			write func(io.Writer) error
		}{
			{st.FileName("stats") + ".txt", st.WriteText},
			{st.FileName("segs") + ".txt", st.WriteSegs},
			{st.FileName("result") + ".json", st.WriteJSON},
		}
		for _, o := range outputs {
			fname := w.path(o.name)
			if err := utils.WriteFile(fname, o.write); err != nil {
				return written, fmt.Errorf("writing %s: %w", fname, err)
			}
			written = append(written, fname)
		}

		if w.out.SavePopulations {
			for _, pop := range []*population.Population{res.Source, res.Recipient} {
				fname := w.path(st.FileName(pop.Name()) + ".csv")
				if err := pop.Save(fname); err != nil {
					return written, err
				}
				written = append(written, fname)
			}
		}
	}

	if w.db != nil {
		id, err := w.db.SaveRun(ctx, st)
		if err != nil {
			return written, fmt.Errorf("saving run %s/%d to %s: %w",
				st.RunId, st.Repetition, w.db.Path(), err)
		}
		w.log.Debug("saved run", "db", w.db.Path(), "row", id)
	}

	w.log.Info("wrote results", "run", st.RunId, "rep", st.Repetition,
		"files", len(written))
	return written, nil
}
