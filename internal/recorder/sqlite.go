package recorder

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"TurtleSentinel/internal/model"
)

// SQLiteRecorder persists evaluations to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *zap.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger *zap.Logger) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "create database directory")
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}

	// WAL lets dashboards read while a run writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "set WAL mode")
	}

	r := &SQLiteRecorder{db: db, logger: logger}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrate")
	}

	logger.Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS evaluations (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			run_at          INTEGER NOT NULL,
			symbol          TEXT NOT NULL,
			timeframe       TEXT NOT NULL,
			outcome         TEXT NOT NULL,
			bar_time        INTEGER,
			close           REAL,
			open            REAL,
			volume          REAL,
			upper_channel   REAL,
			lower_channel   REAL,
			volume_ma       REAL,
			atr             REAL,
			cond_breakout   INTEGER,
			cond_volume     INTEGER,
			cond_bullish    INTEGER,
			stop_loss       REAL,
			take_profit     REAL,
			notional        REAL,
			leverage        REAL,
			trailing_stop   REAL,
			turtle_exit     REAL,
			message         TEXT,
			delivered       INTEGER NOT NULL DEFAULT 0,
			error           TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_evaluations_run_at ON evaluations(run_at)`,
		`CREATE INDEX IF NOT EXISTS idx_evaluations_outcome ON evaluations(outcome)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return errors.Wrapf(err, "exec %q", s[:40])
		}
	}
	return nil
}

// RecordEvaluation appends one row. Fields that do not apply are stored as NULL.
func (r *SQLiteRecorder) RecordEvaluation(ev *Evaluation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		barTime                                  sql.NullInt64
		closePx, openPx, volume                  sql.NullFloat64
		upper, lower, volMA, atr                 sql.NullFloat64
		condBreakout, condVolume, condBullish    sql.NullBool
		stopLoss, takeProfit, notional, leverage sql.NullFloat64
		trailingStop, turtleExit                 sql.NullFloat64
	)

	if d := ev.Decision; d != nil {
		barTime = sql.NullInt64{Int64: d.Candle.Time.Unix(), Valid: true}
		closePx = nullFloat(d.Candle.Close, true)
		openPx = nullFloat(d.Candle.Open, true)
		volume = nullFloat(d.Candle.Volume, true)
		upper = nullFloat(d.Snapshot.UpperChannel.Value, d.Snapshot.UpperChannel.Ready)
		lower = nullFloat(d.Snapshot.LowerChannel.Value, d.Snapshot.LowerChannel.Ready)
		volMA = nullFloat(d.Snapshot.VolumeMA.Value, d.Snapshot.VolumeMA.Ready)
		atr = nullFloat(d.Snapshot.ATR.Value, d.Snapshot.ATR.Ready)
		for _, c := range d.Conditions {
			v := sql.NullBool{Bool: c.Passed, Valid: true}
			switch c.Name {
			case model.CondChannelBreakout:
				condBreakout = v
			case model.CondVolumeSurge:
				condVolume = v
			case model.CondBullishBody:
				condBullish = v
			}
		}
		if e := d.Entry; e != nil {
			stopLoss = nullFloat(e.StopLoss, true)
			takeProfit = nullFloat(e.TakeProfit, true)
			if e.Sizing != nil {
				notional = nullFloat(e.Sizing.Notional, true)
				leverage = nullFloat(e.Sizing.Leverage, true)
			}
		}
		if h := d.Holding; h != nil {
			trailingStop = nullFloat(h.TrailingStop, true)
			turtleExit = nullFloat(h.TurtleExit, true)
		}
	}

	_, err := r.db.Exec(`INSERT INTO evaluations
		(run_at, symbol, timeframe, outcome, bar_time, close, open, volume,
		 upper_channel, lower_channel, volume_ma, atr,
		 cond_breakout, cond_volume, cond_bullish,
		 stop_loss, take_profit, notional, leverage,
		 trailing_stop, turtle_exit, message, delivered, error)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		ev.RunAt.Unix(), ev.Symbol, ev.Timeframe, string(ev.Outcome), barTime, closePx, openPx, volume,
		upper, lower, volMA, atr,
		condBreakout, condVolume, condBullish,
		stopLoss, takeProfit, notional, leverage,
		trailingStop, turtleExit, ev.Message, ev.Delivered, ev.Error,
	)
	return errors.Wrap(err, "insert evaluation")
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info("closing sqlite recorder")
	return r.db.Close()
}

func nullFloat(v float64, ok bool) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: ok}
}
