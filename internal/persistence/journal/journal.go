// Package journal records navigation sessions in sqlite: one row per run
// plus the trace events of the run. Writes go through a single writer
// goroutine so the navigation loop never blocks on the database.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"voxelnav.ai/internal/nav"
)

type Journal struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

type reqKind int

const (
	reqSession reqKind = iota + 1
	reqEvent
	reqEnd
)

type req struct {
	kind reqKind

	session sessionRow
	event   eventRow
	end     endRow
}

type sessionRow struct {
	ID        string
	AgentName string
	Seed      int64
	StartedAt string
}

type eventRow struct {
	SessionID string
	At        string
	Event     string
	State     string
	Pos       [3]float64
	Waypoint  [3]float64
	Target    [3]float64
}

type endRow struct {
	SessionID string
	Outcome   string
	EndedAt   string
	Stats     nav.Stats
}

func Open(path string) (*Journal, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	j := &Journal{
		db: db,
		ch: make(chan req, 65536),
	}
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		j.loop()
	}()
	return j, nil
}

func initPragmas(db *sql.DB) error {
	// WAL suits the append-only event stream.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			agent_name TEXT NOT NULL,
			seed INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT,
			outcome TEXT,
			ticks INTEGER NOT NULL DEFAULT 0,
			scans INTEGER NOT NULL DEFAULT 0,
			merges INTEGER NOT NULL DEFAULT 0,
			replans INTEGER NOT NULL DEFAULT 0,
			arrivals INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			session_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			at TEXT NOT NULL,
			event TEXT NOT NULL,
			state TEXT,
			px REAL NOT NULL, py REAL NOT NULL, pz REAL NOT NULL,
			wx REAL NOT NULL, wy REAL NOT NULL, wz REAL NOT NULL,
			tx REAL NOT NULL, ty REAL NOT NULL, tz REAL NOT NULL,
			PRIMARY KEY (session_id, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_event ON events(session_id, event);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (j *Journal) Close() error {
	var err error
	j.once.Do(func() {
		j.closed.Store(true)
		close(j.ch)
		j.wg.Wait()
		err = j.db.Close()
	})
	return err
}

// StartSession registers a run and returns its id.
func (j *Journal) StartSession(agentName string, seed int64) string {
	id := uuid.NewString()
	if j == nil || j.closed.Load() {
		return id
	}
	j.ch <- req{kind: reqSession, session: sessionRow{
		ID:        id,
		AgentName: agentName,
		Seed:      seed,
		StartedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}}
	return id
}

// WriteEvent enqueues one trace event. Events are dropped if the writer
// falls behind; the zstd trace log remains the source of truth.
func (j *Journal) WriteEvent(sessionID string, ev nav.TraceEvent) {
	if j == nil || j.closed.Load() {
		return
	}
	r := req{kind: reqEvent, event: eventRow{
		SessionID: sessionID,
		At:        ev.At.UTC().Format(time.RFC3339Nano),
		Event:     ev.Event,
		State:     ev.State,
		Pos:       [3]float64{ev.Pos.X, ev.Pos.Y, ev.Pos.Z},
		Waypoint:  [3]float64{ev.Waypoint.X, ev.Waypoint.Y, ev.Waypoint.Z},
		Target:    [3]float64{ev.Target.X, ev.Target.Y, ev.Target.Z},
	}}
	select {
	case j.ch <- r:
	default:
	}
}

// EndSession finalizes the run row with its outcome and counters.
func (j *Journal) EndSession(sessionID, outcome string, stats nav.Stats) {
	if j == nil || j.closed.Load() {
		return
	}
	j.ch <- req{kind: reqEnd, end: endRow{
		SessionID: sessionID,
		Outcome:   outcome,
		EndedAt:   time.Now().UTC().Format(time.RFC3339Nano),
		Stats:     stats,
	}}
}

func (j *Journal) loop() {
	ctx := context.Background()

	insertSession, _ := j.db.Prepare(`INSERT OR REPLACE INTO sessions(session_id,agent_name,seed,started_at) VALUES(?,?,?,?)`)
	insertEvent, _ := j.db.Prepare(`INSERT OR REPLACE INTO events(session_id,seq,at,event,state,px,py,pz,wx,wy,wz,tx,ty,tz) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	endSession, _ := j.db.Prepare(`UPDATE sessions SET ended_at=?,outcome=?,ticks=?,scans=?,merges=?,replans=?,arrivals=? WHERE session_id=?`)
	defer func() {
		if insertSession != nil {
			_ = insertSession.Close()
		}
		if insertEvent != nil {
			_ = insertEvent.Close()
		}
		if endSession != nil {
			_ = endSession.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 1000
		commitMaxWait = 2 * time.Second

		seq = map[string]int{}
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := j.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	for r := range j.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqSession:
			if insertSession == nil {
				continue
			}
			if _, err := tx.Stmt(insertSession).Exec(r.session.ID, r.session.AgentName, r.session.Seed, r.session.StartedAt); err != nil {
				rollback()
				continue
			}
			opCount++

		case reqEvent:
			if insertEvent == nil {
				continue
			}
			e := r.event
			n := seq[e.SessionID]
			seq[e.SessionID] = n + 1
			if _, err := tx.Stmt(insertEvent).Exec(
				e.SessionID, n, e.At, e.Event, e.State,
				e.Pos[0], e.Pos[1], e.Pos[2],
				e.Waypoint[0], e.Waypoint[1], e.Waypoint[2],
				e.Target[0], e.Target[1], e.Target[2],
			); err != nil {
				rollback()
				continue
			}
			opCount++

		case reqEnd:
			if endSession == nil {
				continue
			}
			e := r.end
			if _, err := tx.Stmt(endSession).Exec(
				e.EndedAt, e.Outcome,
				e.Stats.Ticks, e.Stats.Scans, e.Stats.Merges, e.Stats.Replans, e.Stats.Arrivals,
				e.SessionID,
			); err != nil {
				rollback()
				continue
			}
			opCount++
			delete(seq, e.SessionID)
			// A finished session is worth making durable immediately.
			commit()
		}

		if tx != nil && (opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait) {
			commit()
		}
	}
	commit()
}
