package journal

import "context"

type SessionRow struct {
	ID        string
	AgentName string
	Seed      int64
	StartedAt string
	EndedAt   string
	Outcome   string
	Ticks     int
	Scans     int
	Merges    int
	Replans   int
	Arrivals  int
}

type EventRow struct {
	Seq      int
	At       string
	Event    string
	State    string
	Pos      [3]float64
	Waypoint [3]float64
	Target   [3]float64
}

func (j *Journal) Sessions(ctx context.Context, limit int) ([]SessionRow, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT session_id, agent_name, seed, started_at,
		       COALESCE(ended_at,''), COALESCE(outcome,''),
		       ticks, scans, merges, replans, arrivals
		FROM sessions ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SessionRow
	for rows.Next() {
		var r SessionRow
		if err := rows.Scan(&r.ID, &r.AgentName, &r.Seed, &r.StartedAt, &r.EndedAt, &r.Outcome,
			&r.Ticks, &r.Scans, &r.Merges, &r.Replans, &r.Arrivals); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (j *Journal) Events(ctx context.Context, sessionID string, limit int) ([]EventRow, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT seq, at, event, COALESCE(state,''),
		       px, py, pz, wx, wy, wz, tx, ty, tz
		FROM events WHERE session_id = ? ORDER BY seq LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EventRow
	for rows.Next() {
		var r EventRow
		if err := rows.Scan(&r.Seq, &r.At, &r.Event, &r.State,
			&r.Pos[0], &r.Pos[1], &r.Pos[2],
			&r.Waypoint[0], &r.Waypoint[1], &r.Waypoint[2],
			&r.Target[0], &r.Target[1], &r.Target[2]); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
