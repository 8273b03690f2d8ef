package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"

	"voxelnav.ai/internal/nav"
	"voxelnav.ai/internal/persistence/journal"
	"voxelnav.ai/internal/persistence/navlog"
)

// navtrace inspects recorded navigation runs: it lists journal sessions
// and summarizes or dumps the compressed trace logs.
func main() {
	var (
		dir     = flag.String("dir", "", "trace log directory")
		dbPath  = flag.String("db", "", "session journal db")
		session = flag.String("session", "", "dump events of one session id")
		dump    = flag.Bool("dump", false, "print every trace event")
	)
	flag.Parse()

	if *dir == "" && *dbPath == "" {
		fmt.Fprintln(os.Stderr, "need -dir and/or -db")
		os.Exit(2)
	}

	if *dbPath != "" {
		if err := showJournal(*dbPath, *session); err != nil {
			fmt.Fprintln(os.Stderr, "journal:", err)
			os.Exit(1)
		}
	}
	if *dir != "" {
		if err := showTraces(*dir, *dump); err != nil {
			fmt.Fprintln(os.Stderr, "traces:", err)
			os.Exit(1)
		}
	}
}

func showJournal(path, session string) error {
	db, err := journal.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	if session != "" {
		events, err := db.Events(ctx, session, 0)
		if err != nil {
			return err
		}
		for _, e := range events {
			fmt.Printf("%6d %-28s %-8s %-20s pos=(%.1f,%.1f,%.1f) wp=(%.1f,%.1f,%.1f)\n",
				e.Seq, e.At, e.Event, e.State,
				e.Pos[0], e.Pos[1], e.Pos[2],
				e.Waypoint[0], e.Waypoint[1], e.Waypoint[2])
		}
		return nil
	}

	sessions, err := db.Sessions(ctx, 0)
	if err != nil {
		return err
	}
	for _, s := range sessions {
		fmt.Printf("%s agent=%s seed=%d outcome=%s ticks=%d scans=%d replans=%d arrivals=%d started=%s\n",
			s.ID, s.AgentName, s.Seed, s.Outcome, s.Ticks, s.Scans, s.Replans, s.Arrivals, s.StartedAt)
	}
	return nil
}

func showTraces(dir string, dump bool) error {
	files, err := navlog.ListFiles(dir, "trace")
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no trace files in %s", dir)
	}

	byEvent := map[string]int{}
	byState := map[string]int{}
	total := 0

	for _, path := range files {
		err := navlog.ReadFile(path, func(ev nav.TraceEvent) error {
			total++
			byEvent[ev.Event]++
			if ev.State != "" {
				byState[ev.State]++
			}
			if dump {
				fmt.Printf("%s %-8s %-20s pos=(%.1f,%.1f,%.1f) wp=(%.1f,%.1f,%.1f) target=(%.1f,%.1f,%.1f)\n",
					ev.At.Format("15:04:05.000"), ev.Event, ev.State,
					ev.Pos.X, ev.Pos.Y, ev.Pos.Z,
					ev.Waypoint.X, ev.Waypoint.Y, ev.Waypoint.Z,
					ev.Target.X, ev.Target.Y, ev.Target.Z)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	fmt.Printf("files=%d events=%d\n", len(files), total)
	for _, k := range sortedKeys(byEvent) {
		fmt.Printf("  event %-8s %d\n", k, byEvent[k])
	}
	for _, k := range sortedKeys(byState) {
		fmt.Printf("  state %-20s %d\n", k, byState[k])
	}
	return nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
