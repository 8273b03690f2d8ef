package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"voxelnav.ai/internal/nav"
	"voxelnav.ai/internal/nav/blocks"
	"voxelnav.ai/internal/nav/geom"
	"voxelnav.ai/internal/nav/tuning"
	"voxelnav.ai/internal/persistence/journal"
	"voxelnav.ai/internal/persistence/navlog"
	"voxelnav.ai/internal/protocol"
	"voxelnav.ai/internal/transport/ws"
	"voxelnav.ai/internal/worldview"
)

func main() {
	var (
		url        = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name       = flag.String("name", "navbot", "agent name")
		targetArg  = flag.String("target", "", "final target as x,y,z")
		tuningPath = flag.String("tuning", "", "tuning yaml (optional)")
		logDir     = flag.String("log_dir", "./data/traces", "trace log directory")
		dbPath     = flag.String("db", "./data/nav.db", "session journal db")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[navbot] ", log.LstdFlags|log.Lmicroseconds)

	target, err := parseTarget(*targetArg)
	if err != nil {
		logger.Fatalf("target: %v", err)
	}

	cfg := tuning.Default()
	if *tuningPath != "" {
		cfg, err = tuning.Load(*tuningPath)
		if err != nil {
			logger.Fatalf("tuning: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client, err := ws.Dial(ctx, *url, *name, logger)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer client.Close()

	welcome := client.Welcome()
	logger.Printf("WELCOME agent_id=%s obs_radius=%d seed=%d",
		welcome.AgentID, welcome.WorldParams.ObsRadius, welcome.WorldParams.Seed)

	view := worldview.New(blocks.Default(), welcome.BlockPalette.IDs)
	navigator := nav.New(view, cfg)

	traces := navlog.NewTraceLogger(*logDir)
	defer traces.Close()

	db, err := journal.Open(*dbPath)
	if err != nil {
		logger.Fatalf("journal: %v", err)
	}
	defer db.Close()

	session := db.StartSession(*name, welcome.WorldParams.Seed)
	outcome := "aborted"
	defer func() { db.EndSession(session, outcome, navigator.Stats()) }()

	navigator.OnTrace = func(ev nav.TraceEvent) {
		if err := traces.WriteEvent(ev); err != nil {
			logger.Printf("trace: %v", err)
		}
		db.WriteEvent(session, ev)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-client.Done():
			logger.Printf("connection closed")
			return
		case obs := <-client.Obs():
			if err := view.Apply(obs.Voxels); err != nil {
				logger.Printf("voxels: %v", err)
				continue
			}
			pose := nav.Pose{
				Pos: geom.Vec3{X: obs.Self.Pos[0], Y: obs.Self.Pos[1], Z: obs.Self.Pos[2]},
				Yaw: obs.Self.Yaw,
			}

			wp, ok, err := navigator.ExploreToTarget(pose, target)
			if err != nil {
				logger.Fatalf("navigate: %v", err)
			}
			if !ok {
				if _, has := navigator.Target(); !has {
					logger.Printf("arrived at %v after %d ticks", target, navigator.Stats().Ticks)
					outcome = "arrived"
					return
				}
				continue // hold position this tick
			}

			act := protocol.ActMsg{
				Tick:    obs.Tick,
				AgentID: obs.AgentID,
				Tasks: []protocol.TaskReq{{
					ID:        fmt.Sprintf("K_move_%d", obs.Tick),
					Type:      protocol.TaskMoveTo,
					Target:    [3]float64{wp.X, wp.Y, wp.Z},
					Tolerance: cfg.GoalRadius,
				}},
			}
			if err := client.SendAct(act); err != nil {
				logger.Printf("act: %v", err)
				return
			}
		}
	}
}

func parseTarget(arg string) (geom.Vec3, error) {
	parts := strings.Split(arg, ",")
	if len(parts) != 3 {
		return geom.Vec3{}, fmt.Errorf("want x,y,z, got %q", arg)
	}
	var out [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return geom.Vec3{}, fmt.Errorf("coordinate %d: %w", i, err)
		}
		out[i] = v
	}
	return geom.Vec3{X: out[0], Y: out[1], Z: out[2]}, nil
}
