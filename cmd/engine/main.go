package main

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"clinic-scheduling/internal/config"
	"clinic-scheduling/internal/scheduler"
	"clinic-scheduling/internal/store"
)

// One-shot batch runner: loads the pending snapshot from Postgres, runs
// a single optimization batch and commits the outcome. Meant for cron.
func main() {
	days := flag.Int("days", 7, "scheduling horizon in days, starting now")
	threshold := flag.Int("min-priority", 0, "skip procedures below this priority (0 = all)")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall run timeout")
	flag.Parse()

	cfg := config.Load()

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).Level(level).With().
		Timestamp().
		Str("service", "clinic-engine").
		Logger()

	if cfg.DB.URL == "" {
		log.Fatal().Msg("DATABASE_URL is required")
	}

	conn, err := sql.Open("postgres", cfg.DB.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("ping database")
	}

	pg := store.NewPostgresStore(conn)
	engine := scheduler.NewEngine(pg, pg, log)

	req := scheduler.ScheduleRequest{
		StartDate: time.Now().UTC(),
		EndDate:   time.Now().UTC().AddDate(0, 0, *days),
	}
	if *threshold > 0 {
		req.PriorityThreshold = threshold
	}

	resp, err := engine.Run(ctx, req)
	if err != nil {
		log.Fatal().Err(err).Msg("batch failed")
	}

	for _, u := range resp.UnscheduledProcedures {
		log.Warn().
			Int64("procedure_id", u.ProcedureID).
			Str("reason", u.Reason).
			Msg("procedure left unscheduled")
	}
	log.Info().
		Int("scheduled", len(resp.Appointments)).
		Int("unscheduled", len(resp.UnscheduledProcedures)).
		Float64("score", resp.OptimizationScore).
		Str("message", resp.Message).
		Msg("batch complete")
}
