package database

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// MaintenanceJob keeps the cache database healthy over long uptimes: a
// connectivity check plus a forced WAL checkpoint so the log file cannot
// grow unbounded between restarts.
type MaintenanceJob struct {
	db  *DB
	log zerolog.Logger
}

// NewMaintenanceJob creates a maintenance job for one database.
func NewMaintenanceJob(db *DB, log zerolog.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		db:  db,
		log: log.With().Str("job", "db_maintenance").Logger(),
	}
}

// Name returns the job name for scheduling and logging.
func (j *MaintenanceJob) Name() string {
	return "db_maintenance"
}

// Run executes one maintenance pass.
func (j *MaintenanceJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := j.db.QuickCheck(ctx); err != nil {
		j.log.Error().Err(err).Str("database", j.db.Name()).Msg("Database ping failed")
		return err
	}

	if err := j.db.WALCheckpoint("TRUNCATE"); err != nil {
		j.log.Error().Err(err).Str("database", j.db.Name()).Msg("WAL checkpoint failed")
		return err
	}

	j.log.Debug().Str("database", j.db.Name()).Msg("Database maintenance completed")
	return nil
}
