package reliability

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// BackupJob adapts the backup service to the scheduler's Job interface.
type BackupJob struct {
	service *BackupService
	timeout time.Duration
	log     zerolog.Logger
}

// NewBackupJob creates a new scheduled backup job
func NewBackupJob(service *BackupService, log zerolog.Logger) *BackupJob {
	return &BackupJob{
		service: service,
		timeout: 10 * time.Minute,
		log:     log.With().Str("job", "backup").Logger(),
	}
}

// Name returns the job identifier
func (j *BackupJob) Name() string {
	return "database_backup"
}

// Run performs one backup cycle
func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	result, err := j.service.Run(ctx)
	if err != nil {
		return err
	}

	j.log.Info().Str("archive", result.Archive).Bool("uploaded", result.Uploaded).Msg("Scheduled backup finished")
	return nil
}
