package services

import (
	"context"
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/marketgate/backend/internal/infrastructure/persistence"
	"github.com/marketgate/backend/pkg/constants"
)

// Maintenance defaults, overridable by environment.
const (
	defaultMaintenanceSchedule = "0 * * * *" // hourly
	defaultStaleReviewDays     = 14
	maintenanceCheckInterval   = 30 * time.Second
)

// MaintenanceService runs periodic housekeeping: purging expired sessions
// and flagging progress rows stuck in review. The schedule is a standard
// cron expression from MAINTENANCE_SCHEDULE.
type MaintenanceService struct {
	sessions *persistence.SessionRepository
	progress *persistence.ProgressRepository

	schedule  cron.Schedule
	staleDays int

	stopChan chan struct{}
	mu       sync.Mutex
	running  bool
	stopped  bool
}

// NewMaintenanceService creates a new MaintenanceService
func NewMaintenanceService(sessions *persistence.SessionRepository, progress *persistence.ProgressRepository) *MaintenanceService {
	spec := os.Getenv("MAINTENANCE_SCHEDULE")
	if spec == "" {
		spec = defaultMaintenanceSchedule
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(spec)
	if err != nil {
		log.Printf("⚠️ Invalid MAINTENANCE_SCHEDULE '%s', falling back to hourly: %v", spec, err)
		schedule, _ = parser.Parse(defaultMaintenanceSchedule)
	}

	staleDays := defaultStaleReviewDays
	if v := os.Getenv("STALE_REVIEW_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			staleDays = n
		}
	}

	return &MaintenanceService{
		sessions:  sessions,
		progress:  progress,
		schedule:  schedule,
		staleDays: staleDays,
		stopChan:  make(chan struct{}),
	}
}

// Start begins the maintenance background loop. Blocks; run in a goroutine.
func (s *MaintenanceService) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	log.Println("⏰ Maintenance service starting...")

	next := s.schedule.Next(time.Now())
	ticker := time.NewTicker(maintenanceCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			if now.Before(next) {
				continue
			}
			s.runSweep()
			next = s.schedule.Next(now)
		case <-s.stopChan:
			log.Println("⏰ Maintenance service stopped")
			return
		}
	}
}

// Stop gracefully stops the maintenance loop
func (s *MaintenanceService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || s.stopped {
		return
	}
	s.running = false
	s.stopped = true
	close(s.stopChan)
}

// runSweep executes one maintenance pass.
func (s *MaintenanceService) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if purged, err := s.sessions.PurgeExpired(ctx, time.Now()); err != nil {
		log.Printf("⚠️ Session purge failed: %v", err)
	} else if purged > 0 {
		log.Printf("🧹 Purged %d expired sessions", purged)
	}

	cutoff := time.Now().AddDate(0, 0, -s.staleDays)
	if flagged, err := s.progress.MarkStaleInReview(ctx, cutoff); err != nil {
		log.Printf("⚠️ Stale review sweep failed: %v", err)
	} else if flagged > 0 {
		log.Printf("🧹 Moved %d idle progress rows to %s", flagged, constants.StatusInReview)
	}
}
