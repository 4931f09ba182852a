// Package scheduler reloads the knowledge tables on an interval and watches their health.
// A reloaded table set is validated before it is swapped in; a failed reload keeps the
// current tables and is reported through the knowledge store.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/giygas/clinical-cases-api/interfaces"
	"github.com/giygas/clinical-cases-api/knowledge"
	"github.com/giygas/clinical-cases-api/logging"
	"github.com/giygas/clinical-cases-api/metrics"
	"github.com/go-co-op/gocron"
)

// SourceFallback is the source recorded when the embedded tables replace a failed
// initial load.
const SourceFallback = "embedded (fallback)"

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// Scheduler handles knowledge reloads and health monitoring using dependency injection
type Scheduler struct {
	store     interfaces.KnowledgeStore
	parser    interfaces.KnowledgeParser
	validator interfaces.DataValidator
	interval  time.Duration
	scheduler *gocron.Scheduler

	stopOnce sync.Once
	done     chan struct{}
}

// NewScheduler creates a scheduler reloading tables every interval
func NewScheduler(store interfaces.KnowledgeStore, parser interfaces.KnowledgeParser,
	validator interfaces.DataValidator, interval time.Duration) *Scheduler {
	return &Scheduler{
		store:     store,
		parser:    parser,
		validator: validator,
		interval:  interval,
		scheduler: gocron.NewScheduler(time.Local),
		done:      make(chan struct{}),
	}
}

// Start loads the tables, schedules reloads and starts health monitoring. When the
// initial load fails the embedded tables are used and the failure is recorded.
func (s *Scheduler) Start() error {
	if err := s.reload(); err != nil {
		logging.Error("Failed to perform initial knowledge load", "error", err)
		if fallbackErr := s.loadFallback(err); fallbackErr != nil {
			return fmt.Errorf("initial knowledge load failed: %w", fallbackErr)
		}
	}

	minutes := int(s.interval / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	_, err := s.scheduler.Every(minutes).Minutes().WaitForSchedule().SingletonMode().Do(func() {
		if err := s.reload(); err != nil {
			logging.Error("Failed to reload knowledge tables", "error", err)
		}
	})
	if err != nil {
		logging.Error("Failed to schedule knowledge reloads", "error", err)
		return fmt.Errorf("failed to schedule knowledge reloads: %w", err)
	}

	s.scheduler.StartAsync()
	s.startHealthMonitoring(time.Hour)

	return nil
}

// Stop stops reloads and health monitoring
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.scheduler.Stop()
		close(s.done)
	})
}

// Reload runs one reload immediately
func (s *Scheduler) Reload() error {
	return s.reload()
}

func (s *Scheduler) reload() error {
	if !s.store.BeginUpdate() {
		logging.Info("Knowledge reload already in progress, skipping")
		metrics.KnowledgeReloads.WithLabelValues("skipped").Inc()
		return nil
	}
	defer s.store.EndUpdate()

	start := time.Now()

	tables, source, err := s.parser.ParseKnowledge()
	if err == nil {
		if validationErr := s.validator.ValidateKnowledge(tables); validationErr != nil {
			err = fmt.Errorf("knowledge tables from %s failed validation: %w", source, validationErr)
		}
	} else {
		err = fmt.Errorf("failed to parse knowledge tables: %w", err)
	}
	if err != nil {
		s.store.RecordFailure(err)
		metrics.KnowledgeReloads.WithLabelValues("failure").Inc()
		return err
	}

	s.store.UpdateTables(tables, source)
	metrics.KnowledgeReloads.WithLabelValues("success").Inc()
	logging.Info("Knowledge tables loaded",
		"source", source,
		"version", tables.Version,
		"entries", tables.EntryCount(),
		"topics", len(tables.Topics),
		"duration", time.Since(start).String())

	return nil
}

// loadFallback installs the embedded tables after cause made the initial load fail.
func (s *Scheduler) loadFallback(cause error) error {
	tables, err := knowledge.Default()
	if err != nil {
		return fmt.Errorf("embedded tables unavailable: %w", err)
	}
	if err := s.validator.ValidateKnowledge(tables); err != nil {
		return fmt.Errorf("embedded tables failed validation: %w", err)
	}

	s.store.UpdateTables(tables, SourceFallback)
	s.store.RecordFailure(cause)
	logging.Warn("Serving embedded knowledge tables after failed load",
		"version", tables.Version,
		"cause", cause)
	return nil
}

// startHealthMonitoring warns when the last reload failed or tables went stale
func (s *Scheduler) startHealthMonitoring(every time.Duration) {
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()

		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				if lastErr := s.store.GetLastError(); lastErr != "" {
					logging.Warn("Last knowledge reload failed", "error", lastErr)
				}
				if time.Since(s.store.GetLastUpdated()) > 3*s.interval {
					logging.Warn("Knowledge tables have not been refreshed recently",
						"last_update", s.store.GetLastUpdated().Format(time.RFC3339))
				}
			}
		}
	}()
}
