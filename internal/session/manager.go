package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pathwise/compass-backend/internal/adaptive"
	"github.com/pathwise/compass-backend/internal/model"
)

// AttemptSource is the slice of the persistence gateway the manager
// needs on top of ProgressGateway: the resume/eligibility checks that
// happen before a controller exists.
type AttemptSource interface {
	ProgressGateway
	CheckInProgressAttempt(ctx context.Context, studentID int) (*model.Attempt, error)
	CheckEligibility(ctx context.Context, studentID int) (model.Eligibility, error)
}

// AdapterFactory builds a fresh adaptive engine client per session.
type AdapterFactory func() adaptive.Adapter

// Manager owns the live controllers, one per student, and drives
// every armed clock from a single one-second ticker.
type Manager struct {
	mu          sync.Mutex
	controllers map[int]*Controller

	log         zerolog.Logger
	attempts    AttemptSource
	scorer      Scorer
	sections    SectionSource
	newAdapter  AdapterFactory
	adaptiveSec int
	heartbeat   int
	idleTimeout time.Duration
}

// ManagerConfig carries the manager's collaborators and knobs.
type ManagerConfig struct {
	Log              zerolog.Logger
	Attempts         AttemptSource
	Scorer           Scorer
	Sections         SectionSource
	NewAdapter       AdapterFactory
	AdaptiveSeconds  int
	HeartbeatSeconds int
	IdleTimeout      time.Duration
}

// NewManager creates an empty Manager.
func NewManager(cfg ManagerConfig) *Manager {
	return &Manager{
		controllers: make(map[int]*Controller),
		log:         cfg.Log.With().Str("component", "session_manager").Logger(),
		attempts:    cfg.Attempts,
		scorer:      cfg.Scorer,
		sections:    cfg.Sections,
		newAdapter:  cfg.NewAdapter,
		adaptiveSec: cfg.AdaptiveSeconds,
		heartbeat:   cfg.HeartbeatSeconds,
		idleTimeout: cfg.IdleTimeout,
	}
}

// Attach returns the student's live controller, creating one if
// needed. A brand-new controller first passes the eligibility gate,
// then tries to resume an in-progress attempt; attempts without real
// progress are abandoned instead of resumed.
func (m *Manager) Attach(ctx context.Context, studentID int) (*Controller, error) {
	m.mu.Lock()
	if ctrl, ok := m.controllers[studentID]; ok {
		m.mu.Unlock()
		return ctrl, nil
	}
	m.mu.Unlock()

	ctrl := New(studentID, Config{
		Log:              m.log,
		Gateway:          m.attempts,
		Adapter:          m.newAdapter(),
		Scorer:           m.scorer,
		Sections:         m.sections,
		AdaptiveSeconds:  m.adaptiveSec,
		HeartbeatSeconds: m.heartbeat,
	})

	elig, err := m.attempts.CheckEligibility(ctx, studentID)
	if err != nil {
		m.log.Warn().Err(err).Int("student_id", studentID).Msg("Eligibility check failed, allowing attempt")
	} else if !elig.CanTake {
		ctrl.MarkRestricted(elig.NextAvailableDate)
		return m.store(studentID, ctrl), nil
	}

	attempt, err := m.attempts.CheckInProgressAttempt(ctx, studentID)
	if err != nil {
		m.log.Warn().Err(err).Int("student_id", studentID).Msg("Resume check failed, starting fresh")
	} else if attempt != nil {
		if !attempt.HasProgress() {
			if err := m.attempts.AbandonAttempt(ctx, attempt.ID.String()); err != nil {
				m.log.Warn().Err(err).Str("attempt_id", attempt.ID.String()).Msg("Abandon failed")
			}
		} else if err := ctrl.Resume(ctx, attempt); err != nil {
			m.log.Warn().Err(err).Str("attempt_id", attempt.ID.String()).Msg("Resume failed, starting fresh")
		}
	}

	return m.store(studentID, ctrl), nil
}

func (m *Manager) store(studentID int, ctrl *Controller) *Controller {
	m.mu.Lock()
	defer m.mu.Unlock()
	// A concurrent Attach may have won; keep the first controller.
	if existing, ok := m.controllers[studentID]; ok {
		return existing
	}
	m.controllers[studentID] = ctrl
	return ctrl
}

// Get returns the live controller without creating one.
func (m *Manager) Get(studentID int) (*Controller, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ctrl, ok := m.controllers[studentID]
	return ctrl, ok
}

// Detach drops the live controller. The attempt stays resumable.
func (m *Manager) Detach(studentID int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.controllers, studentID)
}

// Run drives all live controllers with one tick per second and evicts
// idle ones. Call in a goroutine; returns when ctx is done.
func (m *Manager) Run(ctx context.Context) {
	m.log.Info().Msg("Session ticker started")
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.log.Info().Msg("Session ticker stopped")
			return
		case <-ticker.C:
			m.tickAll(ctx)
		}
	}
}

func (m *Manager) tickAll(ctx context.Context) {
	m.mu.Lock()
	controllers := make(map[int]*Controller, len(m.controllers))
	for id, c := range m.controllers {
		controllers[id] = c
	}
	m.mu.Unlock()

	now := time.Now()
	for id, ctrl := range controllers {
		ctrl.Tick(ctx)
		if m.idleTimeout > 0 && now.Sub(ctrl.LastActive()) > m.idleTimeout {
			m.log.Info().Int("student_id", id).Msg("Evicting idle session")
			m.Detach(id)
		}
	}
}
