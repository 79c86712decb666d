package alerts

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"med-reminder/internal/domain/doses"
	"med-reminder/internal/notifier"
	"med-reminder/internal/platform/logger"
	"med-reminder/internal/platform/metrics"

	"go.uber.org/zap"
)

var ErrUnauthenticated = errors.New("user required")

type Options struct {
	Location       *time.Location // zona para "hoy"
	RefreshEvery   time.Duration  // antigüedad máxima de los datos de una sesión
	RequestTimeout time.Duration
	SessionIdle    time.Duration // sesiones sin consultas se cierran
	Logger         *zap.Logger
	Clock          notifier.Clock // nil = reloj real
}

// Manager mantiene un Notifier por usuario (una "sesión" del feed de alertas).
// El shown-set vive lo que vive la sesión: DELETE /me/alerts o inactividad la descartan.
type Manager struct {
	doses *doses.Service
	opts  Options
	log   *zap.Logger
	now   func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	n        *notifier.Notifier
	lastSeen time.Time
}

func NewManager(svc *doses.Service, opts Options) *Manager {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.RefreshEvery <= 0 {
		opts.RefreshEvery = time.Minute
	}
	if opts.SessionIdle <= 0 {
		opts.SessionIdle = 30 * time.Minute
	}
	m := &Manager{
		doses:    svc,
		opts:     opts,
		log:      logger.OrNop(opts.Logger),
		now:      time.Now,
		sessions: map[string]*session{},
	}
	if opts.Clock != nil {
		m.now = opts.Clock.Now
	}
	return m
}

// Current devuelve la alerta visible del usuario, refrescando si los datos están viejos.
func (m *Manager) Current(ctx context.Context, userID string) (notifier.Alert, bool, error) {
	n, err := m.session(userID)
	if err != nil {
		return notifier.Alert{}, false, err
	}

	if m.now().Sub(n.LastRefresh()) >= m.opts.RefreshEvery {
		if err := n.Refresh(ctx); err != nil && !errors.Is(err, notifier.ErrClosed) {
			return notifier.Alert{}, false, err
		}
	}

	a, ok := n.Current()
	return a, ok, nil
}

func (m *Manager) State(userID string) notifier.State {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	m.mu.Unlock()
	if !ok {
		return notifier.StateIdle
	}
	return s.n.State()
}

func (m *Manager) Acknowledge(ctx context.Context, userID, doseID string) error {
	n, err := m.session(userID)
	if err != nil {
		return err
	}
	return n.Acknowledge(ctx, doseID)
}

// Close descarta la sesión del usuario (logout). Devuelve false si no había.
func (m *Manager) Close(userID string) bool {
	return m.closeWhen(userID, func(*session) bool { return true })
}

// Sweep cierra las sesiones inactivas. Devuelve cuántas cerró.
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.opts.SessionIdle)

	m.mu.Lock()
	var idle []string
	for uid, s := range m.sessions {
		if s.lastSeen.Before(cutoff) {
			idle = append(idle, uid)
		}
	}
	m.mu.Unlock()

	closed := 0
	for _, uid := range idle {
		if m.closeIfIdle(uid, cutoff) {
			closed++
		}
	}
	return closed
}

// closeIfIdle re-evalúa lastSeen bajo el lock: una sesión usada entre la
// recolección y el cierre sobrevive.
func (m *Manager) closeIfIdle(userID string, cutoff time.Time) bool {
	return m.closeWhen(userID, func(s *session) bool { return s.lastSeen.Before(cutoff) })
}

func (m *Manager) closeWhen(userID string, cond func(*session) bool) bool {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	if ok && cond(s) {
		delete(m.sessions, userID)
	} else {
		ok = false
	}
	m.mu.Unlock()

	if !ok {
		return false
	}
	s.n.Close()
	metrics.NotifierSessions.Dec()
	m.log.Info("alert session closed", zap.String("user_id", userID))
	return true
}

// Run barre sesiones inactivas hasta que ctx termine; al salir cierra todas.
func (m *Manager) Run(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = time.Minute
	}
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			m.Shutdown()
			return
		case <-t.C:
			if n := m.Sweep(); n > 0 {
				m.log.Info("idle alert sessions closed", zap.Int("count", n))
			}
		}
	}
}

func (m *Manager) Shutdown() {
	m.mu.Lock()
	uids := make([]string, 0, len(m.sessions))
	for uid := range m.sessions {
		uids = append(uids, uid)
	}
	m.mu.Unlock()

	for _, uid := range uids {
		m.Close(uid)
	}
}

func (m *Manager) Sessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) session(userID string) (*notifier.Notifier, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[userID]; ok {
		s.lastSeen = m.now()
		return s.n, nil
	}

	src := &localSource{svc: m.doses, userID: userID, loc: m.opts.Location}
	n := notifier.New(src, notifier.Options{
		Logger:         m.log.With(zap.String("user_id", userID)),
		Clock:          m.opts.Clock,
		RequestTimeout: m.opts.RequestTimeout,
	})
	m.sessions[userID] = &session{n: n, lastSeen: m.now()}
	metrics.NotifierSessions.Inc()
	m.log.Info("alert session opened", zap.String("user_id", userID))
	return n, nil
}
