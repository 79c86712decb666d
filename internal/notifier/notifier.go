package notifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"med-reminder/internal/palette"
	"med-reminder/internal/platform/logger"
	"med-reminder/internal/platform/metrics"

	"go.uber.org/zap"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	// ErrPersistence envuelve cualquier falla del colaborador (fetch o mark taken).
	ErrPersistence = errors.New("persistence failure")
	// ErrDoseGone lo devuelve un Source cuando la dosis ya no existe del otro lado.
	ErrDoseGone = errors.New("dose no longer exists")
	ErrClosed   = errors.New("notifier closed")
)

type State int

const (
	StateIdle State = iota
	StateScheduled
	StateAlerting
)

func (s State) String() string {
	switch s {
	case StateScheduled:
		return "scheduled"
	case StateAlerting:
		return "alerting"
	default:
		return "idle"
	}
}

type Medication struct {
	Name       string
	DoseAmount string // "1 comp.", "500 mg"
	Color      palette.Color
}

type Dose struct {
	ID          string
	ScheduledAt time.Time
	Taken       bool
	Medication  Medication
}

// Alert es efímera: vive desde que la dosis vence hasta que el usuario la confirma.
type Alert struct {
	DoseID         string        `json:"dose_id"`
	MedicationName string        `json:"medication_name"`
	DoseAmount     string        `json:"dose_amount"`
	Color          palette.Color `json:"color"`
	ColorHex       string        `json:"color_hex"`
	ScheduledAt    time.Time     `json:"scheduled_at"`
	ShownAt        time.Time     `json:"shown_at"`
}

// Source es el colaborador remoto/local. Ya viene atado a la sesión del usuario.
type Source interface {
	FetchDosesForToday(ctx context.Context) ([]Dose, error)
	MarkDoseTaken(ctx context.Context, doseID string) error
}

type Options struct {
	Logger *zap.Logger
	Clock  Clock

	// RequestTimeout acota cada llamada al Source (0 = sin límite extra).
	RequestTimeout time.Duration

	// OnAlert se invoca fuera del lock cada vez que se muestra una alerta.
	OnAlert func(Alert)
}

// Notifier mantiene las dosis de hoy armadas en una cola por horario y un único slot de alerta.
// Todas las transiciones se serializan con mu; las llamadas al Source se hacen sin el lock.
type Notifier struct {
	src     Source
	log     *zap.Logger
	clock   Clock
	timeout time.Duration
	onAlert func(Alert)

	mu      sync.Mutex
	queue   doseQueue
	armed   map[string]*entry
	shown   map[string]struct{}
	present map[string]bool // ids de la última colección aplicada -> tomada
	current *Alert

	timer    Timer
	timerGen uint64

	refreshSeq  uint64
	appliedSeq  uint64
	lastRefresh time.Time

	closed bool
}

func New(src Source, opts Options) *Notifier {
	clock := opts.Clock
	if clock == nil {
		clock = realClock{}
	}
	return &Notifier{
		src:     src,
		log:     logger.OrNop(opts.Logger),
		clock:   clock,
		timeout: opts.RequestTimeout,
		onAlert: opts.OnAlert,
		armed:   map[string]*entry{},
		shown:   map[string]struct{}{},
		present: map[string]bool{},
	}
}

// Refresh trae las dosis de hoy y re-evalúa la cola.
// Si falla el fetch, el estado local queda intacto.
func (n *Notifier) Refresh(ctx context.Context) error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return ErrClosed
	}
	n.refreshSeq++
	seq := n.refreshSeq
	n.mu.Unlock()

	cctx, cancel := n.callContext(ctx)
	doses, err := n.src.FetchDosesForToday(cctx)
	cancel()
	if err != nil {
		n.log.Warn("fetch doses failed", zap.Error(err))
		return fmt.Errorf("%w: fetch doses: %w", ErrPersistence, err)
	}

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return ErrClosed
	}
	// Un refresh más nuevo ya se aplicó: este resultado es viejo.
	if seq < n.appliedSeq {
		n.mu.Unlock()
		return nil
	}
	n.appliedSeq = seq
	n.lastRefresh = n.clock.Now()
	n.applyLocked(doses)
	alert, ok := n.pumpLocked()
	n.mu.Unlock()

	if ok {
		n.emit(alert)
	}
	return nil
}

// Acknowledge marca la dosis como tomada.
//   - alerta actual: si el colaborador falla, la alerta sigue visible y se devuelve ErrPersistence.
//   - dosis que ya no existe: no-op exitoso (pudo tomarse por otro camino).
//   - dosis ya confirmada (mostrada o tomada según el último refresh): no-op exitoso.
//   - dosis que la sesión no conoce (sin refresh todavía, o sesión nueva): se marca igual;
//     sólo es no-op si un refresh ya confirmó que no está.
func (n *Notifier) Acknowledge(ctx context.Context, doseID string) error {
	doseID = strings.TrimSpace(doseID)
	if doseID == "" {
		return ErrInvalidInput
	}

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return ErrClosed
	}
	isCurrent := n.current != nil && n.current.DoseID == doseID
	_, wasShown := n.shown[doseID]
	takenOnSource, isPresent := n.present[doseID]
	_, isArmed := n.armed[doseID]
	refreshed := n.appliedSeq > 0
	n.mu.Unlock()

	log := n.log.With(zap.String("dose_id", doseID))

	switch {
	case isCurrent && !isPresent:
		log.Info("acknowledged dose no longer present, dismissing")
		metrics.AlertAcks.WithLabelValues("stale").Inc()
		n.dismiss(doseID)
		return nil

	case (wasShown || takenOnSource) && !isCurrent && !isArmed:
		metrics.AlertAcks.WithLabelValues("noop").Inc()
		return nil

	case refreshed && !isPresent && !isArmed:
		log.Info("acknowledged dose not in today's collection, ignoring")
		metrics.AlertAcks.WithLabelValues("stale").Inc()
		return nil

	default:
		cctx, cancel := n.callContext(ctx)
		err := n.src.MarkDoseTaken(cctx, doseID)
		cancel()

		if errors.Is(err, ErrDoseGone) {
			log.Info("dose gone on collaborator, dismissing")
			metrics.AlertAcks.WithLabelValues("stale").Inc()
			n.dismiss(doseID)
			return nil
		}
		if err != nil {
			log.Warn("mark dose taken failed", zap.Error(err))
			metrics.AlertAcks.WithLabelValues("failed").Inc()
			return fmt.Errorf("%w: mark dose taken: %w", ErrPersistence, err)
		}

		metrics.AlertAcks.WithLabelValues("taken").Inc()
		n.clear(doseID)

		if err := n.Refresh(ctx); err != nil {
			if errors.Is(err, ErrClosed) {
				return nil
			}
			// La dosis ya quedó tomada: mostramos lo que haya con los datos que tenemos.
			n.pumpNow()
			return fmt.Errorf("dose marked taken, refresh failed: %w", err)
		}
		return nil
	}
}

// Current devuelve la alerta visible, si hay.
func (n *Notifier) Current() (Alert, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.current == nil {
		return Alert{}, false
	}
	return *n.current, true
}

func (n *Notifier) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch {
	case n.current != nil:
		return StateAlerting
	case n.queue.Len() > 0:
		return StateScheduled
	default:
		return StateIdle
	}
}

// Pending cuenta las dosis armadas que todavía no se mostraron.
func (n *Notifier) Pending() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.queue.Len()
}

func (n *Notifier) LastRefresh() time.Time {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.lastRefresh
}

// Close cancela todos los timers. Después de Close no se dispara ninguna alerta.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}
	n.closed = true
	n.stopTimerLocked()
	n.queue = nil
	n.armed = map[string]*entry{}
	n.current = nil
}

// Run refresca cada `every` hasta que ctx termine; al salir cierra el notifier.
func (n *Notifier) Run(ctx context.Context, every time.Duration) error {
	defer n.Close()

	if err := n.Refresh(ctx); err != nil {
		if errors.Is(err, ErrClosed) {
			return err
		}
		n.log.Warn("initial refresh failed", zap.Error(err))
	}

	if every <= 0 {
		every = time.Minute
	}
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if err := n.Refresh(ctx); err != nil {
				if errors.Is(err, ErrClosed) {
					return err
				}
				n.log.Warn("refresh failed", zap.Error(err))
			}
		}
	}
}

func (n *Notifier) applyLocked(doses []Dose) {
	present := make(map[string]bool, len(doses))

	for _, d := range doses {
		if strings.TrimSpace(d.ID) == "" {
			continue
		}
		present[d.ID] = d.Taken

		if d.Taken {
			if e, ok := n.armed[d.ID]; ok {
				n.queue.remove(e)
				delete(n.armed, d.ID)
			}
			continue
		}
		if _, shown := n.shown[d.ID]; shown {
			continue
		}

		if e, ok := n.armed[d.ID]; ok {
			e.dose = d
			if !e.at.Equal(d.ScheduledAt) {
				e.at = d.ScheduledAt
				n.queue.fix(e)
			}
			continue
		}

		e := &entry{dose: d, at: d.ScheduledAt}
		n.queue.push(e)
		n.armed[d.ID] = e
	}

	// Armadas que ya no vienen en la colección (borradas o fuera del día).
	for id, e := range n.armed {
		if _, ok := present[id]; !ok {
			n.queue.remove(e)
			delete(n.armed, id)
		}
	}

	n.present = present
}

// pumpLocked muestra la próxima dosis vencida si el slot está libre y re-arma el timer.
func (n *Notifier) pumpLocked() (Alert, bool) {
	if n.closed {
		return Alert{}, false
	}

	now := n.clock.Now()
	var (
		out   Alert
		shown bool
	)

	if n.current == nil {
		for n.queue.Len() > 0 {
			head := n.queue.peek()
			if head.at.After(now) {
				break
			}
			n.queue.pop()
			delete(n.armed, head.dose.ID)

			if _, dup := n.shown[head.dose.ID]; dup {
				continue
			}

			a := newAlert(head.dose, now)
			n.current = &a
			n.shown[head.dose.ID] = struct{}{}
			out, shown = a, true
			break
		}
	}

	n.rearmLocked(now)
	return out, shown
}

// rearmLocked deja un único timer apuntando a la cabeza de la cola,
// y sólo cuando el slot de alerta está libre.
func (n *Notifier) rearmLocked(now time.Time) {
	n.stopTimerLocked()

	if n.closed || n.current != nil || n.queue.Len() == 0 {
		return
	}

	delay := n.queue.peek().at.Sub(now)
	if delay < 0 {
		delay = 0
	}
	gen := n.timerGen
	n.timer = n.clock.AfterFunc(delay, func() { n.onTimer(gen) })
}

func (n *Notifier) stopTimerLocked() {
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	n.timerGen++
}

func (n *Notifier) onTimer(gen uint64) {
	n.mu.Lock()
	if n.closed || gen != n.timerGen {
		n.mu.Unlock()
		return
	}
	n.timer = nil
	alert, ok := n.pumpLocked()
	n.mu.Unlock()

	if ok {
		n.emit(alert)
	}
}

func (n *Notifier) pumpNow() {
	n.mu.Lock()
	alert, ok := n.pumpLocked()
	n.mu.Unlock()

	if ok {
		n.emit(alert)
	}
}

// clear libera el slot si la alerta actual es doseID; si la dosis estaba armada, la desarma.
func (n *Notifier) clear(doseID string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.current != nil && n.current.DoseID == doseID {
		n.current = nil
	}
	if e, ok := n.armed[doseID]; ok {
		n.queue.remove(e)
		delete(n.armed, doseID)
	}
}

func (n *Notifier) dismiss(doseID string) {
	n.clear(doseID)
	n.pumpNow()
}

func (n *Notifier) emit(a Alert) {
	metrics.AlertsShown.Inc()
	n.log.Info("reminder alert shown",
		zap.String("dose_id", a.DoseID),
		zap.String("medication", a.MedicationName),
		zap.Time("scheduled_at", a.ScheduledAt),
	)
	if n.onAlert != nil {
		n.onAlert(a)
	}
}

func (n *Notifier) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if n.timeout > 0 {
		return context.WithTimeout(ctx, n.timeout)
	}
	return context.WithCancel(ctx)
}

func newAlert(d Dose, now time.Time) Alert {
	color := d.Medication.Color
	if !palette.Valid(color) {
		color = palette.Fallback
	}
	return Alert{
		DoseID:         d.ID,
		MedicationName: d.Medication.Name,
		DoseAmount:     d.Medication.DoseAmount,
		Color:          color,
		ColorHex:       palette.HexOf(color),
		ScheduledAt:    d.ScheduledAt.UTC(),
		ShownAt:        now.UTC(),
	}
}
