package guard

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/wealthsim/wealthsim/internal/domain"
)

// AuditSeverity grades a rejection for the security monitor.
type AuditSeverity string

const (
	SeverityInfo    AuditSeverity = "info"
	SeverityWarning AuditSeverity = "warning"
	SeverityHigh    AuditSeverity = "high"
)

// SecurityAuditEvent records one rejected request for external monitoring.
type SecurityAuditEvent struct {
	ID       string                 `json:"id"`
	CallerID string                 `json:"callerId"`
	Kind     domain.CalculationKind `json:"kind"`
	Reason   string                 `json:"reason"`
	Severity AuditSeverity          `json:"severity"`
	At       time.Time              `json:"at"`
}

// Monitor receives audit events. Delivery is best-effort and asynchronous;
// a slow monitor never blocks the response path.
type Monitor interface {
	Record(event SecurityAuditEvent)
}

// auditQueueSize bounds buffered events; overflow is dropped and counted in
// the log rather than blocking admission.
const auditQueueSize = 256

// auditor fans rejection events out to the monitor on its own goroutine.
type auditor struct {
	monitor Monitor
	logger  *slog.Logger
	events  chan SecurityAuditEvent
	stop    chan struct{}
}

func newAuditor(monitor Monitor, logger *slog.Logger) *auditor {
	a := &auditor{
		monitor: monitor,
		logger:  logger,
		events:  make(chan SecurityAuditEvent, auditQueueSize),
		stop:    make(chan struct{}),
	}
	go a.deliverLoop()
	return a
}

// emit queues an event without ever blocking the caller.
func (a *auditor) emit(callerID string, kind domain.CalculationKind, reason string, severity AuditSeverity) {
	if a.monitor == nil {
		return
	}
	event := SecurityAuditEvent{
		ID:       uuid.NewString(),
		CallerID: callerID,
		Kind:     kind,
		Reason:   reason,
		Severity: severity,
		At:       time.Now().UTC(),
	}
	select {
	case a.events <- event:
	default:
		a.logger.Warn("audit queue full, event dropped", "callerId", callerID, "reason", reason)
	}
}

func (a *auditor) deliverLoop() {
	for {
		select {
		case event := <-a.events:
			a.monitor.Record(event)
		case <-a.stop:
			return
		}
	}
}

func (a *auditor) close() { close(a.stop) }
