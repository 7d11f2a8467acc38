package booking

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Rejection reasons returned by Book.
var (
	ErrDoctorUnavailable   = errors.New("doctor is not available at that time")
	ErrSlotTaken           = errors.New("appointment slot is already taken")
	ErrOutsideWorkingHours = errors.New("appointment time is outside working hours")
)

// daysPerWeek is the width of each booked-grid row.
const daysPerWeek = 7

// LedgerStore persists the appointment ledger as one whole document.
type LedgerStore interface {
	Load(v interface{}) error
	Save(v interface{}) error
}

// Engine owns the appointment ledger and the availability table and decides
// whether a requested slot may be booked. Each call is a single atomic
// decision; all state sits behind one mutex so the read-check-append-persist
// sequence never interleaves.
type Engine struct {
	mu     sync.RWMutex
	table  *AvailabilityTable
	ledger []Appointment
	store  LedgerStore
	hours  Hours
	logger zerolog.Logger
}

// NewEngine builds an engine over the given availability table, loading any
// previously persisted ledger from the store. A missing or corrupt store
// yields an empty ledger.
func NewEngine(table *AvailabilityTable, st LedgerStore, hours Hours, logger zerolog.Logger) *Engine {
	var doc ledgerDocument
	if err := st.Load(&doc); err != nil {
		logger.Warn().Err(err).Msg("loading appointment ledger")
	}
	return &Engine{
		table:  table,
		ledger: doc.Appointments,
		store:  st,
		hours:  hours,
		logger: logger,
	}
}

// Hours returns the configured working-hour window.
func (e *Engine) Hours() Hours { return e.hours }

// Book decides admit/reject for one slot request and, on admit, appends to
// the ledger and synchronously rewrites the persisted store. A persistence
// failure is logged and swallowed: the in-memory booking stands.
//
// The availability and slot-conflict gates are evaluated before the
// working-hours gate, so an out-of-window request for an unavailable doctor
// reports unavailability. The two checks stay independent: availability is
// hour-granular, the conflict check is exact-timestamp.
func (e *Engine) Book(_ context.Context, doctorID int, t time.Time, patientName string) (*Appointment, error) {
	hour := t.Hour()
	day := t.Weekday()

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.table.IsAvailable(doctorID, hour, day) {
		return nil, ErrDoctorUnavailable
	}
	if e.slotTaken(doctorID, t) {
		return nil, ErrSlotTaken
	}
	if !e.hours.Contains(hour) {
		return nil, ErrOutsideWorkingHours
	}

	appt := Appointment{
		ID:          uuid.New(),
		DoctorID:    doctorID,
		PatientName: patientName,
		Time:        t,
	}
	e.ledger = append(e.ledger, appt)

	if err := e.store.Save(ledgerDocument{Appointments: e.ledger}); err != nil {
		// Known soft spot: memory and disk diverge until the next
		// successful save.
		e.logger.Error().Err(err).Msg("persisting appointment ledger")
	}

	e.logger.Info().
		Int("doctor_id", doctorID).
		Str("patient", patientName).
		Time("slot", t).
		Msg("appointment booked")

	return &appt, nil
}

// slotTaken reports an exact (doctorID, timestamp) ledger match. Callers
// hold the engine lock.
func (e *Engine) slotTaken(doctorID int, t time.Time) bool {
	for _, a := range e.ledger {
		if a.DoctorID == doctorID && a.Time.Equal(t) {
			return true
		}
	}
	return false
}

// AppointmentsForDoctor returns the doctor's booked appointments.
func (e *Engine) AppointmentsForDoctor(doctorID int) []Appointment {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var out []Appointment
	for _, a := range e.ledger {
		if a.DoctorID == doctorID {
			out = append(out, a)
		}
	}
	return out
}

// AppointmentsForPatient returns the patient's booked appointments, matched
// by exact name.
func (e *Engine) AppointmentsForPatient(patientName string) []Appointment {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var out []Appointment
	for _, a := range e.ledger {
		if a.PatientName == patientName {
			out = append(out, a)
		}
	}
	return out
}

// BookedGrid maps each working hour to a seven-entry row indexed by
// time.Weekday (Sunday = 0), true where the doctor has a booking whose hour
// and day match. Appointments outside the working-hour window are silently
// excluded.
func (e *Engine) BookedGrid(doctorID int) map[int][daysPerWeek]bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	grid := make(map[int][daysPerWeek]bool, e.hours.End-e.hours.Start+1)
	for hour := e.hours.Start; hour <= e.hours.End; hour++ {
		grid[hour] = [daysPerWeek]bool{}
	}
	for _, a := range e.ledger {
		hour := a.Time.Hour()
		if !e.hours.Contains(hour) {
			continue
		}
		if a.DoctorID != doctorID {
			continue
		}
		row := grid[hour]
		row[int(a.Time.Weekday())] = true
		grid[hour] = row
	}
	return grid
}

// SetAvailability toggles one availability flag. Routed through the engine
// so table mutations share the engine's mutual-exclusion region.
func (e *Engine) SetAvailability(doctorID, hour int, weekend, value bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.table.SetAvailable(doctorID, hour, weekend, value)
}

// IsAvailable reads one availability flag.
func (e *Engine) IsAvailable(doctorID, hour int, day time.Weekday) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.table.IsAvailable(doctorID, hour, day)
}
