package booking

import (
	"time"

	"github.com/google/uuid"
)

// Appointment is one booked slot. Appointments are immutable once created
// and the ledger is append-only; there is no update or delete path.
type Appointment struct {
	ID          uuid.UUID `json:"id"`
	DoctorID    int       `json:"doctorId"`
	PatientName string    `json:"patientName"`
	Time        time.Time `json:"appointmentTime"`
}

// ledgerDocument is the on-disk shape of appointments.json.
type ledgerDocument struct {
	Appointments []Appointment `json:"appointments"`
}

// Hours is the inclusive working-hour window during which bookings are
// accepted. The upper bound is inclusive: the last bookable hour equals the
// closing hour itself.
type Hours struct {
	Start int
	End   int
}

// Contains reports whether hour falls inside the window.
func (h Hours) Contains(hour int) bool {
	return hour >= h.Start && hour <= h.End
}

func isWeekend(d time.Weekday) bool {
	return d == time.Saturday || d == time.Sunday
}
