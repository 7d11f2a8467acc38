package booking

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinicbook/clinicbook/internal/platform/store"
)

var testHours = Hours{Start: 9, End: 18}

// monday is a reference Monday inside the working window.
var monday = time.Date(2024, time.March, 4, 10, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T, doctorIDs ...int) *Engine {
	t.Helper()
	if len(doctorIDs) == 0 {
		doctorIDs = []int{1, 2, 3}
	}
	st := store.NewFile(filepath.Join(t.TempDir(), "appointments.json"), zerolog.Nop())
	return NewEngine(NewAvailabilityTable(doctorIDs), st, testHours, zerolog.Nop())
}

func TestBookWithinWorkingHours(t *testing.T) {
	eng := newTestEngine(t)

	appt, err := eng.Book(context.Background(), 2, monday, "alice")
	if err != nil {
		t.Fatalf("booking: %v", err)
	}
	if appt.DoctorID != 2 || appt.PatientName != "alice" || !appt.Time.Equal(monday) {
		t.Fatalf("unexpected appointment: %+v", appt)
	}

	got := eng.AppointmentsForPatient("alice")
	if len(got) != 1 || got[0].ID != appt.ID {
		t.Fatalf("AppointmentsForPatient = %+v, want the booked slot", got)
	}
}

// A fresh engine accepts every hour of the working window and rejects the
// hours just outside it.
func TestFreshEngineBookableWindow(t *testing.T) {
	eng := newTestEngine(t)

	for hour := testHours.Start; hour <= testHours.End; hour++ {
		slot := time.Date(2024, time.March, 4, hour, 0, 0, 0, time.UTC)
		if _, err := eng.Book(context.Background(), 1, slot, "alice"); err != nil {
			t.Fatalf("hour %d: %v", hour, err)
		}
	}

	before := time.Date(2024, time.March, 4, testHours.Start-1, 0, 0, 0, time.UTC)
	if _, err := eng.Book(context.Background(), 1, before, "alice"); !errors.Is(err, ErrOutsideWorkingHours) {
		t.Fatalf("hour %d: got %v, want ErrOutsideWorkingHours", testHours.Start-1, err)
	}
	after := time.Date(2024, time.March, 4, testHours.End+1, 0, 0, 0, time.UTC)
	if _, err := eng.Book(context.Background(), 1, after, "alice"); !errors.Is(err, ErrOutsideWorkingHours) {
		t.Fatalf("hour %d: got %v, want ErrOutsideWorkingHours", testHours.End+1, err)
	}
}

// The closing hour itself is bookable.
func TestClosingHourInclusive(t *testing.T) {
	eng := newTestEngine(t)

	slot := time.Date(2024, time.March, 4, testHours.End, 0, 0, 0, time.UTC)
	if _, err := eng.Book(context.Background(), 1, slot, "alice"); err != nil {
		t.Fatalf("closing hour rejected: %v", err)
	}
}

func TestDoubleBookSameSlot(t *testing.T) {
	eng := newTestEngine(t)

	if _, err := eng.Book(context.Background(), 2, monday, "alice"); err != nil {
		t.Fatalf("first booking: %v", err)
	}
	if _, err := eng.Book(context.Background(), 2, monday, "bob"); !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("second booking: got %v, want ErrSlotTaken", err)
	}

	// Same timestamp with a different doctor stays bookable.
	if _, err := eng.Book(context.Background(), 3, monday, "bob"); err != nil {
		t.Fatalf("other doctor, same slot: %v", err)
	}
}

func TestUnavailableDoctorRejected(t *testing.T) {
	eng := newTestEngine(t)

	eng.SetAvailability(2, monday.Hour(), false, false)
	if _, err := eng.Book(context.Background(), 2, monday, "alice"); !errors.Is(err, ErrDoctorUnavailable) {
		t.Fatalf("got %v, want ErrDoctorUnavailable", err)
	}

	// Flipping the flag back reopens the slot.
	eng.SetAvailability(2, monday.Hour(), false, true)
	if _, err := eng.Book(context.Background(), 2, monday, "alice"); err != nil {
		t.Fatalf("after restoring availability: %v", err)
	}
}

func TestUnknownDoctorRejected(t *testing.T) {
	eng := newTestEngine(t)

	if _, err := eng.Book(context.Background(), 99, monday, "alice"); !errors.Is(err, ErrDoctorUnavailable) {
		t.Fatalf("got %v, want ErrDoctorUnavailable", err)
	}
}

// Availability windows keep separate weekday and weekend calendars: closing
// a weekday hour leaves the same hour on the weekend open, and vice versa.
func TestWeekdayWeekendCalendarsIndependent(t *testing.T) {
	eng := newTestEngine(t)

	saturday := time.Date(2024, time.March, 9, 10, 0, 0, 0, time.UTC)

	eng.SetAvailability(1, 10, false, false)
	if eng.IsAvailable(1, 10, monday.Weekday()) {
		t.Fatal("weekday hour still available after closing it")
	}
	if !eng.IsAvailable(1, 10, saturday.Weekday()) {
		t.Fatal("closing a weekday hour closed the weekend hour")
	}

	if _, err := eng.Book(context.Background(), 1, monday, "alice"); !errors.Is(err, ErrDoctorUnavailable) {
		t.Fatalf("weekday booking: got %v, want ErrDoctorUnavailable", err)
	}
	if _, err := eng.Book(context.Background(), 1, saturday, "alice"); err != nil {
		t.Fatalf("weekend booking: %v", err)
	}

	eng.SetAvailability(2, 10, true, false)
	if eng.IsAvailable(2, 10, saturday.Weekday()) {
		t.Fatal("weekend hour still available after closing it")
	}
	if !eng.IsAvailable(2, 10, monday.Weekday()) {
		t.Fatal("closing a weekend hour closed the weekday hour")
	}
}

// The availability gate is checked before the working-hours gate, so an
// unavailable doctor reports unavailability even outside the window.
func TestAvailabilityCheckedBeforeWorkingHours(t *testing.T) {
	eng := newTestEngine(t)

	outside := time.Date(2024, time.March, 4, 20, 0, 0, 0, time.UTC)
	eng.SetAvailability(1, 20, false, false)
	if _, err := eng.Book(context.Background(), 1, outside, "alice"); !errors.Is(err, ErrDoctorUnavailable) {
		t.Fatalf("got %v, want ErrDoctorUnavailable", err)
	}
}

func TestBookedGrid(t *testing.T) {
	eng := newTestEngine(t)

	if _, err := eng.Book(context.Background(), 2, monday, "alice"); err != nil {
		t.Fatalf("booking: %v", err)
	}

	grid := eng.BookedGrid(2)
	if len(grid) != testHours.End-testHours.Start+1 {
		t.Fatalf("grid has %d rows, want %d", len(grid), testHours.End-testHours.Start+1)
	}
	if !grid[10][int(time.Monday)] {
		t.Fatal("booked slot missing from grid")
	}
	if grid[10][int(time.Tuesday)] || grid[11][int(time.Monday)] {
		t.Fatal("grid marks slots that were never booked")
	}

	// The other doctor's grid stays empty.
	for hour, row := range eng.BookedGrid(1) {
		for day, booked := range row {
			if booked {
				t.Fatalf("doctor 1 grid marks hour %d day %d", hour, day)
			}
		}
	}
}

func TestLedgerSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "appointments.json")
	st := store.NewFile(path, zerolog.Nop())
	ids := []int{1, 2}

	eng := NewEngine(NewAvailabilityTable(ids), st, testHours, zerolog.Nop())
	if _, err := eng.Book(context.Background(), 2, monday, "alice"); err != nil {
		t.Fatalf("booking: %v", err)
	}

	restarted := NewEngine(NewAvailabilityTable(ids), store.NewFile(path, zerolog.Nop()), testHours, zerolog.Nop())
	if _, err := restarted.Book(context.Background(), 2, monday, "bob"); !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("rebooking after restart: got %v, want ErrSlotTaken", err)
	}
	if got := restarted.AppointmentsForPatient("alice"); len(got) != 1 {
		t.Fatalf("ledger lost across restart: %+v", got)
	}
}

type failingStore struct{}

func (failingStore) Load(v interface{}) error { return nil }
func (failingStore) Save(v interface{}) error { return errors.New("disk full") }

// A persistence failure does not roll the booking back.
func TestBookSurvivesPersistFailure(t *testing.T) {
	eng := NewEngine(NewAvailabilityTable([]int{1}), failingStore{}, testHours, zerolog.Nop())

	if _, err := eng.Book(context.Background(), 1, monday, "alice"); err != nil {
		t.Fatalf("booking with failing store: %v", err)
	}
	if _, err := eng.Book(context.Background(), 1, monday, "bob"); !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("slot not held after persist failure: %v", err)
	}
}
