package booking

import "time"

// hoursPerDay is the length of each availability calendar.
const hoursPerDay = 24

// calendars holds one doctor's per-hour availability flags, split into an
// independent weekday calendar and weekend calendar.
type calendars struct {
	weekdays [hoursPerDay]bool
	weekends [hoursPerDay]bool
}

// AvailabilityTable tracks per-doctor, per-hour availability. Entries exist
// only for doctors known at construction time and are never added or removed
// afterwards; individual hour flags toggle via SetAvailable.
//
// The table itself imposes no working-hour restriction: any hour 0-23 can be
// flagged. The booking engine applies the working-hour window separately.
type AvailabilityTable struct {
	entries map[int]*calendars
}

// NewAvailabilityTable seeds an entry for every doctor ID, fully available
// on both calendars.
func NewAvailabilityTable(doctorIDs []int) *AvailabilityTable {
	entries := make(map[int]*calendars, len(doctorIDs))
	for _, id := range doctorIDs {
		cal := &calendars{}
		for h := 0; h < hoursPerDay; h++ {
			cal.weekdays[h] = true
			cal.weekends[h] = true
		}
		entries[id] = cal
	}
	return &AvailabilityTable{entries: entries}
}

// IsAvailable returns the doctor's flag for the given hour, selecting the
// weekday calendar Monday through Friday and the weekend calendar otherwise.
// Unknown doctors and out-of-range hours are unavailable.
func (t *AvailabilityTable) IsAvailable(doctorID, hour int, day time.Weekday) bool {
	cal, ok := t.entries[doctorID]
	if !ok || hour < 0 || hour >= hoursPerDay {
		return false
	}
	if isWeekend(day) {
		return cal.weekends[hour]
	}
	return cal.weekdays[hour]
}

// SetAvailable sets one hour flag on the weekday or weekend calendar. A
// no-op for unknown doctors and out-of-range hours.
func (t *AvailabilityTable) SetAvailable(doctorID, hour int, weekend, value bool) {
	cal, ok := t.entries[doctorID]
	if !ok || hour < 0 || hour >= hoursPerDay {
		return
	}
	if weekend {
		cal.weekends[hour] = value
		return
	}
	cal.weekdays[hour] = value
}
