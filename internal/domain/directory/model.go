package directory

import "strings"

// Doctor is a clinic practitioner. The list is loaded once at process start
// and never mutated.
type Doctor struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
}

// Document is the on-disk shape of doctors.json.
type Document struct {
	Doctors []Doctor `json:"doctors"`
}

// Directory provides read-only lookups over the doctor list.
type Directory struct {
	doctors []Doctor
}

func New(doctors []Doctor) *Directory {
	return &Directory{doctors: doctors}
}

// List returns all doctors.
func (d *Directory) List() []Doctor {
	return d.doctors
}

// IDs returns every doctor ID, in directory order.
func (d *Directory) IDs() []int {
	ids := make([]int, len(d.doctors))
	for i, doc := range d.doctors {
		ids[i] = doc.ID
	}
	return ids
}

// ByID returns the doctor with the given ID.
func (d *Directory) ByID(id int) (*Doctor, bool) {
	for i := range d.doctors {
		if d.doctors[i].ID == id {
			return &d.doctors[i], true
		}
	}
	return nil, false
}

// Exists reports whether a doctor with the given ID is listed.
func (d *Directory) Exists(id int) bool {
	_, ok := d.ByID(id)
	return ok
}

// BySpecialty returns the first doctor matching the specialty,
// case-insensitively.
func (d *Directory) BySpecialty(specialty string) (*Doctor, bool) {
	for i := range d.doctors {
		if strings.EqualFold(d.doctors[i].Specialty, specialty) {
			return &d.doctors[i], true
		}
	}
	return nil, false
}

// DefaultDoctors is the built-in seed list, used when no doctors.json is
// present in the data directory.
func DefaultDoctors() []Doctor {
	return []Doctor{
		{ID: 1, Name: "Dr. Emily Carter", Specialty: "Cardiology"},
		{ID: 2, Name: "Dr. Rajesh Gupta", Specialty: "Dermatology"},
		{ID: 3, Name: "Dr. Sofia Alvarez", Specialty: "Pediatrics"},
		{ID: 4, Name: "Dr. Michael Chen", Specialty: "Orthopedics"},
		{ID: 5, Name: "Dr. Hannah Weiss", Specialty: "Neurology"},
	}
}
