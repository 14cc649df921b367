package dbtest

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"hostel-allocation-backend/internal/model"
)

// Insert creates each value or fails the test.
func Insert(t testing.TB, db *gorm.DB, values ...any) {
	t.Helper()
	for _, v := range values {
		if err := db.Create(v).Error; err != nil {
			t.Fatalf("failed to insert %T: %v", v, err)
		}
	}
}

// Hostel inserts a hostel with the given name.
func Hostel(t testing.TB, db *gorm.DB, name string) model.Hostel {
	t.Helper()
	h := model.Hostel{Name: name, Gender: "mixed", Faculty: "Engineering", CreatedAt: time.Now()}
	Insert(t, db, &h)
	return h
}

// Room inserts a room into a hostel.
func Room(t testing.TB, db *gorm.DB, hostelID int64, number string, capacity int) model.Room {
	t.Helper()
	r := model.Room{HostelID: hostelID, RoomNumber: number, Capacity: capacity, CreatedAt: time.Now()}
	Insert(t, db, &r)
	return r
}

// Bunks inserts free bunks into a room, one per label.
func Bunks(t testing.TB, db *gorm.DB, roomID int64, labels ...string) []model.Bunk {
	t.Helper()
	bunks := make([]model.Bunk, 0, len(labels))
	for _, label := range labels {
		b := model.Bunk{RoomID: roomID, Label: label, CreatedAt: time.Now()}
		Insert(t, db, &b)
		bunks = append(bunks, b)
	}
	return bunks
}

// Student inserts a student identified by matric number.
func Student(t testing.TB, db *gorm.DB, matric string) model.Student {
	t.Helper()
	s := model.Student{
		MatricNo:  matric,
		FullName:  "Student " + matric,
		Email:     fmt.Sprintf("%s@example.edu", matric),
		CreatedAt: time.Now(),
	}
	Insert(t, db, &s)
	return s
}

// Occupy marks a bunk as held by the student and records an active booking,
// the state a successful booking leaves behind.
func Occupy(t testing.TB, db *gorm.DB, hostelID int64, bunk model.Bunk, studentID int64) model.Booking {
	t.Helper()
	err := db.Model(&model.Bunk{}).Where("id = ?", bunk.ID).
		Updates(map[string]any{"occupied": true, "occupied_by": studentID}).Error
	if err != nil {
		t.Fatalf("failed to occupy bunk %d: %v", bunk.ID, err)
	}
	now := time.Now()
	b := model.Booking{
		StudentID: studentID,
		HostelID:  hostelID,
		RoomID:    bunk.RoomID,
		BunkID:    bunk.ID,
		Status:    model.BookingActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	Insert(t, db, &b)
	return b
}

// ReloadBunk reads a bunk back from the database.
func ReloadBunk(t testing.TB, db *gorm.DB, id int64) model.Bunk {
	t.Helper()
	var b model.Bunk
	if err := db.Take(&b, id).Error; err != nil {
		t.Fatalf("failed to reload bunk %d: %v", id, err)
	}
	return b
}

// Count returns the number of rows of model matching the condition.
func Count(t testing.TB, db *gorm.DB, m any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	q := db.Model(m)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		t.Fatalf("failed to count %T: %v", m, err)
	}
	return n
}
