package testfixtures

import (
	"context"
	"testing"
	"time"
)

func TestSQLiteHarnessCreatesRecords(t *testing.T) {
	h := NewSQLiteHarness(t)

	admin := h.CreateUser(t, WithLogin("root"), AsAdmin())
	if admin.ID <= 0 || admin.Role != "Admin" {
		t.Fatalf("unexpected admin: %#v", admin)
	}
	room := h.CreateRoom(t, WithAmenities("Projector", "Whiteboard"))
	booking := h.CreateBooking(t, room.ID, admin.ID, HoursAfterReference(1, 2))

	stored, err := h.Bookings.GetBooking(context.Background(), booking.ID)
	if err != nil {
		t.Fatalf("GetBooking failed: %v", err)
	}
	if !stored.Start.Equal(ReferenceTime().Add(time.Hour)) || stored.Status != "active" {
		t.Fatalf("unexpected booking: %#v", stored)
	}

	loaded, err := h.Rooms.GetRoom(context.Background(), room.ID)
	if err != nil {
		t.Fatalf("GetRoom failed: %v", err)
	}
	if len(loaded.Amenities) != 2 || loaded.Amenities[0] != "Projector" {
		t.Fatalf("unexpected amenities: %#v", loaded.Amenities)
	}
}
