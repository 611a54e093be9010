package composition

import (
	"errors"
	"testing"

	"homelink/internal/models"
)

func timeTrigger(start, end string) models.Trigger {
	return models.Trigger{Type: "time", StartTime: start, EndTime: end}
}

func deviceTrigger(id string) models.Trigger {
	return models.Trigger{Type: "device", DeviceID: id, Comparator: "eq", DeviceStatus: true}
}

func TestTriggerStoreAddKeepsOrder(t *testing.T) {
	s := NewTriggerStore()
	if err := s.Add(deviceTrigger("a")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add(timeTrigger("08:00", "20:00")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add(deviceTrigger("b")); err != nil {
		t.Fatalf("Add: %v", err)
	}

	list := s.List()
	if len(list) != 3 {
		t.Fatalf("expected 3 triggers, got %d", len(list))
	}
	if list[0].DeviceID != "a" || list[1].Type != "time" || list[2].DeviceID != "b" {
		t.Errorf("triggers out of order: %+v", list)
	}
}

func TestTriggerStoreRejectsInvalidTimeWindow(t *testing.T) {
	s := NewTriggerStore()

	cases := []struct {
		name       string
		start, end string
	}{
		{"start after end", "10:00", "09:00"},
		{"start equals end", "10:00", "10:00"},
		{"unparseable start", "not-a-time", "10:00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := s.Add(timeTrigger(tc.start, tc.end))
			if !errors.Is(err, ErrInvalidTimeRange) {
				t.Fatalf("expected ErrInvalidTimeRange, got %v", err)
			}
		})
	}

	if s.Len() != 0 {
		t.Errorf("rejected triggers must not be stored, got %d", s.Len())
	}
}

func TestTriggerStoreAcceptsValidTimeWindow(t *testing.T) {
	s := NewTriggerStore()
	if err := s.Add(timeTrigger("09:00", "10:00")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add(timeTrigger("09:00:30", "09:00:45")); err != nil {
		t.Fatalf("Add with seconds: %v", err)
	}
}

func TestTriggerStoreRemoveAtShiftsIndices(t *testing.T) {
	s := NewTriggerStore()
	s.Add(deviceTrigger("a"))
	s.Add(deviceTrigger("b"))
	s.Add(deviceTrigger("c"))

	// Removing index 1 twice ends with only the first element left
	if err := s.RemoveAt(1); err != nil {
		t.Fatalf("RemoveAt(1): %v", err)
	}
	list := s.List()
	if len(list) != 2 || list[0].DeviceID != "a" || list[1].DeviceID != "c" {
		t.Fatalf("after first removal: %+v", list)
	}

	if err := s.RemoveAt(1); err != nil {
		t.Fatalf("RemoveAt(1) again: %v", err)
	}
	list = s.List()
	if len(list) != 1 || list[0].DeviceID != "a" {
		t.Fatalf("after second removal: %+v", list)
	}
}

func TestTriggerStoreRemoveAtOutOfRange(t *testing.T) {
	s := NewTriggerStore()
	s.Add(deviceTrigger("a"))

	for _, idx := range []int{-1, 1, 5} {
		if err := s.RemoveAt(idx); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("RemoveAt(%d): expected ErrIndexOutOfRange, got %v", idx, err)
		}
	}
	if s.Len() != 1 {
		t.Errorf("store changed by failed removal")
	}
}

func TestTriggerStoreResetIsIdempotent(t *testing.T) {
	s := NewTriggerStore()
	s.Add(deviceTrigger("a"))
	s.Reset()
	if s.Len() != 0 {
		t.Fatalf("expected empty store after Reset")
	}
	s.Reset()
	if s.Len() != 0 {
		t.Fatalf("Reset on empty store must stay empty")
	}
}

func TestTriggerStoreListIsACopy(t *testing.T) {
	s := NewTriggerStore()
	s.Add(deviceTrigger("a"))

	list := s.List()
	list[0].DeviceID = "mutated"

	if s.List()[0].DeviceID != "a" {
		t.Errorf("List must return a copy, store was mutated")
	}
}
