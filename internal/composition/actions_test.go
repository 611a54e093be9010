package composition

import (
	"reflect"
	"testing"

	"homelink/internal/models"
)

func TestActionStoreDeduplicatesByID(t *testing.T) {
	s := NewActionStore()
	s.Add(models.Action{ID: "a1", Description: "Turn on lamp"})
	s.Add(models.Action{ID: "a2", Description: "Close blinds"})
	s.Add(models.Action{ID: "a1", Description: "Turn on lamp (renamed)"})

	if s.Len() != 2 {
		t.Fatalf("expected 2 distinct actions, got %d", s.Len())
	}
	list := s.List()
	if list[0].ID != "a1" || list[1].ID != "a2" {
		t.Errorf("insertion order lost: %+v", list)
	}
	if list[0].Description != "Turn on lamp (renamed)" {
		t.Errorf("re-add must overwrite description, got %q", list[0].Description)
	}
}

func TestActionStoreRemove(t *testing.T) {
	s := NewActionStore()
	s.Add(models.Action{ID: "a1"})
	s.Add(models.Action{ID: "a2"})
	s.Add(models.Action{ID: "a3"})

	s.Remove("a2")
	if got := s.IDs(); !reflect.DeepEqual(got, []string{"a1", "a3"}) {
		t.Fatalf("after remove: %v", got)
	}

	// Absent id is a no-op
	s.Remove("missing")
	if s.Len() != 2 {
		t.Errorf("removing an absent id changed the store")
	}
}

func TestActionStoreIDsMatchListOrder(t *testing.T) {
	s := NewActionStore()
	s.Add(models.Action{ID: "c"})
	s.Add(models.Action{ID: "a"})
	s.Add(models.Action{ID: "b"})

	ids := s.IDs()
	list := s.List()
	if len(ids) != len(list) {
		t.Fatalf("IDs and List disagree on length")
	}
	for i := range ids {
		if ids[i] != list[i].ID {
			t.Errorf("position %d: IDs has %q, List has %q", i, ids[i], list[i].ID)
		}
	}
	if !reflect.DeepEqual(ids, []string{"c", "a", "b"}) {
		t.Errorf("insertion order lost: %v", ids)
	}
}

func TestActionStoreReplace(t *testing.T) {
	s := NewActionStore()
	s.Add(models.Action{ID: "old"})

	s.Replace([]models.Action{{ID: "x"}, {ID: "y"}, {ID: "x"}})
	if got := s.IDs(); !reflect.DeepEqual(got, []string{"x", "y"}) {
		t.Fatalf("Replace must drop previous entries and dedupe: %v", got)
	}
}

func TestActionStoreResetIsIdempotent(t *testing.T) {
	s := NewActionStore()
	s.Add(models.Action{ID: "a1"})
	s.Reset()
	s.Reset()
	if s.Len() != 0 {
		t.Fatalf("expected empty store after Reset")
	}
	if got := s.List(); len(got) != 0 {
		t.Errorf("List after Reset: %v", got)
	}
}
