package jwtgate

import (
	"context"
	"errors"
	"testing"
)

type teacher struct {
	TeacherID int
	Name      string
	Email     string
}

func teacherLookup(rows []teacher) LookupFunc {
	return StaticLookup(rows, func(row teacher, keyName string) (any, bool) {
		switch keyName {
		case "teacher_id":
			return row.TeacherID, true
		case "email":
			return row.Email, true
		default:
			return nil, false
		}
	})
}

func testRegistry(t *testing.T) *registry {
	t.Helper()

	rows := []teacher{{TeacherID: 1, Name: "joe", Email: "joe@school.edu"}}
	reg, err := newRegistry([]Descriptor{
		{TypeTag: "teachers", KeyName: "teacher_id", Lookup: teacherLookup(rows)},
	}, "id")
	if err != nil {
		t.Fatalf("newRegistry: %v", err)
	}
	return reg
}

func TestResolveByTag(t *testing.T) {
	reg := testRegistry(t)

	entity, err := reg.resolveByTag(context.Background(), "teachers", 1)
	if err != nil {
		t.Fatalf("resolveByTag: %v", err)
	}
	if entity.(teacher).Name != "joe" {
		t.Fatalf("unexpected entity: %+v", entity)
	}
}

func TestResolveByTagFloatKey(t *testing.T) {
	// numeric claims decode to float64; integer keys must still match
	reg := testRegistry(t)

	entity, err := reg.resolveByTag(context.Background(), "teachers", float64(1))
	if err != nil {
		t.Fatalf("resolveByTag with float64 key: %v", err)
	}
	if entity.(teacher).TeacherID != 1 {
		t.Fatalf("unexpected entity: %+v", entity)
	}
}

func TestResolveByTagNoSuchType(t *testing.T) {
	reg := testRegistry(t)

	_, err := reg.resolveByTag(context.Background(), "ghosts", 1)
	if !errors.Is(err, ErrNoSuchType) {
		t.Fatalf("expected ErrNoSuchType, got %v", err)
	}
}

func TestResolveByTagNotFound(t *testing.T) {
	reg := testRegistry(t)

	_, err := reg.resolveByTag(context.Background(), "teachers", 99)
	if !errors.Is(err, ErrEntityNotFound) {
		t.Fatalf("expected ErrEntityNotFound, got %v", err)
	}
	if errors.Is(err, ErrNoSuchType) {
		t.Fatal("a missing row must not look like a registry misconfiguration")
	}
}

func TestResolveByIdentity(t *testing.T) {
	reg := testRegistry(t)

	entity, err := reg.resolveByIdentity(context.Background(), "teachers", "joe@school.edu")
	if err != nil {
		t.Fatalf("resolveByIdentity: %v", err)
	}
	if entity.(teacher).TeacherID != 1 {
		t.Fatalf("unexpected entity: %+v", entity)
	}

	if _, err := reg.resolveByIdentity(context.Background(), "teachers", "nobody@school.edu"); !errors.Is(err, ErrEntityNotFound) {
		t.Fatalf("expected ErrEntityNotFound, got %v", err)
	}
}

func TestPrimaryKeyName(t *testing.T) {
	rows := []teacher{}
	reg, err := newRegistry([]Descriptor{
		{TypeTag: "teachers", KeyName: "teacher_id", Lookup: teacherLookup(rows)},
		{TypeTag: "users", Lookup: teacherLookup(rows)},
	}, "id")
	if err != nil {
		t.Fatalf("newRegistry: %v", err)
	}

	if name, _ := reg.primaryKeyName("teachers"); name != "teacher_id" {
		t.Fatalf("teachers key = %q, want teacher_id", name)
	}
	if name, _ := reg.primaryKeyName("users"); name != "id" {
		t.Fatalf("users key = %q, want id (global fallback)", name)
	}
	if _, err := reg.primaryKeyName("ghosts"); !errors.Is(err, ErrNoSuchType) {
		t.Fatalf("expected ErrNoSuchType, got %v", err)
	}
}

func TestRegistryValidation(t *testing.T) {
	lookup := teacherLookup(nil)

	if _, err := newRegistry([]Descriptor{{TypeTag: "", Lookup: lookup}}, "id"); err == nil {
		t.Fatal("empty type tag must be rejected")
	}
	if _, err := newRegistry([]Descriptor{{TypeTag: "users"}}, "id"); err == nil {
		t.Fatal("nil lookup must be rejected")
	}
}
