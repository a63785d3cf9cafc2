package core

import (
	"reflect"
	"testing"
)

func TestDefaultRegistry_Names(t *testing.T) {
	r := DefaultRegistry()

	want := []string{"isInteger", "notEmpty", "notNull", "positive"}
	if got := r.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
	if r.Len() != 4 {
		t.Errorf("Len() = %d, want 4", r.Len())
	}
}

func TestRegistry_Lookup(t *testing.T) {
	r := DefaultRegistry()

	if _, ok := r.Lookup("notEmpty"); !ok {
		t.Error("Lookup(notEmpty) not found")
	}
	if _, ok := r.Lookup("isEmail"); ok {
		t.Error("Lookup(isEmail) should not be found")
	}
}

func TestRegistry_RegisterCustom(t *testing.T) {
	r := NewRegistry()
	r.Register("isTrue", func(v any) bool { return v == true })

	p, ok := r.Lookup("isTrue")
	if !ok {
		t.Fatal("custom predicate not found")
	}
	if !p(true) || p(false) {
		t.Error("custom predicate returned wrong result")
	}
}

func TestRegistry_RegisterPanics(t *testing.T) {
	tests := []struct {
		name string
		reg  func(r *Registry)
	}{
		{"empty name", func(r *Registry) { r.Register("", NotNull) }},
		{"nil predicate", func(r *Registry) { r.Register("x", nil) }},
		{"duplicate", func(r *Registry) { r.Register("notNull", NotNull) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			tt.reg(DefaultRegistry())
		})
	}
}
