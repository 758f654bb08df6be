// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package outcome

import (
	"errors"
	"testing"
)

func TestOk(t *testing.T) {
	o := Ok(42)
	v, ok := o.Value()
	if !ok || v != 42 {
		t.Errorf("Value() = %d, %v; want 42, true", v, ok)
	}
	if o.Err() != nil || o.IsDegraded() || len(o.Warnings()) != 0 {
		t.Errorf("Ok outcome carries error state: %v %v %v", o.Err(), o.IsDegraded(), o.Warnings())
	}
}

func TestDegraded(t *testing.T) {
	o := Degraded([]string{"a"}, "engine fell back")
	v, ok := o.Value()
	if !ok || len(v) != 1 {
		t.Errorf("degraded outcome should still carry a value")
	}
	if !o.IsDegraded() {
		t.Errorf("IsDegraded() = false")
	}
	if len(o.Warnings()) != 1 || o.Warnings()[0] != "engine fell back" {
		t.Errorf("Warnings() = %v", o.Warnings())
	}
}

func TestFail(t *testing.T) {
	cause := errors.New("too few results")
	o := Fail[int](cause)
	if _, ok := o.Value(); ok {
		t.Errorf("failed outcome should not carry a value")
	}
	if !errors.Is(o.Err(), cause) {
		t.Errorf("Err() = %v, want %v", o.Err(), cause)
	}
}

func TestWithWarnings(t *testing.T) {
	o := Fail[int](errors.New("boom")).WithWarnings("w1", "w2")
	if len(o.Warnings()) != 2 {
		t.Errorf("Warnings() = %v, want 2 entries", o.Warnings())
	}
}
