package maths

import (
	"math"
	"testing"
)

func TestClamp(t *testing.T) {
	if Clamp(-3, 1, 8) != 1 || Clamp(14, 1, 8) != 8 || Clamp(5, 1, 8) != 5 {
		t.Fatalf("clamp bounds are wrong")
	}
	if ClampFloat(55e3, 15e3, 20e3) != 20e3 || ClampFloat(10e3, 15e3, 20e3) != 15e3 {
		t.Fatalf("float clamp bounds are wrong")
	}
}

func TestCeilInt(t *testing.T) {
	if CeilInt(1.01) != 2 || CeilInt(-1.5) != -1 || CeilInt(3) != 3 {
		t.Fatalf("unexpected ceil result")
	}
}

func TestIsFinite(t *testing.T) {
	if IsFinite(math.Inf(1)) || IsFinite(math.NaN()) || !IsFinite(0.5) {
		t.Fatalf("unexpected finiteness")
	}
}
