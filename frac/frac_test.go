package frac

import "testing"

func TestFromFloatRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want int64
	}{
		{"zero", 0, 0},
		{"one", 1, Unit},
		{"half", 0.5, Unit / 2},
		{"quarter", 0.25, Unit / 4},
		{"two", 2, 2 * Unit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromFloat(tt.in); got != tt.want {
				t.Errorf("FromFloat(%v) = %d, want %d", tt.in, got, tt.want)
			}
			if back := ToFloat(tt.want); back != tt.in {
				t.Errorf("ToFloat(%d) = %v, want %v", tt.want, back, tt.in)
			}
		})
	}
}

func TestMul(t *testing.T) {
	// Unit acts as the multiplicative identity
	if got := Mul(Unit, 3*Unit); got != 3*Unit {
		t.Errorf("Mul(Unit, 3*Unit) = %d, want %d", got, 3*Unit)
	}
	// Half of a half is a quarter
	if got := Mul(Unit/2, Unit/2); got != Unit/4 {
		t.Errorf("Mul(Unit/2, Unit/2) = %d, want %d", got, Unit/4)
	}
	if got := Mul(0, Unit); got != 0 {
		t.Errorf("Mul(0, Unit) = %d, want 0", got)
	}
}

func TestWholeAndRemainder(t *testing.T) {
	v := 3*Unit + 17
	if got := Whole(v); got != 3 {
		t.Errorf("Whole(%d) = %d, want 3", v, got)
	}
	if got := Remainder(v); got != 17 {
		t.Errorf("Remainder(%d) = %d, want 17", v, got)
	}
	// Whole and Remainder recompose the value
	if Whole(v)*Unit+Remainder(v) != v {
		t.Error("Whole and Remainder do not recompose the original value")
	}
}
