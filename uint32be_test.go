package sdfat

import "testing"

func TestUint32BERoundTrip(t *testing.T) {
	tests := []struct {
		name string
		v    uint32
		want Uint32BE
	}{
		{name: "zero", v: 0, want: Uint32BE{0x00, 0x00, 0x00, 0x00}},
		{name: "one", v: 1, want: Uint32BE{0x00, 0x00, 0x00, 0x01}},
		{name: "sector 0x800", v: 0x800, want: Uint32BE{0x00, 0x00, 0x08, 0x00}},
		{name: "max", v: 0xFFFFFFFF, want: Uint32BE{0xFF, 0xFF, 0xFF, 0xFF}},
		{name: "mixed", v: 0x12345678, want: Uint32BE{0x12, 0x34, 0x56, 0x78}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewUint32BE(tt.v)
			if got != tt.want {
				t.Errorf("NewUint32BE(%#x) = %v, want %v", tt.v, got, tt.want)
			}
			if back := got.Uint32(); back != tt.v {
				t.Errorf("Uint32() = %#x, want %#x", back, tt.v)
			}
		})
	}
}

func TestUint32BEAdd(t *testing.T) {
	tests := []struct {
		name string
		a, b uint32
		want uint32
	}{
		{name: "no carry", a: 1, b: 2, want: 3},
		{name: "carry between bytes", a: 0xFF, b: 1, want: 0x100},
		{name: "carry through all bytes", a: 0x00FFFFFF, b: 1, want: 0x01000000},
		{name: "overflow is discarded", a: 0xFFFFFFFF, b: 1, want: 0},
		{name: "overflow keeps low bytes", a: 0xFFFFFFFF, b: 0x10, want: 0xF},
		{name: "geometry", a: 0x820, b: 2 * 936, want: 0xF70},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewUint32BE(tt.a).Add(NewUint32BE(tt.b))
			if got.Uint32() != tt.want {
				t.Errorf("%#x + %#x = %#x, want %#x", tt.a, tt.b, got.Uint32(), tt.want)
			}
		})
	}
}

func TestUint32BESub(t *testing.T) {
	tests := []struct {
		name string
		a, b uint32
		want uint32
	}{
		{name: "no borrow", a: 3, b: 2, want: 1},
		{name: "borrow between bytes", a: 0x100, b: 1, want: 0xFF},
		{name: "borrow through all bytes", a: 0x01000000, b: 1, want: 0x00FFFFFF},
		{name: "equal operands", a: 0xABCD, b: 0xABCD, want: 0},
		{name: "wraps when minuend is smaller", a: 0, b: 1, want: 0xFFFFFFFF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewUint32BE(tt.a).Sub(NewUint32BE(tt.b))
			if got.Uint32() != tt.want {
				t.Errorf("%#x - %#x = %#x, want %#x", tt.a, tt.b, got.Uint32(), tt.want)
			}
		})
	}
}

func TestUint32BEFromHalves(t *testing.T) {
	got := uint32BEFromHalves(0x0012, 0x3456)
	if got.Uint32() != 0x00123456 {
		t.Errorf("uint32BEFromHalves = %v, want 0x00123456", got)
	}

	hi, lo := got.halves()
	if hi != 0x0012 || lo != 0x3456 {
		t.Errorf("halves() = %#x, %#x, want 0x0012, 0x3456", hi, lo)
	}
}

func TestUint32BEFromLE(t *testing.T) {
	// 0x78 is the byte at the lowest disk offset.
	got := uint32BEFromLE(0x78, 0x56, 0x34, 0x12)
	if got.Uint32() != 0x12345678 {
		t.Errorf("uint32BEFromLE = %v, want 0x12345678", got)
	}
}
