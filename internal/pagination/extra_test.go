package pagination

import "testing"

func TestExtraData(t *testing.T) {
	e := NewExtraData(false)

	if _, ok := e.Get(0); ok {
		t.Error("Get(0) on empty array = true, want false")
	}
	if e.Set(0, true) {
		t.Error("Set(0) on empty array = true, want false")
	}

	e.Reset(3)
	if got := e.Len(); got != 3 {
		t.Fatalf("Len() = %d, want 3", got)
	}

	tests := []struct {
		name    string
		index   int
		setOK   bool
		wantVal bool
	}{
		{"first", 0, true, true},
		{"last", 2, true, true},
		{"past end", 3, false, false},
		{"negative", -1, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.Set(tt.index, true); got != tt.setOK {
				t.Errorf("Set(%d) = %v, want %v", tt.index, got, tt.setOK)
			}
			if got, _ := e.Get(tt.index); got != tt.wantVal {
				t.Errorf("Get(%d) = %v, want %v", tt.index, got, tt.wantVal)
			}
		})
	}

	if v, ok := e.Get(1); !ok || v {
		t.Errorf("Get(1) = %v, %v, want default false", v, ok)
	}

	e.Reset(0)
	if got := e.Len(); got != 3 {
		t.Errorf("Reset(0) changed Len() to %d", got)
	}
	e.Reset(2)
	if v, _ := e.Get(0); v {
		t.Error("Reset did not restore default")
	}
}
