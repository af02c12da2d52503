package names

import "testing"

func TestDisplay(t *testing.T) {
	m := Map{"A": "Alpha", "blank": "  "}

	tests := []struct {
		name string
		r    Resolver
		id   string
		want string
	}{
		{"hit", m, "A", "Alpha"},
		{"miss falls back to id", m, "B", "B"},
		{"blank name falls back to id", m, "blank", "blank"},
		{"nil resolver", nil, "A", "A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Display(tt.r, tt.id); got != tt.want {
				t.Errorf("Display(%q) = %q, want %q", tt.id, got, tt.want)
			}
		})
	}
}

func TestChain(t *testing.T) {
	c := Chain{
		nil,
		Map{"A": "from map"},
		Func(func(id string) (string, bool) { return "func:" + id, id != "none" }),
	}

	if got := Display(c, "A"); got != "from map" {
		t.Errorf("Display(A) = %q, want first hit", got)
	}
	if got := Display(c, "B"); got != "func:B" {
		t.Errorf("Display(B) = %q, want func:B", got)
	}
	if got := Display(c, "none"); got != "none" {
		t.Errorf("Display(none) = %q, want raw id", got)
	}
}

func TestCached(t *testing.T) {
	calls := map[string]int{}
	inner := Func(func(id string) (string, bool) {
		calls[id]++
		if id == "missing" {
			return "", false
		}
		return "name-" + id, true
	})

	r := Cached(inner, 2)
	for i := 0; i < 3; i++ {
		if got := Display(r, "A"); got != "name-A" {
			t.Fatalf("Display(A) = %q", got)
		}
		if got := Display(r, "missing"); got != "missing" {
			t.Fatalf("Display(missing) = %q", got)
		}
	}
	if calls["A"] != 1 || calls["missing"] != 1 {
		t.Errorf("calls = %v, want one lookup per id", calls)
	}

	// Evict A by touching two other ids.
	Display(r, "B")
	Display(r, "C")
	Display(r, "A")
	if calls["A"] != 2 {
		t.Errorf("calls[A] = %d after eviction, want 2", calls["A"])
	}
}

func TestCachedNilInner(t *testing.T) {
	r := Cached(nil, 0)
	if got := Display(r, "A"); got != "A" {
		t.Errorf("Display = %q, want raw id", got)
	}
}
