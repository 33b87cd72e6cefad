package genomes

import (
	"testing"

	"bottlesim/random"
)

func TestCopyIsIndependent(t *testing.T) {
	rs := random.New(1)
	g := New()
	for i := 0; i < 10; i++ {
		g.AddRandomMutation(rs, 100)
	}

	c := g.Copy()
	if !c.Equal(g) {
		t.Fatalf("Copy() = %v, want %v", c.Sites(), g.Sites())
	}

	c.AddRandomMutation(rs, 100)
	if g.Len() != 10 || c.Len() != 11 {
		t.Errorf("lengths after mutating the copy: original %d, copy %d",
			g.Len(), c.Len())
	}
}

func TestAddRandomMutationRange(t *testing.T) {
	rs := random.New(7)
	g := New()
	const length = 5
	seen := make(map[int]bool)

	for i := 0; i < 1000; i++ {
		site := g.AddRandomMutation(rs, length)
		if site < 0 || site > length {
			t.Fatalf("AddRandomMutation() site %d outside [0, %d]", site, length)
		}
		seen[site] = true
	}

	// Both ends of the inclusive range should turn up
	if !seen[0] || !seen[length] {
		t.Errorf("never saw site 0 or %d in 1000 draws: %v", length, seen)
	}
	if g.Len() != 1000 {
		t.Errorf("Len() = %d, want 1000", g.Len())
	}
}

func TestSetCollapsesDuplicates(t *testing.T) {
	g := FromSites([]int{4, 4, 9})
	s := g.Set()
	if len(s) != 2 || !s[4] || !s[9] {
		t.Errorf("Set() = %v", s)
	}
	if g.Len() != 3 {
		t.Errorf("Len() = %d, duplicates should be kept", g.Len())
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		line    string
		want    []int
		wantErr bool
	}{
		{"", nil, false},
		{"3,", []int{3}, false},
		{"1,2,2,", []int{1, 2, 2}, false},
		{" 5, 6 ", []int{5, 6}, false},
		{"1,x,", nil, true},
		{"-1,", nil, true},
	}

	for _, tt := range tests {
		g, err := Parse(tt.line)
		if (err != nil) != tt.wantErr {
			t.Errorf("Parse(%q) error = %v, wantErr %v", tt.line, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && !g.Equal(FromSites(tt.want)) {
			t.Errorf("Parse(%q) = %v, want %v", tt.line, g.Sites(), tt.want)
		}
	}

	g := FromSites([]int{8, 0, 8})
	if got := g.ToString(); got != "8,0,8," {
		t.Errorf("ToString() = %q", got)
	}
}
