package doi

import (
	"errors"
	"iter"
	"slices"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"10.1000/ABC", "10.1000/abc"},
		{"  10.1000/abc\t", "10.1000/abc"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestReconcile(t *testing.T) {
	tests := []struct {
		name    string
		library []string
		content []string
		want    []string
	}{
		{
			name:    "normalized inputs give exact difference",
			library: []string{"10.1/a", "10.1/b"},
			content: []string{"10.1/a", "10.1/c"},
			want:    []string{"10.1/c"},
		},
		{
			name:    "empty library returns all content",
			library: nil,
			content: []string{"10.1/b", "10.1/a"},
			want:    []string{"10.1/a", "10.1/b"},
		},
		{
			name:    "case and whitespace variants match",
			library: []string{"10.1/ABC", " 10.1/Def "},
			content: []string{"10.1/abc", "10.1/def", "10.1/ghi"},
			want:    []string{"10.1/ghi"},
		},
		{
			name:    "duplicate content variants collapse",
			library: nil,
			content: []string{"10.1/X", "10.1/x", " 10.1/x"},
			want:    []string{"10.1/x"},
		},
		{
			name:    "everything present",
			library: []string{"10.1/a"},
			content: []string{"10.1/A"},
			want:    []string{},
		},
		{
			name:    "empty DOIs ignored",
			library: []string{""},
			content: []string{"", "  "},
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Reconcile(Values(tt.library), Values(tt.content))
			if err != nil {
				t.Fatalf("Reconcile() error = %v", err)
			}
			if !slices.Equal(got.Missing.Sorted(), tt.want) {
				t.Errorf("Missing = %v, want %v", got.Missing.Sorted(), tt.want)
			}
		})
	}
}

func TestReconcile_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	failing := iter.Seq2[string, error](func(yield func(string, error) bool) {
		if !yield("10.1/a", nil) {
			return
		}
		yield("", boom)
	})

	if _, err := Reconcile(failing, Values([]string{"10.1/a"})); !errors.Is(err, boom) {
		t.Errorf("Reconcile() error = %v, want %v", err, boom)
	}
	if _, err := Reconcile(Values(nil), failing); !errors.Is(err, boom) {
		t.Errorf("Reconcile() error = %v, want %v", err, boom)
	}
}

func TestSet_Has(t *testing.T) {
	s := NewSet("10.1/ABC")
	if !s.Has(" 10.1/abc ") {
		t.Error("Has() = false, want true for normalized match")
	}
	if s.Has("10.1/abd") {
		t.Error("Has() = true, want false")
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}
