package main

import "testing"

func TestParseRelevantIDs(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"comma separated", "a:0,b:1,c:2", []string{"a:0", "b:1", "c:2"}},
		{"newline separated", "a:0\nb:1", []string{"a:0", "b:1"}},
		{"mixed with whitespace", " a:0 ,\n b:1 \n", []string{"a:0", "b:1"}},
		{"empty", "", nil},
		{"only separators", ",,\n,", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseRelevantIDs(tt.raw)
			if len(got) != len(tt.want) {
				t.Fatalf("parseRelevantIDs(%q) = %v, want %v", tt.raw, got, tt.want)
			}
			for _, id := range tt.want {
				if !got[id] {
					t.Errorf("parseRelevantIDs(%q) missing %q", tt.raw, id)
				}
			}
		})
	}
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		s    string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"this is a longer string", 10, "this is..."},
		{"tiny max passes through", 3, "tiny max passes through"},
	}

	for _, tt := range tests {
		if got := truncateString(tt.s, tt.max); got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.s, tt.max, got, tt.want)
		}
	}
}
