package provider

import (
	"strings"
	"testing"
)

func TestForEachDataLine(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "PlainDataLines",
			input: "data: one\ndata: two\n",
			want:  []string{"one", "two"},
		},
		{
			name:  "NonDataLinesSkipped",
			input: "event: ping\n: comment\ndata: payload\n\n",
			want:  []string{"payload"},
		},
		{
			name:  "CRLFTrimmed",
			input: "data: hello\r\n",
			want:  []string{"hello"},
		},
		{
			name:  "UnterminatedRemainderDiscarded",
			input: "data: full\ndata: partial-no-newline",
			want:  []string{"full"},
		},
		{
			name:  "Empty",
			input: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			err := forEachDataLine(strings.NewReader(tt.input), func(data string) bool {
				got = append(got, data)
				return true
			})
			if err != nil {
				t.Fatalf("forEachDataLine() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d data lines %v, want %d %v", len(got), got, len(tt.want), tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("line %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestForEachDataLineStopsWhenCallbackReturnsFalse(t *testing.T) {
	var got []string
	err := forEachDataLine(strings.NewReader("data: a\ndata: b\ndata: c\n"), func(data string) bool {
		got = append(got, data)
		return data != "b"
	})
	if err != nil {
		t.Fatalf("forEachDataLine() error = %v", err)
	}
	if len(got) != 2 || got[1] != "b" {
		t.Errorf("consumption did not stop after callback returned false: got %v", got)
	}
}
