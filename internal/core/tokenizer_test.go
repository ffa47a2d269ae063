package core

import (
	"encoding/csv"
	"reflect"
	"strings"
	"testing"
)

// ----------------------------------------------------------------------------
// Tokenize Tests
// ----------------------------------------------------------------------------

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  [][]string
	}{
		{
			name:  "simple rows",
			input: "a,b,c\n1,2,3\n",
			want:  [][]string{{"a", "b", "c"}, {"1", "2", "3"}},
		},
		{
			name:  "no trailing newline",
			input: "a,b\n1,2",
			want:  [][]string{{"a", "b"}, {"1", "2"}},
		},
		{
			name:  "CRLF line endings",
			input: "a,b\r\n1,2\r\n",
			want:  [][]string{{"a", "b"}, {"1", "2"}},
		},
		{
			name:  "bare CR line endings",
			input: "a,b\r1,2\r",
			want:  [][]string{{"a", "b"}, {"1", "2"}},
		},
		{
			name:  "quoted comma",
			input: `title,tss` + "\n" + `"Run, easy",40`,
			want:  [][]string{{"title", "tss"}, {"Run, easy", "40"}},
		},
		{
			name:  "quoted newline",
			input: "desc,tss\n\"line one\nline two\",40\n",
			want:  [][]string{{"desc", "tss"}, {"line one\nline two", "40"}},
		},
		{
			name:  "escaped quote",
			input: `desc` + "\n" + `"say ""hi"""`,
			want:  [][]string{{"desc"}, {`say "hi"`}},
		},
		{
			name:  "blank rows skipped",
			input: "a,b\n\n , \n1,2\n\n",
			want:  [][]string{{"a", "b"}, {"1", "2"}},
		},
		{
			name:  "empty fields kept",
			input: "a,,c\n,2,\n",
			want:  [][]string{{"a", "", "c"}, {"", "2", ""}},
		},
		{
			name:  "unterminated quote captures rest",
			input: "a,b\n\"open,2\n3,4",
			want:  [][]string{{"a", "b"}, {"open,2\n3,4"}},
		},
		{
			name:  "stray quote mid field",
			input: "a,b\nx\"y,2\n",
			want:  [][]string{{"a", "b"}, {"xy,2\n"}},
		},
		{
			name:  "empty input",
			input: "",
			want:  nil,
		},
		{
			name:  "multibyte text",
			input: "title\nLøb i Århus\n",
			want:  [][]string{{"title"}, {"Løb i Århus"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTokenize_RoundTrip(t *testing.T) {
	records := [][]string{
		{"workout_day", "title", "description"},
		{"2024-05-01", "Intervals, hard", `He said "go"`},
		{"2024-05-02", "Long ride", "line one\nline two"},
		{"2024-05-03", `""`, ",,,"},
	}

	var b strings.Builder
	w := csv.NewWriter(&b)
	if err := w.WriteAll(records); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	got := Tokenize(b.String())
	if !reflect.DeepEqual(got, records) {
		t.Errorf("round trip mismatch\n got: %q\nwant: %q", got, records)
	}
}

func TestTokenize_CRLFWriter(t *testing.T) {
	records := [][]string{{"a", "b"}, {"1", "x\ny"}}

	var b strings.Builder
	w := csv.NewWriter(&b)
	w.UseCRLF = true
	if err := w.WriteAll(records); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	got := Tokenize(b.String())
	// csv.Writer turns embedded \n into \r\n when UseCRLF is set.
	want := [][]string{{"a", "b"}, {"1", "x\r\ny"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize() = %q, want %q", got, want)
	}
}
