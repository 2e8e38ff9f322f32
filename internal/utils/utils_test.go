package utils_test

import (
	"github.com/google/go-cmp/cmp"
	"milk2meat/internal/utils"
	"testing"
)

func TestSliceToMap(t *testing.T) {
	type Book struct {
		ID    int
		Title string
	}

	books := []Book{
		{ID: 1, Title: "Genesis"},
		{ID: 2, Title: "Exodus"},
		{ID: 3, Title: "Leviticus"},
	}

	want := map[int]Book{
		1: {ID: 1, Title: "Genesis"},
		2: {ID: 2, Title: "Exodus"},
		3: {ID: 3, Title: "Leviticus"},
	}

	got := utils.SliceToMap(books, func(b Book) int { return b.ID })

	if !cmp.Equal(got, want) {
		t.Errorf("SliceToMap mismatch\n got:  %#v\nwant: %#v", got, want)
		return
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"UpdatedAt", "updated_at"},
		{"HTTPRequest", "http_request"},
		{"OwnerID", "owner_id"},
		{"title", "title"},
		{"Already_snake_case", "already_snake_case"},
		{"", ""},
	}

	for _, test := range tests {
		got := utils.ToSnakeCase(test.input)

		if got != test.want {
			t.Errorf("ToSnakeCase(%q) = %q; want %q", test.input, got, test.want)
			return
		}
	}
}

func TestCalculateTotalPages(t *testing.T) {
	tests := []struct {
		matchCount int
		pageSize   int
		want       int
	}{
		{matchCount: 0, pageSize: 12, want: 0},
		{matchCount: 12, pageSize: 12, want: 1},
		{matchCount: 13, pageSize: 12, want: 2},
		{matchCount: 25, pageSize: 10, want: 3},
		{matchCount: 50, pageSize: 0, want: 0}, // edge case: division by zero
	}

	for _, tt := range tests {
		got := utils.CalculateTotalPages(tt.matchCount, tt.pageSize)

		if got != tt.want {
			t.Errorf("CalculateTotalPages(%d, %d) = %d; want %d", tt.matchCount, tt.pageSize, got, tt.want)
			return
		}
	}
}

func TestParsePositiveInt(t *testing.T) {
	tests := map[string]int{
		"3":   3,
		" 7 ": 7,
		"0":   1,
		"-2":  1,
		"abc": 1,
		"":    1,
	}

	for in, want := range tests {
		if got := utils.ParsePositiveInt(in, 1); got != want {
			t.Errorf("ParsePositiveInt(%q) = %d; want %d", in, got, want)
		}
	}
}

func TestParseId(t *testing.T) {
	if id, ok := utils.ParseId("45"); !ok || id != 45 {
		t.Errorf("ParseId(45) = %d, %v", id, ok)
	}

	for _, in := range []string{"0", "-1", "x", ""} {
		if _, ok := utils.ParseId(in); ok {
			t.Errorf("ParseId(%q) should fail", in)
		}
	}
}
