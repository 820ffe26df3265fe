package parser

import "testing"

func TestSplitFormFeeds(t *testing.T) {
	cases := []struct {
		name  string
		in    string
		text  string
		pages int
	}{
		{"empty", "", "", 0},
		{"one page", "42 USC 1983\f", "42 USC 1983\n", 1},
		{"three pages", "one\ftwo\fthree\f", "one\ntwo\nthree\n", 3},
		{"blank page", "one\f\fthree\f", "one\n\nthree\n", 3},
		{"missing final feed", "one\ftwo", "one\ntwo", 2},
	}
	for _, tc := range cases {
		text, pages := splitFormFeeds(tc.in)
		if text != tc.text {
			t.Errorf("%s: expected text %q, got %q", tc.name, tc.text, text)
		}
		if pages != tc.pages {
			t.Errorf("%s: expected %d pages, got %d", tc.name, tc.pages, pages)
		}
	}
}
