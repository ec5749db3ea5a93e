package services

import (
	"strings"
	"testing"

	"transcriber/models"
)

func TestFormatTimestamp(t *testing.T) {
	t.Parallel()

	cases := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00,000"},
		{1.5, "00:00:01,500"},
		{3661.25, "01:01:01,250"},
		{59.999, "00:00:59,999"},
		{7200, "02:00:00,000"},
		{-1, "00:00:00,000"},
	}

	for _, tc := range cases {
		if got := FormatTimestamp(tc.seconds); got != tc.want {
			t.Errorf("FormatTimestamp(%v) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

func TestFormatTimestampDeterministic(t *testing.T) {
	t.Parallel()

	first := FormatTimestamp(123.456)
	for i := 0; i < 10; i++ {
		if got := FormatTimestamp(123.456); got != first {
			t.Fatalf("rendering changed between calls: %q vs %q", got, first)
		}
	}
}

func TestGenerateSRTTwoSegments(t *testing.T) {
	t.Parallel()

	segments := []models.Segment{
		{Start: 0.0, End: 1.5, Text: "hello"},
		{Start: 1.5, End: 3.0, Text: "world"},
	}

	want := "1\n00:00:00,000 --> 00:00:01,500\nhello\n\n" +
		"2\n00:00:01,500 --> 00:00:03,000\nworld\n\n"
	if got := GenerateSRT(segments); got != want {
		t.Errorf("GenerateSRT() = %q, want %q", got, want)
	}
}

func TestGenerateSRTTrimsSegmentText(t *testing.T) {
	t.Parallel()

	got := GenerateSRT([]models.Segment{{Start: 0, End: 1, Text: "  padded  "}})
	if !strings.Contains(got, "\npadded\n") {
		t.Errorf("segment text not trimmed: %q", got)
	}
}

func TestGenerateSRTPreservesOrder(t *testing.T) {
	t.Parallel()

	segments := make([]models.Segment, 5)
	for i := range segments {
		segments[i] = models.Segment{
			Start: float64(i),
			End:   float64(i + 1),
			Text:  string(rune('a' + i)),
		}
	}

	blocks := strings.Split(strings.TrimSuffix(GenerateSRT(segments), "\n\n"), "\n\n")
	if len(blocks) != len(segments) {
		t.Fatalf("block count = %d, want %d", len(blocks), len(segments))
	}
	for i, block := range blocks {
		lines := strings.Split(block, "\n")
		if lines[0] != string(rune('1'+i)) {
			t.Errorf("block %d index = %q, want %q", i, lines[0], string(rune('1'+i)))
		}
		if lines[2] != string(rune('a'+i)) {
			t.Errorf("block %d text = %q, want %q", i, lines[2], string(rune('a'+i)))
		}
	}
}

func TestGenerateSRTEmpty(t *testing.T) {
	t.Parallel()

	if got := GenerateSRT(nil); got != "" {
		t.Errorf("GenerateSRT(nil) = %q, want empty", got)
	}
}
