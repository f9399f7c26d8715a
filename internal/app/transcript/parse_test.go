package transcript

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"green-needle/internal/app/model"
)

func TestParseSRT(t *testing.T) {
	input := "1\r\n" +
		"00:00:00,000 --> 00:00:02,500\r\n" +
		"Hello world.\r\n" +
		"\r\n" +
		"2\r\n" +
		"00:00:02,500 --> 00:00:05,000\r\n" +
		"Second line\r\n" +
		"continues here.\r\n"

	result, err := Parse(strings.NewReader(input), FormatSRT)
	require.NoError(t, err)
	require.Len(t, result.Segments, 2)
	assert.Equal(t, model.Segment{ID: 1, Start: 0, End: 2.5, Text: "Hello world."}, result.Segments[0])
	assert.Equal(t, "Second line\ncontinues here.", result.Segments[1].Text)
	assert.InDelta(t, 5.0, result.Duration, 1e-9)
	assert.Equal(t, "Hello world. Second line\ncontinues here.", result.Text)
}

func TestParseVTT(t *testing.T) {
	input := `WEBVTT

NOTE generated for review

00:00:00.000 --> 00:00:02.500 align:start
Hello world.

intro-cue
00:00:02.500 --> 00:00:05.000
Second part.
`

	result, err := Parse(strings.NewReader(input), FormatVTT)
	require.NoError(t, err)
	require.Len(t, result.Segments, 2)
	assert.InDelta(t, 2.5, result.Segments[0].End, 1e-9)
	assert.Equal(t, "Hello world.", result.Segments[0].Text)
	assert.Equal(t, "Second part.", result.Segments[1].Text)
}

func TestParseVTTMissingHeader(t *testing.T) {
	input := "00:00:00.000 --> 00:00:01.000\nhi\n"
	_, err := Parse(strings.NewReader(input), FormatVTT)
	assert.ErrorContains(t, err, "WEBVTT")
}

func TestParseSRTMalformedTiming(t *testing.T) {
	input := "1\n00:00:00,000 --> nonsense\nhi\n"
	_, err := Parse(strings.NewReader(input), FormatSRT)
	assert.Error(t, err)
}

func TestParseTSV(t *testing.T) {
	input := "start\tend\ttext\n" +
		"0.000\t2.500\tHello world.\n" +
		"2.500\t5.000\tSecond part.\n"

	result, err := Parse(strings.NewReader(input), FormatTSV)
	require.NoError(t, err)
	require.Len(t, result.Segments, 2)
	assert.InDelta(t, 2.5, result.Segments[1].Start, 1e-9)
	assert.Equal(t, "Second part.", result.Segments[1].Text)
}

func TestParseTSVMalformedRow(t *testing.T) {
	input := "start\tend\ttext\nnot-a-number\t2.0\thi\n"
	_, err := Parse(strings.NewReader(input), FormatTSV)
	assert.Error(t, err)
}

func TestParseTxt(t *testing.T) {
	result, err := Parse(strings.NewReader("Hello world.\n"), FormatTxt)
	require.NoError(t, err)
	assert.Equal(t, "Hello world.", result.Text)
	assert.Equal(t, 2, result.WordCount)
	assert.Empty(t, result.Segments)
}

func TestLoadByExtension(t *testing.T) {
	dir := t.TempDir()
	paths, err := Save(sampleResult(), dir, FormatSRT)
	require.NoError(t, err)

	result, err := Load(paths[0])
	require.NoError(t, err)
	assert.Len(t, result.Segments, 2)

	_, err = Load("transcript.docx")
	assert.Error(t, err)
}

// Rendering then parsing a timed format must preserve segment text exactly
// and timestamps to the millisecond.
func TestRenderParseRoundTrip(t *testing.T) {
	original := model.NewTranscriptionResult(
		"/audio/long.mp3",
		"",
		[]model.Segment{
			{ID: 1, Start: 0, End: 1.042, Text: "First."},
			{ID: 2, Start: 1.042, End: 59.999, Text: "Second one."},
			{ID: 3, Start: 61.5, End: 3661.25, Text: "After the hour mark."},
		})

	for _, format := range []Format{FormatSRT, FormatVTT, FormatTSV} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Render(&buf, original, format))

			parsed, err := Parse(&buf, format)
			require.NoError(t, err)
			require.Len(t, parsed.Segments, len(original.Segments))
			for i, seg := range original.Segments {
				assert.InDelta(t, seg.Start, parsed.Segments[i].Start, 0.0006)
				assert.InDelta(t, seg.End, parsed.Segments[i].End, 0.0006)
				assert.Equal(t, seg.Text, parsed.Segments[i].Text)
			}
		})
	}
}

func TestRenderParseRoundTripJSON(t *testing.T) {
	original := sampleResult()

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, original, FormatJSON))
	parsed, err := Parse(&buf, FormatJSON)
	require.NoError(t, err)

	assert.Equal(t, original.Text, parsed.Text)
	assert.Equal(t, original.Segments, parsed.Segments)
	assert.Equal(t, original.Language, parsed.Language)
	assert.Equal(t, original.WordCount, parsed.WordCount)
}
