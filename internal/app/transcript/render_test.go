package transcript

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"green-needle/internal/app/model"
)

func sampleResult() *model.TranscriptionResult {
	result := model.NewTranscriptionResult(
		"/audio/meeting.mp3",
		"Hello world. Second part.",
		[]model.Segment{
			{ID: 1, Start: 0, End: 2.5, Text: "Hello world."},
			{ID: 2, Start: 2.5, End: 5, Text: "Second part."},
		})
	result.Language = "en"
	result.Duration = 5
	result.Model = "base"
	result.Task = "transcribe"
	return result
}

func renderString(t *testing.T, result *model.TranscriptionResult, format Format) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, result, format))
	return buf.String()
}

func TestRenderTxt(t *testing.T) {
	assert.Equal(t, "Hello world. Second part.\n", renderString(t, sampleResult(), FormatTxt))
}

func TestRenderSRT(t *testing.T) {
	want := `1
00:00:00,000 --> 00:00:02,500
Hello world.

2
00:00:02,500 --> 00:00:05,000
Second part.

`
	assert.Equal(t, want, renderString(t, sampleResult(), FormatSRT))
}

func TestRenderVTT(t *testing.T) {
	want := `WEBVTT

00:00:00.000 --> 00:00:02.500
Hello world.

00:00:02.500 --> 00:00:05.000
Second part.

`
	assert.Equal(t, want, renderString(t, sampleResult(), FormatVTT))
}

func TestRenderTSV(t *testing.T) {
	want := "start\tend\ttext\n" +
		"0.000\t2.500\tHello world.\n" +
		"2.500\t5.000\tSecond part.\n"
	assert.Equal(t, want, renderString(t, sampleResult(), FormatTSV))
}

func TestRenderTSVFlattensText(t *testing.T) {
	result := model.NewTranscriptionResult("a.wav", "x", []model.Segment{
		{ID: 1, Start: 0, End: 1, Text: "line one\nline two\twith tab"},
	})
	got := renderString(t, result, FormatTSV)
	assert.Contains(t, got, "0.000\t1.000\tline one line two with tab\n")
}

func TestRenderJSONDecodesBack(t *testing.T) {
	raw := renderString(t, sampleResult(), FormatJSON)

	var decoded model.TranscriptionResult
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
	assert.Equal(t, "/audio/meeting.mp3", decoded.AudioPath)
	assert.Equal(t, "en", decoded.Language)
	assert.Len(t, decoded.Segments, 2)
	assert.Equal(t, 4, decoded.WordCount)
}

func TestRenderRejectsAll(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Render(&buf, sampleResult(), FormatAll))
}

func TestRenderEmptySegments(t *testing.T) {
	result := model.NewTranscriptionResult("a.wav", "", nil)
	assert.Equal(t, "", renderString(t, result, FormatSRT))
	assert.Equal(t, "WEBVTT\n\n", renderString(t, result, FormatVTT))
	assert.Equal(t, "start\tend\ttext\n", renderString(t, result, FormatTSV))
}

func TestSaveSingleFormat(t *testing.T) {
	dir := t.TempDir()

	paths, err := Save(sampleResult(), dir, FormatSRT)
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "meeting.srt")}, paths)

	raw, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Contains(t, string(raw), "00:00:02,500 --> 00:00:05,000")
}

func TestSaveAllFormats(t *testing.T) {
	dir := t.TempDir()

	paths, err := Save(sampleResult(), dir, FormatAll)
	require.NoError(t, err)
	require.Len(t, paths, 5)
	for _, path := range paths {
		info, err := os.Stat(path)
		require.NoError(t, err, path)
		assert.Greater(t, info.Size(), int64(0), path)
	}
}

func TestSaveCreatesOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")

	paths, err := Save(sampleResult(), dir, FormatTxt)
	require.NoError(t, err)
	assert.FileExists(t, paths[0])
}

func TestTargetPaths(t *testing.T) {
	assert.Equal(t,
		[]string{filepath.Join("out", "meeting.vtt")},
		TargetPaths("/audio/meeting.mp3", "out", FormatVTT))

	all := TargetPaths("/audio/meeting.mp3", "out", FormatAll)
	assert.Len(t, all, 5)
	assert.Contains(t, all, filepath.Join("out", "meeting.json"))
}
