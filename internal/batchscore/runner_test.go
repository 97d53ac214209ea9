package batchscore

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spamsift/spamsift/internal/core"
)

type stubScorer struct {
	scores map[string]float64
}

func (s *stubScorer) Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

func (s *stubScorer) Score(text string) (float64, error) {
	if p, ok := s.scores[text]; ok {
		return p, nil
	}
	return 0.2, nil
}

func (s *stubScorer) Fingerprint() string { return "stub" }

func newTestRunner(t *testing.T, chunkSize int) *Runner {
	t.Helper()
	scorer := &stubScorer{scores: map[string]float64{
		"win free cash":      0.90,
		"see you tomorrow":   0.05,
		"claim your prize":   0.80,
		"limited time offer": 0.50,
		"":                   0.10,
	}}
	svc := core.NewClassifierService(scorer, nil, zap.NewNop(), false, 0, "", 2)
	return NewRunner(svc, zap.NewNop(), chunkSize)
}

func parseCSV(t *testing.T, out *bytes.Buffer) [][]string {
	t.Helper()
	records, err := csv.NewReader(out).ReadAll()
	require.NoError(t, err)
	return records
}

func TestScoreCSVAutoColumn(t *testing.T) {
	r := newTestRunner(t, 100)
	in := strings.NewReader("id,text\n1,win free cash\n2,see you tomorrow\n")
	var out bytes.Buffer

	stats, err := r.ScoreCSV(context.Background(), in, &out, Options{})
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Rows)
	assert.Equal(t, 1, stats.Spam)
	assert.Equal(t, 1, stats.Legitimate)
	assert.Equal(t, 0, stats.Failed)

	records := parseCSV(t, &out)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"id", "text", "label", "probability", "error"}, records[0])
	assert.Equal(t, []string{"1", "win free cash", "spam", "0.900000", ""}, records[1])
	assert.Equal(t, []string{"2", "see you tomorrow", "legitimate", "0.050000", ""}, records[2])
}

func TestScoreCSVExplicitColumn(t *testing.T) {
	r := newTestRunner(t, 100)
	in := strings.NewReader("note,Payload\nskip this,win free cash\n")
	var out bytes.Buffer

	stats, err := r.ScoreCSV(context.Background(), in, &out, Options{TextColumn: "payload"})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Spam)

	records := parseCSV(t, &out)
	assert.Equal(t, "spam", records[1][2])
}

func TestScoreCSVMissingColumn(t *testing.T) {
	r := newTestRunner(t, 100)

	_, err := r.ScoreCSV(context.Background(), strings.NewReader("a,b\n1,2\n"), &bytes.Buffer{}, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no text column")

	_, err = r.ScoreCSV(context.Background(), strings.NewReader("text\nhi\n"), &bytes.Buffer{},
		Options{TextColumn: "payload"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"payload"`)
}

func TestScoreCSVEmptyInput(t *testing.T) {
	r := newTestRunner(t, 100)

	_, err := r.ScoreCSV(context.Background(), strings.NewReader(""), &bytes.Buffer{}, Options{})
	assert.Error(t, err)
}

func TestScoreCSVShortRow(t *testing.T) {
	r := newTestRunner(t, 100)
	// Row 2 has no text cell at all; it scores as empty text instead of
	// failing the run.
	in := strings.NewReader("id,text\n1,win free cash\n2\n")
	var out bytes.Buffer

	stats, err := r.ScoreCSV(context.Background(), in, &out, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Rows)
	assert.Equal(t, 0, stats.Failed)

	records := parseCSV(t, &out)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"2", "", "legitimate", "0.100000", ""}, records[2])
}

func TestScoreCSVChunking(t *testing.T) {
	r := newTestRunner(t, 2)

	var sb strings.Builder
	sb.WriteString("text\n")
	for i := 0; i < 7; i++ {
		sb.WriteString("claim your prize\n")
	}
	var out bytes.Buffer

	stats, err := r.ScoreCSV(context.Background(), strings.NewReader(sb.String()), &out, Options{})
	require.NoError(t, err)
	assert.Equal(t, 7, stats.Rows)
	assert.Equal(t, 7, stats.Spam)

	records := parseCSV(t, &out)
	assert.Len(t, records, 8)
}

func TestScoreCSVProfileApplies(t *testing.T) {
	r := newTestRunner(t, 100)

	// 0.50 sits between the aggressive (0.45) and balanced (0.55)
	// thresholds, so the chosen profile decides the verdict.
	asDefault, err := r.ScoreCSV(context.Background(),
		strings.NewReader("text\nlimited time offer\n"), &bytes.Buffer{}, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, asDefault.Legitimate)

	asAggressive, err := r.ScoreCSV(context.Background(),
		strings.NewReader("text\nlimited time offer\n"), &bytes.Buffer{},
		Options{Profile: "aggressive"})
	require.NoError(t, err)
	assert.Equal(t, 1, asAggressive.Spam)
}

func TestScoreCSVUnknownProfileFailsRun(t *testing.T) {
	r := newTestRunner(t, 100)

	_, err := r.ScoreCSV(context.Background(),
		strings.NewReader("text\nhello\n"), &bytes.Buffer{},
		Options{Profile: "unknown-profile"})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrUnknownProfile)
}

func TestScoreLines(t *testing.T) {
	r := newTestRunner(t, 100)
	in := strings.NewReader("win free cash\nsee you tomorrow\n\nclaim your prize\n")
	var out bytes.Buffer

	stats, err := r.ScoreLines(context.Background(), in, &out, Options{})
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Rows, "the blank line still counts")
	assert.Equal(t, 2, stats.Spam)
	assert.Equal(t, 2, stats.Legitimate)

	records := parseCSV(t, &out)
	require.Len(t, records, 5)
	assert.Equal(t, []string{"text", "label", "probability", "error"}, records[0])
	assert.Equal(t, "spam", records[1][1])
	assert.Equal(t, "legitimate", records[2][1])
	assert.Equal(t, "legitimate", records[3][1], "blank line scores as empty text")
	assert.Equal(t, "spam", records[4][1])
}

func TestScoreCSVWindows1252(t *testing.T) {
	r := newTestRunner(t, 100)

	// 0x93/0x94 are curly quotes in Windows-1252 and invalid UTF-8, so the
	// sniffer must fall back and the row must still land on its score.
	raw := []byte("text\n\x93win free cash\x94\n")
	var out bytes.Buffer

	stats, err := r.ScoreCSV(context.Background(), bytes.NewReader(raw), &out, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Rows)

	records := parseCSV(t, &out)
	require.Len(t, records, 2)
	assert.Contains(t, records[1][0], "win free cash")
	assert.Equal(t, "“win free cash”", records[1][0])
}

func TestScoreCSVExplicitLatin1(t *testing.T) {
	r := newTestRunner(t, 100)

	// 0xE9 is é in ISO-8859-1.
	raw := []byte("text\ncaf\xe9 tomorrow\n")
	var out bytes.Buffer

	stats, err := r.ScoreCSV(context.Background(), bytes.NewReader(raw), &out,
		Options{Encoding: EncodingLatin1})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Rows)

	records := parseCSV(t, &out)
	assert.Equal(t, "café tomorrow", records[1][0])
}

func TestScoreCSVUnsupportedEncoding(t *testing.T) {
	r := newTestRunner(t, 100)

	_, err := r.ScoreCSV(context.Background(), strings.NewReader("text\nhi\n"), &bytes.Buffer{},
		Options{Encoding: "utf-16"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported encoding")
}

func TestDecodeReaderVariants(t *testing.T) {
	for _, enc := range []string{"", "auto", "utf-8", "UTF8", "windows-1252", "cp1252", "latin-1", "iso-8859-1"} {
		_, err := decodeReader(strings.NewReader("x"), enc)
		assert.NoError(t, err, "encoding %q", enc)
	}
}

func TestFindTextColumnCandidates(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		want   int
	}{
		{"text", []string{"id", "text"}, 1},
		{"message", []string{"Message", "other"}, 0},
		{"sms preferred over later body", []string{"body", "sms"}, 1},
		{"case insensitive", []string{"ID", "TEXT"}, 1},
		{"whitespace tolerated", []string{" text ", "x"}, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			col, err := findTextColumn(tc.header, "")
			require.NoError(t, err)
			assert.Equal(t, tc.want, col)
		})
	}
}
