package batchscore

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/spamsift/spamsift/internal/core"
)

const defaultChunkSize = 500

// Options select how one scoring run reads its input.
type Options struct {
	Profile    string
	TextColumn string
	Encoding   string
}

// Stats summarize a completed run.
type Stats struct {
	Rows       int
	Spam       int
	Legitimate int
	Failed     int
	Elapsed    time.Duration
}

// Runner streams rows through the classifier in chunks.
type Runner struct {
	svc       *core.ClassifierService
	logger    *zap.Logger
	chunkSize int
}

// NewRunner creates a new batch scoring runner
func NewRunner(svc *core.ClassifierService, logger *zap.Logger, chunkSize int) *Runner {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	return &Runner{
		svc:       svc,
		logger:    logger,
		chunkSize: chunkSize,
	}
}

// ScoreCSV reads a CSV with a header row, scores the text column and
// writes the input columns back out followed by label, probability and
// error columns. Rows keep their input order. A row whose text cell is
// missing scores as empty text rather than failing the run.
func (r *Runner) ScoreCSV(ctx context.Context, in io.Reader, out io.Writer, opts Options) (*Stats, error) {
	decoded, err := decodeReader(in, opts.Encoding)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(decoded)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("input is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	col, err := findTextColumn(header, opts.TextColumn)
	if err != nil {
		return nil, err
	}

	cw := csv.NewWriter(out)
	outHeader := append(append([]string(nil), header...), "label", "probability", "error")
	if err := cw.Write(outHeader); err != nil {
		return nil, err
	}

	start := time.Now()
	stats := &Stats{}
	rows := make([][]string, 0, r.chunkSize)

	flush := func() error {
		if len(rows) == 0 {
			return nil
		}
		texts := make([]string, len(rows))
		for i, rec := range rows {
			if col < len(rec) {
				texts[i] = rec[col]
			}
		}
		if err := r.scoreAndWrite(ctx, rows, texts, opts.Profile, cw, stats); err != nil {
			return err
		}
		rows = rows[:0]
		return nil
	}

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", stats.Rows+len(rows)+2, err)
		}
		// Short rows are padded so the output stays rectangular and the
		// missing text cell scores as empty text.
		if len(rec) < len(header) {
			padded := make([]string, len(header))
			copy(padded, rec)
			rec = padded
		}
		rows = append(rows, rec)
		if len(rows) >= r.chunkSize {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, err
	}

	stats.Elapsed = time.Since(start)
	r.logRun("csv", stats)
	return stats, nil
}

// ScoreLines treats every input line as one text and writes a CSV with
// text, label, probability and error columns. Blank lines are scored as
// empty texts, keeping output rows aligned with input lines.
func (r *Runner) ScoreLines(ctx context.Context, in io.Reader, out io.Writer, opts Options) (*Stats, error) {
	decoded, err := decodeReader(in, opts.Encoding)
	if err != nil {
		return nil, err
	}

	scanner := bufio.NewScanner(decoded)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	cw := csv.NewWriter(out)
	if err := cw.Write([]string{"text", "label", "probability", "error"}); err != nil {
		return nil, err
	}

	start := time.Now()
	stats := &Stats{}
	texts := make([]string, 0, r.chunkSize)

	flush := func() error {
		if len(texts) == 0 {
			return nil
		}
		rows := make([][]string, len(texts))
		for i, t := range texts {
			rows[i] = []string{t}
		}
		if err := r.scoreAndWrite(ctx, rows, texts, opts.Profile, cw, stats); err != nil {
			return err
		}
		texts = texts[:0]
		return nil
	}

	for scanner.Scan() {
		texts = append(texts, scanner.Text())
		if len(texts) >= r.chunkSize {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	if err := flush(); err != nil {
		return nil, err
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, err
	}

	stats.Elapsed = time.Since(start)
	r.logRun("lines", stats)
	return stats, nil
}

// scoreAndWrite classifies one chunk and appends the outcome columns to
// each base row. A per-item failure lands in the error column of its own
// row; a profile or context failure aborts the run.
func (r *Runner) scoreAndWrite(ctx context.Context, base [][]string, texts []string, profile string, cw *csv.Writer, stats *Stats) error {
	results, err := r.svc.DecideBatch(ctx, texts, profile)
	if err != nil {
		return err
	}

	for i, rec := range base {
		stats.Rows++
		var label, probability, errMsg string
		if results[i].Err != nil {
			errMsg = results[i].Err.Error()
			stats.Failed++
		} else {
			verdict := results[i].Verdict
			label = string(verdict.Label)
			probability = strconv.FormatFloat(verdict.Probability, 'f', 6, 64)
			if verdict.Label == core.LabelSpam {
				stats.Spam++
			} else {
				stats.Legitimate++
			}
		}
		out := append(append([]string(nil), rec...), label, probability, errMsg)
		if err := cw.Write(out); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) logRun(format string, stats *Stats) {
	r.logger.Info("Batch scoring complete",
		zap.String("format", format),
		zap.Int("rows", stats.Rows),
		zap.Int("spam", stats.Spam),
		zap.Int("legitimate", stats.Legitimate),
		zap.Int("failed", stats.Failed),
		zap.Duration("elapsed", stats.Elapsed))
}
