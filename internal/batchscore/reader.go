// Package batchscore scores delimited files in bounded chunks, so a
// million-row export streams through without holding more than one chunk
// of verdicts in memory. Input decoding tolerates the encodings bulk SMS
// and mail exports actually arrive in.
package batchscore

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Supported input encodings. Auto sniffs a prefix of the stream and falls
// back from UTF-8 to Windows-1252, which covers the usual suspects in
// legacy CSV exports.
const (
	EncodingAuto        = "auto"
	EncodingUTF8        = "utf-8"
	EncodingWindows1252 = "windows-1252"
	EncodingLatin1      = "latin-1"
)

const sniffLen = 64 * 1024

// decodeReader wraps r so reads come out as UTF-8 regardless of the
// declared input encoding.
func decodeReader(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", EncodingAuto:
		return sniffReader(r), nil
	case EncodingUTF8, "utf8":
		return r, nil
	case EncodingWindows1252, "cp1252":
		return transform.NewReader(r, charmap.Windows1252.NewDecoder()), nil
	case EncodingLatin1, "latin1", "iso-8859-1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", encoding)
	}
}

// sniffReader peeks at the head of the stream and picks UTF-8 when the
// sample decodes cleanly, Windows-1252 otherwise.
func sniffReader(r io.Reader) io.Reader {
	br := bufio.NewReaderSize(r, sniffLen)
	sample, _ := br.Peek(sniffLen)
	if validUTF8Prefix(sample) {
		return br
	}
	return transform.NewReader(br, charmap.Windows1252.NewDecoder())
}

// validUTF8Prefix reports whether b decodes as UTF-8, ignoring a rune the
// sample boundary may have cut short.
func validUTF8Prefix(b []byte) bool {
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size == 1 {
			if len(b) < utf8.UTFMax && !utf8.FullRune(b) {
				return true
			}
			return false
		}
		b = b[size:]
	}
	return true
}

// textColumnCandidates are tried in order when no column is named.
var textColumnCandidates = []string{"text", "message", "sms", "content", "body"}

// findTextColumn picks the column holding the text to score. An explicit
// preference must exist in the header; otherwise the first candidate name
// wins, compared case-insensitively.
func findTextColumn(header []string, preferred string) (int, error) {
	if preferred != "" {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), preferred) {
				return i, nil
			}
		}
		return 0, fmt.Errorf("text column %q not found in header", preferred)
	}
	for _, candidate := range textColumnCandidates {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), candidate) {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("no text column found, expected one of %s or an explicit column name",
		strings.Join(textColumnCandidates, ", "))
}
