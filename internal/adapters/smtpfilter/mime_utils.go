package smtpfilter

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
)

// extractText pulls the scorable text out of an email message. Multipart
// messages contribute their text/plain parts; anything else, including
// unparseable Content-Type headers, degrades to the raw body. Attachments
// and nested multiparts are skipped, the classifier only sees prose.
func extractText(msg *mail.Message) (string, error) {
	contentType := msg.Header.Get("Content-Type")

	if !strings.Contains(strings.ToLower(contentType), "multipart/") {
		return readAllString(msg.Body)
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		return readAllString(msg.Body)
	}

	boundary, ok := params["boundary"]
	if !ok {
		return readAllString(msg.Body)
	}

	mr := multipart.NewReader(msg.Body, boundary)

	var text bytes.Buffer
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A malformed part ends the walk; keep whatever text was
			// collected before it.
			break
		}

		partType := strings.ToLower(part.Header.Get("Content-Type"))
		if strings.Contains(partType, "text/plain") {
			partBytes, err := io.ReadAll(part)
			if err != nil {
				continue
			}
			text.Write(partBytes)
			text.WriteString("\n")
		}
	}

	return text.String(), nil
}

func readAllString(r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeEncodedHeader decodes RFC 2047 encoded words in a header value,
// as in "=?UTF-8?B?...?=" subjects.
func decodeEncodedHeader(value string) (string, error) {
	if !strings.Contains(value, "=?") {
		return value, nil
	}
	dec := new(mime.WordDecoder)
	return dec.DecodeHeader(value)
}
