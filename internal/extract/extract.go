// Package extract implements the injected TextExtractor capability
// (spec.md §6: "TextExtractor(path, max_bytes) -> (mime, text | null)").
// The core only ever sees this interface; how the text was produced is an
// adapter concern.
package extract

import (
	"bytes"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// TextExtractor produces a MIME type and decoded text snippet for a file,
// or a nil text when the file is not textual. It must have no side effects.
type TextExtractor interface {
	Extract(path string, data []byte, maxBytes int) (mimeType string, text *string)
}

// Default combines plain decode-and-sniff behavior with AST-aware snippet
// extraction for recognized source languages (see codeExtractor). It is the
// TextExtractor the Scanner uses unless an adapter injects another one.
type Default struct {
	code *codeExtractor
}

// NewDefault builds the default extractor, wiring in AST-aware extraction
// for the chunker's registered languages.
func NewDefault() *Default {
	return &Default{code: newCodeExtractor()}
}

func (d *Default) Extract(path string, data []byte, maxBytes int) (string, *string) {
	if text := d.code.extract(path, data, maxBytes); text != nil {
		return codeMime(path), text
	}
	return plainExtract(path, data, maxBytes)
}

// plainExtract handles everything the code extractor doesn't recognize:
// it sniffs a MIME type, and if the type looks textual, decodes up to
// maxBytes, normalizing whitespace the way the original extractor did
// ("' '.join(text.split())") so downstream embedding sees dense text
// rather than raw formatting.
func plainExtract(path string, data []byte, maxBytes int) (string, *string) {
	mimeType := guessMime(path, data)
	if !looksTextual(mimeType) {
		return mimeType, nil
	}

	if len(data) > maxBytes {
		data = data[:maxBytes]
	}
	if !utf8.Valid(data) {
		data = toValidUTF8(data)
	}

	text := strings.Join(strings.Fields(string(data)), " ")
	if strings.TrimSpace(text) == "" {
		return mimeType, nil
	}
	return mimeType, &text
}

func guessMime(path string, data []byte) string {
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		if i := strings.Index(t, ";"); i >= 0 {
			t = t[:i]
		}
		return t
	}
	return http.DetectContentType(data)
}

func looksTextual(mimeType string) bool {
	for _, prefix := range []string{"text/", "application/json", "application/xml", "application/javascript", "application/x-yaml"} {
		if strings.HasPrefix(mimeType, prefix) {
			return true
		}
	}
	return false
}

// toValidUTF8 strips invalid byte sequences rather than rejecting the file,
// mirroring the original extractor's errors="ignore" decode policy.
func toValidUTF8(data []byte) []byte {
	var b bytes.Buffer
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r != utf8.RuneError {
			b.WriteRune(r)
		}
		data = data[size:]
	}
	return b.Bytes()
}

var _ TextExtractor = (*Default)(nil)
