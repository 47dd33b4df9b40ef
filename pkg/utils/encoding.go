package utils

import (
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// NewUTF8Reader wraps r so that a leading UTF-8 byte order mark is dropped
// before the first header name is read.
func NewUTF8Reader(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.UTF8BOM.NewDecoder())
}
