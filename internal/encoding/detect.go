// Package encoding turns uploaded ledger files of unknown charset into UTF-8.
package encoding

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const sniffSize = 4096

var bomUTF8 = []byte{0xEF, 0xBB, 0xBF}

// NewUTF8Reader returns a reader that yields r decoded to UTF-8.
//
// A UTF-8 BOM is dropped and UTF-16 BOMs select the matching decoder. Input
// that is already valid UTF-8 passes through. Otherwise chardet picks a
// single-byte charset, falling back to Windows-1252.
func NewUTF8Reader(r io.Reader) (io.Reader, error) {
	br := bufio.NewReaderSize(r, sniffSize)
	buf, err := br.Peek(sniffSize)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("peek: %w", err)
	}

	switch {
	case bytes.HasPrefix(buf, bomUTF8):
		_, _ = br.Discard(len(bomUTF8))
		return br, nil
	case bytes.HasPrefix(buf, []byte{0xFF, 0xFE}):
		return decode(br, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)), nil
	case bytes.HasPrefix(buf, []byte{0xFE, 0xFF}):
		return decode(br, unicode.UTF16(unicode.BigEndian, unicode.UseBOM)), nil
	}

	if utf8.Valid(trimPartialRune(buf)) {
		return br, nil
	}

	if res, err := chardet.NewTextDetector().DetectBest(buf); err == nil {
		switch res.Charset {
		case "UTF-8":
			return br, nil
		case "ISO-8859-9":
			return decode(br, charmap.ISO8859_9), nil
		case "ISO-8859-15":
			return decode(br, charmap.ISO8859_15), nil
		}
	}
	return decode(br, charmap.Windows1252), nil
}

func decode(r io.Reader, enc encoding.Encoding) io.Reader {
	return transform.NewReader(r, enc.NewDecoder())
}

// trimPartialRune drops a multi-byte sequence cut off by the sniff window.
func trimPartialRune(b []byte) []byte {
	for i := 1; i <= utf8.UTFMax && i <= len(b); i++ {
		c := b[len(b)-i]
		if utf8.RuneStart(c) {
			if !utf8.FullRune(b[len(b)-i:]) {
				return b[:len(b)-i]
			}
			break
		}
	}
	return b
}
