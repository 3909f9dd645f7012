package importer

import (
	"bytes"
	"io"

	"github.com/csimplestring/go-csv/detector"
)

// Only the start of a file is inspected when guessing its delimiter.
const sniffBytes = 64 << 10

// DetermineDelimiter returns the single most likely rune that would delimit the
// values in the reader, assuming a CSV-like file.
func DetermineDelimiter(r io.Reader) rune {
	d := detector.New()
	delimiters := d.DetectDelimiter(r, '"')

	if len(delimiters) > 0 && len(delimiters[0]) > 0 {
		return rune(delimiters[0][0])
	}

	return ','
}

// sniff guesses the delimiter from the first lines of data.
func sniff(data []byte) rune {
	if len(data) > sniffBytes {
		data = data[:sniffBytes]
		if i := bytes.LastIndexByte(data, '\n'); i > 0 {
			data = data[:i+1]
		}
	}
	return DetermineDelimiter(bytes.NewReader(data))
}
