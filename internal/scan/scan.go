// Package scan pulls encoded operation messages out of mixed log
// streams and summarizes them.
package scan

import (
	"bufio"
	"io"
	"os"

	"github.com/opline/opline/pkg/codec"
	"github.com/opline/opline/pkg/record"
)

// maxLineBytes caps the scanner buffer; longer lines abort the pass.
const maxLineBytes = 1 << 20

// Line is one decoded message with its position in the input.
type Line struct {
	Number int
	Family byte
	Record *record.Record
}

// Broken is a line that looked like a message but failed to decode.
type Broken struct {
	Number int
	Err    error
}

// Result aggregates one pass over a stream.
type Result struct {
	Lines   []Line
	Broken  []Broken
	Scanned int
}

// Reader decodes every plausible message in r. Lines carrying no message
// are skipped; lines that look like one but violate the grammar land in
// Broken instead of aborting the pass.
func Reader(r io.Reader) (*Result, error) {
	res := &Result{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for sc.Scan() {
		res.Scanned++
		rec, family, err := record.DecodeAny(sc.Text(), record.Tolerant())
		if err != nil {
			if codec.IsNotPlausible(err) {
				continue
			}
			res.Broken = append(res.Broken, Broken{Number: res.Scanned, Err: err})
			continue
		}
		res.Lines = append(res.Lines, Line{Number: res.Scanned, Family: family, Record: rec})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// File runs Reader over the named file.
func File(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Reader(f)
}
