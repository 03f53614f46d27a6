package fasta

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
)

// Record is one FASTA entry. Header is the text after '>' with surrounding
// whitespace removed; Residues is the concatenation of its sequence lines.
type Record struct {
	Header   string
	Residues []byte
}

const maxLine = 64 * 1024 * 1024 // allow very long single-line sequences (64 MiB)

// Parse scans FASTA from r and calls emit for every record. Lines before the
// first header are ignored. Residues passed to emit are owned by the callee.
func Parse(ctx context.Context, r io.Reader, emit func(Record) error) error {
	sc := bufio.NewScanner(r)
	buf := make([]byte, 64*1024)
	sc.Buffer(buf, maxLine)

	var (
		header  string
		seq     = make([]byte, 0, 1<<16)
		inEntry bool
	)

	flush := func() error {
		if !inEntry {
			return nil
		}
		return emit(Record{Header: header, Residues: append([]byte(nil), seq...)})
	}

	for sc.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' {
			if err := flush(); err != nil {
				return err
			}
			header = string(bytes.TrimSpace(line[1:]))
			seq = seq[:0]
			inEntry = true
			continue
		}
		if inEntry {
			seq = append(seq, bytes.TrimSpace(line)...)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("fasta scan: %w", err)
	}
	return flush()
}
