package persistence

import (
	"bytes"
	"fmt"
	"io"

	"github.com/hupe1980/saidx/internal/corpus"
	"github.com/hupe1980/saidx/internal/interval"
	"github.com/hupe1980/saidx/internal/mph"
	"github.com/hupe1980/saidx/internal/suffixarray"
)

// Sequences is the decoded content of txpInfo.bin.
type Sequences[T suffixarray.Offset] struct {
	Names  []string
	Starts []T
	Text   []byte
}

func width[T suffixarray.Offset]() uint8 { return uint8(suffixarray.WidthOf[T]()) }

func checkWidth[T suffixarray.Offset](h FileHeader) error {
	if h.Width != width[T]() {
		return fmt.Errorf("%w: %s artifact has %d-bit offsets, want %d-bit", ErrInvalidWidth, h.Kind, h.Width, width[T]())
	}
	return nil
}

// PeekWidth returns the offset width recorded in an artifact header without
// verifying the body.
func PeekWidth(data []byte) (suffixarray.Width, error) {
	h, err := NewSliceReader(data).ReadFileHeader()
	if err != nil {
		return 0, err
	}
	switch w := suffixarray.Width(h.Width); w {
	case suffixarray.Width32, suffixarray.Width64:
		return w, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrInvalidWidth, h.Width)
	}
}

// WriteSuffixArray encodes sa.bin.
func WriteSuffixArray[T suffixarray.Offset](w io.Writer, sa []T) error {
	bw := NewWriter(w)
	_ = bw.WriteHeader(FileHeader{Kind: KindSuffixArray, Width: width[T](), Count: uint64(len(sa))})
	_ = WriteSlice(bw, sa)
	return bw.Close()
}

// ReadSuffixArray decodes sa.bin.
func ReadSuffixArray[T suffixarray.Offset](data []byte, verify bool) ([]T, error) {
	h, r, err := Open(data, KindSuffixArray, verify)
	if err != nil {
		return nil, err
	}
	if err := checkWidth[T](h); err != nil {
		return nil, err
	}
	return ReadView[T](r, h.Count)
}

// WriteDense encodes hash.bin as the raw slot arrays of d.
func WriteDense[T suffixarray.Offset](w io.Writer, d *interval.Dense[T]) error {
	keys, vals := d.Slots()
	bw := NewWriter(w)
	_ = bw.WriteHeader(FileHeader{Kind: KindDenseHash, Width: width[T](), Count: uint64(len(keys)), Aux: uint64(d.Len())})
	_ = WriteSlice(bw, keys)
	_ = WriteSlice(bw, vals)
	return bw.Close()
}

// ReadDense decodes hash.bin.
func ReadDense[T suffixarray.Offset](data []byte, verify bool) (*interval.Dense[T], error) {
	h, r, err := Open(data, KindDenseHash, verify)
	if err != nil {
		return nil, err
	}
	if err := checkWidth[T](h); err != nil {
		return nil, err
	}
	keys, err := ReadView[uint64](r, h.Count)
	if err != nil {
		return nil, err
	}
	vals, err := ReadView[interval.Interval[T]](r, h.Count)
	if err != nil {
		return nil, err
	}
	d, err := interval.DenseFromSlots(keys, vals)
	if err != nil {
		return nil, err
	}
	if uint64(d.Len()) != h.Aux {
		return nil, fmt.Errorf("persistence: dense table holds %d entries, header says %d", d.Len(), h.Aux)
	}
	return d, nil
}

// WritePerfectInfo encodes hash_info.bin: keys and intervals in hash order.
func WritePerfectInfo[T suffixarray.Offset](w io.Writer, p *interval.Perfect[T]) error {
	keys, vals := p.Entries()
	bw := NewWriter(w)
	_ = bw.WriteHeader(FileHeader{Kind: KindPerfectInfo, Width: width[T](), Count: uint64(len(keys))})
	_ = WriteSlice(bw, keys)
	_ = WriteSlice(bw, vals)
	return bw.Close()
}

// WritePerfectMPH encodes hash_info.mph: the perfect hash function.
func WritePerfectMPH(w io.Writer, table *mph.Table) error {
	var body bytes.Buffer
	if _, err := table.WriteTo(&body); err != nil {
		return err
	}
	bw := NewWriter(w)
	_ = bw.WriteHeader(FileHeader{Kind: KindPerfectMPH, Count: table.Len(), Aux: uint64(body.Len())})
	_ = bw.WriteBytes(body.Bytes())
	return bw.Close()
}

// ReadPerfect decodes the two hash_info artifacts.
func ReadPerfect[T suffixarray.Offset](info, table []byte, verify bool) (*interval.Perfect[T], error) {
	h, r, err := Open(info, KindPerfectInfo, verify)
	if err != nil {
		return nil, err
	}
	if err := checkWidth[T](h); err != nil {
		return nil, err
	}
	keys, err := ReadView[uint64](r, h.Count)
	if err != nil {
		return nil, err
	}
	vals, err := ReadView[interval.Interval[T]](r, h.Count)
	if err != nil {
		return nil, err
	}

	th, tr, err := Open(table, KindPerfectMPH, verify)
	if err != nil {
		return nil, err
	}
	body, err := tr.ReadBytes(int(th.Aux))
	if err != nil {
		return nil, err
	}
	t, err := mph.ReadFrom(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	return interval.PerfectFrom(t, keys, vals)
}

// WriteBoundaries encodes rsd.bin around the bit vector's native format.
func WriteBoundaries(w io.Writer, b *corpus.Boundaries) error {
	var body bytes.Buffer
	if _, err := b.WriteTo(&body); err != nil {
		return err
	}
	bw := NewWriter(w)
	_ = bw.WriteHeader(FileHeader{Kind: KindBoundaries, Count: b.Len(), Aux: uint64(body.Len())})
	_ = bw.WriteBytes(body.Bytes())
	return bw.Close()
}

// ReadBoundaries decodes rsd.bin.
func ReadBoundaries(data []byte, verify bool) (*corpus.Boundaries, error) {
	h, r, err := Open(data, KindBoundaries, verify)
	if err != nil {
		return nil, err
	}
	body, err := r.ReadBytes(int(h.Aux))
	if err != nil {
		return nil, err
	}
	b, err := corpus.ReadBoundaries(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	if b.Len() != h.Count {
		return nil, fmt.Errorf("persistence: boundary vector has %d bits, header says %d", b.Len(), h.Count)
	}
	return b, nil
}

// WriteSequences encodes txpInfo.bin: start offsets, name offsets, the name
// bytes and finally the corpus text.
func WriteSequences[T suffixarray.Offset](w io.Writer, c *corpus.Corpus) error {
	starts := make([]T, len(c.Starts))
	for i, s := range c.Starts {
		starts[i] = T(s)
	}
	nameEnds := make([]uint64, len(c.Names))
	var names []byte
	for i, n := range c.Names {
		names = append(names, n...)
		nameEnds[i] = uint64(len(names))
	}

	bw := NewWriter(w)
	_ = bw.WriteHeader(FileHeader{Kind: KindSequences, Width: width[T](), Count: uint64(len(c.Names)), Aux: uint64(len(c.Text))})
	_ = WriteSlice(bw, nameEnds)
	_ = WriteSlice(bw, starts)
	_ = bw.WriteBytes(names)
	_ = bw.WriteBytes(c.Text)
	return bw.Close()
}

// ReadSequences decodes txpInfo.bin. Text aliases data.
func ReadSequences[T suffixarray.Offset](data []byte, verify bool) (*Sequences[T], error) {
	h, r, err := Open(data, KindSequences, verify)
	if err != nil {
		return nil, err
	}
	if err := checkWidth[T](h); err != nil {
		return nil, err
	}
	nameEnds, err := ReadView[uint64](r, h.Count)
	if err != nil {
		return nil, err
	}
	starts, err := ReadView[T](r, h.Count)
	if err != nil {
		return nil, err
	}
	var total uint64
	if len(nameEnds) > 0 {
		total = nameEnds[len(nameEnds)-1]
	}
	names, err := r.ReadBytes(int(total))
	if err != nil {
		return nil, err
	}
	text, err := r.ReadBytes(int(h.Aux))
	if err != nil {
		return nil, err
	}

	s := &Sequences[T]{Names: make([]string, h.Count), Starts: starts, Text: text}
	var prev uint64
	for i, end := range nameEnds {
		if end < prev || end > total {
			return nil, fmt.Errorf("%w: name %d ends at %d", ErrTruncated, i, end)
		}
		s.Names[i] = string(names[prev:end])
		prev = end
	}
	return s, nil
}
