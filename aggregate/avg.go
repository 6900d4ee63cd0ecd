// Package aggregate holds mergeable aggregation states.
package aggregate

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// Sum is the set of accumulator types. Narrower inputs are widened to one
// of these by the caller so that sums do not overflow early.
type Sum interface {
	~int64 | ~uint64 | ~float64
}

// Avg is the state of an arithmetic mean: a running sum and a count.
// The zero value is an empty average.
type Avg[T Sum] struct {
	Sum   T
	Count uint64
}

// Add accumulates one value.
func (a *Avg[T]) Add(v T) {
	a.Sum += v
	a.Count++
}

// Merge folds other into a.
func (a *Avg[T]) Merge(other Avg[T]) {
	a.Sum += other.Sum
	a.Count += other.Count
}

// Result returns Sum/Count as float64. Callers check Count first; an empty
// average yields NaN.
func (a Avg[T]) Result() float64 {
	return float64(a.Sum) / float64(a.Count)
}

// WriteTo writes the sum as 8 little-endian bytes followed by the count as
// an unsigned varint.
func (a Avg[T]) WriteTo(w io.Writer) (int64, error) {
	var buf [8 + binary.MaxVarintLen64]byte
	binary.LittleEndian.PutUint64(buf[:8], sumBits(a.Sum))
	n := 8 + binary.PutUvarint(buf[8:], a.Count)
	written, err := w.Write(buf[:n])
	return int64(written), err
}

// ReadFrom reads a state written by WriteTo, replacing a. It reads exactly
// the bytes of one state.
func (a *Avg[T]) ReadFrom(r io.Reader) (int64, error) {
	var buf [8]byte
	n, err := io.ReadFull(r, buf[:])
	if err != nil {
		return int64(n), fmt.Errorf("aggregate: read sum: %w", err)
	}

	br, ok := r.(io.ByteReader)
	if !ok {
		br = &singleByteReader{r: r}
	}
	cr := &countingByteReader{r: br}
	count, err := binary.ReadUvarint(cr)
	total := int64(n + cr.n)
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return total, fmt.Errorf("aggregate: read count: %w", err)
	}

	a.Sum = sumFromBits[T](binary.LittleEndian.Uint64(buf[:]))
	a.Count = count
	return total, nil
}

func sumBits[T Sum](v T) uint64 {
	var zero T
	if isFloat(zero) {
		return math.Float64bits(float64(v))
	}
	if isSigned(zero) {
		return uint64(int64(v))
	}
	return uint64(v)
}

func sumFromBits[T Sum](bits uint64) T {
	var zero T
	if isFloat(zero) {
		return T(math.Float64frombits(bits))
	}
	if isSigned(zero) {
		return T(int64(bits))
	}
	return T(bits)
}

// isFloat reports whether T is a floating-point type.
func isFloat[T Sum](zero T) bool {
	half := zero + 1
	half /= 2
	return half != 0
}

func isSigned[T Sum](zero T) bool {
	return zero-1 < 0
}

type singleByteReader struct {
	r   io.Reader
	buf [1]byte
}

func (s *singleByteReader) ReadByte() (byte, error) {
	if _, err := io.ReadFull(s.r, s.buf[:]); err != nil {
		return 0, err
	}
	return s.buf[0], nil
}

type countingByteReader struct {
	r io.ByteReader
	n int
}

func (c *countingByteReader) ReadByte() (byte, error) {
	b, err := c.r.ReadByte()
	if err == nil {
		c.n++
	}
	return b, err
}
