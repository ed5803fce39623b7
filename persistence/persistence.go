// Package persistence provides a compact binary snapshot format for numeric
// arrays produced by the analysis: sensitivity maps and captured activations.
//
// Snapshots are self-describing. The header carries a magic number, format
// version, the codec name used for the payload, the tensor shape and a
// CRC-32C checksum of the compressed payload, all little-endian. Readers
// resolve the codec by name, so files written with any built-in codec load
// without configuration.
package persistence

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/hupe1980/repsim/codec"
	"github.com/hupe1980/repsim/tensor"
)

const (
	// MagicNumber identifies repsim snapshot files ("RSIM").
	MagicNumber uint32 = 0x5253494D
	// Version is the current snapshot format version.
	Version uint16 = 1

	maxRank = 4
)

var (
	// ErrBadMagic indicates that the input is not a repsim snapshot.
	ErrBadMagic = errors.New("persistence: bad magic number")
	// ErrUnsupportedVersion indicates a snapshot written by a newer format.
	ErrUnsupportedVersion = errors.New("persistence: unsupported format version")
	// ErrChecksum indicates payload corruption.
	ErrChecksum = errors.New("persistence: checksum mismatch")
	// ErrUnknownCodec indicates a codec name this build cannot resolve.
	ErrUnknownCodec = errors.New("persistence: unknown codec")
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// Save writes t to w using c for payload compression.
// A nil codec falls back to codec.Default.
func Save(w io.Writer, t *tensor.Dense, c codec.Codec) error {
	if c == nil {
		c = codec.Default
	}

	raw := make([]byte, 8*t.Len())
	for i, v := range t.Data() {
		binary.LittleEndian.PutUint64(raw[i*8:], math.Float64bits(v))
	}
	payload, err := c.Compress(raw)
	if err != nil {
		return fmt.Errorf("persistence: compress: %w", err)
	}

	if err := writeHeader(w, t.Shape(), c.Name(), payload); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("persistence: write payload: %w", err)
	}
	return nil
}

func writeHeader(w io.Writer, shape []int, codecName string, payload []byte) error {
	var scratch [8]byte

	binary.LittleEndian.PutUint32(scratch[:4], MagicNumber)
	binary.LittleEndian.PutUint16(scratch[4:6], Version)
	if _, err := w.Write(scratch[:6]); err != nil {
		return fmt.Errorf("persistence: write header: %w", err)
	}

	if _, err := w.Write([]byte{byte(len(codecName))}); err != nil {
		return fmt.Errorf("persistence: write header: %w", err)
	}
	if _, err := w.Write([]byte(codecName)); err != nil {
		return fmt.Errorf("persistence: write header: %w", err)
	}

	if _, err := w.Write([]byte{byte(len(shape))}); err != nil {
		return fmt.Errorf("persistence: write header: %w", err)
	}
	for _, d := range shape {
		binary.LittleEndian.PutUint32(scratch[:4], uint32(d))
		if _, err := w.Write(scratch[:4]); err != nil {
			return fmt.Errorf("persistence: write header: %w", err)
		}
	}

	binary.LittleEndian.PutUint64(scratch[:], uint64(len(payload)))
	if _, err := w.Write(scratch[:]); err != nil {
		return fmt.Errorf("persistence: write header: %w", err)
	}
	binary.LittleEndian.PutUint32(scratch[:4], crc32.Checksum(payload, castagnoli))
	if _, err := w.Write(scratch[:4]); err != nil {
		return fmt.Errorf("persistence: write header: %w", err)
	}
	return nil
}

// Load reads a snapshot written by Save.
func Load(r io.Reader) (*tensor.Dense, error) {
	var scratch [8]byte

	if _, err := io.ReadFull(r, scratch[:6]); err != nil {
		return nil, fmt.Errorf("persistence: read header: %w", err)
	}
	if binary.LittleEndian.Uint32(scratch[:4]) != MagicNumber {
		return nil, ErrBadMagic
	}
	if v := binary.LittleEndian.Uint16(scratch[4:6]); v > Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}

	if _, err := io.ReadFull(r, scratch[:1]); err != nil {
		return nil, fmt.Errorf("persistence: read header: %w", err)
	}
	name := make([]byte, scratch[0])
	if _, err := io.ReadFull(r, name); err != nil {
		return nil, fmt.Errorf("persistence: read header: %w", err)
	}
	c, ok := codec.ByName(string(name))
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, string(name))
	}

	if _, err := io.ReadFull(r, scratch[:1]); err != nil {
		return nil, fmt.Errorf("persistence: read header: %w", err)
	}
	rank := int(scratch[0])
	if rank < 1 || rank > maxRank {
		return nil, fmt.Errorf("persistence: invalid rank %d", rank)
	}
	shape := make([]int, rank)
	n := 1
	for i := range shape {
		if _, err := io.ReadFull(r, scratch[:4]); err != nil {
			return nil, fmt.Errorf("persistence: read header: %w", err)
		}
		shape[i] = int(binary.LittleEndian.Uint32(scratch[:4]))
		n *= shape[i]
	}

	if _, err := io.ReadFull(r, scratch[:]); err != nil {
		return nil, fmt.Errorf("persistence: read header: %w", err)
	}
	payloadLen := binary.LittleEndian.Uint64(scratch[:])
	if _, err := io.ReadFull(r, scratch[:4]); err != nil {
		return nil, fmt.Errorf("persistence: read header: %w", err)
	}
	sum := binary.LittleEndian.Uint32(scratch[:4])

	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("persistence: read payload: %w", err)
	}
	if crc32.Checksum(payload, castagnoli) != sum {
		return nil, ErrChecksum
	}

	raw, err := c.Decompress(payload)
	if err != nil {
		return nil, fmt.Errorf("persistence: decompress: %w", err)
	}
	if len(raw) != 8*n {
		return nil, fmt.Errorf("persistence: payload holds %d bytes, shape %v needs %d", len(raw), shape, 8*n)
	}

	data := make([]float64, n)
	for i := range data {
		data[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8:]))
	}
	return tensor.NewWithData(data, shape...), nil
}

// SaveFile atomically writes a snapshot to path: the bytes go to a temporary
// file in the same directory which is fsynced and renamed into place.
func SaveFile(path string, t *tensor.Dense, c codec.Codec) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("persistence: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Save(tmp, t, c); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("persistence: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("persistence: close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("persistence: rename: %w", err)
	}
	return nil
}

// LoadFile reads a snapshot from path.
func LoadFile(path string) (*tensor.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("persistence: open: %w", err)
	}
	defer f.Close()
	return Load(f)
}
