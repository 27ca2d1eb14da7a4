package vectorstore

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

// Binary index layout: uint32 dimension, uint64 vector count, then
// count*dimension float32 values, all little-endian.

// writeVectors serializes the vector index blob.
func writeVectors(path string, dim int, vectors [][]float32) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	w := bufio.NewWriter(f)

	header := make([]byte, 12)
	binary.LittleEndian.PutUint32(header[0:], uint32(dim))
	binary.LittleEndian.PutUint64(header[4:], uint64(len(vectors)))
	if _, err := w.Write(header); err != nil {
		return err
	}

	buf := make([]byte, 4)
	for _, v := range vectors {
		for _, val := range v {
			binary.LittleEndian.PutUint32(buf, math.Float32bits(val))
			if _, err := w.Write(buf); err != nil {
				return err
			}
		}
	}

	if err := w.Flush(); err != nil {
		return err
	}
	return f.Sync()
}

// readVectors deserializes the vector index blob.
func readVectors(path string) (int, [][]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = f.Close() }()

	r := bufio.NewReader(f)

	header := make([]byte, 12)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, nil, fmt.Errorf("failed to read index header: %w", err)
	}
	dim := int(binary.LittleEndian.Uint32(header[0:]))
	count := binary.LittleEndian.Uint64(header[4:])

	if dim <= 0 {
		return 0, nil, fmt.Errorf("invalid index dimension %d", dim)
	}

	vectors := make([][]float32, 0, count)
	row := make([]byte, dim*4)
	for i := uint64(0); i < count; i++ {
		if _, err := io.ReadFull(r, row); err != nil {
			return 0, nil, fmt.Errorf("failed to read vector %d: %w", i, err)
		}
		v := make([]float32, dim)
		for j := range v {
			v[j] = math.Float32frombits(binary.LittleEndian.Uint32(row[j*4:]))
		}
		vectors = append(vectors, v)
	}

	return dim, vectors, nil
}
