package dump

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Sink is a write-only destination for exported snapshots.
type Sink interface {
	// Put stores the contents of r under name, replacing any previous
	// object of that name.
	Put(ctx context.Context, name string, r io.Reader) error
}

// Compression selects the codec applied to an encoded snapshot before
// it reaches the sink.
type Compression uint8

const (
	// CompressionNone stores the snapshot as encoded.
	CompressionNone Compression = iota
	// CompressionLZ4 favors speed.
	CompressionLZ4
	// CompressionZSTD favors ratio.
	CompressionZSTD
)

// Suffix returns the conventional file-name suffix for the codec.
func (c Compression) Suffix() string {
	switch c {
	case CompressionLZ4:
		return ".lz4"
	case CompressionZSTD:
		return ".zst"
	default:
		return ""
	}
}

func compress(data []byte, c Compression) ([]byte, error) {
	switch c {
	case CompressionNone:
		return data, nil
	case CompressionLZ4:
		var buf bytes.Buffer
		zw := lz4.NewWriter(&buf)
		if _, err := zw.Write(data); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case CompressionZSTD:
		var buf bytes.Buffer
		zw, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, err
		}
		if _, err := zw.Write(data); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("dump: unknown compression %d", c)
	}
}

// Decompress reverses the codec chosen at export time. Callers reading
// a snapshot back pick the codec from the name suffix.
func Decompress(data []byte, c Compression) ([]byte, error) {
	switch c {
	case CompressionNone:
		return data, nil
	case CompressionLZ4:
		return io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
	case CompressionZSTD:
		zr, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return io.ReadAll(zr)
	default:
		return nil, fmt.Errorf("dump: unknown compression %d", c)
	}
}
