// Package dump writes distributed-vector contents out of the process:
// plain and MATLAB-formatted text for debugging and visualization, and
// snapshot export to pluggable storage sinks (local filesystem, S3,
// MinIO) with optional compression.
//
// Every function here is collective: all ranks of the vector's group
// must call it, and the gathered data is emitted by the root rank
// alone.
package dump

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hupe1980/distvec"
	"github.com/hupe1980/distvec/resource"
	"github.com/hupe1980/distvec/scalar"
)

// Format selects the snapshot encoding.
type Format uint8

const (
	// FormatPlain is one value per line, preceded by a size header.
	FormatPlain Format = iota
	// FormatMatlab is a MATLAB column-vector assignment.
	FormatMatlab
	// FormatBinary is the little-endian binary layout below.
	FormatBinary
)

// Binary snapshot layout:
// [magic uint32][version uint8][count uint64][values...]
// Values are raw little-endian scalars of the vector's element type.
const (
	binaryMagic   uint32 = 0x44564543 // "DVEC"
	binaryVersion uint8  = 1
)

// Fprint writes the full global vector to w as plain text, one value
// per line. Output is produced on rank 0 only; other ranks participate
// in the gather and write nothing. Collective.
func Fprint[T scalar.Scalar](w io.Writer, v *distvec.Vector[T]) error {
	vals, err := v.LocalizeToOne(0)
	if err != nil {
		return err
	}
	if vals == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "Size %d\n", len(vals)); err != nil {
		return err
	}
	for i, x := range vals {
		if _, err := fmt.Fprintf(w, "%d\t%v\n", i, x); err != nil {
			return err
		}
	}
	return nil
}

// FprintMatlab writes the full global vector to w as a MATLAB column
// vector named name. Output is produced on rank 0 only. Collective.
func FprintMatlab[T scalar.Scalar](w io.Writer, v *distvec.Vector[T], name string) error {
	if name == "" {
		name = "v"
	}
	vals, err := v.LocalizeToOne(0)
	if err != nil {
		return err
	}
	if vals == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "%s = [\n", name); err != nil {
		return err
	}
	for _, x := range vals {
		if _, err := fmt.Fprintf(w, "  %v;\n", x); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintln(w, "];")
	return err
}

// Options configures Export.
type Options struct {
	// Format selects the snapshot encoding. Default FormatBinary.
	Format Format

	// Compression wraps the encoded snapshot. Default CompressionNone.
	Compression Compression

	// Root is the rank that gathers and uploads. Default 0.
	Root int

	// Resources throttles the upload (transfer slot plus byte rate).
	// Nil disables throttling.
	Resources *resource.Controller
}

// Export gathers the full global vector onto the root rank, encodes
// it in the configured format and writes it to snk under name (plus a
// compression suffix, if any). Non-root ranks participate in the
// gather and return after it. Collective.
func Export[T scalar.Scalar](ctx context.Context, snk Sink, name string, v *distvec.Vector[T], optFns ...func(*Options)) error {
	opts := Options{
		Format:      FormatBinary,
		Compression: CompressionNone,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	vals, err := v.LocalizeToOne(opts.Root)
	if err != nil {
		return err
	}
	if vals == nil {
		return nil
	}

	var plain bytes.Buffer
	if err := encode(&plain, opts.Format, vals); err != nil {
		return err
	}

	payload, err := compress(plain.Bytes(), opts.Compression)
	if err != nil {
		return err
	}

	if err := opts.Resources.AcquireTransfer(ctx); err != nil {
		return err
	}
	defer opts.Resources.ReleaseTransfer()
	if err := opts.Resources.AcquireIO(ctx, len(payload)); err != nil {
		return err
	}

	return snk.Put(ctx, name+opts.Compression.Suffix(), bytes.NewReader(payload))
}

func encode[T scalar.Scalar](w io.Writer, format Format, vals []T) error {
	switch format {
	case FormatPlain:
		if _, err := fmt.Fprintf(w, "Size %d\n", len(vals)); err != nil {
			return err
		}
		for i, x := range vals {
			if _, err := fmt.Fprintf(w, "%d\t%v\n", i, x); err != nil {
				return err
			}
		}
		return nil
	case FormatMatlab:
		if _, err := fmt.Fprintln(w, "v = ["); err != nil {
			return err
		}
		for _, x := range vals {
			if _, err := fmt.Fprintf(w, "  %v;\n", x); err != nil {
				return err
			}
		}
		_, err := fmt.Fprintln(w, "];")
		return err
	case FormatBinary:
		if err := binary.Write(w, binary.LittleEndian, binaryMagic); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, binaryVersion); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, uint64(len(vals))); err != nil {
			return err
		}
		return binary.Write(w, binary.LittleEndian, vals)
	default:
		return fmt.Errorf("dump: unknown format %d", format)
	}
}
