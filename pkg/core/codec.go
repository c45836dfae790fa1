package core

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Method names the codec applied to every entry of an archive
type Method string

const (
	MethodZstd    Method = "zstd"
	MethodDeflate Method = "deflate"
	MethodLZ4     Method = "lz4"
	MethodStore   Method = "store"
)

// zipMethodLZ4 is a private ZIP method id for LZ4 frames. Archives using it
// are only readable by cachebak.
const zipMethodLZ4 uint16 = 0x4c34

// Methods lists the supported codecs in preference order.
var Methods = []Method{MethodZstd, MethodDeflate, MethodLZ4, MethodStore}

// ParseMethod parses a codec name. The empty string selects zstd.
func ParseMethod(name string) (Method, error) {
	if name == "" {
		return MethodZstd, nil
	}
	for _, m := range Methods {
		if string(m) == name {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMethod, name)
}

// zipMethod returns the ZIP header method id for m
func (m Method) zipMethod() (uint16, error) {
	switch m {
	case MethodZstd, "":
		return zstd.ZipMethodWinZip, nil
	case MethodDeflate:
		return zip.Deflate, nil
	case MethodLZ4:
		return zipMethodLZ4, nil
	case MethodStore:
		return zip.Store, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, string(m))
	}
}

// compressor builds the ZIP compressor for m at the given level.
// Level 0 always means the codec's default.
func (m Method) compressor(level int) (zip.Compressor, error) {
	switch m {
	case MethodZstd, "":
		if level < 0 || level > 22 {
			return nil, fmt.Errorf("%w: zstd accepts 0-22, got %d", ErrInvalidLevel, level)
		}
		encLevel := zstd.SpeedDefault
		if level > 0 {
			encLevel = zstd.EncoderLevelFromZstd(level)
		}
		return zstd.ZipCompressor(zstd.WithEncoderLevel(encLevel)), nil

	case MethodDeflate:
		if level < 0 || level > 9 {
			return nil, fmt.Errorf("%w: deflate accepts 0-9, got %d", ErrInvalidLevel, level)
		}
		flateLevel := flate.DefaultCompression
		if level > 0 {
			flateLevel = level
		}
		return func(w io.Writer) (io.WriteCloser, error) {
			return flate.NewWriter(w, flateLevel)
		}, nil

	case MethodLZ4:
		if level < 0 || level > 9 {
			return nil, fmt.Errorf("%w: lz4 accepts 0-9, got %d", ErrInvalidLevel, level)
		}
		lzLevel := lz4Levels[level]
		return func(w io.Writer) (io.WriteCloser, error) {
			zw := lz4.NewWriter(w)
			if err := zw.Apply(lz4.CompressionLevelOption(lzLevel)); err != nil {
				return nil, fmt.Errorf("configure lz4 writer: %w", err)
			}
			return zw, nil
		}, nil

	case MethodStore:
		return nil, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, string(m))
	}
}

var lz4Levels = [...]lz4.CompressionLevel{
	lz4.Fast,
	lz4.Level1, lz4.Level2, lz4.Level3,
	lz4.Level4, lz4.Level5, lz4.Level6,
	lz4.Level7, lz4.Level8, lz4.Level9,
}

// registerCompressor installs the configured codec on w and returns the
// method id to stamp on every header.
func registerCompressor(w *zip.Writer, m Method, level int) (uint16, error) {
	id, err := m.zipMethod()
	if err != nil {
		return 0, err
	}
	comp, err := m.compressor(level)
	if err != nil {
		return 0, err
	}
	if comp != nil {
		w.RegisterCompressor(id, comp)
	}
	return id, nil
}

// registerDecompressors makes every supported codec readable from r.
// Deflate and store are built into the zip package.
func registerDecompressors(r *zip.Reader) {
	zstdDec := zstd.ZipDecompressor()
	r.RegisterDecompressor(zstd.ZipMethodWinZip, zstdDec)
	r.RegisterDecompressor(zstd.ZipMethodPKWare, zstdDec)
	r.RegisterDecompressor(zipMethodLZ4, func(in io.Reader) io.ReadCloser {
		return io.NopCloser(lz4.NewReader(in))
	})
}
