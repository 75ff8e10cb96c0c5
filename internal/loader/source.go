package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

var (
	// ErrBadManifest marks a manifest that cannot be decoded or describes an
	// impossible object.
	ErrBadManifest = errors.New("invalid manifest")
	// ErrSource marks a source file that cannot be read or decoded.
	ErrSource = errors.New("invalid source")
	// ErrPasswordRequired is returned for encrypted sources when no password
	// was given.
	ErrPasswordRequired = errors.New("encrypted source needs a password")
)

// Compression is the container format of a source file.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionZstd Compression = "zstd"
	CompressionLZ4  Compression = "lz4"
)

// ParseCompression resolves a manifest compression value. An empty value
// derives it from the source file extension, looking past a trailing ".enc".
func ParseCompression(name, source string) (Compression, error) {
	switch strings.ToLower(name) {
	case "":
		ext := strings.ToLower(filepath.Ext(source))
		if ext == ".enc" {
			ext = strings.ToLower(filepath.Ext(strings.TrimSuffix(source, filepath.Ext(source))))
		}
		switch ext {
		case ".zst", ".zstd":
			return CompressionZstd, nil
		case ".lz4":
			return CompressionLZ4, nil
		}
		return CompressionNone, nil
	case "none":
		return CompressionNone, nil
	case "zstd":
		return CompressionZstd, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return "", fmt.Errorf("%w: unknown compression %q", ErrBadManifest, name)
	}
}

// payloadPath strips container extensions so the payload kind can be
// sniffed from what remains, e.g. "song.mid.zst" -> "song.mid".
func payloadPath(source string) string {
	for {
		ext := strings.ToLower(filepath.Ext(source))
		switch ext {
		case ".zst", ".zstd", ".lz4", ".enc":
			source = strings.TrimSuffix(source, filepath.Ext(source))
		default:
			return source
		}
	}
}

// readSource reads a source file, decrypting first and decompressing second.
func (l *loader) readSource(spec *ObjectSpec, source string) ([]byte, error) {
	if source == "" {
		return nil, fmt.Errorf("%w: object %q has no source", ErrBadManifest, spec.Name)
	}
	comp, err := ParseCompression(spec.Compression, source)
	if err != nil {
		return nil, err
	}

	path := source
	if !filepath.IsAbs(path) {
		path = filepath.Join(l.dir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSource, err)
	}
	l.logger.Debug("Read source", "path", path, "bytes", len(data), "compression", comp, "encrypted", spec.Encrypted)

	if spec.Encrypted {
		if l.password == "" {
			return nil, fmt.Errorf("%s: %w", source, ErrPasswordRequired)
		}
		if data, err = Open(data, l.password); err != nil {
			return nil, fmt.Errorf("%s: %w", source, err)
		}
	}

	data, err = decompress(data, comp)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSource, source, err)
	}
	l.raw.Log(path, data)
	return data, nil
}

func decompress(data []byte, comp Compression) ([]byte, error) {
	switch comp {
	case CompressionNone:
		return data, nil
	case CompressionZstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decoder: %w", err)
		}
		defer dec.Close()
		out, err := dec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		return out, nil
	case CompressionLZ4:
		out, err := io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported compression %q", comp)
	}
}

// Compress packs data in the given container format. It is the inverse of
// the source reader and is used to prepare compressed sources.
func Compress(data []byte, comp Compression) ([]byte, error) {
	switch comp {
	case CompressionNone:
		return data, nil
	case CompressionZstd:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, fmt.Errorf("zstd encoder: %w", err)
		}
		defer enc.Close()
		return enc.EncodeAll(data, nil), nil
	case CompressionLZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported compression %q", comp)
	}
}
