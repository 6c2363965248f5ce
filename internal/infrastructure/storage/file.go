package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

const (
	plainExt      = ".json"
	compressedExt = ".json.zst"
)

// File stores each key as a file under a directory. Writes go to a temp
// file that is renamed into place, so a crash never leaves a torn layout.
type File struct {
	dir      string
	compress bool
	encoder  *zstd.Encoder
	decoder  *zstd.Decoder
}

// NewFile creates the directory if needed. With compress set, values are
// written zstd-compressed; both encodings are readable either way.
func NewFile(dir string, compress bool) (*File, error) {
	if dir == "" {
		return nil, errors.New("file backend requires a directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("failed to init zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("failed to init zstd decoder: %w", err)
	}

	return &File{dir: dir, compress: compress, encoder: encoder, decoder: decoder}, nil
}

// Get implements Backend
func (f *File) Get(_ context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.path(key, true))
	if err == nil {
		out, derr := f.decoder.DecodeAll(data, nil)
		if derr != nil {
			return nil, fmt.Errorf("failed to decompress %s: %w", key, derr)
		}
		return out, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}

	data, err = os.ReadFile(f.path(key, false))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

// Put implements Backend
func (f *File) Put(_ context.Context, key string, value []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}

	payload := value
	if f.compress {
		payload = f.encoder.EncodeAll(value, nil)
	}

	tmp, err := os.CreateTemp(f.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", key, err)
	}
	if err := os.Rename(tmpName, f.path(key, f.compress)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", key, err)
	}

	// Drop the other encoding so a stale copy never shadows this write
	_ = os.Remove(f.path(key, !f.compress))
	return nil
}

// Delete implements Backend
func (f *File) Delete(_ context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	for _, compressed := range []bool{true, false} {
		if err := os.Remove(f.path(key, compressed)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to delete %s: %w", key, err)
		}
	}
	return nil
}

// Close implements Backend
func (f *File) Close() error {
	f.decoder.Close()
	return f.encoder.Close()
}

func (f *File) path(key string, compressed bool) string {
	if compressed {
		return filepath.Join(f.dir, key+compressedExt)
	}
	return filepath.Join(f.dir, key+plainExt)
}
