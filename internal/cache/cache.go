// Package cache stores finished transcription results keyed by the
// upload's content digest, so re-uploading the same bytes skips the
// engine entirely. Entries are zstd-compressed JSON files.
package cache

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"audioscribe/internal/model"
)

const entrySuffix = ".json.zst"

type Cache struct {
	dir     string
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	return &Cache{dir: dir, encoder: encoder, decoder: decoder}, nil
}

// Get returns the cached result for key, or ok=false on a miss. A
// corrupt entry reads as a miss.
func (c *Cache) Get(key string) (model.TranscriptionResponse, bool) {
	compressed, err := os.ReadFile(c.entryPath(key))
	if err != nil {
		return model.TranscriptionResponse{}, false
	}
	data, err := c.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return model.TranscriptionResponse{}, false
	}
	var result model.TranscriptionResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return model.TranscriptionResponse{}, false
	}
	return result, true
}

// Put stores the result under key. The write goes through a temp file
// and rename so concurrent readers never see a partial entry.
func (c *Cache) Put(key string, result model.TranscriptionResponse) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(result); err != nil {
		return err
	}
	compressed := c.encoder.EncodeAll(buf.Bytes(), nil)

	tmp, err := os.CreateTemp(c.dir, "entry-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(compressed); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), c.entryPath(key))
}

type Stats struct {
	Entries   int
	SizeBytes int64
	Directory string
}

func (c *Cache) Stats() (Stats, error) {
	entries, err := c.list()
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{Entries: len(entries), Directory: c.dir}
	for _, path := range entries {
		if info, err := os.Stat(path); err == nil {
			stats.SizeBytes += info.Size()
		}
	}
	return stats, nil
}

// Clear removes every entry and reports how many were deleted.
func (c *Cache) Clear() (int, error) {
	entries, err := c.list()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, path := range entries {
		if err := os.Remove(path); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func (c *Cache) list() ([]string, error) {
	return filepath.Glob(filepath.Join(c.dir, "*"+entrySuffix))
}

func (c *Cache) entryPath(key string) string {
	return filepath.Join(c.dir, key+entrySuffix)
}
