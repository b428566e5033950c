package gtfs

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
)

// SerializeIndex encodes an Index to bytes using gob encoding.
// NewIndexFromConfig uses it for disk-based caching so a restart does not
// re-parse and re-group the static feed.
//
// Example:
//
//	index, _ := gtfs.NewIndexFromBytes(zipBytes, "AGENCY")
//	data, err := gtfs.SerializeIndex(index)
//	if err != nil {
//	    // handle error
//	}
//	os.WriteFile("/path/to/cache/index.gob", data, 0644)
func SerializeIndex(index *Index) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(index); err != nil {
		return nil, fmt.Errorf("failed to encode Index: %w", err)
	}
	return buf.Bytes(), nil
}

// DeserializeIndex decodes an Index previously produced by SerializeIndex.
//
// Thread safety: The returned index is safe for concurrent read access.
func DeserializeIndex(data []byte) (*Index, error) {
	var index Index
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&index); err != nil {
		return nil, fmt.Errorf("failed to decode Index: %w", err)
	}
	if index.Patterns == nil {
		index.Patterns = map[string]*Pattern{}
	}
	if index.TripPattern == nil {
		index.TripPattern = map[string]string{}
	}
	return &index, nil
}

// SerializeIndexToFile writes an Index to path. The file is replaced
// atomically so a concurrent reader never sees a torn cache.
func SerializeIndexToFile(index *Index, path string) error {
	data, err := SerializeIndex(index)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".gtfs-index-*")
	if err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// DeserializeIndexFromFile reads an Index written by SerializeIndexToFile.
// A missing file is reported with an error satisfying os.IsNotExist.
//
// Example:
//
//	index, err := gtfs.DeserializeIndexFromFile("/cache/gtfs-index.gob")
//	if err != nil {
//	    // Cache miss or corrupted, fetch fresh data
//	    index, _ = gtfs.NewIndexFromBytes(freshZipBytes, "AGENCY")
//	}
func DeserializeIndexFromFile(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DeserializeIndex(data)
}
