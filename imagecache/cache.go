// Package imagecache persists generated images keyed by a hash of the exact
// prompt, so identical prompts never hit the provider twice for the lifetime
// of the cache directory.
package imagecache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/mathgym/comicpdf/imagegen"
)

// FetchFunc produces encoded image bytes for a prompt on a cache miss.
type FetchFunc func(prompt string) ([]byte, error)

// Cache is a content-addressed store on disk with an in-memory decode layer.
// Writes are atomic (temp file in the same directory, then rename), so
// concurrent workers sharing the directory never observe a partial entry.
type Cache struct {
	dir string
	mem *gocache.Cache
}

// New creates the cache directory if needed.
func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return &Cache{
		dir: dir,
		mem: gocache.New(1*time.Hour, 10*time.Minute),
	}, nil
}

// Key returns the cache filename stem for a prompt: the first 128 bits of
// SHA-256 over the exact prompt string, hex-encoded.
func Key(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:16])
}

// Get returns the cached raster for the prompt, fetching and persisting it
// on a miss. A corrupt cache file is evicted and refetched, never surfaced.
func (c *Cache) Get(prompt string, fetch FetchFunc) (*imagegen.Raster, error) {
	key := Key(prompt)

	if v, ok := c.mem.Get(key); ok {
		return v.(*imagegen.Raster), nil
	}

	path := filepath.Join(c.dir, key+".png")
	if data, err := os.ReadFile(path); err == nil {
		raster, decodeErr := imagegen.DecodeRaster(data)
		if decodeErr == nil {
			c.mem.Set(key, raster, gocache.DefaultExpiration)
			return raster, nil
		}
		log.Printf("evicting corrupt cache entry %s: %v", key, decodeErr)
		if rmErr := os.Remove(path); rmErr != nil {
			log.Printf("removing corrupt cache entry %s: %v", key, rmErr)
		}
	}

	data, err := fetch(prompt)
	if err != nil {
		return nil, err
	}
	raster, err := imagegen.DecodeRaster(data)
	if err != nil {
		return nil, fmt.Errorf("fetched image not decodable: %w", err)
	}
	if err := c.writeAtomic(path, data); err != nil {
		// The image is good even if persisting it failed; log and move on.
		log.Printf("persisting cache entry %s: %v", key, err)
	}
	c.mem.Set(key, raster, gocache.DefaultExpiration)
	return raster, nil
}

// writeAtomic stages the entry in the cache directory and renames it into
// place, so a crash mid-write never leaves a partial entry visible.
func (c *Cache) writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(c.dir, ".pending-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming into place: %w", err)
	}
	return nil
}
