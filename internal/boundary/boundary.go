// Package boundary serves the static administrative boundary layers.
package boundary

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Levels lists the layers that exist on disk, one file per level.
var Levels = []string{"local", "district", "province"}

var (
	ErrNotFound = errors.New("boundary data not found")
	ErrUnknown  = errors.New("unknown boundary level")
)

// Layer is the raw FeatureCollection of one level plus its entity tag.
type Layer struct {
	Level string
	Data  json.RawMessage
	ETag  string
}

type Reader struct {
	dir   string
	cache *lru.Cache[string, Layer]
}

func NewReader(dir string, cacheSize int) *Reader {
	if cacheSize <= 0 {
		cacheSize = len(Levels)
	}
	c, _ := lru.New[string, Layer](cacheSize)
	return &Reader{dir: dir, cache: c}
}

func ValidLevel(level string) bool {
	for _, l := range Levels {
		if l == level {
			return true
		}
	}
	return false
}

// Read returns <dir>/<level>.geojson. Missing files yield ErrNotFound and are
// re-checked on every call; successfully read files are kept in memory.
func (r *Reader) Read(level string) (Layer, error) {
	if !ValidLevel(level) {
		return Layer{}, fmt.Errorf("%w: %q", ErrUnknown, level)
	}
	if l, ok := r.cache.Get(level); ok {
		return l, nil
	}

	b, err := os.ReadFile(filepath.Join(r.dir, level+".geojson"))
	if errors.Is(err, fs.ErrNotExist) {
		return Layer{}, fmt.Errorf("%w: %s", ErrNotFound, level)
	}
	if err != nil {
		return Layer{}, fmt.Errorf("read boundary %s: %w", level, err)
	}
	if !json.Valid(b) {
		return Layer{}, fmt.Errorf("boundary %s: malformed JSON", level)
	}

	l := Layer{
		Level: level,
		Data:  json.RawMessage(b),
		ETag:  strconv.Quote(strconv.FormatUint(xxhash.Sum64(b), 16)),
	}
	r.cache.Add(level, l)
	return l, nil
}
