package bundle

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spamsift/spamsift/internal/core"
)

// Info describes the artifact file a bundle was loaded from. It feeds the
// health endpoint and the cache fingerprint.
type Info struct {
	Path         string        `json:"path"`
	SizeBytes    int64         `json:"size_bytes"`
	SHA256       string        `json:"sha256"`
	ModTime      time.Time     `json:"mtime"`
	LoadedAt     time.Time     `json:"loaded_at"`
	LoadDuration time.Duration `json:"-"`
}

// Load reads, decompresses and validates a bundle file. Paths ending in
// .gz are treated as gzip-compressed JSON. The SHA-256 digest always
// covers the on-disk bytes, compressed or not, so it matches what
// sha256sum reports for the file.
func Load(path string) (*Bundle, *Info, error) {
	start := time.Now()

	fi, err := os.Stat(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: stat %s: %v", core.ErrModelUnavailable, path, err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: read %s: %v", core.ErrModelUnavailable, path, err)
	}

	digest := sha256.Sum256(raw)

	data := raw
	if strings.HasSuffix(path, ".gz") {
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, nil, fmt.Errorf("%w: decompress %s: %v", core.ErrModelUnavailable, path, err)
		}
		data, err = io.ReadAll(zr)
		if cerr := zr.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return nil, nil, fmt.Errorf("%w: decompress %s: %v", core.ErrModelUnavailable, path, err)
		}
	}

	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, nil, fmt.Errorf("%w: decode %s: %v", core.ErrModelUnavailable, path, err)
	}
	if err := b.Validate(); err != nil {
		return nil, nil, err
	}

	info := &Info{
		Path:         path,
		SizeBytes:    fi.Size(),
		SHA256:       hex.EncodeToString(digest[:]),
		ModTime:      fi.ModTime(),
		LoadedAt:     start.UTC(),
		LoadDuration: time.Since(start),
	}
	return &b, info, nil
}
