// Package resource loads the pixel data behind a KRB document's image
// resources — external files resolved relative to the KRB file's own
// directory, or inline byte blobs carried in the resource table itself —
// and decodes/sniffs them independently of any rendering backend. A
// Backend asks a Loader for a decoded Image by resource index and turns
// it into its own texture handle; resource never imports package backend.
package resource

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
	"go.uber.org/zap"

	"github.com/kryonlabs/kryon-runtime/krb"
)

// Image is a decoded resource: the natural pixel dimensions (needed by
// layout.ImageSizer even when a backend hasn't uploaded a texture yet)
// plus the pixel data itself.
type Image struct {
	Width, Height int
	Pixels        image.Image
}

// LoadError records a resource that failed to decode; it is never fatal
// to the surrounding document — the owning element keeps its resolved
// size and position and simply draws nothing, matching the "failed
// texture still lays out" edge case.
type LoadError struct {
	ResourceIndex uint8
	Err           error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("resource: failed to load resource %d: %v", e.ResourceIndex, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Loader decodes and caches a document's image resources by index,
// resolving external resources relative to baseDir (typically the
// directory containing the .krb file being run).
type Loader struct {
	doc     *krb.Document
	baseDir string
	log     *zap.Logger

	mu     sync.RWMutex
	cache  map[uint8]*Image
	failed map[uint8]error
}

func NewLoader(doc *krb.Document, baseDir string) *Loader {
	return NewLoaderWithLogger(doc, baseDir, zap.NewNop())
}

// NewLoaderWithLogger is the constructor a running application uses to
// route decode-failure warnings into its own structured logger instead
// of the no-op default tests use.
func NewLoaderWithLogger(doc *krb.Document, baseDir string, log *zap.Logger) *Loader {
	return &Loader{
		doc:     doc,
		baseDir: baseDir,
		log:     log,
		cache:   make(map[uint8]*Image),
		failed:  make(map[uint8]error),
	}
}

// Load decodes resource index idx, caching the result (success or
// failure) so repeated lookups (e.g. one per element sharing an image)
// do not re-read or re-decode the file.
func (l *Loader) Load(idx uint8) (*Image, error) {
	l.mu.RLock()
	if img, ok := l.cache[idx]; ok {
		l.mu.RUnlock()
		return img, nil
	}
	if err, ok := l.failed[idx]; ok {
		l.mu.RUnlock()
		return nil, err
	}
	l.mu.RUnlock()

	img, err := l.load(idx)

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		wrapped := &LoadError{ResourceIndex: idx, Err: err}
		l.failed[idx] = wrapped
		l.log.Warn("resource load failed, element will draw without it",
			zap.Uint8("resource_index", idx), zap.Error(err))
		return nil, wrapped
	}
	l.cache[idx] = img
	return img, nil
}

func (l *Loader) load(idx uint8) (*Image, error) {
	if int(idx) >= len(l.doc.Resources) {
		return nil, fmt.Errorf("resource index %d out of bounds (have %d)", idx, len(l.doc.Resources))
	}
	res := l.doc.Resources[idx]
	if res.Type != krb.ResTypeImage {
		return nil, fmt.Errorf("resource %d is not an image (type %d)", idx, res.Type)
	}

	var raw []byte
	switch res.Format {
	case krb.ResFormatExternal:
		if int(res.DataStringIndex) >= len(l.doc.Strings) {
			return nil, fmt.Errorf("resource %d: external name string index %d out of bounds", idx, res.DataStringIndex)
		}
		name := l.doc.Strings[res.DataStringIndex]
		path := name
		if !filepath.IsAbs(path) {
			path = filepath.Join(l.baseDir, name)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading external resource %q: %w", path, err)
		}
		raw = data
	case krb.ResFormatInline:
		if len(res.InlineData) == 0 {
			return nil, fmt.Errorf("resource %d: inline data empty", idx)
		}
		raw = res.InlineData
	default:
		return nil, fmt.Errorf("resource %d: unknown format %d", idx, res.Format)
	}

	kind, err := filetype.Match(raw)
	if err != nil || kind == filetype.Unknown {
		return nil, fmt.Errorf("resource %d: could not sniff image type: %w", idx, err)
	}

	decoded, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("resource %d: decoding %s image: %w", idx, kind.Extension, err)
	}

	bounds := decoded.Bounds()
	return &Image{Width: bounds.Dx(), Height: bounds.Dy(), Pixels: decoded}, nil
}

// NaturalSize implements layout.ImageSizer: a failed or not-yet-loaded
// resource reports ok=false so layout falls back to its 1x1 floor rather
// than aborting.
func (l *Loader) NaturalSize(resourceIndex uint8) (w, h float32, ok bool) {
	img, err := l.Load(resourceIndex)
	if err != nil {
		return 0, 0, false
	}
	return float32(img.Width), float32(img.Height), true
}
