// Package app implements the backend-agnostic frame loop: open and
// decode a KRB file, resolve it, then repeatedly poll input, lay out,
// draw, and present — the same PollEvents -> Layout -> Draw structure
// the teacher's Run loop drives, generalized to take any backend.Backend
// instead of a single renderer implementation.
package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/kryonlabs/kryon-runtime/backend"
	"github.com/kryonlabs/kryon-runtime/krb"
	"github.com/kryonlabs/kryon-runtime/layout"
	"github.com/kryonlabs/kryon-runtime/registry"
	"github.com/kryonlabs/kryon-runtime/resolve"
	"github.com/kryonlabs/kryon-runtime/resource"
)

// Config holds everything Run needs beyond the backend itself.
type Config struct {
	KrbFilePath string
	Registry    *registry.Registry
	Logger      *zap.Logger

	// ScaleFactor overrides the document's resolved WindowConfig.ScaleFactor
	// when positive, the CLI's "-scale" override over whatever the KRB
	// file's App element itself declared.
	ScaleFactor float32
}

// Run drives the single-threaded, synchronous application loop: decode
// once up front, then every frame PollEvents -> (dispatch input against
// the previous frame's resolved tree, if the backend supports it) ->
// Layout -> Draw -> present. There are no goroutines in the hot path;
// the I/O happens before the loop: reading the KRB file and decoding
// every resource once in preloadTextures (later Loader lookups hit its
// cache).
func Run(b backend.Backend, cfg Config) error {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	runID := uuid.New().String()
	log = log.With(zap.String("run_id", runID))

	doc, err := loadDocument(cfg.KrbFilePath)
	if err != nil {
		return err
	}
	for _, w := range doc.Warnings {
		log.Warn("decode warning", zap.Error(w))
	}

	baseDir := filepath.Dir(cfg.KrbFilePath)
	res, err := resolve.Resolve(doc, baseDir)
	if err != nil {
		return fmt.Errorf("app: resolving document: %w", err)
	}
	for _, w := range res.Warnings {
		log.Warn("resolve warning", zap.Error(w))
	}
	if cfg.ScaleFactor > 0 {
		res.Config.ScaleFactor = cfg.ScaleFactor
	}

	loader := resource.NewLoaderWithLogger(doc, baseDir, log)
	preloadTextures(b, doc, loader, log)

	winCfg := backend.Config{
		Width:       res.Config.Width,
		Height:      res.Config.Height,
		Title:       res.Config.Title,
		Resizable:   res.Config.Resizable,
		ScaleFactor: res.Config.ScaleFactor,
		ClearColor:  res.Config.DefaultBg,
	}
	if err := b.Init(winCfg); err != nil {
		return fmt.Errorf("app: initializing backend: %w", err)
	}
	defer b.Cleanup()

	log.Info("entering main loop", zap.String("file", cfg.KrbFilePath))

	for !b.ShouldClose() {
		b.PollEvents()
		if dispatcher, ok := b.(backend.EventDispatcher); ok {
			dispatcher.DispatchEvents(res.Roots, doc)
		}

		if err := layout.Layout(res.Roots, res.Config, b, loader, cfg.Registry, doc); err != nil {
			log.Warn("custom component layout adjustment failed", zap.Error(err))
		}

		b.BeginFrame()
		b.Draw(res.Roots)
		b.EndFrame()
	}

	log.Info("exiting")
	return nil
}

func loadDocument(path string) (*krb.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("app: opening %q: %w", path, err)
	}
	defer f.Close()

	doc, err := krb.ReadDocument(f)
	if err != nil {
		return nil, fmt.Errorf("app: decoding %q: %w", path, err)
	}
	return doc, nil
}

// preloadTextures walks every entry of the document's resource table
// once up front, whether or not an element references it, handing decoded
// pixels to the backend's
// LoadTexture. A failed load is logged and otherwise ignored — the
// owning element keeps its resolved geometry and simply draws without
// its image, per the "failed texture still lays out" edge case.
func preloadTextures(b backend.Backend, doc *krb.Document, loader *resource.Loader, log *zap.Logger) {
	seen := make(map[uint8]bool)
	var errs error
	for idx := range doc.Resources {
		resIdx := uint8(idx)
		if seen[resIdx] {
			continue
		}
		seen[resIdx] = true
		img, err := loader.Load(resIdx)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		pixels := toRGBA(img)
		if _, err := b.LoadTexture(resIdx, pixels, img.Width, img.Height); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	if errs != nil {
		for _, e := range multierr.Errors(errs) {
			log.Warn("texture preload failed", zap.Error(e))
		}
	}
}

func toRGBA(img *resource.Image) []byte {
	bounds := img.Pixels.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := make([]byte, 0, w*h*4)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, bl, a := img.Pixels.At(x, y).RGBA()
			out = append(out, byte(r>>8), byte(g>>8), byte(bl>>8), byte(a>>8))
		}
	}
	return out
}
