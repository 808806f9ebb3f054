// Package pipeline runs load, resize and encode strictly in order for one
// request at a time. The first failing stage aborts the rest; there is no
// partial recovery. Nothing here is shared between concurrent runs except
// the read-only encode config.
package pipeline

import (
	"bytes"
	"encoding/hex"
	"image"
	"image/jpeg"
	"math"
	"os"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/avif"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/crypto/sha3"

	// Source formats beyond imaging's built-ins.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"imgsizer/container"
	"imgsizer/internal/global"
	"imgsizer/internal/resize"
)

// Process runs the three stages for one request and returns the encoded
// output. The spec is validated before any image I/O so a bad request never
// allocates a raster.
func Process(gCtx global.Context, req Request) (out *Encoded, err error) {
	if req.ID == "" {
		req.ID = uuid.New().String()
	}

	if err := req.Spec.Validate(); err != nil {
		return nil, &ResizeError{Message: err.Error()}
	}

	filter, perr := resize.ParseFilter(gCtx.Config().Encode.Filter)
	if perr != nil {
		return nil, &ResizeError{Message: perr.Error()}
	}

	finish := gCtx.Inst().Prometheus.StartRequest()
	begin := time.Now()

	defer func() {
		finish(err == nil)
	}()

	original, err := load(gCtx, req)
	if err != nil {
		return nil, err
	}

	resized, err := resample(gCtx, req, original, filter)
	if err != nil {
		return nil, err
	}

	out, err = encode(gCtx, req, resized)
	if err != nil {
		return nil, err
	}

	zap.S().Debugw("request done",
		"request_id", req.ID,
		"elapsed", time.Since(begin),
		"output", out.String(),
	)

	return out, nil
}

// load decodes the source into an 8-bit RGBA raster. Any open or decode
// failure is a NotFound; callers cannot tell a missing file from a corrupt
// one, which is deliberate.
func load(gCtx global.Context, req Request) (*image.NRGBA, error) {
	done := gCtx.Inst().Prometheus.LoadImage()
	defer done()

	begin := time.Now()

	f, err := os.Open(req.Source)
	if err != nil {
		zap.S().Debugw("source not openable",
			"request_id", req.ID,
			"error", err,
		)
		return nil, ErrNotFound
	}

	decoded, err := imaging.Decode(f, imaging.AutoOrientation(true))
	if err = multierr.Append(err, f.Close()); err != nil {
		zap.S().Debugw("source not decodable",
			"request_id", req.ID,
			"error", err,
		)
		return nil, ErrNotFound
	}

	// Clone normalizes any decoded color model to NRGBA, adding an opaque
	// alpha channel when the source has none.
	rgba := imaging.Clone(decoded)

	zap.S().Debugw("loaded image",
		"request_id", req.ID,
		"elapsed", time.Since(begin),
		"width", rgba.Bounds().Dx(),
		"height", rgba.Bounds().Dy(),
	)

	return rgba, nil
}

// resample resolves the target dimensions and produces a raster of exactly
// that size. The old raster is dropped here; stages own their buffers.
func resample(gCtx global.Context, req Request, original *image.NRGBA, filter resize.Filter) (*image.NRGBA, error) {
	done := gCtx.Inst().Prometheus.ResizeImage()
	defer done()

	begin := time.Now()

	width, height, err := req.Spec.Resolve(original.Bounds().Dx(), original.Bounds().Dy())
	if err != nil {
		return nil, &ResizeError{Message: err.Error()}
	}

	resized := imaging.Resize(original, width, height, filter.Kernel())
	if resized.Bounds().Dx() != width || resized.Bounds().Dy() != height {
		return nil, &ResizeError{Message: "resampler returned wrong dimensions"}
	}

	zap.S().Debugw("resized",
		"request_id", req.ID,
		"elapsed", time.Since(begin),
		"width", width,
		"height", height,
		"filter", filter,
	)

	return resized, nil
}

func encode(gCtx global.Context, req Request, resized *image.NRGBA) (*Encoded, error) {
	done := gCtx.Inst().Prometheus.EncodeImage()
	defer done()

	begin := time.Now()

	quality := int(math.Round(gCtx.Config().Encode.Quality))

	buf := bytes.Buffer{}

	var err error
	switch req.Encoding {
	case container.EncodingAVIF:
		err = avif.Encode(&buf, resized, avif.Options{
			Quality: quality,
			Speed:   gCtx.Config().Encode.Speed,
		})
	case container.EncodingJPEG:
		err = jpeg.Encode(&buf, resized, &jpeg.Options{Quality: quality})
	default:
		return nil, &ResizeError{Message: "no output encoding selected"}
	}
	if err != nil {
		return nil, &ResizeError{Message: err.Error()}
	}

	h := sha3.New512()
	_, _ = h.Write(buf.Bytes())

	out := &Encoded{
		Bytes:    buf.Bytes(),
		Encoding: req.Encoding,
		Width:    resized.Bounds().Dx(),
		Height:   resized.Bounds().Dy(),
		Name:     outputName(req.Source, req.Encoding),
		ETag:     hex.EncodeToString(h.Sum(nil)),
	}

	gCtx.Inst().Prometheus.TotalBytesEmitted(len(out.Bytes))

	zap.S().Debugw("encoded image",
		"request_id", req.ID,
		"elapsed", time.Since(begin),
		"kilobytes", float64(len(out.Bytes))/1024.0,
	)

	return out, nil
}
