package resize

import (
	"fmt"
	"math"
)

type Mode int32

const (
	_ Mode = iota
	ModeWidth
	ModeHeight
	ModeWidthAndHeight
	ModeScale
)

// Spec is the requested target size: an exact width and/or height, or a
// uniform scale factor. Exactly one variant is set per request.
type Spec struct {
	mode   Mode
	width  int
	height int
	scale  float64
}

func Width(w int) Spec {
	return Spec{mode: ModeWidth, width: w}
}

func Height(h int) Spec {
	return Spec{mode: ModeHeight, height: h}
}

// WidthAndHeight requests exact dimensions. The source aspect ratio is not
// preserved; the image stretches to fit.
func WidthAndHeight(w, h int) Spec {
	return Spec{mode: ModeWidthAndHeight, width: w, height: h}
}

func Scale(factor float64) Spec {
	return Spec{mode: ModeScale, scale: factor}
}

func (s Spec) Mode() Mode { return s.mode }

func (s Spec) String() string {
	switch s.mode {
	case ModeWidth:
		return fmt.Sprintf("width=%d", s.width)
	case ModeHeight:
		return fmt.Sprintf("height=%d", s.height)
	case ModeWidthAndHeight:
		return fmt.Sprintf("%dx%d", s.width, s.height)
	case ModeScale:
		return fmt.Sprintf("scale=%g", s.scale)
	default:
		return "unset"
	}
}

// Validate rejects a Spec before any image I/O happens.
func (s Spec) Validate() error {
	switch s.mode {
	case ModeWidth:
		if s.width <= 0 {
			return fmt.Errorf("width %d must be positive", s.width)
		}
	case ModeHeight:
		if s.height <= 0 {
			return fmt.Errorf("height %d must be positive", s.height)
		}
	case ModeWidthAndHeight:
		if s.width <= 0 || s.height <= 0 {
			return fmt.Errorf("dimensions %dx%d must be positive", s.width, s.height)
		}
	case ModeScale:
		if s.scale <= 0 {
			return fmt.Errorf("scale %g must be positive", s.scale)
		}
	default:
		return fmt.Errorf("no resize target given")
	}

	return nil
}

// Resolve maps the source dimensions to concrete target dimensions. Derived
// dimensions round half away from zero so outputs are reproducible; a result
// that rounds to zero is an error, not a zero-sized buffer.
func (s Spec) Resolve(sw, sh int) (int, int, error) {
	if sw <= 0 || sh <= 0 {
		return 0, 0, fmt.Errorf("source dimensions %dx%d must be positive", sw, sh)
	}

	if err := s.Validate(); err != nil {
		return 0, 0, err
	}

	var w, h int

	switch s.mode {
	case ModeWidth:
		ar := float64(sw) / float64(sh)
		w, h = s.width, round(float64(s.width)/ar)
	case ModeHeight:
		ar := float64(sw) / float64(sh)
		w, h = round(float64(s.height)*ar), s.height
	case ModeWidthAndHeight:
		w, h = s.width, s.height
	case ModeScale:
		w, h = round(float64(sw)*s.scale), round(float64(sh)*s.scale)
	}

	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("target %dx%d for %s on %dx%d source rounds to zero", w, h, s, sw, sh)
	}

	return w, h, nil
}

func round(f float64) int {
	return int(math.Round(f))
}
