package server

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"imgsizer/container"
	"imgsizer/internal/resize"
)

const routePrefix = "/images/resized/"

// escapes reports whether an image segment would resolve outside the image
// directory.
func escapes(image string) bool {
	return image == "" || image == "." || image == ".." || image != filepath.Base(image)
}

// Route shapes, all GET:
//
//	/images/resized/{width}/{height}/{image}[/{encoding}]
//	/images/resized/width/{width}/{image}[/{encoding}]
//	/images/resized/height/{height}/{image}[/{encoding}]
//	/images/resized/scale/{scale}/{image}[/{encoding}]
//
// A missing encoding segment means AVIF.
func parsePath(path string) (resize.Spec, string, container.Encoding, error) {
	var spec resize.Spec

	rest, ok := strings.CutPrefix(path, routePrefix)
	if !ok {
		return spec, "", 0, errors.New("unknown path")
	}

	parts := strings.Split(rest, "/")
	if len(parts) != 3 && len(parts) != 4 {
		return spec, "", 0, errors.New("unknown path")
	}

	switch parts[0] {
	case "width":
		w, err := strconv.Atoi(parts[1])
		if err != nil {
			return spec, "", 0, fmt.Errorf("bad width %q", parts[1])
		}
		spec = resize.Width(w)
	case "height":
		h, err := strconv.Atoi(parts[1])
		if err != nil {
			return spec, "", 0, fmt.Errorf("bad height %q", parts[1])
		}
		spec = resize.Height(h)
	case "scale":
		f, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return spec, "", 0, fmt.Errorf("bad scale %q", parts[1])
		}
		spec = resize.Scale(f)
	default:
		w, werr := strconv.Atoi(parts[0])
		h, herr := strconv.Atoi(parts[1])
		if werr != nil || herr != nil {
			return spec, "", 0, fmt.Errorf("bad dimensions %q/%q", parts[0], parts[1])
		}
		spec = resize.WidthAndHeight(w, h)
	}

	image := parts[2]

	encoding := container.EncodingAVIF
	if len(parts) == 4 {
		var err error
		encoding, err = container.ParseEncoding(parts[3])
		if err != nil {
			return spec, "", 0, err
		}
	}

	return spec, image, encoding, nil
}
