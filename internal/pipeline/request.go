package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"

	"imgsizer/container"
	"imgsizer/internal/resize"
)

// Request is one unit of pipeline work: a source image on disk, the target
// size and the output encoding. The encode parameters come from the
// process-wide config.
type Request struct {
	ID       string
	Source   string
	Spec     resize.Spec
	Encoding container.Encoding
}

// Encoded is the pipeline's output, consumed by a front end and discarded.
type Encoded struct {
	Bytes    []byte
	Encoding container.Encoding
	Width    int
	Height   int

	// Name is the source stem with the encoding's extension, used for
	// Content-Disposition and file naming.
	Name string
	// ETag is a hex digest of Bytes.
	ETag string
}

func (e *Encoded) String() string {
	return fmt.Sprintf("%s %dx%d (%d bytes)", e.Encoding, e.Width, e.Height, len(e.Bytes))
}

func outputName(source string, enc container.Encoding) string {
	base := filepath.Base(source)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = base
	}

	return stem + "." + enc.Ext()
}
