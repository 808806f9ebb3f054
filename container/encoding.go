package container

import "fmt"

// Encoding is the closed set of output formats the pipeline can produce.
type Encoding int32

const (
	_ Encoding = iota
	EncodingAVIF
	EncodingJPEG
)

func (e Encoding) String() string {
	switch e {
	case EncodingAVIF:
		return "avif"
	case EncodingJPEG:
		return "jpeg"
	default:
		return fmt.Sprintf("UNKNOWN ENCODING %d", e)
	}
}

func (e Encoding) Mime() string {
	switch e {
	case EncodingAVIF:
		return MimeAVIF
	case EncodingJPEG:
		return MimeJPEG
	default:
		return ""
	}
}

// Ext returns the file extension without the dot.
func (e Encoding) Ext() string {
	switch e {
	case EncodingAVIF:
		return "avif"
	case EncodingJPEG:
		return "jpg"
	default:
		return ""
	}
}

// ParseEncoding maps a request string to an Encoding. Parsing happens once at
// the boundary; everything past it works with the variant.
func ParseEncoding(s string) (Encoding, error) {
	switch s {
	case "avif":
		return EncodingAVIF, nil
	case "jpeg", "jpg":
		return EncodingJPEG, nil
	default:
		return 0, fmt.Errorf("unknown encoding %q", s)
	}
}
