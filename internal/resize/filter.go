package resize

import (
	"fmt"

	"github.com/disintegration/imaging"
)

// Filter names a resampling kernel. The set is closed; parsing happens once
// at the boundary.
type Filter string

const (
	FilterBilinear   Filter = "bilinear"
	FilterBox        Filter = "box"
	FilterCatmullRom Filter = "catmullrom"
	FilterGaussian   Filter = "gaussian"
	FilterHamming    Filter = "hamming"
	FilterLanczos3   Filter = "lanczos3"
	FilterMitchell   Filter = "mitchell"
)

var kernels = map[Filter]imaging.ResampleFilter{
	FilterBilinear:   imaging.Linear,
	FilterBox:        imaging.Box,
	FilterCatmullRom: imaging.CatmullRom,
	FilterGaussian:   imaging.Gaussian,
	FilterHamming:    imaging.Hamming,
	FilterLanczos3:   imaging.Lanczos,
	FilterMitchell:   imaging.MitchellNetravali,
}

func ParseFilter(s string) (Filter, error) {
	f := Filter(s)
	if _, ok := kernels[f]; !ok {
		return "", fmt.Errorf("unknown filter %q", s)
	}

	return f, nil
}

// Kernel returns the convolution kernel used by the resampler. Unknown
// filters fall back to Lanczos3.
func (f Filter) Kernel() imaging.ResampleFilter {
	k, ok := kernels[f]
	if !ok {
		return imaging.Lanczos
	}

	return k
}
