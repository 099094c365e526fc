package viz

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/born-ml/born/tensor"
	xdraw "golang.org/x/image/draw"
)

const filterPad = 1 // pixels between filter cells

// FilterGrid renders a convolution kernel tensor ([out, in, kh, kw]) as
// a grayscale grid PNG, one cell per output channel, averaged over input
// channels and min-max normalized per cell. scale upscales the grid with
// nearest-neighbour interpolation so 5x5 kernels stay legible.
func FilterGrid[B tensor.Backend](path string, weights *tensor.Tensor[float32, B], scale int) error {
	shape := weights.Shape()
	if len(shape) != 4 {
		return fmt.Errorf("viz: filter tensor must be 4D [out, in, kh, kw], got %v", shape)
	}
	if scale <= 0 {
		scale = 1
	}
	out, in, kh, kw := shape[0], shape[1], shape[2], shape[3]
	data := weights.Raw().AsFloat32()

	// Near-square grid layout.
	cols := 1
	for cols*cols < out {
		cols++
	}
	rows := (out + cols - 1) / cols

	width := cols*(kw+filterPad) + filterPad
	height := rows*(kh+filterPad) + filterPad
	img := image.NewGray(image.Rect(0, 0, width, height))

	cell := make([]float32, kh*kw)
	for f := 0; f < out; f++ {
		// Average the kernel over input channels.
		for i := range cell {
			cell[i] = 0
		}
		for c := 0; c < in; c++ {
			base := (f*in + c) * kh * kw
			for i := range cell {
				cell[i] += data[base+i]
			}
		}

		lo, hi := cell[0], cell[0]
		for _, v := range cell[1:] {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		span := hi - lo
		if span == 0 {
			span = 1
		}

		x0 := filterPad + (f%cols)*(kw+filterPad)
		y0 := filterPad + (f/cols)*(kh+filterPad)
		for y := 0; y < kh; y++ {
			for x := 0; x < kw; x++ {
				v := (cell[y*kw+x] - lo) / span
				img.SetGray(x0+x, y0+y, color.Gray{Y: uint8(v * 255)})
			}
		}
	}

	scaled := image.NewGray(image.Rect(0, 0, width*scale, height*scale))
	xdraw.NearestNeighbor.Scale(scaled, scaled.Bounds(), img, img.Bounds(), xdraw.Src, nil)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("viz: create %s: %w", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, scaled); err != nil {
		return fmt.Errorf("viz: encode %s: %w", path, err)
	}
	return nil
}
