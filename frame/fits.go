package frame

import (
	"fmt"
	"io"

	"github.com/astrogo/fitsio"
)

// WriteFITS streams a frame to w as a 64-bit float FITS image.  Extra header
// cards are appended before the data.
func WriteFITS(w io.Writer, f Frame, cards ...fitsio.Card) error {
	return WriteFITSStack(w, []Frame{f}, cards...)
}

// WriteFITSStack streams a stack of equally shaped frames to w as a FITS cube
// (a plain 2D image when the stack has a single frame).
func WriteFITSStack(w io.Writer, frames []Frame, cards ...fitsio.Card) error {
	if len(frames) == 0 {
		return fmt.Errorf("cannot write an empty stack")
	}
	first := frames[0]
	fits, err := fitsio.Create(w)
	if err != nil {
		return err
	}
	defer fits.Close()
	dims := []int{first.W, first.H}
	if len(frames) > 1 {
		dims = append(dims, len(frames))
	}
	im := fitsio.NewImage(-64, dims)
	defer im.Close()
	err = im.Header().Append(cards...)
	if err != nil {
		return err
	}
	buf := make([]float64, 0, first.W*first.H*len(frames))
	for _, f := range frames {
		if !first.SameShape(f) {
			return ErrShapeMismatch{Op: "write stack", WantW: first.W, WantH: first.H, GotW: f.W, GotH: f.H}
		}
		buf = append(buf, f.Data...)
	}
	err = im.Write(&buf)
	if err != nil {
		return err
	}
	return fits.Write(im)
}

// ReadFITS reads a single frame from r.  Cubes yield their first plane.
func ReadFITS(r io.Reader) (Frame, error) {
	frames, err := ReadFITSStack(r)
	if err != nil {
		return Frame{}, err
	}
	return frames[0], nil
}

// ReadFITSStack reads a 2D image or a 3D cube from r into a stack of frames.
func ReadFITSStack(r io.Reader) ([]Frame, error) {
	fits, err := fitsio.Open(r)
	if err != nil {
		return nil, err
	}
	defer fits.Close()
	hdu := fits.HDU(0)
	img, ok := hdu.(fitsio.Image)
	if !ok {
		return nil, fmt.Errorf("primary HDU is not an image")
	}
	axes := img.Header().Axes()
	if len(axes) != 2 && len(axes) != 3 {
		return nil, fmt.Errorf("expected a 2D image or 3D cube, got NAXIS=%d", len(axes))
	}
	w, h := axes[0], axes[1]
	n := 1
	if len(axes) == 3 {
		n = axes[2]
	}
	raw := make([]float64, w*h*n)
	err = img.Read(&raw)
	if err != nil {
		return nil, err
	}
	if len(raw) != w*h*n {
		return nil, fmt.Errorf("FITS data length %d does not match axes %v", len(raw), axes)
	}
	frames := make([]Frame, n)
	for i := 0; i < n; i++ {
		f := New(w, h)
		copy(f.Data, raw[i*w*h:(i+1)*w*h])
		frames[i] = f
	}
	return frames, nil
}
