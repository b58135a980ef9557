package frame_test

import (
	"bytes"
	"math"
	"testing"

	"github.com/camlab/spectacle/frame"
)

func TestElementwiseOps(t *testing.T) {
	a := frame.Uniform(10, 4, 3)
	b := frame.Uniform(2, 4, 3)
	sub, err := a.Sub(b)
	if err != nil {
		t.Fatal(err)
	}
	if sub.At(0, 0) != 8 {
		t.Errorf("expected 8, got %g", sub.At(0, 0))
	}
	mul, err := a.Mul(b)
	if err != nil {
		t.Fatal(err)
	}
	if mul.At(3, 2) != 20 {
		t.Errorf("expected 20, got %g", mul.At(3, 2))
	}
	div, err := a.Div(b)
	if err != nil {
		t.Fatal(err)
	}
	if div.At(1, 1) != 5 {
		t.Errorf("expected 5, got %g", div.At(1, 1))
	}
	if a.At(0, 0) != 10 {
		t.Error("operations must not mutate their input")
	}
}

func TestShapeMismatch(t *testing.T) {
	a := frame.Uniform(1, 4, 4)
	b := frame.Uniform(1, 3, 4)
	_, err := a.Mul(b)
	sm, ok := err.(frame.ErrShapeMismatch)
	if !ok {
		t.Fatalf("expected ErrShapeMismatch, got %T: %v", err, err)
	}
	if sm.WantW != 4 || sm.GotW != 3 {
		t.Errorf("mismatch not reported correctly: %v", sm)
	}
}

func TestClipToIsCentered(t *testing.T) {
	f := frame.New(6, 6)
	for y := 0; y < 6; y++ {
		for x := 0; x < 6; x++ {
			f.Set(x, y, float64(y*6+x))
		}
	}
	c, err := f.ClipTo(2, 2)
	if err != nil {
		t.Fatal(err)
	}
	// center 2x2 of a 6x6 starts at (2, 2)
	if c.At(0, 0) != f.At(2, 2) || c.At(1, 1) != f.At(3, 3) {
		t.Errorf("clip not centered: got %g, %g", c.At(0, 0), c.At(1, 1))
	}
}

func TestClipToRejectsGrowth(t *testing.T) {
	f := frame.New(2, 2)
	_, err := f.ClipTo(4, 4)
	if _, ok := err.(frame.ErrShapeMismatch); !ok {
		t.Fatalf("expected ErrShapeMismatch when clipping up, got %T: %v", err, err)
	}
}

func TestStackStatisticsSkipNaN(t *testing.T) {
	a := frame.Uniform(1, 2, 2)
	b := frame.Uniform(3, 2, 2)
	c := frame.Uniform(5, 2, 2)
	b.Set(0, 0, math.NaN())

	mean, err := frame.MeanStack([]frame.Frame{a, b, c})
	if err != nil {
		t.Fatal(err)
	}
	if mean.At(1, 1) != 3 {
		t.Errorf("expected mean 3, got %g", mean.At(1, 1))
	}
	// the NaN sample is excluded, not zeroed
	if mean.At(0, 0) != 3 {
		t.Errorf("expected NaN-excluded mean 3, got %g", mean.At(0, 0))
	}

	std, err := frame.StdStack([]frame.Frame{a, b, c})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(std.At(1, 1)-2) > 1e-12 {
		t.Errorf("expected sample std 2, got %g", std.At(1, 1))
	}
}

func TestFITSRoundTrip(t *testing.T) {
	f := frame.New(3, 2)
	for i := range f.Data {
		f.Data[i] = float64(i) * 1.5
	}
	buf := bytes.Buffer{}
	if err := frame.WriteFITS(&buf, f); err != nil {
		t.Fatal(err)
	}
	back, err := frame.ReadFITS(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if !f.SameShape(back) {
		t.Fatalf("shape changed in round trip: (%d, %d) -> (%d, %d)", f.W, f.H, back.W, back.H)
	}
	for i := range f.Data {
		if f.Data[i] != back.Data[i] {
			t.Errorf("pixel %d changed in round trip: %g -> %g", i, f.Data[i], back.Data[i])
		}
	}
}

func TestFITSStackRoundTrip(t *testing.T) {
	stack := []frame.Frame{frame.Uniform(1, 2, 2), frame.Uniform(2, 2, 2), frame.Uniform(3, 2, 2)}
	buf := bytes.Buffer{}
	if err := frame.WriteFITSStack(&buf, stack); err != nil {
		t.Fatal(err)
	}
	back, err := frame.ReadFITSStack(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if len(back) != 3 {
		t.Fatalf("expected 3 frames back, got %d", len(back))
	}
	for i, f := range back {
		if f.At(0, 0) != float64(i+1) {
			t.Errorf("frame %d: expected %d, got %g", i, i+1, f.At(0, 0))
		}
	}
}
