// Command flatfield derives a camera's flat-field correction from a mean
// flat-field frame: it normalises the Bayer channels, builds the correction
// factor map, fits the radial vignetting model to the clipped map, and writes
// the modelled correction map and the model parameters into the calibration
// store.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/theckman/yacspin"

	"github.com/camlab/spectacle/caldata"
	"github.com/camlab/spectacle/calibrate"
	"github.com/camlab/spectacle/camera"
	"github.com/camlab/spectacle/frame"
	"github.com/camlab/spectacle/vignette"
)

func main() {
	clip := flag.Int("clip", 250, "border pixels to exclude from the vignetting fit")
	label := flag.String("label", "", "optional artifact label, e.g. the ISO speed of the flat stack")
	flag.Parse()
	if flag.NArg() != 3 {
		fmt.Fprintln(os.Stderr, "usage: flatfield [-clip N] [-label L] <camera.json> <storage-root> <mean.fits>")
		os.Exit(2)
	}

	cam, err := camera.Load(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}
	log.Println("loaded camera", cam)

	store := caldata.New(flag.Arg(1))
	cal := calibrate.New(cam, store)

	f, err := os.Open(flag.Arg(2))
	if err != nil {
		log.Fatal(err)
	}
	mean, err := frame.ReadFITS(f)
	f.Close()
	if err != nil {
		log.Fatal(err)
	}

	mean, err = cal.CorrectBias(mean)
	if err != nil {
		log.Fatal(err)
	}

	corr, err := vignette.CorrectionMap(mean, cam)
	if err != nil {
		log.Fatal(err)
	}

	clipped, err := corr.Clip(*clip)
	if err != nil {
		log.Fatal(err)
	}

	spin, err := yacspin.New(yacspin.Config{
		Frequency:     100 * time.Millisecond,
		CharSet:       yacspin.CharSets[14],
		Suffix:        " fitting vignetting model",
		StopCharacter: "✓",
		StopColors:    []string{"fgGreen"},
	})
	if err != nil {
		log.Fatal(err)
	}
	spin.Start()
	params, err := vignette.Fit(clipped)
	spin.Stop()
	if err != nil {
		log.Fatalf("vignetting fit for camera %s: %v", cam, err)
	}

	fmt.Println("parameter +- uncertainty ; relative uncertainty")
	for i := range params.Coeffs {
		p, s := params.Coeffs[i], params.Errs[i]
		fmt.Printf("k%d: %+.6f +- %.6f ; %.3f %%\n", i, p, s, 100*s/p)
	}

	modelled := vignette.Apply(corr.W, corr.H, params)
	if err := store.SaveMap(cam, caldata.FlatField, *label, modelled); err != nil {
		log.Fatal(err)
	}
	if err := store.SaveVignetteModel(cam, params); err != nil {
		log.Fatal(err)
	}
	log.Println("saved flat-field correction map and model parameters for", cam)
}
