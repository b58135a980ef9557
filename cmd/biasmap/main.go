// Command biasmap characterises the bias and read noise of a camera from a
// stack of zero-light, minimum-exposure frames: the per-pixel mean becomes
// the bias map and the per-pixel standard deviation the read-noise map, both
// written into the calibration store.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/camlab/spectacle/caldata"
	"github.com/camlab/spectacle/camera"
	"github.com/camlab/spectacle/frame"
)

func main() {
	if len(os.Args) != 4 {
		fmt.Fprintln(os.Stderr, "usage: biasmap <camera.json> <storage-root> <stack.fits>")
		os.Exit(2)
	}

	cam, err := camera.Load(os.Args[1])
	if err != nil {
		log.Fatal(err)
	}
	log.Println("loaded camera", cam)

	f, err := os.Open(os.Args[3])
	if err != nil {
		log.Fatal(err)
	}
	stack, err := frame.ReadFITSStack(f)
	f.Close()
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("loaded stack of %d frames", len(stack))

	bias, err := frame.MeanStack(stack)
	if err != nil {
		log.Fatal(err)
	}
	readnoise, err := frame.StdStack(stack)
	if err != nil {
		log.Fatal(err)
	}

	store := caldata.New(os.Args[2])
	if err := store.SaveMap(cam, caldata.Bias, "", bias); err != nil {
		log.Fatal(err)
	}
	if err := store.SaveMap(cam, caldata.ReadNoise, "", readnoise); err != nil {
		log.Fatal(err)
	}
	log.Printf("saved bias map (mean %.2f ADU) and read-noise map for %s", bias.Mean(), cam)
}
