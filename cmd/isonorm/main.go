// Command isonorm fits a camera's ISO-gain normalisation relation from mean
// signals measured on an identical scene at several ISO speeds, and writes
// the best-fitting model and its dense lookup table into the calibration
// store.
//
// The observations file is CSV with rows of "iso,mean,err"; a header row is
// skipped if present.
package main

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/camlab/spectacle/caldata"
	"github.com/camlab/spectacle/camera"
	"github.com/camlab/spectacle/isonorm"
)

func loadObservations(path string) ([]isonorm.Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	obs := make([]isonorm.Observation, 0, len(records))
	for i, rec := range records {
		if len(rec) != 3 {
			return nil, fmt.Errorf("row %d: want 3 fields iso,mean,err, got %d", i+1, len(rec))
		}
		iso, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			if i == 0 { // header row
				continue
			}
			return nil, err
		}
		mean, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, err
		}
		e, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return nil, err
		}
		obs = append(obs, isonorm.Observation{ISO: iso, Mean: mean, Err: e})
	}
	return obs, nil
}

func main() {
	if len(os.Args) != 4 {
		fmt.Fprintln(os.Stderr, "usage: isonorm <camera.json> <storage-root> <observations.csv>")
		os.Exit(2)
	}

	cam, err := camera.Load(os.Args[1])
	if err != nil {
		log.Fatal(err)
	}
	log.Println("loaded camera", cam)

	obs, err := loadObservations(os.Args[3])
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("loaded %d observations", len(obs))

	model, err := isonorm.Fit(obs, cam.Settings.ISOMin, cam.Settings.ISOMax)
	if err != nil {
		log.Fatalf("ISO normalisation fit for camera %s: %v", cam, err)
	}
	fmt.Printf("best model: %s (R2 = %.6f)\n", model.Type, model.R2)
	for i := range model.Params {
		fmt.Printf("p%d: %+.6g +- %.6g\n", i, model.Params[i], model.Errs[i])
	}

	store := caldata.New(os.Args[2])
	if err := store.SaveISOModel(cam, model); err != nil {
		log.Fatal(err)
	}
	if err := store.SaveLookupTable(cam, model.LookupTable()); err != nil {
		log.Fatal(err)
	}
	log.Println("saved ISO normalisation model and lookup table for", cam)
}
