// Copyright (C) 2024 Sundai Club
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/pbnjay/memory"

	nl "github.com/sundai-club/james-webb-live/internal"
	"github.com/sundai-club/james-webb-live/internal/ops"
	"github.com/sundai-club/james-webb-live/internal/ops/extract"
	"github.com/sundai-club/james-webb-live/internal/rest"
)

const version = "0.1.0"

var totalMiBs = memory.TotalMemory() / 1024 / 1024

var cpuprofile = flag.String("cpuprofile", "", "write cpu profile to `file`")
var memprofile = flag.String("memprofile", "", "write memory profile to `file`")

var out = flag.String("out", "particles.json", "save particle scene to `file`, with .json or .csv suffix")
var overlay = flag.String("overlay", "%auto", "save overlay preview of the scene to `file`. `%auto` replaces suffix of output file with .jpg")
var log = flag.String("log", "%auto", "save log output to `file`. `%auto` replaces suffix of output file with .log")

var threshold = flag.Float64("threshold", 240, "minimum intensity for central region detection")

var starDist = flag.Int64("starDist", 10, "minimum distance between star peaks in pixels")
var starThresh = flag.Float64("starThresh", 0.2, "relative star detection threshold as fraction of the smoothed maximum")
var starSigma = flag.Float64("starSigma", 1.1, "gaussian smoothing sigma for star detection in pixels")

var clouds = flag.Int64("clouds", 100000, "number of cloud points to sample, 0=off")
var cloudMin = flag.Float64("cloudMin", 30, "minimum intensity for cloud sampling")
var cloudMax = flag.Float64("cloudMax", 150, "maximum intensity for cloud sampling")
var cloudRadius = flag.Float64("cloudRadius", 10, "exclusion radius around star peaks for cloud sampling, 0=off")

var scale = flag.Float64("scale", 10.0, "half-width of the normalized scene coordinate range")
var gamma = flag.Float64("gamma", 1, "apply gamma to the overlay image background, 1: keep linear light data")
var seed = flag.Int64("seed", 0, "random seed for cloud sampling, 0=fresh draws on every run")

var sampleMemory = flag.Int64("sampleMemory", int64((totalMiBs*7)/10), "total MiB of memory to use for sampling weight tables, default=0.7x physical memory")

var port = flag.Int64("port", 8080, "port for the web server")
var chroot = flag.String("chroot", "", "change filesystem root to `directory` before serving, requires root")
var setuid = flag.Int64("setuid", -1, "switch to this user id after opening the server port, -1=don't")

func main() {
	logWriter := nl.LogWriter()
	debug.SetGCPercent(10)
	start := time.Now()
	flag.Usage = func() {
		fmt.Fprintf(logWriter, `James Webb Live Copyright (c) 2024 Sundai Club
This program comes with ABSOLUTELY NO WARRANTY.
This is free software, and you are welcome to redistribute it under certain conditions.
Refer to https://www.gnu.org/licenses/gpl-3.0.en.html for details.

Usage: %s [-flag value] (extract|galaxy|serve|legal|version) (img0.png ... imgn.png)

Commands:
  extract Extract a particle scene from grayscale deep sky images
  galaxy  Extract a galaxy point cloud with a brighter sampling band, saved as CSV
  serve   Start the web server for interactive extraction
  legal   Show license and attribution information
  version Show version information

Flags:
`, os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		return
	}

	// set defaults per command
	switch args[0] {
	case "extract":
	case "galaxy":
		// galaxy cores are bright, sample a high intensity band without star exclusion
		if *out == "particles.json" {
			*out = "galaxy_points.csv"
		}
		if *clouds == 100000 {
			*clouds = 5000
		}
		if *cloudMin == 30 {
			*cloudMin = 100
		}
		if *cloudMax == 150 {
			*cloudMax = 255
		}
		if *cloudRadius == 10 {
			*cloudRadius = 0
		}
	case "serve":
	case "legal":
	case "version":
	case "help", "?":
	default:
	}

	// Initialize logging to file in addition to stdout, if selected
	if *log == "%auto" {
		if *out != "" {
			*log = strings.TrimSuffix(*out, filepath.Ext(*out)) + ".log"
		} else {
			*log = ""
		}
	}
	if *log != "" {
		err := nl.LogAlsoToFile(*log)
		if err != nil {
			nl.LogFatalf("Unable to open logfile '%s'\n", *log)
		}
	}

	// Also auto-select the overlay preview target
	if *overlay == "%auto" {
		if *out != "" {
			*overlay = strings.TrimSuffix(*out, filepath.Ext(*out)) + ".jpg"
		} else {
			*overlay = ""
		}
	}

	// Enable CPU profiling if flagged
	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			nl.LogFatal("Could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			nl.LogFatal("Could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
	}

	// run actions
	var err error
	switch args[0] {
	case "serve":
		rest.MakeSandbox(*chroot, int(*setuid))
		rest.Serve(int(*port))

	case "extract", "galaxy":
		err = cmdExtract(args[1:], logWriter)

	case "legal":
		cmdLegal()

	case "version":
		fmt.Fprintf(logWriter, "Version %s\n", version)

	case "help", "?":
		flag.Usage()

	default:
		fmt.Fprintf(logWriter, "Unknown command '%s'\n\n", args[0])
		flag.Usage()
		return
	}

	now := time.Now()
	elapsed := now.Sub(start)
	fmt.Fprintf(logWriter, "\nDone after %v\n", elapsed)

	// Store memory profile if flagged
	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			nl.LogFatal("Could not create memory profile: ", err)
		}
		defer f.Close()
		runtime.GC() // get up-to-date statistics
		if err := pprof.Lookup("allocs").WriteTo(f, 0); err != nil {
			nl.LogFatal("Could not write allocation profile: ", err)
		}
	}

	if err != nil {
		fmt.Fprintf(logWriter, "Error: %s\n", err.Error())
		os.Exit(-1)
	}
	nl.LogSync()
}

// Perform particle extraction on the given input images
func cmdExtract(fileNames []string, logWriter io.Writer) error {
	if len(fileNames) < 1 {
		return errors.New("need an input image file")
	}

	// parse flags into operator objects
	opExtract := extract.NewOpExtract(
		extract.NewOpDetectCenter(float32(*threshold)),
		extract.NewOpDetectStars(int32(*starDist), float32(*starThresh), float32(*starSigma)),
		extract.NewOpSampleClouds(int(*clouds), float32(*cloudMin), float32(*cloudMax), float32(*cloudRadius)),
		extract.NewOpAssemble(*scale),
		extract.NewOpSaveScene(*out),
		extract.NewOpSaveOverlay(*overlay, float32(*gamma), 95),
	)

	m, err := json.MarshalIndent(opExtract, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(logWriter, "\nExtracting %d images with these settings:\n%s\n", len(fileNames), string(m))

	c := ops.NewContext(logWriter, uint32(*seed))
	c.SampleMemoryMB = int(*sampleMemory)

	promises := []ops.Promise{}
	for id, fileName := range fileNames {
		opLoad := ops.NewOpLoad(id, fileName)
		outs, err := opLoad.MakePromises(nil, c)
		if err != nil {
			return err
		}
		promises = append(promises, outs...)
	}

	promises, err = opExtract.MakePromises(promises, c)
	if err != nil {
		return err
	}
	return ops.MaterializeAll(promises)
}
