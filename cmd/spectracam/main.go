/* Spectral camera control daemon.
 *
 * Owns everything the shutter button touches: the autofocus chain,
 * the illumination LEDs, the AS7265x spectrometer and the daily data
 * files.  The media pipeline host links against the core package and
 * provides the frame probe; run standalone this binary drives the
 * shot hardware with a stub pipeline, which is enough to bench-test
 * the button, the LEDs and the spectrometer end to end.
 */
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/maruel/interrupt"
	"github.com/spf13/pflag"

	spectracam "github.com/doismellburning/spectracam/src"
)

func main() {
	var configPath = pflag.StringP("config", "c", "", "Configuration file.")
	var dataRoot = pflag.StringP("data-root", "d", "", "Override the data root directory.")
	var verbose = pflag.BoolP("verbose", "v", false, "Debug logging.")
	var version = pflag.Bool("version", false, "Print version and exit.")

	pflag.Parse()

	if *version {
		spectracam.PrintVersion()
		return
	}

	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	var config, err = spectracam.LoadConfig(*configPath)
	if err != nil {
		log.Fatal("bad configuration", "err", err)
	}
	if *dataRoot != "" {
		config.DataRoot = *dataRoot
	}

	var loop = spectracam.NewMainLoop()

	var exitErr error
	var host = &spectracam.HostHooks{
		OpenFocusValve:  func() {},
		CloseFocusValve: func() {},
		TriggerImageCapture: func() {
			log.Info("image capture requested")
		},
		NotifyExit: func(err error) {
			exitErr = err
			loop.Quit()
		},
		GetResolution: func() (int, int) {
			return 1280, 720
		},
	}

	var app = spectracam.NewApp(loop, config, host)

	interrupt.HandleCtrlC()
	go func() {
		<-interrupt.Channel
		loop.Post(func() {
			loop.Quit()
		})
	}()

	loop.Post(app.RunSetup)
	loop.Run()

	app.Teardown()

	if exitErr != nil {
		fmt.Fprintf(os.Stderr, "spectracam: %s\n", exitErr)
		os.Exit(1)
	}
}
