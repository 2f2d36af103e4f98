/* Manual lens utility.
 *
 * Drives the voice-coil focus DAC directly, for bring-up and bench
 * checks: point the camera at a target, step the index up and down,
 * watch the image.  Indices outside [50, 900] are clamped the same
 * way the autofocus clamps them.
 */
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	spectracam "github.com/doismellburning/spectracam/src"
)

func main() {
	var cameraID = pflag.StringP("camera", "C", "camera-0", "Camera identifier (camera-0 or camera-1).")
	var help = pflag.Bool("help", false, "Display help text.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] FOCUS_INDEX\n\n", os.Args[0])
		pflag.PrintDefaults()
	}

	pflag.Parse()

	if *help || len(pflag.Args()) != 1 {
		pflag.Usage()
		os.Exit(1)
	}

	var index, err = strconv.Atoi(pflag.Args()[0])
	if err != nil {
		log.Fatal("focus index must be an integer", "arg", pflag.Args()[0])
	}

	var actuator = spectracam.NewFocusActuator(*cameraID)
	if err := actuator.Setup(); err != nil {
		log.Fatal("could not open lens bus", "err", err)
	}
	defer actuator.Teardown()

	if err := actuator.SetFocus(index); err != nil {
		log.Fatal("focus write failed", "err", err)
	}

	if index < spectracam.MIN_FOCUS_INDEX {
		index = spectracam.MIN_FOCUS_INDEX
	} else if index > spectracam.MAX_FOCUS_INDEX {
		index = spectracam.MAX_FOCUS_INDEX
	}

	fmt.Printf("focus index set to %d\n", index)
}
