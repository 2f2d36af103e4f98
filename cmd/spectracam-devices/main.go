/* List candidate hardware.
 *
 * Walks udev for USB serial adapters (where the AS7265x board shows
 * up) and GPIO chips, so a user can fill in the config file without
 * guessing device nodes.
 */
package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/jochenvg/go-udev"
)

func main() {
	var u udev.Udev

	listSerial(&u)
	fmt.Println()
	listGPIOChips(&u)
}

func listSerial(u *udev.Udev) {
	var e = u.NewEnumerate()
	e.AddMatchSubsystem("tty")

	var devices, err = e.Devices()
	if err != nil {
		log.Fatal("udev enumeration failed", "err", err)
	}

	fmt.Println("Serial adapters:")

	var found = 0
	for _, d := range devices {
		if d.PropertyValue("ID_BUS") != "usb" {
			continue
		}
		found++

		fmt.Printf("  %-14s %s %s (serial %s)\n",
			d.Devnode(),
			d.PropertyValue("ID_VENDOR"),
			d.PropertyValue("ID_MODEL"),
			d.PropertyValue("ID_SERIAL_SHORT"))
	}

	if found == 0 {
		fmt.Println("  none found - is the spectrometer plugged in?")
	}
}

func listGPIOChips(u *udev.Udev) {
	var e = u.NewEnumerate()
	e.AddMatchSubsystem("gpio")

	var devices, err = e.Devices()
	if err != nil {
		log.Fatal("udev enumeration failed", "err", err)
	}

	fmt.Println("GPIO chips:")

	for _, d := range devices {
		if !strings.HasPrefix(d.Sysname(), "gpiochip") {
			continue
		}
		fmt.Printf("  %-14s %s\n", d.Sysname(), d.Devnode())
	}
}
