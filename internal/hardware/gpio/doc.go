// Package gpio connects panel buttons and indicator LEDs to GPIO lines
// through the Linux GPIO character device.
//
// Hardware access is compiled only on Linux with the "gpio" build tag. Other
// builds get constructors returning ErrUnavailable, so the panel still runs
// on a workstation.
package gpio
