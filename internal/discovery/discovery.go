// Package discovery locates the plotter's USB serial endpoint and resolves
// it to a /dev/ttyUSB* device node, replacing the reference client's
// lsusb-scraping probe with direct USB enumeration.
package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/gousb"
	"github.com/sirupsen/logrus"
)

// VendorID and ProductID identify the plotter's FTDI-based USB serial
// adapter.
const (
	VendorID  = gousb.ID(0x20d3)
	ProductID = gousb.ID(0x0011)
)

// OpenFailure reports that no matching device could be found or resolved
// to a tty node.
type OpenFailure struct {
	Reason string
}

func (e *OpenFailure) Error() string {
	return fmt.Sprintf("discovery: %s", e.Reason)
}

// Found describes one matched device and, if resolvable, its tty path.
type Found struct {
	Bus, Address int
	DevicePath   string // "" if no tty node could be resolved
}

// Find opens the plotter's USB device by vendor/product ID and attempts to
// resolve it to a /dev/ttyUSB* node via sysfs. It returns (nil, nil) if no
// device matches; enumeration or claim failures are returned as errors.
func Find(log *logrus.Entry) (*Found, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	ctx := gousb.NewContext()
	defer ctx.Close()

	dev, err := ctx.OpenDeviceWithVIDPID(VendorID, ProductID)
	if err != nil {
		return nil, fmt.Errorf("discovery: usb open: %w", err)
	}
	if dev == nil {
		return nil, nil
	}
	defer dev.Close()

	f := &Found{Bus: dev.Desc.Bus, Address: dev.Desc.Address}
	f.DevicePath = resolveTTY(f.Bus, f.Address, log)
	return f, nil
}

// Open finds the plotter and returns its device node, falling back to
// /dev/ttyUSB0 with a logged warning if the device was found but no tty
// node could be resolved. It fails with *OpenFailure if no device matches
// at all.
func Open(log *logrus.Entry) (string, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	found, err := Find(log)
	if err != nil {
		return "", err
	}
	if found == nil {
		return "", &OpenFailure{Reason: "no matching USB device found - is the plotter connected and powered on?"}
	}
	if found.DevicePath != "" {
		return found.DevicePath, nil
	}

	log.WithFields(logrus.Fields{"bus": found.Bus, "address": found.Address}).
		Warn("found plotter USB device but no tty endpoint node - assuming /dev/ttyUSB0")
	return "/dev/ttyUSB0", nil
}

// resolveTTY walks /sys/class/usb_endpoint looking for an
// "usbdev<bus>.<address>_ep*" entry whose device subdirectory contains a
// ttyUSB* node, mirroring the reference probe's sysfs scan.
func resolveTTY(bus, address int, log *logrus.Entry) string {
	const classRoot = "/sys/class/usb_endpoint"
	entries, err := os.ReadDir(classRoot)
	if err != nil {
		log.WithError(err).Debug("could not read usb_endpoint class dir")
		return ""
	}

	prefix := fmt.Sprintf("usbdev%d.%d_ep", bus, address)
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		deviceDir := filepath.Join(classRoot, e.Name(), "device")
		children, err := os.ReadDir(deviceDir)
		if err != nil {
			continue
		}
		for _, c := range children {
			if strings.HasPrefix(c.Name(), "ttyUSB") {
				return "/dev/" + c.Name()
			}
		}
	}
	return ""
}
