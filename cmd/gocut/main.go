// Command gocut drives a Cricut-family die-cutting plotter over USB serial:
// it discovers the device, negotiates the boot sequence, and cuts an SVG
// document.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"github.com/kcutter/gocut/internal/discovery"
	"github.com/kcutter/gocut/internal/drawpath"
	"github.com/kcutter/gocut/internal/serialport"
	"github.com/kcutter/gocut/internal/session"
	"github.com/kcutter/gocut/internal/svgingest"
	"github.com/kcutter/gocut/internal/wire"
	"github.com/kcutter/gocut/internal/xxtea"
)

var (
	verbose          = flag.IntP("verbose", "v", 0, "verbose mode")
	eject            = flag.Bool("eject", true, "eject on exit")
	quick            = flag.Bool("quick", false, "skip wait for pressure adjustment")
	intercurve       = flag.Int("intercurve", 10, "inter-command delay for bezier curves, in ms")
	intercmd         = flag.Int("intercmd", 50, "inter-command delay for command sets, in ms")
	noise            = flag.Uint("noise", 0, "use fixed noise starting with specified value")
	xxteaUnittest    = flag.Uint("xxtea-unittest", 0, "run XXTEA unit test with specified uint32 value")
	xxteaUnittestStr = flag.String("xxtea-unittest-str", "", "pass string to XXTEA unit test")
)

func main() {
	flag.Parse()

	log := logrus.New()
	switch {
	case *verbose >= 2:
		log.SetLevel(logrus.DebugLevel)
	case *verbose == 1:
		log.SetLevel(logrus.InfoLevel)
	default:
		log.SetLevel(logrus.WarnLevel)
	}
	entry := logrus.NewEntry(log)

	if *xxteaUnittest != 0 {
		runXXTEASelfTest(uint32(*xxteaUnittest), *xxteaUnittestStr)
		return
	}

	args := flag.Args()
	var svgPath string
	if len(args) > 0 {
		svgPath = args[0]
	}

	var doc *drawpath.Document
	if svgPath != "" {
		d, err := svgingest.ParseFile(svgPath)
		if err != nil {
			entry.WithError(err).Warn("failed to parse SVG, continuing without cut operations")
		} else {
			doc = d
		}
	}

	devPath, err := discovery.Open(entry)
	if err != nil {
		entry.WithError(err).Error("device discovery failed")
		os.Exit(-1)
	}
	entry.WithField("device", devPath).Info("opening serial port")

	port, err := serialport.Open(devPath)
	if err != nil {
		entry.WithError(err).Error("failed to open serial port")
		os.Exit(-1)
	}

	cfg := session.Config{
		Intercommand: time.Duration(*intercmd) * time.Millisecond,
		Intercurve:   time.Duration(*intercurve) * time.Millisecond,
		Eject:        *eject,
		Quick:        *quick,
		NoiseSeed:    uint32(*noise),
		MatPollEvery: 5 * time.Second,
	}

	sess := session.New(port, cfg,
		session.WithLogger(entry),
		session.WithPrompt(func(attempt int) {
			fmt.Fprintf(os.Stderr, "\nMat not loaded, insert and press 'Load mat' (attempt %d)\n", attempt+1)
		}),
	)

	info, err := sess.Run(doc)
	if err != nil {
		entry.WithError(err).Error("session failed")
		os.Exit(1)
	}

	if info.Version != nil {
		fmt.Printf("Model #%d, firmware ver %d.%d\n", info.Version.Model, info.Version.Major, info.Version.Minor)
	}
	if info.Cartridge != nil && info.Cartridge.Present {
		fmt.Printf("Cartridge present: rev %d name %s\n", info.Cartridge.Version, info.Cartridge.Name)
	}
}

// runXXTEASelfTest reproduces the reference client's three-key XXTEA
// self-check: encrypt a scalar under key 0, overwrite the start of that
// ciphertext with an ASCII string and encrypt it under key 1, then encrypt
// a fixed fixture under key 2.
func runXXTEASelfTest(seed uint32, s string) {
	v := []uint32{seed, 0, 0}
	xxtea.Encode(v, 3, xxtea.CmdKeys[0])
	fmt.Printf("Cryptext: %s\n", hexDump(v))

	d := wordsToBytes(v)
	copy(d, s)
	v = bytesToWords(d)
	xxtea.Encode(v, 3, xxtea.CmdKeys[1])
	fmt.Printf("Cryptext: %s\n", hexDump(v))

	fixture := []byte{0x11, 0x27, 0x00, 0x00, 0xE3, 0x02, 0x00, 0x00, 0x84, 0x01, 0x00, 0x00}
	v = bytesToWords(fixture)
	fmt.Printf("Plaintext: %s\n", hexDumpBytes(fixture))
	xxtea.Encode(v, 3, xxtea.CmdKeys[2])
	fmt.Printf("Cryptext: %s\n", hexDump(v))
}

func wordsToBytes(v []uint32) []byte {
	b := make([]byte, len(v)*4)
	for i, w := range v {
		wire.WriteU32LE(b[i*4:], w)
	}
	return b
}

func bytesToWords(b []byte) []uint32 {
	v := make([]uint32, len(b)/4)
	for i := range v {
		v[i] = wire.ReadU32LE(b[i*4:])
	}
	return v
}

func hexDump(v []uint32) string { return hexDumpBytes(wordsToBytes(v)) }

func hexDumpBytes(b []byte) string {
	out := ""
	for _, c := range b {
		out += fmt.Sprintf("%02x ", c)
	}
	return out
}
