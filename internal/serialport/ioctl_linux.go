package serialport

// Linux tty ioctl request numbers. Only a handful are declared here; Open
// issues tcflsh, tcsets, tiocgserial and tiocsserial, while tcgets is not
// issued. See daedaluz/goserial for the full catalog this is adapted from.
var (
	tcgets = uintptr(0x5401)
	tcsets = uintptr(0x5402)

	tiocgserial = uintptr(0x541E)
	tiocsserial = uintptr(0x541F)

	tcflsh = uintptr(0x540B)
)

// serialStruct mirrors struct serial_struct from <linux/serial.h> field for
// field; only Flags, CustomDivisor and BaudBase are used for a custom divisor.
type serialStruct struct {
	Type          int32
	Line          int32
	Port          uint32
	IRQ           int32
	Flags         int32
	XmitFifoSize  int32
	CustomDivisor int32
	BaudBase      int32
	CloseDelay    uint16
	IOType        byte
	Reserved      byte
	Hub6          int32
	ClosingWait   uint16
	ClosingWait2  uint16
	IOMemBase     uintptr
	IOMemRegShift uint16
	PortHigh      uint32
	IOMapBase     uint64
}

const (
	asyncSPDMask = 0x1030
	asyncSPDCust = 0x0030
)
