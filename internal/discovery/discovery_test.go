package discovery

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestOpenFailureError(t *testing.T) {
	err := &OpenFailure{Reason: "no device"}
	if got := err.Error(); got != "discovery: no device" {
		t.Fatalf("unexpected error text: %q", got)
	}
}

// resolveTTY for a bus/address with no usb_endpoint entry should fail
// closed, not panic, including where /sys/class/usb_endpoint itself does
// not exist (containers, CI).
func TestResolveTTYMissingSysfsReturnsEmpty(t *testing.T) {
	got := resolveTTY(999, 999, logrus.NewEntry(logrus.StandardLogger()))
	if got != "" {
		t.Fatalf("expected empty resolution, got %q", got)
	}
}
