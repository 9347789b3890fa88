package hypercall

import (
	"testing"

	"example.com/xics-controller/xics"
	"example.com/xics-controller/xics/pin"
)

func newTestDispatcher(t *testing.T, nrIRQs, nrServers int) (*Dispatcher, *xics.Controller) {
	t.Helper()
	pins := make([]xics.Pin, nrServers)
	for i := range pins {
		pins[i] = &pin.Memory{}
	}
	c, err := xics.NewController(nrIRQs, pins)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	return New(c), c
}

func TestHCPPRValidatesServer(t *testing.T) {
	d, _ := newTestDispatcher(t, 4, 2)
	if status := d.HCPPR(0, 0x80); status != HSuccess {
		t.Fatalf("status = %v, want HSuccess", status)
	}
	if status := d.HCPPR(5, 0x80); status != HParameter {
		t.Fatalf("status = %v, want HParameter", status)
	}
}

func TestHIPIValidatesServer(t *testing.T) {
	d, _ := newTestDispatcher(t, 4, 2)
	if status := d.HIPI(1, 0x10); status != HSuccess {
		t.Fatalf("status = %v, want HSuccess", status)
	}
	if status := d.HIPI(99, 0x10); status != HParameter {
		t.Fatalf("status = %v, want HParameter", status)
	}
}

func TestHXIRRRoundTripsAccept(t *testing.T) {
	d, c := newTestDispatcher(t, 4, 1)
	c.SetCPPR(0, 0x10)
	c.SetMFRR(0, 0x08)

	xirr, status := d.HXIRR(0)
	if status != HSuccess {
		t.Fatalf("status = %v, want HSuccess", status)
	}
	if xirr&uint64(xics.XISRMask) != uint64(xics.IPISourceNumber) {
		t.Fatalf("xirr low bits = %d, want IPI pseudo-source", xirr&uint64(xics.XISRMask))
	}

	if status := d.HEOI(0, xirr); status != HSuccess {
		t.Fatalf("eoi status = %v, want HSuccess", status)
	}
}

func TestHXIRRInvalidCPU(t *testing.T) {
	d, _ := newTestDispatcher(t, 4, 1)
	if _, status := d.HXIRR(7); status != HParameter {
		t.Fatalf("status = %v, want HParameter", status)
	}
}
