package rtas

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

func TestSetXiveThenGetXive(t *testing.T) {
	d, _ := newTestDispatcher(t, 4, 2)

	rets := make([]int64, 1)
	d.SetXive([]uint32{16, 1, 5}, rets)
	if rets[0] != StatusSuccess {
		t.Fatalf("set-xive status = %d, want success", rets[0])
	}

	getRets := make([]int64, 3)
	d.GetXive([]uint32{16}, getRets)
	if getRets[0] != StatusSuccess {
		t.Fatalf("get-xive status = %d, want success", getRets[0])
	}
	if getRets[1] != 1 || getRets[2] != 5 {
		t.Fatalf("get-xive = %v, want server=1 priority=5", getRets)
	}
}

func TestSetXiveParameterErrors(t *testing.T) {
	d, _ := newTestDispatcher(t, 4, 1)

	rets := make([]int64, 1)
	d.SetXive([]uint32{999, 0, 1}, rets) // nr out of range
	if rets[0] != StatusParameterError {
		t.Fatalf("status = %d, want parameter error", rets[0])
	}

	rets = make([]int64, 1)
	d.SetXive([]uint32{16, 0, 256}, rets) // priority > 0xFF
	if rets[0] != StatusParameterError {
		t.Fatalf("status = %d, want parameter error", rets[0])
	}

	rets = make([]int64, 1)
	d.SetXive([]uint32{16, 0}, rets) // wrong arg count
	if rets[0] != StatusParameterError {
		t.Fatalf("status = %d, want parameter error", rets[0])
	}
}

func TestIntOffIntOnRoundTrip(t *testing.T) {
	d, _ := newTestDispatcher(t, 4, 1)

	rets := make([]int64, 1)
	d.SetXive([]uint32{16, 0, 6}, rets)
	if rets[0] != StatusSuccess {
		t.Fatalf("set-xive status = %d, want success", rets[0])
	}

	rets = make([]int64, 1)
	d.IntOff([]uint32{16}, rets)
	if rets[0] != StatusSuccess {
		t.Fatalf("int-off status = %d, want success", rets[0])
	}

	getRets := make([]int64, 3)
	d.GetXive([]uint32{16}, getRets)
	if getRets[2] != 0xFF {
		t.Fatalf("priority after int-off = %d, want masked", getRets[2])
	}

	rets = make([]int64, 1)
	d.IntOn([]uint32{16}, rets)
	if rets[0] != StatusSuccess {
		t.Fatalf("int-on status = %d, want success", rets[0])
	}

	d.GetXive([]uint32{16}, getRets)
	if getRets[2] != 6 {
		t.Fatalf("priority after int-on = %d, want restored to 6", getRets[2])
	}
}
