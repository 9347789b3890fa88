// Package rtas implements the four RTAS configuration calls
// (ibm,set-xive / ibm,get-xive / ibm,int-off / ibm,int-on) as a thin
// counted-vector adapter in front of an xics.Controller, the concrete
// counterpart to the "RTAS dispatcher" external collaborator named in the
// core spec.
package rtas

import "example.com/xics-controller/xics"

// Status values written to rets[0], per the PAPR RTAS calling convention.
const (
	StatusSuccess        int64 = 0
	StatusParameterError int64 = -3
)

// Dispatcher routes the four XICS-related RTAS calls to a Controller.
type Dispatcher struct {
	Controller *xics.Controller
}

func New(c *xics.Controller) *Dispatcher {
	return &Dispatcher{Controller: c}
}

// SetXive implements ibm,set-xive: nargs=3 (nr, server, priority), nret=1.
func (d *Dispatcher) SetXive(args []uint32, rets []int64) {
	if len(args) != 3 || len(rets) != 1 {
		if len(rets) >= 1 {
			rets[0] = StatusParameterError
		}
		return
	}
	nr, server, priority := args[0], args[1], args[2]
	if priority > 0xFF {
		rets[0] = StatusParameterError
		return
	}
	if err := d.Controller.SetXive(nr, server, uint8(priority)); err != nil {
		rets[0] = StatusParameterError
		return
	}
	rets[0] = StatusSuccess
}

// GetXive implements ibm,get-xive: nargs=1 (nr), nret=3 (status, server,
// priority).
func (d *Dispatcher) GetXive(args []uint32, rets []int64) {
	if len(args) != 1 || len(rets) != 3 {
		if len(rets) >= 1 {
			rets[0] = StatusParameterError
		}
		return
	}
	server, priority, err := d.Controller.GetXive(args[0])
	if err != nil {
		rets[0] = StatusParameterError
		return
	}
	rets[0] = StatusSuccess
	rets[1] = int64(server)
	rets[2] = int64(priority)
}

// IntOff implements ibm,int-off: nargs=1, nret=1. Masks the source without
// forgetting its prior priority.
func (d *Dispatcher) IntOff(args []uint32, rets []int64) {
	if len(args) != 1 || len(rets) != 1 {
		if len(rets) >= 1 {
			rets[0] = StatusParameterError
		}
		return
	}
	if err := d.Controller.IntOff(args[0]); err != nil {
		rets[0] = StatusParameterError
		return
	}
	rets[0] = StatusSuccess
}

// IntOn implements ibm,int-on: nargs=1, nret=1. Restores the source's
// saved priority.
func (d *Dispatcher) IntOn(args []uint32, rets []int64) {
	if len(args) != 1 || len(rets) != 1 {
		if len(rets) >= 1 {
			rets[0] = StatusParameterError
		}
		return
	}
	if err := d.Controller.IntOn(args[0]); err != nil {
		rets[0] = StatusParameterError
		return
	}
	rets[0] = StatusSuccess
}
