// Package hypercall implements the PAPR guest hypercall surface (H_CPPR,
// H_IPI, H_XIRR, H_EOI) as a thin dispatcher in front of an xics.Controller.
// It is the concrete adapter for the "hypercall dispatcher" the core spec
// treats as an external collaborator: the real routing of register
// contents into and out of a guest vCPU trap stays outside this package,
// the same way core_engine/devices/iobus.go stays agnostic of how a VM
// exit reached it.
package hypercall

import "example.com/xics-controller/xics"

// Status is the two-valued return code every hypercall in this surface
// produces, named rather than a bare int, mirroring the teacher's
// KVM_EXIT_* const group in core_engine/hypervisor/kvm.go.
type Status uint64

const (
	HSuccess   Status = 0
	HParameter Status = 0x9900 // PAPR H_Parameter
)

// Dispatcher routes the four XICS-related hypercalls to a Controller.
// Caller identity (cpu) is the index of the executing processor, supplied
// by the embedding VMM — never taken from a hypercall argument.
type Dispatcher struct {
	Controller *xics.Controller
}

func New(c *xics.Controller) *Dispatcher {
	return &Dispatcher{Controller: c}
}

// HCPPR implements H_CPPR: set the calling CPU's Current Processor
// Priority Register.
func (d *Dispatcher) HCPPR(cpu uint32, cppr uint64) Status {
	if int(cpu) >= d.Controller.NrServers() {
		return HParameter
	}
	d.Controller.SetCPPR(cpu, uint8(cppr))
	return HSuccess
}

// HIPI implements H_IPI: validate the target server, then set its MFRR.
func (d *Dispatcher) HIPI(server uint64, mfrr uint64) Status {
	if server >= uint64(d.Controller.NrServers()) {
		return HParameter
	}
	d.Controller.SetMFRR(uint32(server), uint8(mfrr))
	return HSuccess
}

// HXIRR implements H_XIRR: accept on behalf of the calling CPU, returning
// the packed xirr as the call's sole output register.
func (d *Dispatcher) HXIRR(cpu uint32) (xirr uint64, status Status) {
	if int(cpu) >= d.Controller.NrServers() {
		return 0, HParameter
	}
	return uint64(d.Controller.Accept(cpu)), HSuccess
}

// HEOI implements H_EOI: close the delivery the calling CPU most recently
// accepted.
func (d *Dispatcher) HEOI(cpu uint32, xirr uint64) Status {
	if int(cpu) >= d.Controller.NrServers() {
		return HParameter
	}
	d.Controller.EOI(cpu, uint32(xirr))
	return HSuccess
}
