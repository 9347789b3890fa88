// Package xics implements the PAPR XICS virtualized external-interrupt
// controller core: a two-layer interrupt delivery engine composed of an
// Interrupt Source layer (ICS) and an Interrupt Presentation layer (ICP).
//
// Controller is the single owner of both layers, mirroring the way the
// teacher's VirtualMachine owns its PICDevice and per-device interrupt
// raisers: one object with exclusive access, serialized by one lock, rather
// than two structures holding back-pointers into each other.
package xics

import (
	"fmt"
	"log"
	"sync"
)

// Offset is the first valid global interrupt number; numbers below it are
// reserved (the IPI pseudo-source lives at IPISourceNumber).
const Offset uint32 = 16

// Controller owns the ICS source array and the ICP presenter array and
// serializes all operations on them behind a single mutex, the Go
// equivalent of the "machine-wide emulator big-lock" the spec assumes.
type Controller struct {
	mu  sync.Mutex
	ics icsLayer
	icp icpLayer

	// Debug gates log tracing of source rejects and of deliveries raised
	// at a presenter; accept, EOI and resend are not traced. It never
	// changes behavior.
	Debug bool
}

// NewController builds a controller with nrIRQs sources starting at Offset
// and one presenter per entry in pins, in processor-enumeration order. A
// nil pin is a fatal configuration error — the equivalent of an enumerated
// processor whose interrupt-input model isn't recognized.
func NewController(nrIRQs int, pins []Pin) (*Controller, error) {
	if nrIRQs <= 0 {
		return nil, fmt.Errorf("xics: nrIRQs must be positive, got %d", nrIRQs)
	}
	if len(pins) == 0 {
		return nil, fmt.Errorf("xics: at least one presenter pin is required")
	}
	for i, p := range pins {
		if p == nil {
			return nil, fmt.Errorf("xics: presenter %d has no recognized interrupt-input pin", i)
		}
	}
	c := &Controller{
		ics: newICSLayer(Offset, nrIRQs),
		icp: newICPLayer(pins),
	}
	return c, nil
}

// NrServers returns the number of presenters.
func (c *Controller) NrServers() int { return len(c.icp.presenters) }

// NrIRQs returns the number of sources.
func (c *Controller) NrIRQs() int { return len(c.ics.sources) }

// ValidIRQ reports whether nr is a real source number.
func (c *Controller) ValidIRQ(nr uint32) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ics.validIRQ(nr)
}

// Reset restores every source and presenter to its post-reset state, per
// spec.md §3 Lifecycles.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ics.reset()
	c.icp.reset()
}

func (c *Controller) validServer(server uint32) bool {
	return server < uint32(len(c.icp.presenters))
}

// ---- ICS device-facing surface (§4.2, §6.1) ----

// SetIRQ is the line-toggle port emulated devices use. srcno is the dense
// array index (nr-offset), not the global interrupt number; level is the
// line state for LSI, or an edge trigger (truthy only) for MSI.
func (c *Controller) SetIRQ(srcno int, level bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if srcno < 0 || srcno >= len(c.ics.sources) {
		return
	}
	s := &c.ics.sources[srcno]
	if s.lsi {
		c.ics.setLevel(srcno, level)
		c.resendLSIAndDeliver(srcno)
		return
	}
	if !level {
		return
	}
	server, priority, deliver := c.ics.msiEdge(srcno)
	if deliver {
		c.icpIRQ(server, uint32(srcno)+c.ics.offset, priority)
	}
}

func (c *Controller) resendLSIAndDeliver(srcno int) {
	server, priority, ok := c.ics.resendLSI(srcno)
	if ok {
		c.icpIRQ(server, uint32(srcno)+c.ics.offset, priority)
	}
}

// WriteXive updates routing/mask state for nr and attempts delivery if the
// new state makes one eligible. This is the core operation behind
// ibm,set-xive / int-off / int-on.
func (c *Controller) WriteXive(nr, server uint32, priority, savedPriority uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ics.validIRQ(nr) {
		return
	}
	srcno := int(nr - c.ics.offset)
	s := c.ics.at(nr)
	if s.lsi {
		c.ics.writeXive(nr, server, priority, savedPriority)
		c.resendLSIAndDeliver(srcno)
		return
	}
	deliverServer, deliverPriority, deliver := c.ics.writeXive(nr, server, priority, savedPriority)
	if deliver {
		c.icpIRQ(deliverServer, nr, deliverPriority)
	}
}

// reject is called by the presentation layer when a presented interrupt is
// displaced by a higher-priority one. Only valid for nr in
// [offset, offset+nrIRQs) — the IPI pseudo-source never round-trips here.
func (c *Controller) reject(nr uint32) {
	if !c.ics.validIRQ(nr) {
		return
	}
	c.ics.reject(nr)
	if c.Debug {
		log.Printf("xics: source %d rejected", nr)
	}
}

// globalResend sweeps every source, attempting redelivery of anything
// latent or rejected. It does not filter by server/target processor — the
// original FIXME-acknowledged behavior is preserved exactly; see
// DESIGN.md.
func (c *Controller) globalResend() {
	for i := range c.ics.sources {
		s := &c.ics.sources[i]
		nr := uint32(i) + c.ics.offset
		if s.lsi {
			if server, priority, ok := c.ics.resendLSI(i); ok {
				c.icpIRQ(server, nr, priority)
			}
		} else {
			if server, priority, ok := c.ics.resendMSI(i); ok {
				c.icpIRQ(server, nr, priority)
			}
		}
	}
}

// ---- ICP processor-facing surface (§4.1, §6.3) ----

// SetCPPR updates the Current Processor Priority Register for server. If
// lowering it to or below the pending interrupt's priority, the pending
// interrupt is withdrawn and queued for replay. If raising it while
// nothing is pending, latent interrupts are re-evaluated.
func (c *Controller) SetCPPR(server uint32, cppr uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.validServer(server) {
		return
	}
	p := c.icp.at(server)
	old := p.cppr
	p.cppr = cppr

	switch {
	case cppr < old:
		if p.xisr != 0 && p.pendingPriority >= cppr {
			oldXISR := p.xisr
			p.xisr = 0
			p.pin.Lower()
			c.reject(oldXISR)
		}
	case cppr > old:
		if p.xisr == 0 {
			c.resend(server)
		}
	}
}

// SetMFRR stores the Most Favored Request priority for server's IPI
// channel and re-evaluates the IPI if it now qualifies.
func (c *Controller) SetMFRR(server uint32, mfrr uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.validServer(server) {
		return
	}
	p := c.icp.at(server)
	p.mfrr = mfrr
	if mfrr < p.cppr {
		c.checkIPI(server)
	}
}

// Accept is the sole read port the guest uses to learn which interrupt to
// service. It returns the full packed xirr (old CPPR, old XISR), clears
// the pending interrupt, and lowers the pin.
func (c *Controller) Accept(server uint32) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.validServer(server) {
		return 0
	}
	p := c.icp.at(server)
	old := packXIRR(p.cppr, p.xisr)
	p.pin.Lower()
	p.cppr = p.pendingPriority
	p.xisr = 0
	return old
}

// EOI closes a delivery: the caller-supplied CPPR bits are written back
// into the presenter's CPPR, the named source's EOI path runs, and if
// nothing remains pending, latent interrupts are re-evaluated.
func (c *Controller) EOI(server uint32, xirr uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.validServer(server) {
		return
	}
	p := c.icp.at(server)
	p.cppr = uint8((xirr & CPPRMask) >> 24)

	nr := xirr & XISRMask
	if c.ics.validIRQ(nr) {
		c.ics.eoiSource(nr)
	}

	if p.xisr == 0 {
		c.resend(server)
	}
}

// icpIRQ delivers nr at priority to server, called by the ICS layer's
// delivery paths. Evaluated per spec.md §4.1 rule order: reject the
// incoming interrupt if it isn't favored enough; otherwise displace
// whatever is currently pending (if anything) and present the new one.
func (c *Controller) icpIRQ(server, nr uint32, priority uint8) {
	if !c.validServer(server) {
		return
	}
	p := c.icp.at(server)

	if priority >= p.cppr || (p.xisr != 0 && p.pendingPriority <= priority) {
		c.reject(nr)
		return
	}
	if p.xisr != 0 {
		c.reject(p.xisr)
	}
	p.xisr = nr
	p.pendingPriority = priority
	p.pin.Raise()
	if c.Debug {
		log.Printf("xics: presenter %d: nr=%d priority=%d raised", server, nr, priority)
	}
}

// checkIPI installs the IPI pseudo-source as the pending XISR if it is now
// favored enough, displacing whatever else was pending.
func (c *Controller) checkIPI(server uint32) {
	p := c.icp.at(server)
	if p.xisr != 0 && p.pendingPriority <= p.mfrr {
		return
	}
	if p.xisr != 0 {
		c.reject(p.xisr)
	}
	p.xisr = IPISourceNumber
	p.pendingPriority = p.mfrr
	p.pin.Raise()
}

// resend is the ICP-side re-evaluation triggered by CPPR/MFRR changes and
// by EOI: re-check the IPI channel, then sweep ICS for anything latent or
// rejected.
func (c *Controller) resend(server uint32) {
	p := c.icp.at(server)
	if p.mfrr < p.cppr {
		c.checkIPI(server)
	}
	c.globalResend()
}

// ---- Configuration glue (§4.3) — abstract RTAS operations ----

// SetXive validates and installs routing/mask state for nr, as driven by
// ibm,set-xive. saved is set equal to priority, per spec.md §4.3.
func (c *Controller) SetXive(nr, server uint32, priority uint8) error {
	c.mu.Lock()
	valid := c.ics.validIRQ(nr) && c.validServer(server)
	c.mu.Unlock()
	if !valid {
		return fmt.Errorf("xics: set-xive: invalid nr=%d or server=%d", nr, server)
	}
	c.WriteXive(nr, server, priority, priority)
	return nil
}

// GetXive returns the current (server, priority) for nr, as driven by
// ibm,get-xive.
func (c *Controller) GetXive(nr uint32) (server uint32, priority uint8, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ics.validIRQ(nr) {
		return 0, 0, fmt.Errorf("xics: get-xive: invalid nr=%d", nr)
	}
	server, priority, _ = c.ics.routing(nr)
	return server, priority, nil
}

// IntOff masks nr without forgetting its prior priority, as driven by
// ibm,int-off.
func (c *Controller) IntOff(nr uint32) error {
	c.mu.Lock()
	if !c.ics.validIRQ(nr) {
		c.mu.Unlock()
		return fmt.Errorf("xics: int-off: invalid nr=%d", nr)
	}
	server, _, savedPriority := c.ics.routing(nr)
	c.mu.Unlock()
	c.WriteXive(nr, server, MaskedPriority, savedPriority)
	return nil
}

// IntOn restores nr's priority from its saved value, as driven by
// ibm,int-on.
func (c *Controller) IntOn(nr uint32) error {
	c.mu.Lock()
	if !c.ics.validIRQ(nr) {
		c.mu.Unlock()
		return fmt.Errorf("xics: int-on: invalid nr=%d", nr)
	}
	server, _, savedPriority := c.ics.routing(nr)
	c.mu.Unlock()
	c.WriteXive(nr, server, savedPriority, savedPriority)
	return nil
}

// ConfigureSource sets a source's lsi type bit and initial routing. This
// is construction-time wiring (§6.5), not a guest-visible operation: it is
// how the embedding application declares which sources are level-sensitive
// before any interrupt traffic begins.
func (c *Controller) ConfigureSource(nr uint32, lsi bool, server uint32, priority uint8) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ics.validIRQ(nr) || !c.validServer(server) {
		return fmt.Errorf("xics: configure-source: invalid nr=%d or server=%d", nr, server)
	}
	s := c.ics.at(nr)
	s.lsi = lsi
	s.server = server
	s.priority = priority
	s.savedPriority = priority
	return nil
}
