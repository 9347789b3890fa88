package xics

// Pin is the per-presenter output line the emulated processor's external
// interrupt input is wired to. Raise/Lower/Set are level commands, not
// edges — the controller treats them as idempotent and never assumes the
// sink observes a transition.
type Pin interface {
	Raise()
	Lower()
	Set(level bool)
}

// presenter is the per-virtual-processor state owned by the ICP layer.
type presenter struct {
	cppr            uint8
	xisr            uint32 // pending source number, or 0 if nothing pending
	pendingPriority uint8  // valid only while xisr != 0
	mfrr            uint8
	pin             Pin
}

// icpLayer owns the dense presenter array, one per virtual processor.
type icpLayer struct {
	presenters []presenter
}

func newICPLayer(pins []Pin) icpLayer {
	l := icpLayer{presenters: make([]presenter, len(pins))}
	for i := range l.presenters {
		l.presenters[i].pin = pins[i]
	}
	l.reset()
	return l
}

// reset restores every presenter to its post-reset state: CPPR 0, no
// pending XISR, MFRR disabled (0xFF), output lowered.
func (l *icpLayer) reset() {
	for i := range l.presenters {
		p := &l.presenters[i]
		p.cppr = 0
		p.xisr = 0
		p.pendingPriority = 0
		p.mfrr = MaskedPriority
		if p.pin != nil {
			p.pin.Lower()
		}
	}
}

func (l *icpLayer) at(server uint32) *presenter {
	return &l.presenters[server]
}

// packXIRR packs CPPR and XISR into the 32-bit wire register. This assembly
// only happens at the Accept/EOI boundary; internally CPPR and XISR are
// kept as separate fields.
func packXIRR(cppr uint8, xisr uint32) uint32 {
	return uint32(cppr)<<24 | (xisr & XISRMask)
}
