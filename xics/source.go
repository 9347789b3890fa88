package xics

// source is the per-interrupt-number state owned by the ICS layer. Index
// into the sources slice is nr-offset, never the raw global interrupt
// number.
type source struct {
	server        uint32
	priority      uint8
	savedPriority uint8
	status        StatusBits
	lsi           bool
}

// icsLayer owns the dense source array. Its methods only touch ics-local
// state; anything that needs to reach into the presentation layer is
// orchestrated by Controller so that neither layer holds a pointer to the
// other.
type icsLayer struct {
	offset  uint32
	sources []source
}

func newICSLayer(offset uint32, nrIRQs int) icsLayer {
	l := icsLayer{offset: offset, sources: make([]source, nrIRQs)}
	l.reset()
	return l
}

// validIRQ reports whether nr names a real source in [offset, offset+nrIRQs).
func (l *icsLayer) validIRQ(nr uint32) bool {
	return nr >= l.offset && nr < l.offset+uint32(len(l.sources))
}

func (l *icsLayer) at(nr uint32) *source {
	return &l.sources[nr-l.offset]
}

// reset restores all sources to their post-reset state: masked, status
// clear, routing to server 0. The lsi type bit is preserved per spec — a
// reset does not change whether a source is level- or edge-triggered.
func (l *icsLayer) reset() {
	for i := range l.sources {
		s := &l.sources[i]
		s.priority = MaskedPriority
		s.savedPriority = MaskedPriority
		s.status = 0
		s.server = 0
	}
}

// reject marks nr as rejected and clears SENT, so a later resend will try
// to redeliver it. Only valid for nr in [offset, offset+nrIRQs) — the IPI
// pseudo-source never reaches this path because it doesn't round-trip
// through ICS.
func (l *icsLayer) reject(nr uint32) {
	s := l.at(nr)
	s.status.set(StatusRejected)
	s.status.clear(StatusSent)
}

// eoiSource clears SENT for an LSI source, allowing resendLSI to redeliver
// it on a later sweep if it is still asserted. No-op for MSI.
func (l *icsLayer) eoiSource(nr uint32) {
	s := l.at(nr)
	if s.lsi {
		s.status.clear(StatusSent)
	}
}

// setLevel applies an LSI level change: ASSERTED tracks the line state
// directly.
func (l *icsLayer) setLevel(srcno int, level bool) {
	s := &l.sources[srcno]
	if level {
		s.status.set(StatusAsserted)
	} else {
		s.status.clear(StatusAsserted)
	}
}

// resendLSI: deliverable if ASSERTED, not already SENT, and not masked.
// Returns the (server, priority) to deliver at and marks SENT, or ok=false.
func (l *icsLayer) resendLSI(srcno int) (server uint32, priority uint8, ok bool) {
	s := &l.sources[srcno]
	if !s.status.has(StatusAsserted) || s.status.has(StatusSent) || s.priority == MaskedPriority {
		return 0, 0, false
	}
	s.status.set(StatusSent)
	return s.server, s.priority, true
}

// resendMSI: deliverable if REJECTED and not masked. Clears REJECTED and
// returns the (server, priority) to deliver at, or ok=false.
func (l *icsLayer) resendMSI(srcno int) (server uint32, priority uint8, ok bool) {
	s := &l.sources[srcno]
	if !s.status.has(StatusRejected) || s.priority == MaskedPriority {
		return 0, 0, false
	}
	s.status.clear(StatusRejected)
	return s.server, s.priority, true
}

// msiEdge: edge arrived on an MSI source. If masked, latches
// MASKED_PENDING and reports no delivery; otherwise reports the
// (server, priority) to deliver at.
func (l *icsLayer) msiEdge(srcno int) (server uint32, priority uint8, deliver bool) {
	s := &l.sources[srcno]
	if s.priority == MaskedPriority {
		s.status.set(StatusMaskedPending)
		return 0, 0, false
	}
	return s.server, s.priority, true
}

// writeXive updates routing/mask state for nr. For an MSI source that was
// MASKED_PENDING and is becoming unmasked, it clears MASKED_PENDING and
// reports the (server, priority) to deliver at immediately.
func (l *icsLayer) writeXive(nr, serverID uint32, priority, savedPriority uint8) (deliverServer uint32, deliverPriority uint8, deliver bool) {
	s := l.at(nr)
	wasMaskedPending := s.status.has(StatusMaskedPending) && s.priority == MaskedPriority
	s.server = serverID
	s.priority = priority
	s.savedPriority = savedPriority

	if s.lsi {
		return 0, 0, false // caller drives delivery via resendLSI
	}
	if wasMaskedPending && priority != MaskedPriority {
		s.status.clear(StatusMaskedPending)
		return s.server, s.priority, true
	}
	return 0, 0, false
}

// routing returns the current (server, priority, savedPriority) for nr, as
// used by ibm,get-xive and by int-off/int-on to remember prior state.
func (l *icsLayer) routing(nr uint32) (server uint32, priority, savedPriority uint8) {
	s := l.at(nr)
	return s.server, s.priority, s.savedPriority
}
