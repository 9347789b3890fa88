package xics

// StatusBits is the per-source status bitset. Several bits can be set at
// once (e.g. ASSERTED|SENT on an LSI, MASKED_PENDING on an MSI) so this is
// modeled as a bitset rather than an enum.
type StatusBits uint8

const (
	StatusAsserted      StatusBits = 1 << iota // line currently asserted (LSI only)
	StatusSent                                 // delivered to a presenter, awaiting EOI (LSI)
	StatusRejected                             // displaced by a higher-priority interrupt, queued for resend (MSI)
	StatusMaskedPending                        // edge arrived while masked (MSI only)
)

func (s StatusBits) has(bit StatusBits) bool { return s&bit != 0 }

func (s *StatusBits) set(bit StatusBits)   { *s |= bit }
func (s *StatusBits) clear(bit StatusBits) { *s &^= bit }

// MaskedPriority is the sentinel priority value (0xFF) meaning "masked":
// a source at this priority never transitions to SENT.
const MaskedPriority uint8 = 0xFF

// IPISourceNumber is the pseudo-source number used for MFRR-driven IPIs.
// It lives below offset and never round-trips through the ICS layer. It
// must stay nonzero: a presenter's xisr field uses 0 as its "nothing
// pending" sentinel (see Controller.Accept/EOI/SetCPPR), so a zero-valued
// IPI source would be indistinguishable from an idle presenter.
const IPISourceNumber uint32 = 2

// Wire-format masks for the packed XIRR register (CPPR in the high byte,
// XISR in the low 24 bits).
const (
	XISRMask uint32 = 0x00ffffff
	CPPRMask uint32 = 0xff000000
)
