package scheduler

// IneligibilityReason is the closed set of reasons a (procedure, slot)
// pair fails the hard-constraint filter. Higher values mean the pair got
// further through the checks, which makes them the more informative
// reason to report for an unassignable request.
type IneligibilityReason int

const (
	ReasonNone IneligibilityReason = iota
	ReasonCapabilityMismatch
	ReasonInsufficientDuration
	ReasonSlotUnavailable
)

func (r IneligibilityReason) String() string {
	switch r {
	case ReasonCapabilityMismatch:
		return "no free slot with matching capability"
	case ReasonInsufficientDuration:
		return "no slot of sufficient duration"
	case ReasonSlotUnavailable:
		return "slot already assigned"
	default:
		return "eligible"
	}
}

// checkConstraints applies the hard constraints in fixed order and stops
// at the first failure. Pairs that fail are never scored.
func checkConstraints(req ProcedureRequest, slot Slot) (bool, IneligibilityReason) {
	if slot.Capability != req.Capability {
		return false, ReasonCapabilityMismatch
	}
	if slot.DurationMinutes() < req.DurationMinutes {
		return false, ReasonInsufficientDuration
	}
	if !slot.Free {
		return false, ReasonSlotUnavailable
	}
	return true, ReasonNone
}
