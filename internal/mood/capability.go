package mood

import (
	"fmt"

	"github.com/dmitrijs2005/moodkeeper/internal/common"
)

// Capability is the per-user verdict on whether local inference works.
type Capability string

const (
	CapabilityUntested    Capability = "untested"
	CapabilitySupported   Capability = "supported"
	CapabilityUnsupported Capability = "unsupported"
)

func (c Capability) Resolved() bool {
	return c == CapabilitySupported || c == CapabilityUnsupported
}

func ParseCapability(s string) (Capability, error) {
	switch c := Capability(s); c {
	case CapabilityUntested, CapabilitySupported, CapabilityUnsupported:
		return c, nil
	case "":
		return CapabilityUntested, nil
	}
	return "", fmt.Errorf("%w: unknown capability %q", common.ErrValidation, s)
}

// Resolve applies a probe verdict to the current flag. Writing the same
// verdict twice is a no-op; flipping a resolved verdict is refused.
func (c Capability) Resolve(next Capability) (Capability, bool, error) {
	if !next.Resolved() {
		return c, false, fmt.Errorf("%w: cannot resolve to %q", common.ErrValidation, next)
	}
	switch {
	case c == next:
		return c, false, nil
	case c.Resolved():
		return c, false, common.ErrAlreadyResolved
	default:
		return next, true, nil
	}
}
