package ifdom

// Eligible decides whether an interface's measurements should be reported
// this cycle. The rules are evaluated in order:
//
//  1. An administratively disabled interface is never eligible, regardless of
//     configuration.
//  2. Otherwise, when includeLinkdown is set, any interface is eligible even
//     if the link is down.
//  3. Otherwise only interfaces whose link is up are eligible.
//
// The policy is vendor-agnostic: each adapter maps its native state
// vocabulary ("adminDown", "disabled", "up", "connected", …) onto the
// adminDown / linkUp pair before calling this.
func Eligible(adminDown, linkUp, includeLinkdown bool) bool {
	if adminDown {
		return false
	}
	if includeLinkdown {
		return true
	}
	return linkUp
}
