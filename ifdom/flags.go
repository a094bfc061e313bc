package ifdom

import (
	"strings"

	"github.com/vpbank/ifdom_collector/models"
)

// ─────────────────────────────────────────────────────────────────────────────
// Vendor flag translation
// ─────────────────────────────────────────────────────────────────────────────

// flagStatus maps the textual DOM flags that Cisco dialects attach to each
// measurement onto the ordinal status scale. NX-OS prints the short symbolic
// form ("++" high-alarm, "--" low-alarm, "+" high-warn, "-" low-warn, blank
// in range); some platforms spell the long form instead. Both spellings map
// to the same value the threshold classifier would produce for a measurement
// at or beyond the corresponding bound.
var flagStatus = map[string]models.Status{
	"":   models.StatusOK,
	"ok": models.StatusOK,

	"+":            models.StatusWarn,
	"-":            models.StatusWarn,
	"high-warning": models.StatusWarn,
	"low-warning":  models.StatusWarn,
	"high-warn":    models.StatusWarn,
	"low-warn":     models.StatusWarn,

	"++":         models.StatusAlert,
	"--":         models.StatusAlert,
	"high-alarm": models.StatusAlert,
	"low-alarm":  models.StatusAlert,
}

// FlagStatus translates a pre-computed vendor DOM flag string onto the
// canonical status scale. Surrounding whitespace is ignored and the long
// spellings are matched case-insensitively.
//
// The second return is false for a flag spelling the table does not know;
// the caller should skip that status metric rather than guess.
func FlagStatus(flag string) (models.Status, bool) {
	s, ok := flagStatus[strings.ToLower(strings.TrimSpace(flag))]
	return s, ok
}
