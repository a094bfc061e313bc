package models

// CollectorConfig holds the per-device tunables of the DOM collector. It is
// resolved once from static configuration and never mutated at runtime.
type CollectorConfig struct {
	// IncludeLinkdown controls whether to report on interfaces when the link
	// is down. When false (default), only link-up interfaces are included.
	// When true, all interfaces with optics installed are included, even if
	// they are link-down. Administratively disabled interfaces are never
	// included regardless of this setting.
	IncludeLinkdown bool `yaml:"include_linkdown" json:"include_linkdown"`
}
