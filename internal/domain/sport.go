package domain

// Sport is one entry from the upstream sports catalogue. The catalogue is
// refreshed at the start of every scan run; entries are not persisted.
type Sport struct {
	Key          string
	Title        string
	Active       bool
	HasOutrights bool // group/outright-only sports carry no h2h markets
}

// Scannable reports whether the sport should be included in a scan run.
func (s Sport) Scannable() bool {
	return s.Active && !s.HasOutrights
}
