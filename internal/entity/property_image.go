package entity

// PropertyImage is one stored image row for a property. Disabled rows are
// kept as soft history; at most one row per property is conventionally
// enabled at a time.
type PropertyImage struct {
	ID         string
	PropertyID string
	Data       []byte
	Enabled    bool
	ArchiveURL string
}
