package entity

type Property struct {
	ID           string
	Name         string
	Address      string
	Price        float64
	CodeInternal string
	Year         int
	OwnerID      string
}

// PropertyFilter narrows a catalog scan. Zero values impose no constraint;
// Page is 1-based.
type PropertyFilter struct {
	Name     string
	Address  string
	MinPrice *float64
	MaxPrice *float64
	Page     int
	PageSize int
}

// PropertyListItem is the denormalized catalog row returned to browsing
// clients. FirstImage holds the base64-encoded payload of the property's
// enabled image, empty when the property has none.
type PropertyListItem struct {
	ID         string  `json:"idProperty"`
	OwnerID    string  `json:"idOwner"`
	OwnerName  string  `json:"ownerName"`
	Name       string  `json:"name"`
	Address    string  `json:"address"`
	Price      float64 `json:"price"`
	FirstImage string  `json:"firstImage,omitempty"`
}
