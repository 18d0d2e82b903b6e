package core

// CartLine is one row of a cart. UnitPrice is locked when the line is created.
type CartLine struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int    `json:"unitPrice"`
}

// Key returns the normalized identity of the line.
func (l CartLine) Key() string { return NormalizeName(l.Name) }

// LineTotal returns Quantity * UnitPrice.
func (l CartLine) LineTotal() int { return l.Quantity * l.UnitPrice }
