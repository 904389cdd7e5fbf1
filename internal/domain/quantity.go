package domain

// Unit is the measurement unit recognized in free-text quantities.
type Unit string

const (
	UnitOunce      Unit = "ounce"
	UnitMilliliter Unit = "milliliter"
	UnitMinute     Unit = "minute"
	UnitHour       Unit = "hour"
	UnitUnknown    Unit = "unknown"
)

// NormalizedQuantity is the typed reading of a quantity_text fragment. It is
// derived on demand and never stored back onto the candidate.
type NormalizedQuantity struct {
	Amount float64 `json:"amount"`
	Unit   Unit    `json:"unit"`
}

// IsVolume reports whether the unit measures liquid volume.
func (q NormalizedQuantity) IsVolume() bool {
	return q.Unit == UnitOunce || q.Unit == UnitMilliliter
}
