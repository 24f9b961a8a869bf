package domain

// AmountFromCents converts a fixed-point cent value to the display amount.
// All arithmetic stays in cents; this is only for the response layer.
func AmountFromCents(cents int64) float64 {
	return float64(cents) / 100
}
