package entity

// FieldConflict records the same field extracted with differing values from
// different pages of one logical form. The emitted record keeps the
// earliest-page value; the conflict surfaces as a validation warning instead
// of the parser auto-choosing silently.
type FieldConflict struct {
	Field  string   `json:"field"`
	Values []string `json:"values"` // distinct values in page order
	Pages  []int    `json:"pages"`  // page index each value came from
}
