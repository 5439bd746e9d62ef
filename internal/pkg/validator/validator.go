package validator

// Validator validates request and domain structs.
type Validator interface {
	// Validate returns nil when data passes all struct tag rules, a
	// V10ValidationError-style field map otherwise.
	Validate(data any) error
}

var _ Validator = (*V10Validator)(nil)
