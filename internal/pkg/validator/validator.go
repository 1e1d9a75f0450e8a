package validator

// Validator validates arbitrary structs against their declared rules.
type Validator interface {
	Validate(data any) error
}
