package manifest

import "errors"

// Sentinel errors for the manifest package
var (
	// ErrNoSpaces indicates the manifest has no spaces defined
	ErrNoSpaces = errors.New("manifest must contain at least one space")

	// ErrEmptyKey indicates a space entry is missing the required key field
	ErrEmptyKey = errors.New("space key cannot be empty")

	// ErrDuplicateKey indicates the same space is listed twice
	ErrDuplicateKey = errors.New("duplicate space key")

	// ErrInvalidFormat indicates the manifest file is not valid YAML or JSON
	ErrInvalidFormat = errors.New("manifest must be valid YAML or JSON")

	// ErrFileNotFound indicates the manifest file does not exist
	ErrFileNotFound = errors.New("manifest file not found")

	// ErrUnsupportedExt indicates an unsupported file extension
	ErrUnsupportedExt = errors.New("unsupported file extension (use .yaml, .yml, or .json)")
)
