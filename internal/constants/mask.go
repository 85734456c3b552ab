package constants

// ============================================================================
// Masking Configuration
// ============================================================================

const (
	// MaskPlaceholder is the string used to replace fully masked values
	MaskPlaceholder = "***REDACTED***"

	// MaskPreserveLen is the number of characters to preserve at start/end
	MaskPreserveLen = 4

	// MaskMinLength is the minimum length for partial masking
	// Values shorter than this are fully masked
	MaskMinLength = 10

	// MaskSeparator is the separator between preserved prefix and suffix
	MaskSeparator = "..."
)

// ============================================================================
// Token Prefixes
// ============================================================================

const (
	BearerScheme = "bearer"
)
