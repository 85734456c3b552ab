package constants

// ============================================================================
// Platform Roles
// ============================================================================

const (
	// RoleGuest is assigned when the request carries no usable credential.
	RoleGuest = "guest"

	// RoleUnverifiedUser is assigned to authenticated users unknown to the role source.
	RoleUnverifiedUser = "unverified-user"

	RoleUser            = "user"
	RoleAdmin           = "admin"
	RoleCustomerManager = "customer-manager"
	RoleProductManager  = "product-manager"
)
