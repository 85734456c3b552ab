package constants

// ============================================================================
// Service Identity
// ============================================================================

const (
	ServiceName        = "authz-service"
	CustomerService    = "customer-service"
	ProductService     = "product-service"
	ServiceVersion     = "1.0.0"
	TracerInstrumentID = "platform-authz"
)
