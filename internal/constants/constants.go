package constants

// Order status constants
const (
	OrderStatusPending                = "pending"
	OrderStatusProcessing             = "processing"
	OrderStatusConfirmed              = "confirmed"
	OrderStatusCompleted              = "completed"
	OrderStatusShipped                = "shipped"
	OrderStatusDelivered              = "delivered"
	OrderStatusCancelled              = "cancelled"
	OrderStatusVerificationFailed     = "verification_failed"
	OrderStatusAmountMismatchReview   = "amount_mismatch_review"
	OrderStatusInventoryFailureReview = "inventory_failure_review"
)

// Product kind constants
const (
	ProductKindClothing  = "clothing"
	ProductKindFootwear  = "footwear"
	ProductKindHeadwear  = "headwear"
	ProductKindAccessory = "accessory"
)

// ProductKinds lists every supported kind in catalog order.
var ProductKinds = []string{
	ProductKindClothing,
	ProductKindFootwear,
	ProductKindHeadwear,
	ProductKindAccessory,
}

// Confirmation actor constants
const (
	ActorSystemWebhook = "system:webhook"
	ActorSystemWorker  = "system:worker"
)

// Paystack event and charge status constants
const (
	PaystackEventChargeSuccess = "charge.success"
	PaystackStatusSuccess      = "success"
	PaystackStatusFailed       = "failed"
	PaystackStatusAbandoned    = "abandoned"
)

// Queue constants
const (
	QueueDefault          = "default"
	TaskOrderStatusEmail  = "order:status_email"
	TaskOrderAutoComplete = "order:auto_complete"
)

// Cache constants
const (
	RedisPrefixDefault = "sl"
)

// Currency constants
const (
	SiteCurrencyDefault = "NGN"
)

// Order reference constants
const (
	OrderReferencePrefix = "SL"
)

// Catalog limits
const (
	VariationCountMax = 4
)
