package domain

// Status is a lifecycle state shared by every moderated entity.
type Status string

// StatusNone marks an entity that does not exist yet (creation transitions start here).
const StatusNone Status = ""

// EntityType names the family an entity belongs to.
type EntityType string

const (
	EntityOrder      EntityType = "order"
	EntityWithdrawal EntityType = "withdrawal"
	EntitySeller     EntityType = "seller"
	EntityProduct    EntityType = "product"
	EntityReturn     EntityType = "return"
)

// Order Statuses
const (
	OrderStatusPending    Status = "pending"
	OrderStatusConfirmed  Status = "confirmed"
	OrderStatusProcessing Status = "processing"
	OrderStatusShipped    Status = "shipped"
	OrderStatusDelivered  Status = "delivered"
	OrderStatusCancelled  Status = "cancelled"
)

// Pseudo targets used when a flag-only change is rejected.
const (
	OrderCancellationRequested Status = "cancellation_requested"
	OrderRefunded              Status = "refunded"
)

// Withdrawal Statuses. Paid is the only "funds disbursed" state.
const (
	WithdrawalStatusPending    Status = "pending"
	WithdrawalStatusProcessing Status = "processing"
	WithdrawalStatusApproved   Status = "approved"
	WithdrawalStatusPaid       Status = "paid"
	WithdrawalStatusRejected   Status = "rejected"
)

// Seller Statuses
const (
	SellerStatusPending   Status = "pending"
	SellerStatusApproved  Status = "approved"
	SellerStatusRejected  Status = "rejected"
	SellerStatusSuspended Status = "suspended"
)

// Product Statuses
const (
	ProductStatusPending  Status = "pending"
	ProductStatusApproved Status = "approved"
	ProductStatusRejected Status = "rejected"
)

// Return Statuses
const (
	ReturnStatusPending         Status = "pending"
	ReturnStatusApproved        Status = "approved"
	ReturnStatusRejected        Status = "rejected"
	ReturnStatusPickupInitiated Status = "pickup_initiated"
	ReturnStatusCompleted       Status = "completed"
	ReturnStatusClosed          Status = "closed"
)

// Payment Methods
const (
	PaymentMethodCOD    = "cod"
	PaymentMethodOnline = "online"
)

// Payment Statuses
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

// Refund Statuses
const (
	RefundStatusNone     = "none"
	RefundStatusPending  = "pending"
	RefundStatusRefunded = "refunded"
)

// Shipment Statuses
const (
	ShipmentStatusCreated   = "created"
	ShipmentStatusInTransit = "in_transit"
	ShipmentStatusDelivered = "delivered"
	ShipmentStatusCancelled = "cancelled"
	ShipmentStatusRTO       = "rto"
)

// Withdrawal Methods
const (
	WithdrawalMethodBank   = "bank"
	WithdrawalMethodUPI    = "upi"
	WithdrawalMethodWallet = "wallet"
)

// Return Types
const (
	ReturnTypeReturn      = "return"
	ReturnTypeReplacement = "replacement"
)

// List Exports for API
var OrderStatuses = []Status{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

var WithdrawalStatuses = []Status{
	WithdrawalStatusPending,
	WithdrawalStatusProcessing,
	WithdrawalStatusApproved,
	WithdrawalStatusPaid,
	WithdrawalStatusRejected,
}

var SellerStatuses = []Status{
	SellerStatusPending,
	SellerStatusApproved,
	SellerStatusRejected,
	SellerStatusSuspended,
}

var ProductStatuses = []Status{
	ProductStatusPending,
	ProductStatusApproved,
	ProductStatusRejected,
}

var ReturnStatuses = []Status{
	ReturnStatusPending,
	ReturnStatusApproved,
	ReturnStatusRejected,
	ReturnStatusPickupInitiated,
	ReturnStatusCompleted,
	ReturnStatusClosed,
}

var PaymentMethods = []string{
	PaymentMethodCOD,
	PaymentMethodOnline,
}

var WithdrawalMethods = []string{
	WithdrawalMethodBank,
	WithdrawalMethodUPI,
	WithdrawalMethodWallet,
}

// StatusesFor returns the vocabulary of an entity family.
func StatusesFor(entity EntityType) []Status {
	switch entity {
	case EntityOrder:
		return OrderStatuses
	case EntityWithdrawal:
		return WithdrawalStatuses
	case EntitySeller:
		return SellerStatuses
	case EntityProduct:
		return ProductStatuses
	case EntityReturn:
		return ReturnStatuses
	}
	return nil
}

// withdrawalAliases maps the names other call sites use for a disbursed payout.
var withdrawalAliases = map[string]Status{
	"processed": WithdrawalStatusPaid,
	"completed": WithdrawalStatusPaid,
	"paid":      WithdrawalStatusPaid,
}

// NormalizeWithdrawalStatus folds display aliases into the canonical vocabulary.
func NormalizeWithdrawalStatus(s string) Status {
	if st, ok := withdrawalAliases[s]; ok {
		return st
	}
	return Status(s)
}
