package domain

import "github.com/shopspring/decimal"

// EffectKind names something that must happen together with a transition.
type EffectKind string

const (
	EffectTriggerRefund           EffectKind = "trigger_refund"
	EffectAdjustSellerBalance     EffectKind = "adjust_seller_balance"
	EffectLockFurtherEdits        EffectKind = "lock_further_edits"
	EffectReleaseReverseLogistics EffectKind = "release_reverse_logistics"
)

// Effect is a side effect implied by a transition. Amount and Sign are only set
// for balance adjustments.
type Effect struct {
	Kind   EffectKind      `json:"kind"`
	Amount decimal.Decimal `json:"amount,omitempty"`
	Sign   int             `json:"sign,omitempty"`
}

// Transition carries the facts SideEffectsFor needs besides the two states.
type Transition struct {
	Entity        EntityType
	From          Status
	To            Status
	PaymentMethod string
	ReturnType    string
	Amount        decimal.Decimal
}

// orderRank orders the forward-only fulfilment chain.
var orderRank = map[Status]int{
	OrderStatusPending:    10,
	OrderStatusConfirmed:  20,
	OrderStatusProcessing: 30,
	OrderStatusShipped:    40,
	OrderStatusDelivered:  50,
}

var cancellableOrderStates = map[Status]bool{
	OrderStatusPending:    true,
	OrderStatusConfirmed:  true,
	OrderStatusProcessing: true,
}

var adjacency = map[EntityType]map[Status][]Status{
	EntityWithdrawal: {
		StatusNone:                 {WithdrawalStatusPending},
		WithdrawalStatusPending:    {WithdrawalStatusProcessing, WithdrawalStatusApproved, WithdrawalStatusRejected},
		WithdrawalStatusApproved:   {WithdrawalStatusProcessing, WithdrawalStatusPaid, WithdrawalStatusRejected},
		WithdrawalStatusProcessing: {WithdrawalStatusPaid, WithdrawalStatusRejected},
		WithdrawalStatusPaid:       {},
		WithdrawalStatusRejected:   {},
	},
	EntitySeller: {
		SellerStatusPending:   {SellerStatusApproved, SellerStatusRejected},
		SellerStatusApproved:  {SellerStatusSuspended},
		SellerStatusSuspended: {SellerStatusApproved},
		SellerStatusRejected:  {SellerStatusApproved},
	},
	EntityProduct: {
		ProductStatusPending:  {ProductStatusApproved, ProductStatusRejected},
		ProductStatusApproved: {ProductStatusRejected},
		ProductStatusRejected: {ProductStatusApproved},
	},
	EntityReturn: {
		StatusNone:                  {ReturnStatusPending},
		ReturnStatusPending:         {ReturnStatusApproved, ReturnStatusRejected},
		ReturnStatusApproved:        {ReturnStatusPickupInitiated},
		ReturnStatusPickupInitiated: {ReturnStatusCompleted},
		ReturnStatusRejected:        {ReturnStatusClosed},
		ReturnStatusCompleted:       {ReturnStatusClosed},
		ReturnStatusClosed:          {},
	},
}

// CanTransition reports whether entity may move from one state to another.
func CanTransition(entity EntityType, from, to Status) bool {
	if entity == EntityOrder {
		return canTransitionOrder(from, to)
	}
	table, ok := adjacency[entity]
	if !ok {
		return false
	}
	for _, next := range table[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Orders only move forward; cancellation is possible until the parcel leaves.
func canTransitionOrder(from, to Status) bool {
	if from == StatusNone {
		return to == OrderStatusPending
	}
	if to == OrderStatusCancelled {
		return cancellableOrderStates[from]
	}
	fromRank, okFrom := orderRank[from]
	toRank, okTo := orderRank[to]
	if !okFrom || !okTo {
		return false
	}
	return toRank > fromRank
}

// AllowedTransitions lists the legal targets from a state, in vocabulary order.
func AllowedTransitions(entity EntityType, from Status) []Status {
	var out []Status
	for _, to := range StatusesFor(entity) {
		if CanTransition(entity, from, to) {
			out = append(out, to)
		}
	}
	return out
}

// IsTerminal reports whether no further transition leaves s.
func IsTerminal(entity EntityType, s Status) bool {
	return len(AllowedTransitions(entity, s)) == 0
}

// IsCancellable reports whether a customer may still ask to cancel an order in s.
func IsCancellable(s Status) bool {
	return cancellableOrderStates[s]
}

// ValidateTransition returns an *InvalidTransitionError for illegal moves.
func ValidateTransition(entity EntityType, from, to Status) error {
	if !CanTransition(entity, from, to) {
		return &InvalidTransitionError{Entity: entity, From: from, To: to}
	}
	return nil
}

// SideEffectsFor returns what must happen atomically with t. The result depends only on t.
func SideEffectsFor(t Transition) []Effect {
	var effects []Effect
	switch t.Entity {
	case EntityOrder:
		if t.To == OrderStatusCancelled && t.PaymentMethod != PaymentMethodCOD {
			effects = append(effects, Effect{Kind: EffectTriggerRefund})
		}
		if t.To == OrderCancellationRequested {
			effects = append(effects, Effect{Kind: EffectLockFurtherEdits})
		}
	case EntityWithdrawal:
		switch {
		case t.From == StatusNone && t.To == WithdrawalStatusPending:
			effects = append(effects, Effect{Kind: EffectAdjustSellerBalance, Amount: t.Amount, Sign: -1})
		case t.To == WithdrawalStatusRejected:
			effects = append(effects, Effect{Kind: EffectAdjustSellerBalance, Amount: t.Amount, Sign: 1})
		}
	case EntitySeller:
		if t.To == SellerStatusSuspended {
			effects = append(effects, Effect{Kind: EffectLockFurtherEdits})
		}
	case EntityReturn:
		if t.From == ReturnStatusApproved && t.To == ReturnStatusPickupInitiated {
			effects = append(effects, Effect{Kind: EffectReleaseReverseLogistics})
		}
		if t.From == ReturnStatusPickupInitiated && t.To == ReturnStatusCompleted && t.ReturnType == ReturnTypeReturn {
			effects = append(effects, Effect{Kind: EffectTriggerRefund})
		}
	}
	return effects
}

// HasEffect reports whether effects contains kind.
func HasEffect(effects []Effect, kind EffectKind) bool {
	for _, e := range effects {
		if e.Kind == kind {
			return true
		}
	}
	return false
}
