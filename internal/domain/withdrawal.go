package domain

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

type WithdrawalFilter struct {
	Page   int
	Limit  int
	Status string
	Search string
}

// PaymentDetails is the method-specific payload of a payout or refund.
type PaymentDetails struct {
	AccountHolder  string `json:"accountHolder,omitempty"`
	AccountNumber  string `json:"accountNumber,omitempty"`
	IFSC           string `json:"ifsc,omitempty"`
	BankName       string `json:"bankName,omitempty"`
	UPIID          string `json:"upiId,omitempty"`
	WalletProvider string `json:"walletProvider,omitempty"`
	WalletID       string `json:"walletId,omitempty"`
}

var (
	upiPattern  = regexp.MustCompile(`^[a-zA-Z0-9.\-_]{2,256}@[a-zA-Z]{2,64}$`)
	ifscPattern = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)
)

// Validate checks the fields the given method needs.
func (d PaymentDetails) Validate(method string) error {
	switch method {
	case WithdrawalMethodBank:
		if strings.TrimSpace(d.AccountHolder) == "" {
			return NewValidationError("paymentDetails.accountHolder", "account holder is required")
		}
		if strings.TrimSpace(d.AccountNumber) == "" {
			return NewValidationError("paymentDetails.accountNumber", "account number is required")
		}
		if !ifscPattern.MatchString(strings.ToUpper(d.IFSC)) {
			return NewValidationError("paymentDetails.ifsc", "invalid IFSC code")
		}
	case WithdrawalMethodUPI:
		if !upiPattern.MatchString(d.UPIID) {
			return NewValidationError("paymentDetails.upiId", "invalid UPI id")
		}
	case WithdrawalMethodWallet:
		if strings.TrimSpace(d.WalletProvider) == "" || strings.TrimSpace(d.WalletID) == "" {
			return NewValidationError("paymentDetails.walletId", "wallet provider and id are required")
		}
	default:
		return NewValidationError("paymentMethod", "unsupported payment method "+method)
	}
	return nil
}

type Withdrawal struct {
	ID              string          `json:"id"`
	SellerID        string          `json:"sellerId"`
	SellerName      string          `json:"sellerName,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentMethod   string          `json:"paymentMethod"` // bank, upi, wallet
	PaymentDetails  PaymentDetails  `json:"paymentDetails"`
	Status          Status          `json:"status"`
	TransactionID   string          `json:"transactionId,omitempty"`
	RejectionReason string          `json:"rejectionReason,omitempty"`
	RequestedAt     time.Time       `json:"requestedAt"`
	ProcessedAt     *time.Time      `json:"processedAt,omitempty"`
}

func (w Withdrawal) EntityID() string       { return w.ID }
func (w Withdrawal) EntityState() Status    { return w.Status }
func (w Withdrawal) EntityKind() EntityType { return EntityWithdrawal }

// UnmarshalJSON folds "processed"/"completed" into the canonical paid state.
func (w *Withdrawal) UnmarshalJSON(data []byte) error {
	type alias Withdrawal
	var raw struct {
		alias
		RequestedAt json.RawMessage `json:"requestedAt"`
		ProcessedAt json.RawMessage `json:"processedAt"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*w = Withdrawal(raw.alias)
	w.Status = NormalizeWithdrawalStatus(string(w.Status))
	w.RequestedAt = looseTime(raw.RequestedAt)
	w.ProcessedAt = looseTimePtr(raw.ProcessedAt)
	return nil
}

// Counted reports whether the request still holds the seller's funds.
func (w Withdrawal) Counted() bool {
	return w.Status != WithdrawalStatusRejected
}

// ValidateChange enforces the payout lifecycle; a paid request never changes again.
func (w Withdrawal) ValidateChange(next Withdrawal) error {
	if w.Status == WithdrawalStatusPaid {
		return &InvalidTransitionError{Entity: EntityWithdrawal, From: w.Status, To: next.Status,
			Reason: "paid withdrawals are immutable"}
	}
	if w.Status != next.Status {
		if err := ValidateTransition(EntityWithdrawal, w.Status, next.Status); err != nil {
			return err
		}
	}
	if !w.Amount.Equal(next.Amount) || w.SellerID != next.SellerID {
		return &InvalidTransitionError{Entity: EntityWithdrawal, From: w.Status, To: next.Status,
			Reason: "amount and seller cannot change after the request"}
	}
	return nil
}

// Earning is a credit to a seller's wallet (usually a delivered order's payout).
type Earning struct {
	ID         string          `json:"id"`
	SellerID   string          `json:"sellerId"`
	OrderID    string          `json:"orderId"`
	Amount     decimal.Decimal `json:"amount"`
	CreditedAt time.Time       `json:"creditedAt"`
}

func (e *Earning) UnmarshalJSON(data []byte) error {
	type alias Earning
	var raw struct {
		alias
		CreditedAt json.RawMessage `json:"creditedAt"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = Earning(raw.alias)
	e.CreditedAt = looseTime(raw.CreditedAt)
	return nil
}

// WithdrawalSummary is the upstream admin overview.
type WithdrawalSummary struct {
	Counts        map[Status]int  `json:"counts"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	PendingAmount decimal.Decimal `json:"pendingAmount"`
	PaidAmount    decimal.Decimal `json:"paidAmount"`
}

// WithdrawalRequest is the body of POST /withdrawals/request.
type WithdrawalRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	PaymentMethod  string          `json:"paymentMethod"`
	PaymentDetails PaymentDetails  `json:"paymentDetails"`
}

// --- Interfaces ---

type WithdrawalRepository interface {
	ListMine(ctx context.Context) ([]Withdrawal, error)
	ListEarnings(ctx context.Context) ([]Earning, error)
	Request(ctx context.Context, req WithdrawalRequest) (*Withdrawal, error)
	Delete(ctx context.Context, id string) error

	AdminList(ctx context.Context, filter WithdrawalFilter) ([]Withdrawal, int64, error)
	AdminSummary(ctx context.Context) (*WithdrawalSummary, error)
	AdminUpdateStatus(ctx context.Context, id string, status Status, transactionID string) (*Withdrawal, error)
	AdminDelete(ctx context.Context, id string) error
}
