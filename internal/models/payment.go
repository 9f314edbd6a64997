package models

import "time"

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentSuccess PaymentStatus = "SUCCESS"
	PaymentFailed  PaymentStatus = "FAILED"
)

// PaymentEntry is one row of a user's append-only payment history.
type PaymentEntry struct {
	ID               int64         `json:"-"`
	UserID           string        `json:"-"`
	ConversationID   string        `json:"conversationId"`
	BasketID         string        `json:"basketId"`
	GatewayToken     *string       `json:"-"`
	Amount           string        `json:"amount"`
	Currency         string        `json:"currency"`
	Country          string        `json:"country,omitempty"`
	Status           PaymentStatus `json:"status"`
	PaymentID        *string       `json:"paymentId,omitempty"`
	GatewayPaymentID *string       `json:"iyzicoPaymentId,omitempty"`
	CreatedAt        time.Time     `json:"date"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

// PaymentSnapshot is the read model returned by the status check.
type PaymentSnapshot struct {
	Status                         StatusKind    `json:"status"`
	IsPaid                         bool          `json:"isPaid"`
	IsPaidMember                   bool          `json:"isPaidMember"`
	MembershipExpiryDate           *time.Time    `json:"membershipExpiryDate"`
	AcceptedTerms                  bool          `json:"acceptedTerms"`
	AcceptedPreliminaryInformation bool          `json:"acceptedPreliminaryInformation"`
	TermsAcceptanceDate            *time.Time    `json:"termsAcceptanceDate"`
	LastPayment                    *PaymentEntry `json:"lastPayment"`
}

type InitializePaymentRequest struct {
	UserID                         string `json:"userId"`
	Email                          string `json:"email"`
	Name                           string `json:"name"`
	AcceptedTerms                  bool   `json:"acceptedTerms"`
	AcceptedPreliminaryInformation bool   `json:"acceptedPreliminaryInformation"`
}
