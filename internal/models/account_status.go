package models

import (
	"fmt"
	"time"
)

// StatusKind is the stored tag of an AccountStatus.
type StatusKind string

const (
	StatusUnverified     StatusKind = "unverified"
	StatusVerifiedUnpaid StatusKind = "verified_unpaid"
	StatusPendingPayment StatusKind = "pending_payment"
	StatusActiveMember   StatusKind = "active_member"
)

// AccountStatus is the verification/payment state of a user. Values are built only
// through the constructors below, so an unverified member or a member without an
// expiry cannot be expressed.
type AccountStatus struct {
	kind   StatusKind
	expiry time.Time
}

func Unverified() AccountStatus     { return AccountStatus{kind: StatusUnverified} }
func VerifiedUnpaid() AccountStatus { return AccountStatus{kind: StatusVerifiedUnpaid} }
func PendingPayment() AccountStatus { return AccountStatus{kind: StatusPendingPayment} }

func ActiveMember(expiry time.Time) AccountStatus {
	return AccountStatus{kind: StatusActiveMember, expiry: expiry.UTC()}
}

// StatusFromStore rebuilds a status from its persisted columns.
func StatusFromStore(kind string, expiry *time.Time) (AccountStatus, error) {
	switch StatusKind(kind) {
	case StatusUnverified:
		return Unverified(), nil
	case StatusVerifiedUnpaid:
		return VerifiedUnpaid(), nil
	case StatusPendingPayment:
		return PendingPayment(), nil
	case StatusActiveMember:
		if expiry == nil {
			return AccountStatus{}, fmt.Errorf("active member without membership expiry")
		}
		return ActiveMember(*expiry), nil
	}
	return AccountStatus{}, fmt.Errorf("unknown account status %q", kind)
}

func (s AccountStatus) Kind() StatusKind {
	if s.kind == "" {
		return StatusUnverified
	}
	return s.kind
}

func (s AccountStatus) Verified() bool   { return s.Kind() != StatusUnverified }
func (s AccountStatus) Paid() bool       { return s.Kind() == StatusActiveMember }
func (s AccountStatus) PaidMember() bool { return s.Kind() == StatusActiveMember }

// MembershipExpiry is nil unless the user is an active member.
func (s AccountStatus) MembershipExpiry() *time.Time {
	if s.Kind() != StatusActiveMember {
		return nil
	}
	t := s.expiry
	return &t
}

// MarkVerified is the transition taken by a successful email verification.
func (s AccountStatus) MarkVerified() AccountStatus {
	if s.Kind() == StatusUnverified {
		return VerifiedUnpaid()
	}
	return s
}
