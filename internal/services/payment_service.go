package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"practico/internal/models"
	"practico/internal/pdf"
	"practico/internal/repositories"
	"practico/internal/utils"
)

const (
	DefaultMembershipDays = 365
	basketPrefix          = "basket_"
	gatewayTimeLayout     = "2006-01-02 15:04:05"
)

// Gateway is the hosted checkout provider.
type Gateway interface {
	InitializeCheckout(ctx context.Context, req utils.CheckoutRequest) (*utils.CheckoutSession, error)
	RetrieveCheckout(ctx context.Context, token string) (*utils.CheckoutResult, error)
}

type CountryResolver interface {
	Country(ip string) string
}

type InitializeRequest struct {
	models.InitializePaymentRequest
	ClientIP string
}

type CheckoutHandle struct {
	PaymentPageURL string `json:"paymentPageUrl"`
	Token          string `json:"token"`
	ConversationID string `json:"conversationId"`
	Currency       string `json:"currency"`
	Amount         string `json:"amount"`
	Country        string `json:"country"`
}

// PaymentService drives membership: verified_unpaid -> pending_payment -> active_member.
// The gateway result fetched by token is the only evidence of payment.
type PaymentService interface {
	Initialize(ctx context.Context, req InitializeRequest) (*CheckoutHandle, error)
	HandleCallback(ctx context.Context, token string)
	CheckStatus(ctx context.Context, userID string) (*models.PaymentSnapshot, error)
}

type PaymentDeps struct {
	Store          repositories.Store
	Gateway        Gateway
	Countries      CountryResolver
	Emails         EmailService
	Alerts         AlertService
	Receipts       pdf.Generator
	Notifier       *Notifier
	CallbackURL    string
	MembershipDays int
}

type paymentService struct {
	PaymentDeps
	now func() time.Time
}

func NewPaymentService(deps PaymentDeps) PaymentService {
	if deps.MembershipDays <= 0 {
		deps.MembershipDays = DefaultMembershipDays
	}
	if deps.Alerts == nil {
		deps.Alerts = NoopAlerts{}
	}
	return &paymentService{PaymentDeps: deps, now: time.Now}
}

func (s *paymentService) Initialize(ctx context.Context, req InitializeRequest) (*CheckoutHandle, error) {
	userID := strings.TrimSpace(req.UserID)
	email := strings.TrimSpace(req.Email)
	name := strings.TrimSpace(req.Name)
	if userID == "" || email == "" || name == "" {
		return nil, validationf("Missing required fields")
	}
	if !req.AcceptedTerms || !req.AcceptedPreliminaryInformation {
		return nil, ErrTermsNotAccepted
	}

	user, err := s.Store.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !user.Status.Verified() {
		return nil, ErrEmailNotVerified
	}
	if user.Status.Paid() {
		return nil, ErrAlreadyPaid
	}

	country := s.Countries.Country(req.ClientIP)
	o := offerFor(country)
	now := s.now().UTC()
	conversationID := fmt.Sprintf("user_%s_%d", user.ID, now.UnixMilli())
	basketID := basketPrefix + user.ID

	log.Printf("[payment][init] userID=%s country=%s amount=%s %s", user.ID, country, o.Price, o.Currency)
	sess, err := s.Gateway.InitializeCheckout(ctx, s.checkoutRequest(user, req, email, name, o, conversationID, basketID, now))
	if err != nil {
		log.Printf("[payment][init] gateway error userID=%s: %v", user.ID, err)
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	token := sess.Token
	entry := &models.PaymentEntry{
		UserID:         user.ID,
		ConversationID: conversationID,
		BasketID:       basketID,
		GatewayToken:   &token,
		Amount:         o.Price,
		Currency:       o.Currency,
		Country:        country,
		Status:         models.PaymentPending,
		CreatedAt:      now,
	}
	err = s.Store.WithinTx(ctx, func(tx repositories.Store) error {
		if _, err := mutateUser(ctx, tx.Users(), user, func(u *models.User) error {
			if u.Status.Paid() {
				return ErrAlreadyPaid
			}
			if !canTransition(u.Status.Kind(), models.StatusPendingPayment) {
				return ErrEmailNotVerified
			}
			u.Status = models.PendingPayment()
			return nil
		}); err != nil {
			return err
		}
		return tx.Payments().Insert(ctx, entry)
	})
	if err != nil {
		log.Printf("[payment][init] persist failed userID=%s token=%s: %v", user.ID, utils.TokenPrefix(token), err)
		return nil, err
	}
	log.Printf("[payment][init] checkout created userID=%s conversation=%s", user.ID, conversationID)

	return &CheckoutHandle{
		PaymentPageURL: sess.PaymentPageURL,
		Token:          token,
		ConversationID: conversationID,
		Currency:       o.Currency,
		Amount:         o.Price,
		Country:        country,
	}, nil
}

func (s *paymentService) checkoutRequest(user *models.User, req InitializeRequest, email, name string, o offer, conversationID, basketID string, now time.Time) utils.CheckoutRequest {
	first, last := o.Buyer.Name, o.Buyer.Surname
	if parts := strings.Fields(name); len(parts) > 0 {
		first = parts[0]
		if len(parts) > 1 {
			last = parts[1]
		}
	}
	registered := user.CreatedAt
	if registered.IsZero() {
		registered = now
	}
	addr := utils.Address{
		ContactName: name,
		City:        o.Buyer.City,
		Country:     o.Buyer.Country,
		Address:     o.Buyer.Address,
		ZipCode:     o.Buyer.ZipCode,
	}
	return utils.CheckoutRequest{
		Locale:              o.Locale,
		ConversationID:      conversationID,
		Price:               o.Price,
		PaidPrice:           o.Price,
		Currency:            o.Currency,
		BasketID:            basketID,
		PaymentGroup:        "PRODUCT",
		CallbackURL:         s.CallbackURL,
		EnabledInstallments: []int{1},
		Buyer: utils.Buyer{
			ID:                  user.ID,
			Name:                first,
			Surname:             last,
			GsmNumber:           o.Buyer.GsmNumber,
			Email:               email,
			IdentityNumber:      o.Buyer.IdentityNumber,
			LastLoginDate:       now.Format(gatewayTimeLayout),
			RegistrationDate:    registered.UTC().Format(gatewayTimeLayout),
			RegistrationAddress: o.Buyer.Address,
			IP:                  req.ClientIP,
			City:                o.Buyer.City,
			Country:             o.Buyer.Country,
			ZipCode:             o.Buyer.ZipCode,
		},
		ShippingAddress: addr,
		BillingAddress:  addr,
		BasketItems: []utils.BasketItem{{
			ID:        "membership_premium",
			Name:      o.ItemName,
			Category1: "Membership",
			Category2: "Digital",
			ItemType:  "VIRTUAL",
			Price:     o.Price,
		}},
	}
}

// HandleCallback reconciles a gateway callback. It never reports errors: every
// failure is logged and leaves state untouched.
func (s *paymentService) HandleCallback(ctx context.Context, token string) {
	token = strings.TrimSpace(token)
	if token == "" {
		log.Printf("[payment][callback] no token provided")
		return
	}
	res, err := s.Gateway.RetrieveCheckout(ctx, token)
	if err != nil {
		log.Printf("[payment][callback] retrieve failed token=%s: %v", utils.TokenPrefix(token), err)
		return
	}
	log.Printf("[payment][callback] token=%s status=%s paymentStatus=%s basket=%s",
		utils.TokenPrefix(token), res.Status, res.PaymentStatus, res.BasketID)

	userID, ok := parseBasketID(res.BasketID)
	if !ok {
		log.Printf("[payment][callback] invalid basketId format: %q", res.BasketID)
		return
	}
	user, err := s.Store.Users().GetByID(ctx, userID)
	if err != nil {
		log.Printf("[payment][callback] user lookup failed userID=%s: %v", userID, err)
		return
	}

	if res.Succeeded() {
		s.applySuccess(ctx, user, token, res)
		return
	}
	s.applyFailure(ctx, user, token, res)
}

var errAlreadyApplied = errors.New("payment already applied")

func (s *paymentService) applySuccess(ctx context.Context, user *models.User, token string, res *utils.CheckoutResult) {
	paymentID := res.PaymentID
	gatewayID := res.GatewayPaymentID
	if gatewayID == "" {
		gatewayID = paymentID
	}

	now := s.now().UTC()
	expiry := now.AddDate(0, 0, s.MembershipDays)
	var (
		member  *models.User
		entry   *models.PaymentEntry
		already bool
	)
	err := s.Store.WithinTx(ctx, func(tx repositories.Store) error {
		if paymentID != "" {
			_, err := tx.Payments().GetSuccessByPaymentID(ctx, paymentID)
			if err == nil {
				already = true
				return nil
			}
			if !errors.Is(err, repositories.ErrNotFound) {
				return fmt.Errorf("idempotency check: %w", err)
			}
		}
		e, err := matchEntry(ctx, tx, user.ID, token, res.ConversationID)
		if err != nil {
			return err
		}

		// the history entry is claimed before the user is touched; a delivery
		// that loses the claim writes nothing
		if e == nil {
			conv := res.ConversationID
			if conv == "" {
				conv = res.BasketID
			}
			tok := token
			e = &models.PaymentEntry{
				UserID:         user.ID,
				ConversationID: conv,
				BasketID:       res.BasketID,
				GatewayToken:   &tok,
				Amount:         res.PaidPrice.String(),
				Currency:       res.Currency,
				Status:         models.PaymentSuccess,
				CreatedAt:      now,
			}
			setPaymentIDs(e, paymentID, gatewayID)
			if err := tx.Payments().Insert(ctx, e); err != nil {
				if errors.Is(err, repositories.ErrDuplicate) {
					return errAlreadyApplied
				}
				return err
			}
		} else {
			if e.Status == models.PaymentSuccess {
				already = true
				return nil
			}
			setPaymentIDs(e, paymentID, gatewayID)
			if p := res.PaidPrice.String(); p != "" {
				e.Amount = p
			}
			if res.Currency != "" {
				e.Currency = res.Currency
			}
			e.UpdatedAt = now
			claimed, err := tx.Payments().Settle(ctx, e)
			if err != nil {
				return err
			}
			if !claimed {
				already = true
				return nil
			}
		}
		entry = e

		member, err = mutateUser(ctx, tx.Users(), user, func(u *models.User) error {
			if exp := u.Status.MembershipExpiry(); u.Status.PaidMember() && exp != nil && !exp.Before(expiry) {
				return errNoChange
			}
			if !canTransition(u.Status.Kind(), models.StatusActiveMember) {
				log.Printf("[payment][callback] warning: unexpected transition %s -> %s userID=%s", u.Status.Kind(), models.StatusActiveMember, u.ID)
			}
			u.Status = models.ActiveMember(expiry)
			u.AcceptedTerms = true
			u.AcceptedPreliminaryInformation = true
			u.TermsAcceptedAt = &now
			return nil
		})
		return err
	})
	if already || errors.Is(err, errAlreadyApplied) {
		log.Printf("[payment][callback] duplicate delivery token=%s paymentID=%s userID=%s", utils.TokenPrefix(token), paymentID, user.ID)
		return
	}
	if err != nil {
		log.Printf("[payment][callback] apply success failed userID=%s: %v", user.ID, err)
		return
	}
	if exp := member.Status.MembershipExpiry(); exp != nil {
		expiry = *exp
	}
	log.Printf("[payment][callback] userID=%s is now premium member until %s", member.ID, expiry.Format("2006-01-02"))

	s.notifyPaid(member, entry, now, expiry)
}

func (s *paymentService) notifyPaid(u *models.User, e *models.PaymentEntry, paidAt, expiry time.Time) {
	paymentID := ""
	if e.PaymentID != nil {
		paymentID = *e.PaymentID
	}
	mail := PaymentMail{
		Name:        u.Name,
		PaymentID:   paymentID,
		Amount:      e.Amount,
		Currency:    e.Currency,
		MemberUntil: expiry,
	}
	receipt := pdf.ReceiptData{
		Name:        u.Name,
		Email:       u.Email,
		PaymentID:   paymentID,
		Amount:      e.Amount,
		Currency:    e.Currency,
		Country:     e.Country,
		PaidAt:      paidAt,
		MemberUntil: expiry,
	}
	to := u.Email

	s.Notifier.Go("payment-mail", func(ctx context.Context) error {
		if s.Receipts != nil {
			b, err := s.Receipts.Receipt(receipt)
			if err != nil {
				log.Printf("[payment][receipt] render failed userID=%s: %v", u.ID, err)
			} else {
				mail.ReceiptPDF = b
			}
		}
		return s.Emails.SendPaymentSuccess(ctx, to, mail)
	})
	s.Notifier.Go("payment-alert", func(ctx context.Context) error {
		return s.Alerts.PaymentSucceeded(ctx, u, e)
	})
}

func (s *paymentService) applyFailure(ctx context.Context, user *models.User, token string, res *utils.CheckoutResult) {
	now := s.now().UTC()
	err := s.Store.WithinTx(ctx, func(tx repositories.Store) error {
		e, err := matchEntry(ctx, tx, user.ID, token, res.ConversationID)
		if err != nil {
			return err
		}
		if e == nil || e.Status != models.PaymentPending {
			return errNoChange
		}
		e.Status = models.PaymentFailed
		e.UpdatedAt = now
		if err := tx.Payments().Update(ctx, e); err != nil {
			return err
		}

		pending, err := tx.Payments().CountPending(ctx, user.ID)
		if err != nil {
			return err
		}
		if pending > 0 {
			return nil
		}
		_, err = mutateUser(ctx, tx.Users(), user, func(u *models.User) error {
			if u.Status.Kind() != models.StatusPendingPayment {
				return errNoChange
			}
			u.Status = models.VerifiedUnpaid()
			return nil
		})
		return err
	})
	if errors.Is(err, errNoChange) {
		log.Printf("[payment][callback] failed payment without pending entry userID=%s token=%s", user.ID, utils.TokenPrefix(token))
		return
	}
	if err != nil {
		log.Printf("[payment][callback] apply failure failed userID=%s: %v", user.ID, err)
		return
	}
	log.Printf("[payment][callback] payment failed userID=%s token=%s", user.ID, utils.TokenPrefix(token))
}

func (s *paymentService) CheckStatus(ctx context.Context, userID string) (*models.PaymentSnapshot, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, validationf("User ID required")
	}
	user, err := s.Store.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	last, err := s.Store.Payments().Last(ctx, user.ID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}
	return &models.PaymentSnapshot{
		Status:                         user.Status.Kind(),
		IsPaid:                         user.Status.Paid(),
		IsPaidMember:                   user.Status.PaidMember(),
		MembershipExpiryDate:           user.Status.MembershipExpiry(),
		AcceptedTerms:                  user.AcceptedTerms,
		AcceptedPreliminaryInformation: user.AcceptedPreliminaryInformation,
		TermsAcceptanceDate:            user.TermsAcceptedAt,
		LastPayment:                    last,
	}, nil
}

// matchEntry finds the history entry of this checkout: by the gateway token first,
// then by the exact conversation id.
func matchEntry(ctx context.Context, tx repositories.Store, userID, token, conversationID string) (*models.PaymentEntry, error) {
	e, err := tx.Payments().GetByToken(ctx, token)
	switch {
	case err == nil:
		if e.UserID != userID {
			return nil, fmt.Errorf("token %s belongs to another user", utils.TokenPrefix(token))
		}
		return e, nil
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, err
	}
	if conversationID == "" {
		return nil, nil
	}
	e, err = tx.Payments().GetByConversationID(ctx, userID, conversationID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return e, nil
}

func setPaymentIDs(e *models.PaymentEntry, paymentID, gatewayID string) {
	if paymentID != "" {
		p := paymentID
		e.PaymentID = &p
	}
	if gatewayID != "" {
		g := gatewayID
		e.GatewayPaymentID = &g
	}
}

// parseBasketID extracts the user id from "basket_<userId>".
func parseBasketID(basketID string) (string, bool) {
	parts := strings.Split(basketID, "_")
	if len(parts) != 2 || parts[0] != "basket" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
