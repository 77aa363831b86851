package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/AlxM1/aelo/internal/domain"
	"github.com/google/uuid"
)

const (
	SignatureHeader  = "Checkout-Signature"
	DefaultTolerance = 5 * time.Minute

	EventSessionCompleted    = "checkout.session.completed"
	EventAsyncPaymentSuccess = "checkout.session.async_payment_succeeded"
	EventAsyncPaymentFailed  = "checkout.session.async_payment_failed"
	EventSessionExpired      = "checkout.session.expired"
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrUnhandledEvent   = errors.New("unhandled webhook event")
)

// Sign produces a signature header value for payload at t.
func Sign(payload []byte, secret string, t time.Time) string {
	ts := strconv.FormatInt(t.Unix(), 10)
	return "t=" + ts + ",v1=" + computeSignature(ts, payload, secret)
}

// VerifySignature checks a "t=<unix>,v1=<hex>" header against payload. The
// timestamp must be within tolerance of now.
func VerifySignature(payload []byte, header, secret string, now time.Time, tolerance time.Duration) error {
	if secret == "" {
		return fmt.Errorf("%w: no webhook secret configured", ErrInvalidSignature)
	}

	var (
		ts   string
		sigs []string
	)
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			ts = v
		case "v1":
			sigs = append(sigs, v)
		}
	}
	if ts == "" || len(sigs) == 0 {
		return fmt.Errorf("%w: malformed header", ErrInvalidSignature)
	}

	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: bad timestamp", ErrInvalidSignature)
	}
	if d := now.Sub(time.Unix(unix, 0)); d > tolerance || d < -tolerance {
		return fmt.Errorf("%w: timestamp outside tolerance", ErrInvalidSignature)
	}

	expected := computeSignature(ts, payload, secret)
	for _, sig := range sigs {
		if hmac.Equal([]byte(sig), []byte(expected)) {
			return nil
		}
	}
	return ErrInvalidSignature
}

func computeSignature(ts string, payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

type event struct {
	Type string `json:"type"`
	Data struct {
		Object sessionObject `json:"object"`
	} `json:"data"`
}

type sessionObject struct {
	ID                string `json:"id"`
	ClientReferenceID string `json:"client_reference_id"`
	PaymentStatus     string `json:"payment_status"`
	CustomerDetails   struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	} `json:"customer_details"`
}

// ParseEvent turns a verified webhook body into a payment confirmation.
// Event types that do not concern order creation return ErrUnhandledEvent.
// Failed and expired sessions come back with Paid false and Failed true.
func ParseEvent(payload []byte) (*domain.PaymentConfirmation, error) {
	var e event
	if err := json.Unmarshal(payload, &e); err != nil {
		return nil, fmt.Errorf("decode webhook event: %w", err)
	}

	obj := e.Data.Object
	c := &domain.PaymentConfirmation{
		ExternalID:    obj.ID,
		CustomerEmail: obj.CustomerDetails.Email,
		CustomerName:  obj.CustomerDetails.Name,
	}

	switch e.Type {
	case EventSessionCompleted:
		c.Paid = obj.PaymentStatus == "paid" || obj.PaymentStatus == "no_payment_required"
	case EventAsyncPaymentSuccess:
		c.Paid = true
	case EventAsyncPaymentFailed, EventSessionExpired:
		c.Failed = true
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnhandledEvent, e.Type)
	}

	id, err := uuid.Parse(obj.ClientReferenceID)
	if err != nil {
		return nil, fmt.Errorf("webhook event without checkout reference: %w", domain.Invalid("client_reference_id", err.Error()))
	}
	c.CheckoutSessionID = id
	return c, nil
}
