// Package validate normalizes raw transaction input before it reaches the ledger.
package validate

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/hongminglow/loyalty-ledger/internal/models"
)

var (
	namePattern   = regexp.MustCompile(`^[\p{L}\s'-]+$`)
	mobilePattern = regexp.MustCompile(`^(\+92|0092|92|0)([0-9]{10})$`)
	amountPattern = regexp.MustCompile(`^([0-9]+(\.[0-9]{0,2})?|\.[0-9]{1,2})$`)
	pointsPattern = regexp.MustCompile(`^[0-9]+$`)

	nameKeys   = regexp.MustCompile(`^[\p{L}\s'-]*$`)
	mobileKeys = regexp.MustCompile(`^\+?[0-9]*$`)
	amountKeys = regexp.MustCompile(`^[0-9]*\.?[0-9]*$`)
)

// Input holds the raw form values for one transaction.
type Input struct {
	Name   string
	Mobile string
	Mode   models.Mode
	Amount string
}

// Transaction validates in and returns a normalized request. Name is optional
// here; the ledger requires it only when a new customer is created.
func Transaction(in Input) (models.TransactionRequest, error) {
	mobile, err := Mobile(in.Mobile)
	if err != nil {
		return models.TransactionRequest{}, err
	}
	req := models.TransactionRequest{Mobile: mobile, Mode: in.Mode}

	if strings.TrimSpace(in.Name) != "" {
		if req.Name, err = Name(in.Name); err != nil {
			return models.TransactionRequest{}, err
		}
	}

	switch in.Mode {
	case models.ModeAdd:
		req.Amount, err = Amount(in.Amount)
	case models.ModeRedeem:
		req.Points, err = Points(in.Amount)
	default:
		err = models.NewValidationError("mode", models.ReasonInvalid)
	}
	if err != nil {
		return models.TransactionRequest{}, err
	}
	return req, nil
}

// Name trims and checks a display name.
func Name(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", models.NewValidationError("name", models.ReasonMissingField)
	}
	if !namePattern.MatchString(name) {
		return "", models.NewValidationError("name", models.ReasonInvalid)
	}
	return name, nil
}

// Mobile checks a Pakistani mobile number and returns it in +92XXXXXXXXXX form.
func Mobile(raw string) (string, error) {
	mobile := strings.TrimSpace(raw)
	if mobile == "" {
		return "", models.NewValidationError("mobile", models.ReasonMissingField)
	}
	m := mobilePattern.FindStringSubmatch(mobile)
	if m == nil {
		return "", models.NewValidationError("mobile", models.ReasonInvalid)
	}
	return "+92" + m[2], nil
}

// Amount parses a positive currency amount with at most two decimal places.
func Amount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, models.NewValidationError("amount", models.ReasonMissingField)
	}
	if !amountPattern.MatchString(s) {
		return decimal.Zero, models.NewValidationError("amount", models.ReasonInvalid)
	}
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, models.NewValidationError("amount", models.ReasonInvalid)
	}
	if !amount.IsPositive() {
		return decimal.Zero, models.NewValidationError("amount", models.ReasonNotPositive)
	}
	return amount, nil
}

// Points parses a positive whole number of points.
func Points(raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, models.NewValidationError("points", models.ReasonMissingField)
	}
	if !pointsPattern.MatchString(s) {
		return 0, models.NewValidationError("points", models.ReasonInvalid)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, models.NewValidationError("points", models.ReasonInvalid)
	}
	if n <= 0 {
		return 0, models.NewValidationError("points", models.ReasonNotPositive)
	}
	return n, nil
}

// The Accept* filters report whether a partially typed value may be kept in
// the input field. They do not imply the value is complete or valid.

func AcceptNameKeys(partial string) bool   { return nameKeys.MatchString(partial) }
func AcceptMobileKeys(partial string) bool { return mobileKeys.MatchString(partial) }
func AcceptAmountKeys(partial string) bool { return amountKeys.MatchString(partial) }
