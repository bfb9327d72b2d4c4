package checkout

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/angelmondragon/tradeflow-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tradeflow-backend/pkg/errors"
)

// PlaceOrderInput is the delivery and payment metadata shared by every order
// of one checkout. WholesalerNotes are copied onto the matching order only.
type PlaceOrderInput struct {
	DeliveryAddress       string               `json:"deliveryAddress" validate:"required,max=500"`
	ContactPhone          string               `json:"contactPhone" validate:"required,max=32"`
	PreferredDeliveryDate *time.Time           `json:"preferredDeliveryDate,omitempty"`
	DeliveryInstructions  *string              `json:"deliveryInstructions,omitempty" validate:"omitempty,max=1000"`
	PaymentMethod         enums.PaymentMethod  `json:"paymentMethod" validate:"required"`
	WholesalerNotes       map[uuid.UUID]string `json:"wholesalerNotes,omitempty" validate:"omitempty,dive,max=1000"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	return v
}

// Normalize trims free-text fields and drops blank optional ones.
func (in *PlaceOrderInput) Normalize() {
	in.DeliveryAddress = strings.TrimSpace(in.DeliveryAddress)
	in.ContactPhone = strings.TrimSpace(in.ContactPhone)
	in.PaymentMethod = enums.PaymentMethod(strings.ToLower(strings.TrimSpace(string(in.PaymentMethod))))
	if in.DeliveryInstructions != nil {
		v := strings.TrimSpace(*in.DeliveryInstructions)
		if v == "" {
			in.DeliveryInstructions = nil
		} else {
			in.DeliveryInstructions = &v
		}
	}
	for id, note := range in.WholesalerNotes {
		note = strings.TrimSpace(note)
		if note == "" {
			delete(in.WholesalerNotes, id)
			continue
		}
		in.WholesalerNotes[id] = note
	}
}

// Validate checks the normalized input. A preferred delivery date may be
// today but not earlier, judged in UTC.
func (in PlaceOrderInput) Validate(now time.Time) error {
	details := map[string]string{}
	if err := validate.Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
		}
		for _, fe := range fieldErrs {
			details[fieldName(fe)] = validationMessage(fe)
		}
	}
	if in.PaymentMethod != "" && !in.PaymentMethod.IsValid() {
		details["paymentMethod"] = "must be one of " + joinMethods(enums.PaymentMethods())
	}
	if in.PreferredDeliveryDate != nil {
		today := startOfDay(now)
		if startOfDay(*in.PreferredDeliveryDate).Before(today) {
			details["preferredDeliveryDate"] = "must not be in the past"
		}
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return nil
}

func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	}
	return "is invalid"
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func joinMethods(methods []enums.PaymentMethod) string {
	parts := make([]string, len(methods))
	for i, m := range methods {
		parts[i] = string(m)
	}
	return strings.Join(parts, ", ")
}
