package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/tradeflow-backend/pkg/errors"
)

type addItemBody struct {
	WholesalerProductID uuid.UUID `json:"wholesalerProductId" validate:"required"`
	Quantity            int       `json:"quantity" validate:"required,gt=0"`
}

func TestDecodeJSONBody(t *testing.T) {
	id := uuid.New()
	cases := []struct {
		name      string
		body      string
		wantErr   bool
		wantField string
	}{
		{name: "valid", body: `{"wholesalerProductId":"` + id.String() + `","quantity":3}`},
		{name: "empty body", body: ``, wantErr: true},
		{name: "unknown field", body: `{"quantity":3,"extra":true}`, wantErr: true},
		{name: "missing quantity", body: `{"wholesalerProductId":"` + id.String() + `"}`, wantErr: true, wantField: "quantity"},
		{name: "negative quantity", body: `{"wholesalerProductId":"` + id.String() + `","quantity":-1}`, wantErr: true, wantField: "quantity"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			var dest addItemBody
			err := DecodeJSONBody(req, &dest)
			if !tc.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if dest.WholesalerProductID != id || dest.Quantity != 3 {
					t.Fatalf("unexpected decode result %+v", dest)
				}
				return
			}
			if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if tc.wantField == "" {
				return
			}
			details, ok := pkgerrors.As(err).Details().(map[string]string)
			if !ok {
				t.Fatalf("expected field details, got %#v", pkgerrors.As(err).Details())
			}
			if _, ok := details[tc.wantField]; !ok {
				t.Fatalf("expected detail for %s, got %v", tc.wantField, details)
			}
		})
	}
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=10&bad=x&big=500", nil)
	if v, err := ParseQueryInt(req, "limit", 25, 1, 100); err != nil || v != 10 {
		t.Fatalf("expected 10, got %d (%v)", v, err)
	}
	if v, err := ParseQueryInt(req, "missing", 25, 1, 100); err != nil || v != 25 {
		t.Fatalf("expected default 25, got %d (%v)", v, err)
	}
	if _, err := ParseQueryInt(req, "bad", 25, 1, 100); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for non-numeric, got %v", err)
	}
	if _, err := ParseQueryInt(req, "big", 25, 1, 100); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for out of range, got %v", err)
	}
}

func TestParseUUIDParam(t *testing.T) {
	id := uuid.New()
	withParam := func(value string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rc := chi.NewRouteContext()
		rc.URLParams.Add("orderId", value)
		return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
	}

	got, err := ParseUUIDParam(withParam(id.String()), "orderId")
	if err != nil || got != id {
		t.Fatalf("expected %s, got %s (%v)", id, got, err)
	}
	if _, err := ParseUUIDParam(withParam("nope"), "orderId"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := ParseUUIDParam(withParam(""), "orderId"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for blank id, got %v", err)
	}
}
