package http

import (
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "carpool/pkg/errors"

	"github.com/julienschmidt/httprouter"
)

func TestExtractLimitOffset(t *testing.T) {
	r := httptest.NewRequest("GET", "/notifications?limit=5&offset=10", nil)
	limit, offset, err := ExtractLimitOffset(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if limit != 5 || offset != 10 {
		t.Errorf("got limit=%d offset=%d", limit, offset)
	}

	r = httptest.NewRequest("GET", "/notifications?limit=abc", nil)
	if _, _, err := ExtractLimitOffset(r); !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestParamID(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{"12", 12, false},
		{"0", 0, true},
		{"-1", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			ps := httprouter.Params{{Key: "id", Value: tt.raw}}
			got, err := ParamID(ps, "id")
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Seats int `json:"seats"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"seats": 2}`, false},
		{"empty", ``, true},
		{"malformed", `{"seats": `, true},
		{"unknown field", `{"seats": 1, "extra": true}`, true},
		{"trailing object", `{"seats": 1}{"seats": 2}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/", strings.NewReader(tt.body))
			var p payload
			err := DecodeJSON(r, &p)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
				t.Errorf("expected INVALID_INPUT, got %v", err)
			}
		})
	}
}
