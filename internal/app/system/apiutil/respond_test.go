package apiutil

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func decodeReq(t *testing.T, body string) error {
	t.Helper()
	r := httptest.NewRequest("POST", "/", strings.NewReader(body))
	var dst struct {
		Email string `json:"email"`
	}
	return DecodeBody(r, &dst)
}

func TestDecodeBody(t *testing.T) {
	if err := decodeReq(t, `{"email":"ada@example.com"}`); err != nil {
		t.Errorf("valid body rejected: %v", err)
	}
	if err := decodeReq(t, `not json`); err == nil {
		t.Error("malformed body accepted")
	}
	if err := decodeReq(t, `{"email":"a@b.c","extra":true}`); err == nil {
		t.Error("unknown field accepted")
	}
	if err := decodeReq(t, `{"email":"a@b.c"}{"email":"x@y.z"}`); err == nil {
		t.Error("trailing garbage accepted")
	}
}

func TestDecodeBodyIntoMap(t *testing.T) {
	r := httptest.NewRequest("PUT", "/", strings.NewReader(`{"anything":1,"goes":2}`))
	var dst map[string]any
	if err := DecodeBody(r, &dst); err != nil {
		t.Errorf("map decode rejected: %v", err)
	}
	if len(dst) != 2 {
		t.Errorf("map = %v", dst)
	}
}
