package rates

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"storefront-console/internal/core"
)

func TestCurrentRate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"codigo": "dolar",
			"serie": [
				{"fecha": "2026-08-28T03:00:00.000Z", "valor": 952.41},
				{"fecha": "2026-08-27T03:00:00.000Z", "valor": 948.12}
			]
		}`))
	}))
	defer srv.Close()

	rate, err := NewClient(srv.URL).CurrentRate(context.Background())
	if err != nil {
		t.Fatalf("CurrentRate failed: %v", err)
	}
	want, _ := decimal.NewFromString("952.41")
	if !rate.Equal(want) {
		t.Errorf("rate = %s, want the newest value 952.41", rate)
	}
}

func TestCurrentRate_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
		},
		{
			name: "empty series",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"serie": []}`))
			},
		},
		{
			name: "zero value",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"serie": [{"fecha": "2026-08-28T03:00:00.000Z", "valor": 0}]}`))
			},
		},
		{
			name: "not json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`<html>maintenance</html>`))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := NewClient(srv.URL).CurrentRate(context.Background())
			if !errors.Is(err, core.ErrRateUnavailable) {
				t.Errorf("CurrentRate error = %v, want ErrRateUnavailable", err)
			}
		})
	}
}

func TestCurrentRate_UnreachableHost(t *testing.T) {
	// A closed server behaves like the source being down.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := NewClient(srv.URL).CurrentRate(context.Background())
	if !errors.Is(err, core.ErrRateUnavailable) {
		t.Errorf("CurrentRate error = %v, want ErrRateUnavailable", err)
	}
}
