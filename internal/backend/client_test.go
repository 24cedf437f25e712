package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tillway/tillway/internal/shared"
)

func TestLoginSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/login" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode login body: %v", err)
		}
		if body["email"] != "till@tillway.example" {
			t.Fatalf("email = %q", body["email"])
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "issued-token"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	token, err := client.Login(context.Background(), "till@tillway.example", "hunter22")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token != "issued-token" {
		t.Fatalf("token = %q", token)
	}
}

func TestLoginRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).Login(context.Background(), "x@y.example", "wrong")
	if !errors.Is(err, shared.ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginEmptyTokenRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"token": ""})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).Login(context.Background(), "x@y.example", "pw")
	if !errors.Is(err, shared.ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestListProductsSendsBearer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Fatalf("authorization = %q", got)
		}
		_ = json.NewEncoder(w).Encode([]Product{{ID: "p-1", Name: "Espresso"}})
	}))
	defer srv.Close()

	products, err := NewClient(srv.URL, time.Second).ListProducts(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("list products: %v", err)
	}
	if len(products) != 1 || products[0].Name != "Espresso" {
		t.Fatalf("unexpected products %+v", products)
	}
}

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, shared.ErrUnauthorized},
		{http.StatusForbidden, shared.ErrForbidden},
		{http.StatusNotFound, shared.ErrNotFound},
		{http.StatusBadGateway, shared.ErrBackendUnavailable},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		_, err := NewClient(srv.URL, time.Second).ListUsers(context.Background(), "tok")
		srv.Close()
		if !errors.Is(err, tc.want) {
			t.Fatalf("status %d mapped to %v, want %v", tc.status, err, tc.want)
		}
	}
}

func TestConnectionFailureWrapped(t *testing.T) {
	// A listener that is already closed.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := NewClient(srv.URL, time.Second).ListCustomers(context.Background(), "tok")
	if !errors.Is(err, shared.ErrBackendUnavailable) {
		t.Fatalf("err = %v, want ErrBackendUnavailable", err)
	}
}

func TestVoidTransactionPath(t *testing.T) {
	var gotPath, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
	}))
	defer srv.Close()

	if err := NewClient(srv.URL, time.Second).VoidTransaction(context.Background(), "tok", "tx-9"); err != nil {
		t.Fatalf("void: %v", err)
	}
	if gotMethod != http.MethodPost || gotPath != "/transactions/tx-9/void" {
		t.Fatalf("request %s %s", gotMethod, gotPath)
	}
}
