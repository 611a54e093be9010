package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"homelink/internal/models"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return NewClient(srv.URL, 5*time.Second), srv
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 1,
		"exp":     exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestLoginStoresToken(t *testing.T) {
	var seenBody models.LoginRequest
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&seenBody)
		json.NewEncoder(w).Encode(map[string]string{"token": "tok-123"})
	}))
	defer srv.Close()

	if err := client.Login(context.Background(), "user", "pass"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if seenBody.Username != "user" || seenBody.Password != "pass" {
		t.Errorf("login payload wrong: %+v", seenBody)
	}

	// The stored token rides on the next request
	var gotAuth string
	client2, srv2 := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(models.Device{ID: "lamp1"})
	}))
	defer srv2.Close()
	client2.SetToken("tok-123")
	if _, err := client2.GetDevice(context.Background(), "lamp1"); err != nil {
		t.Fatalf("GetDevice: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %q", gotAuth)
	}
}

func TestExpiredTokenFailsBeforeRequest(t *testing.T) {
	requests := 0
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		json.NewEncoder(w).Encode(models.Device{})
	}))
	defer srv.Close()

	client.SetToken(signedToken(t, time.Now().Add(-time.Hour)))

	_, err := client.GetDevice(context.Background(), "lamp1")
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	if requests != 0 {
		t.Errorf("expired token must fail locally, but %d requests went out", requests)
	}
}

func TestValidTokenPassesExpiryCheck(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.Device{ID: "lamp1"})
	}))
	defer srv.Close()

	client.SetToken(signedToken(t, time.Now().Add(time.Hour)))
	if _, err := client.GetDevice(context.Background(), "lamp1"); err != nil {
		t.Fatalf("GetDevice: %v", err)
	}
}

func TestUnauthorizedResponse(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := client.GetDevice(context.Background(), "lamp1")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestUnexpectedStatusIsStatusError(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":"Device is not online"}`))
	}))
	defer srv.Close()

	err := client.ControlDevice(context.Background(), "lamp1", models.DeviceState{"power": true})
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.Status != http.StatusConflict {
		t.Errorf("Status = %d", statusErr.Status)
	}
}

func TestControlDeviceExpectsNoContent(t *testing.T) {
	var seen models.ControlDeviceRequest
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/devices/control" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&seen)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := client.ControlDevice(context.Background(), "lamp1", models.DeviceState{"power": true})
	if err != nil {
		t.Fatalf("ControlDevice: %v", err)
	}
	if seen.DeviceID != "lamp1" || seen.Command["power"] != true {
		t.Errorf("payload wrong: %+v", seen)
	}
}

func TestCreateScenarioReturnsID(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/scenarios" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"id": "scenario-9"})
	}))
	defer srv.Close()

	id, err := client.CreateScenario(context.Background(), models.CreateScenarioRequest{Name: "Evening"})
	if err != nil {
		t.Fatalf("CreateScenario: %v", err)
	}
	if id != "scenario-9" {
		t.Errorf("id = %q", id)
	}
}

func TestUpdateScenarioExpectsNoContent(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/scenarios/scenario-9" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := client.UpdateScenario(context.Background(), "scenario-9", models.CreateScenarioRequest{Name: "Evening"})
	if err != nil {
		t.Fatalf("UpdateScenario: %v", err)
	}
}

func TestListDevicesPagination(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("page"); got != "3" {
			t.Errorf("page = %q", got)
		}
		json.NewEncoder(w).Encode(models.DevicePage{
			Data:        []models.Device{{ID: "lamp1"}},
			CurrentPage: 3,
			Total:       41,
			TotalPages:  5,
		})
	}))
	defer srv.Close()

	page, err := client.ListDevices(context.Background(), 3)
	if err != nil {
		t.Fatalf("ListDevices: %v", err)
	}
	if page.CurrentPage != 3 || page.TotalPages != 5 || len(page.Data) != 1 {
		t.Errorf("page = %+v", page)
	}
}
