package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"supply_sandbox/internal/service"
)

func postJSON(t *testing.T, s *service.Service, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	newTestRouter(s).ServeHTTP(w, req)
	return w
}

func TestSignUp_Created(t *testing.T) {
	auth := &mockAuth{signUpID: 42}
	w := postJSON(t, &service.Service{Authorization: auth}, "/auth/sign-up", `{"username":"planner","password":"s3cret!"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var got struct{ ID int }
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil || got.ID != 42 {
		t.Fatalf("body=%s err=%v", w.Body.String(), err)
	}
	if auth.lastCred != (service.Credentials{Username: "planner", Password: "s3cret!"}) {
		t.Fatalf("credentials not forwarded: %+v", auth.lastCred)
	}
}

func TestSignUp_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"taken", service.ErrUsernameTaken, http.StatusConflict},
		{"bad username", service.ErrInvalidUsername, http.StatusBadRequest},
		{"bad password", service.ErrInvalidPassword, http.StatusBadRequest},
		{"storage", errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := postJSON(t, &service.Service{Authorization: &mockAuth{signUpErr: tc.err}}, "/auth/sign-up", `{"username":"planner","password":"s3cret!"}`)
			if w.Code != tc.want {
				t.Fatalf("status=%d want %d body=%s", w.Code, tc.want, w.Body.String())
			}
		})
	}
}

func TestSignIn(t *testing.T) {
	exp := time.Date(2025, 5, 1, 20, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		auth     *mockAuth
		body     string
		want     int
		wantBody string
	}{
		{"ok", &mockAuth{token: service.Token{Value: "tok123", ExpiresAt: exp}}, `{"username":"planner","password":"s3cret!"}`, http.StatusOK, `{"token":"tok123","expires_at":"2025-05-01T20:00:00Z"}`},
		{"bad credentials", &mockAuth{signInErr: service.ErrInvalidCredentials}, `{"username":"planner","password":"nope"}`, http.StatusUnauthorized, ""},
		{"storage", &mockAuth{signInErr: errors.New("locked")}, `{"username":"planner","password":"s3cret!"}`, http.StatusInternalServerError, `{"error":"failed to sign in"}`},
		{"wrong type", &mockAuth{}, `{"username":1}`, http.StatusBadRequest, ""},
		{"missing password", &mockAuth{}, `{"username":"planner"}`, http.StatusBadRequest, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := postJSON(t, &service.Service{Authorization: tc.auth}, "/auth/sign-in", tc.body)
			if w.Code != tc.want {
				t.Fatalf("status=%d want %d body=%s", w.Code, tc.want, w.Body.String())
			}
			if tc.wantBody != "" && w.Body.String() != tc.wantBody {
				t.Fatalf("body=%s want %s", w.Body.String(), tc.wantBody)
			}
		})
	}
}
