package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	authflow "github.com/wardline/authflow"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient(authflow.HTTPConfig{BaseURL: srv.URL, UserAgent: "authflow-test/1"}, srv.Client())
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		t.Fatalf("encode response: %v", err)
	}
}

func TestInitLoginDirectSession(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/login" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req initLoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Email != "a@x.com" || req.Password != "pw" {
			t.Fatalf("unexpected credentials %+v", req)
		}
		writeJSON(t, w, http.StatusOK, map[string]any{
			"token": "t1",
			"user":  map[string]string{"id": "u1", "role": "nurse"},
		})
	}))

	result, err := client.InitLogin(context.Background(), "a@x.com", "pw")
	if err != nil {
		t.Fatalf("InitLogin failed: %v", err)
	}
	if result.Session == nil || result.Session.Token != "t1" || result.Session.User.Role != "nurse" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestInitLoginOtpChallenge(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]string{
			"otp_session_id": "s1",
			"masked_phone":   "***1234",
		})
	}))

	result, err := client.InitLogin(context.Background(), "a@x.com", "pw")
	if err != nil {
		t.Fatalf("InitLogin failed: %v", err)
	}
	if result.Challenge == nil || result.Challenge.SessionID != "s1" || result.Challenge.MaskedPhone != "***1234" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestInitLoginPendingUserWinsOverChallenge(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]string{
			"pending_user_id": "pu1",
			"otp_session_id":  "s1",
		})
	}))

	result, err := client.InitLogin(context.Background(), "a@x.com", "pw")
	if err != nil {
		t.Fatalf("InitLogin failed: %v", err)
	}
	if result.PendingUserID != "pu1" || result.Challenge != nil {
		t.Fatalf("phone collection must take priority, got %+v", result)
	}
}

func TestInitLoginErrorMappings(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   any
		want   error
	}{
		{"envelope invalid credentials", http.StatusUnauthorized, errorEnvelope{Code: "invalid_credentials"}, authflow.ErrInvalidCredentials},
		{"envelope legacy totp", http.StatusConflict, errorEnvelope{Code: "legacy_totp_required"}, authflow.ErrLegacyTwoFactorRequired},
		{"status legacy marker without envelope", http.StatusPreconditionRequired, nil, authflow.ErrLegacyTwoFactorRequired},
		{"status unauthorized without envelope", http.StatusUnauthorized, nil, authflow.ErrUnauthorized},
		{"server failure", http.StatusInternalServerError, nil, authflow.ErrNetworkUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tc.body == nil {
					w.WriteHeader(tc.status)
					return
				}
				writeJSON(t, w, tc.status, tc.body)
			}))

			_, err := client.InitLogin(context.Background(), "a@x.com", "pw")
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestSubmitPhoneIssuesChallenge(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/otp/phone" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var req submitPhoneRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.PendingUserID != "pu1" || req.Phone != "+15551234" {
			t.Fatalf("unexpected request %+v", req)
		}
		writeJSON(t, w, http.StatusOK, map[string]string{
			"otp_session_id": "s1",
			"masked_phone":   "***1234",
		})
	}))

	challenge, err := client.SubmitPhone(context.Background(), "pu1", "+15551234")
	if err != nil {
		t.Fatalf("SubmitPhone failed: %v", err)
	}
	if challenge.SessionID != "s1" || challenge.MaskedPhone != "***1234" {
		t.Fatalf("unexpected challenge: %+v", challenge)
	}
}

func TestSubmitPhoneInvalidNumber(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusBadRequest, errorEnvelope{Code: "invalid_phone"})
	}))

	if _, err := client.SubmitPhone(context.Background(), "pu1", "garbage"); !errors.Is(err, authflow.ErrInvalidPhone) {
		t.Fatalf("expected ErrInvalidPhone, got %v", err)
	}
}

func TestVerifyOtpMappings(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   any
		want   error
	}{
		{"wrong code", http.StatusBadRequest, errorEnvelope{Code: "invalid_code"}, authflow.ErrInvalidCode},
		{"expired challenge via envelope", http.StatusBadRequest, errorEnvelope{Code: "otp_session_expired"}, authflow.ErrOtpSessionExpired},
		{"expired challenge via status", http.StatusGone, nil, authflow.ErrOtpSessionExpired},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tc.body == nil {
					w.WriteHeader(tc.status)
					return
				}
				writeJSON(t, w, tc.status, tc.body)
			}))

			_, err := client.VerifyOtp(context.Background(), "s1", "000000")
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestVerifyOtpSuccess(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/otp/verify" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		writeJSON(t, w, http.StatusOK, map[string]any{
			"token": "t1",
			"user":  map[string]string{"id": "u1"},
		})
	}))

	sess, err := client.VerifyOtp(context.Background(), "s1", "123456")
	if err != nil {
		t.Fatalf("VerifyOtp failed: %v", err)
	}
	if sess.Token != "t1" || sess.User.ID != "u1" {
		t.Fatalf("unexpected session: %+v", sess)
	}
}

func TestResendOtpAcceptsNoContent(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/otp/resend" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var req resendOtpRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.OtpSessionID != "s1" {
			t.Fatalf("unexpected request %+v", req)
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	if err := client.ResendOtp(context.Background(), "s1"); err != nil {
		t.Fatalf("ResendOtp failed: %v", err)
	}
}

func TestLegacyVerifySuccess(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/totp/verify" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var req legacyVerifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Email != "a@x.com" || req.Password != "pw" || req.Code != "654321" {
			t.Fatalf("unexpected request %+v", req)
		}
		writeJSON(t, w, http.StatusOK, map[string]any{
			"token": "t1",
			"user":  map[string]string{"id": "u1"},
		})
	}))

	sess, err := client.LegacyVerify(context.Background(), "a@x.com", "pw", "654321")
	if err != nil {
		t.Fatalf("LegacyVerify failed: %v", err)
	}
	if sess.Token != "t1" {
		t.Fatalf("unexpected session: %+v", sess)
	}
}

func TestFetchCurrentUserSendsBearer(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/auth/me" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer t1" {
			t.Fatalf("unexpected authorization %q", got)
		}
		writeJSON(t, w, http.StatusOK, map[string]any{
			"user": map[string]string{"id": "u1", "name": "Dana"},
		})
	}))

	user, err := client.FetchCurrentUser(context.Background(), "t1")
	if err != nil {
		t.Fatalf("FetchCurrentUser failed: %v", err)
	}
	if user.ID != "u1" || user.Name != "Dana" {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestFetchCurrentUserUnauthorized(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, errorEnvelope{Code: "unauthorized"})
	}))

	if _, err := client.FetchCurrentUser(context.Background(), "stale"); !errors.Is(err, authflow.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestRequestDecoration(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Request-ID") == "" {
			t.Fatal("expected a request id on every call")
		}
		if got := r.Header.Get("User-Agent"); got != "authflow-test/1" {
			t.Fatalf("unexpected user agent %q", got)
		}
		if got := r.Header.Get("X-Device-ID"); got != "kiosk-7" {
			t.Fatalf("unexpected device id %q", got)
		}
		writeJSON(t, w, http.StatusOK, map[string]any{
			"token": "t1",
			"user":  map[string]string{"id": "u1"},
		})
	}))

	ctx := authflow.WithDeviceID(context.Background(), "kiosk-7")
	if _, err := client.InitLogin(ctx, "a@x.com", "pw"); err != nil {
		t.Fatalf("InitLogin failed: %v", err)
	}
}

func TestTransportFailureIsNetworkUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client, err := NewClient(authflow.HTTPConfig{BaseURL: url}, nil)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if _, err := client.InitLogin(context.Background(), "a@x.com", "pw"); !errors.Is(err, authflow.ErrNetworkUnavailable) {
		t.Fatalf("expected ErrNetworkUnavailable, got %v", err)
	}
}

func TestUnrecognizedInitLoginResponse(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]string{})
	}))

	if _, err := client.InitLogin(context.Background(), "a@x.com", "pw"); !errors.Is(err, authflow.ErrNetworkUnavailable) {
		t.Fatalf("expected ErrNetworkUnavailable, got %v", err)
	}
}
