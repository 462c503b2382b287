package authflow

import (
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("defaults must validate, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "absolute base url",
			mutate: func(c *Config) { c.HTTP.BaseURL = "https://api.hospital.example" },
		},
		{
			name:    "relative base url",
			mutate:  func(c *Config) { c.HTTP.BaseURL = "/auth" },
			wantErr: true,
		},
		{
			name:    "schemeless base url",
			mutate:  func(c *Config) { c.HTTP.BaseURL = "api.hospital.example" },
			wantErr: true,
		},
		{
			name:    "negative timeout",
			mutate:  func(c *Config) { c.HTTP.Timeout = -time.Second },
			wantErr: true,
		},
		{
			name:    "negative expiry skew",
			mutate:  func(c *Config) { c.Bootstrap.ExpirySkew = -time.Minute },
			wantErr: true,
		},
		{
			name: "audit enabled without buffer",
			mutate: func(c *Config) {
				c.Audit.Enabled = true
				c.Audit.BufferSize = 0
			},
			wantErr: true,
		},
		{
			name: "audit disabled ignores buffer",
			mutate: func(c *Config) {
				c.Audit.Enabled = false
				c.Audit.BufferSize = 0
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr && err == nil {
				t.Fatal("expected validation error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestFlowStateStrings(t *testing.T) {
	want := map[FlowState]string{
		StateIdle:               "idle",
		StateOtpPhoneRequired:   "otp_phone_required",
		StateOtpPending:         "otp_pending",
		StateLegacyCodeRequired: "legacy_code_required",
		StateAuthenticated:      "authenticated",
	}
	for state, name := range want {
		if got := state.String(); got != name {
			t.Fatalf("expected %q, got %q", name, got)
		}
	}
}
