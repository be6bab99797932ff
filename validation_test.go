package btcnet

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateCommand(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"empty", "", ErrInvalidCommand},
		{"valid short", "ping", nil},
		{"valid max length", strings.Repeat("a", 12), nil},
		{"too long", strings.Repeat("a", 13), ErrCommandTooLong},
		{"control char", "pi\x01ng", ErrInvalidCommand},
		{"space", "ping pong", ErrInvalidCommand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCommand(tt.input)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateUserAgent(t *testing.T) {
	if err := ValidateUserAgent(""); !errors.Is(err, ErrInvalidUserAgent) {
		t.Errorf("expected ErrInvalidUserAgent for empty, got %v", err)
	}
	if err := ValidateUserAgent("/btcnet:0.1/"); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if err := ValidateUserAgent(strings.Repeat("a", 257)); !errors.Is(err, ErrInvalidUserAgent) {
		t.Errorf("expected ErrInvalidUserAgent for oversized agent, got %v", err)
	}
	if err := ValidateUserAgent("bad\x00agent"); !errors.Is(err, ErrInvalidUserAgent) {
		t.Errorf("expected ErrInvalidUserAgent for control char, got %v", err)
	}
}

func TestValidateEndpoint(t *testing.T) {
	if err := ValidateEndpoint("1.2.3.4:8333"); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if err := ValidateEndpoint("not-an-endpoint"); !errors.Is(err, ErrInvalidEndpoint) {
		t.Errorf("expected ErrInvalidEndpoint, got %v", err)
	}
	if err := ValidateEndpoint(":8333"); !errors.Is(err, ErrInvalidEndpoint) {
		t.Errorf("expected ErrInvalidEndpoint for missing host, got %v", err)
	}
}

func TestValidateEndpoints(t *testing.T) {
	if err := ValidateEndpoints([]string{"1.2.3.4:8333", "5.6.7.8:8333"}); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if err := ValidateEndpoints([]string{"1.2.3.4:8333", "bad"}); err == nil {
		t.Error("expected error for the invalid entry")
	}
}
