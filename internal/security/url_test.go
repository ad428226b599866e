package security

import (
	"strings"
	"testing"
)

func TestCheckHTTPURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr string
	}{
		{name: "https", url: "https://api.example.com/v1", wantErr: ""},
		{name: "loopback backend", url: "http://127.0.0.1:8081/docs", wantErr: ""},
		{name: "private backend", url: "http://10.0.0.5/docs", wantErr: ""},
		{name: "file scheme", url: "file:///etc/passwd", wantErr: "URL scheme must be http or https"},
		{name: "relative", url: "/docs", wantErr: "URL scheme must be http or https"},
		{name: "no host", url: "http:///docs", wantErr: "URL must have a host"},
		{name: "metadata endpoint", url: "http://169.254.169.254/latest/meta-data", wantErr: "link-local"},
		{name: "unspecified", url: "http://0.0.0.0/docs", wantErr: "unspecified"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CheckHTTPURL(tt.url)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("CheckHTTPURL() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Errorf("CheckHTTPURL() expected error containing %q", tt.wantErr)
			} else if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("CheckHTTPURL() error = %q, want to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestCheckPublicURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr string
	}{
		{name: "slack webhook", url: "https://hooks.slack.com/services/T0/B0/x", wantErr: ""},
		{name: "localhost", url: "http://localhost:8080/hook", wantErr: "requests to localhost are not allowed"},
		{name: "ipv6 loopback", url: "http://[::1]/hook", wantErr: "requests to loopback addresses are not allowed"},
		{name: "192.168.x.x", url: "http://192.168.1.1/hook", wantErr: "requests to private network addresses are not allowed"},
		{name: "metadata endpoint", url: "http://169.254.169.254/", wantErr: "link-local"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckPublicURL(tt.url)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("CheckPublicURL() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Errorf("CheckPublicURL() expected error containing %q", tt.wantErr)
			} else if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("CheckPublicURL() error = %q, want to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}
