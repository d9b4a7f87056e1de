package channel

import "testing"

func TestParseTarget(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		want     Target
		wantErr  bool
	}{
		{name: "host port", endpoint: "localhost:5154", want: Target{Address: "localhost:5154", ServerName: "localhost"}},
		{name: "https default port", endpoint: "https://palace.example.com", want: Target{Address: "palace.example.com:443", Secure: true, ServerName: "palace.example.com"}},
		{name: "https explicit port", endpoint: "https://palace.example.com:8443/", want: Target{Address: "palace.example.com:8443", Secure: true, ServerName: "palace.example.com"}},
		{name: "http default port", endpoint: "http://127.0.0.1", want: Target{Address: "127.0.0.1:80", ServerName: "127.0.0.1"}},
		{name: "trims space", endpoint: "  localhost:1  ", want: Target{Address: "localhost:1", ServerName: "localhost"}},
		{name: "empty", endpoint: "", wantErr: true},
		{name: "missing port", endpoint: "localhost", wantErr: true},
		{name: "unsupported scheme", endpoint: "ftp://example.com", wantErr: true},
		{name: "no host", endpoint: "https://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTarget(tt.endpoint)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %+v", tt.endpoint, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse %q: %v", tt.endpoint, err)
			}
			if got != tt.want {
				t.Fatalf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}
