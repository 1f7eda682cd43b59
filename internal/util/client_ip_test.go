package util

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func uploadRequest(remoteAddr, forwardedFor, realIP string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload/debug", nil)
	req.RemoteAddr = remoteAddr
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}
	if realIP != "" {
		req.Header.Set("X-Real-IP", realIP)
	}
	return req
}

func TestClientIPUsesPeerWithoutTrustedProxies(t *testing.T) {
	req := uploadRequest("203.0.113.40:52214", "198.51.100.7", "198.51.100.8")
	if got := ClientIP(req, nil); got != "203.0.113.40" {
		t.Fatalf("client ip = %q, want the direct peer", got)
	}
}

func TestClientIPBehindIngressProxies(t *testing.T) {
	ingress, err := NewTrustedProxies([]string{"10.1.0.0/16", "2001:db8::1"})
	if err != nil {
		t.Fatalf("new trusted proxies: %v", err)
	}

	tests := []struct {
		name         string
		remoteAddr   string
		forwardedFor string
		realIP       string
		want         string
	}{
		{
			name:         "forwarded uploader behind one proxy",
			remoteAddr:   "10.1.2.3:8443",
			forwardedFor: "198.51.100.7",
			want:         "198.51.100.7",
		},
		{
			name:         "uploader behind two trusted hops",
			remoteAddr:   "10.1.2.3:8443",
			forwardedFor: "198.51.100.7, 10.1.9.9",
			want:         "198.51.100.7",
		},
		{
			name:         "hops beyond the uploader are not believed",
			remoteAddr:   "10.1.2.3:8443",
			forwardedFor: "192.0.2.77, 198.51.100.7",
			want:         "198.51.100.7",
		},
		{
			name:       "ipv6 ingress falls back to x-real-ip",
			remoteAddr: "[2001:db8::1]:9443",
			realIP:     "2001:db8:beef::5",
			want:       "2001:db8:beef::5",
		},
		{
			name:         "garbled forwarded chain falls back to x-real-ip",
			remoteAddr:   "10.1.2.3:8443",
			forwardedFor: "not-an-address",
			realIP:       "198.51.100.7",
			want:         "198.51.100.7",
		},
		{
			name:         "chain entirely inside the proxy set",
			remoteAddr:   "10.1.2.3:8443",
			forwardedFor: "10.1.5.5, 10.1.9.9",
			want:         "10.1.5.5",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := uploadRequest(tc.remoteAddr, tc.forwardedFor, tc.realIP)
			if got := ClientIP(req, ingress); got != tc.want {
				t.Fatalf("client ip = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestNewTrustedProxies(t *testing.T) {
	set, err := NewTrustedProxies(nil)
	if err != nil || set != nil {
		t.Fatalf("empty input: set=%v err=%v, want nil set", set, err)
	}
	if _, err := NewTrustedProxies([]string{"10.1.0.0/16", "192.168.7.1"}); err != nil {
		t.Fatalf("valid entries rejected: %v", err)
	}
	if _, err := NewTrustedProxies([]string{"uploads.example.com"}); err == nil {
		t.Fatal("expected parse error for a hostname entry")
	}
}
