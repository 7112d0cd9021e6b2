package netutil

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"testing"
)

func TestShouldRetry(t *testing.T) {
	dial := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"dial", dial, true},
		{"wrapped dial", &url.Error{Op: "Post", URL: "https://api.telegram.org", Err: dial}, true},
		{"plain", errors.New("bad request"), false},
	}
	for _, c := range cases {
		if got := ShouldRetry(c.err); got != c.want {
			t.Fatalf("%s: ShouldRetry = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{context.DeadlineExceeded, "timeout"},
		{&net.DNSError{Err: "no such host", Name: "api.telegram.org"}, "dns"},
		{fmt.Errorf("telegram: Bad Gateway (502)"), "http_5xx"},
		{fmt.Errorf("telegram: chat not found (400)"), "http_4xx"},
		{errors.New("boom"), "unknown"},
	}
	for _, c := range cases {
		if got := Classify(c.err); got != c.want {
			t.Fatalf("Classify(%v) = %q, want %q", c.err, got, c.want)
		}
	}
}

func TestRedact(t *testing.T) {
	err := errors.New(`Post "https://api.telegram.org/bot123456:AA-bb_CC/sendMessage": timeout`)
	want := `Post "https://api.telegram.org/bot<redacted>/sendMessage": timeout`
	if got := Redact(err); got != want {
		t.Fatalf("Redact = %q, want %q", got, want)
	}
}
