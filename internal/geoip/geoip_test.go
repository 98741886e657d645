package geoip

import (
	"testing"
)

func TestNew_EmptyPath(t *testing.T) {
	r := New("")
	if r.Enabled() {
		t.Error("expected resolver without database to be disabled")
	}
	country, city := r.Lookup("8.8.8.8")
	if country != "" || city != "" {
		t.Errorf("expected empty results for disabled resolver, got country=%q city=%q", country, city)
	}
}

func TestNew_InvalidPath(t *testing.T) {
	r := New("/nonexistent/path.mmdb")
	if r.Enabled() {
		t.Error("expected missing database to disable lookups")
	}
	country, city := r.Lookup("8.8.8.8")
	if country != "" || city != "" {
		t.Errorf("expected empty results, got country=%q city=%q", country, city)
	}
}

func TestLookup_EmptyOrInvalidIP(t *testing.T) {
	r := New("")
	for _, ip := range []string{"", "not-an-ip", "127.0.0.1", "10.0.0.5"} {
		country, city := r.Lookup(ip)
		if country != "" || city != "" {
			t.Errorf("Lookup(%q) = %q, %q; want empty", ip, country, city)
		}
	}
}

func TestNilResolver(t *testing.T) {
	var r *Resolver
	if r.Enabled() {
		t.Error("nil resolver should be disabled")
	}
	if err := r.Close(); err != nil {
		t.Errorf("expected no error closing nil resolver, got %v", err)
	}
}

func TestClose_NoDatabase(t *testing.T) {
	if err := New("").Close(); err != nil {
		t.Errorf("expected no error closing resolver without database, got %v", err)
	}
}
