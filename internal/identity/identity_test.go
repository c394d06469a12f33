package identity

import (
	"strings"
	"testing"
	"time"
)

func TestIdentityUnion(t *testing.T) {
	u := User("42")
	if u.IsAnonymous() {
		t.Fatal("user identity reported anonymous")
	}
	if id, ok := u.UserID(); !ok || id != "42" {
		t.Fatalf("UserID = %q,%v", id, ok)
	}
	if _, ok := u.GuestToken(); ok {
		t.Fatal("user identity has guest token")
	}

	g := Guest("01ABC")
	if tok, ok := g.GuestToken(); !ok || tok != "01ABC" {
		t.Fatalf("GuestToken = %q,%v", tok, ok)
	}

	if !User("").IsAnonymous() || !Guest("").IsAnonymous() {
		t.Fatal("empty credential should collapse to anonymous")
	}
}

func TestIdentityMatches(t *testing.T) {
	uid := "42"
	tok := "01ABC"
	tests := []struct {
		name  string
		ident Identity
		user  *string
		guest *string
		want  bool
	}{
		{"user match", User("42"), &uid, nil, true},
		{"user mismatch", User("43"), &uid, nil, false},
		{"user vs unclaimed", User("42"), nil, nil, false},
		{"guest match", Guest("01ABC"), nil, &tok, true},
		{"guest mismatch", Guest("01XYZ"), nil, &tok, false},
		{"anonymous never matches", Anonymous(), &uid, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ident.Matches(tt.user, tt.guest); got != tt.want {
				t.Fatalf("Matches = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAuditRedactsGuestToken(t *testing.T) {
	tok := NewGuestToken()
	audit := Guest(tok).Audit()
	if strings.Contains(audit, tok) {
		t.Fatalf("audit form %q carries the full token", audit)
	}
	if !strings.HasPrefix(audit, "guest:") {
		t.Fatalf("audit form %q lost the identity kind", audit)
	}

	if got := User("42").Audit(); got != "user:42" {
		t.Fatalf("user audit = %q", got)
	}
	if got := Anonymous().Audit(); got != "anonymous" {
		t.Fatalf("anonymous audit = %q", got)
	}
}

func TestTokenMintVerify(t *testing.T) {
	v := NewVerifier(map[string][]byte{"k1": []byte("secret")})

	tok, err := v.Mint("k1", "42", time.Hour)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	uid, err := v.Verify(tok)
	if err != nil || uid != "42" {
		t.Fatalf("Verify = %q, %v", uid, err)
	}
}

func TestTokenTampered(t *testing.T) {
	v := NewVerifier(map[string][]byte{"k1": []byte("secret")})
	tok, err := v.Mint("k1", "42", time.Hour)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	parts := strings.Split(tok, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]
	if _, err := v.Verify(tampered); err == nil {
		t.Fatal("tampered token verified")
	}
	if _, err := v.Verify("garbage"); err == nil {
		t.Fatal("malformed token verified")
	}
	if _, err := v.Verify("k9." + parts[1] + "." + parts[2]); err == nil {
		t.Fatal("unknown key id verified")
	}
}

func TestTokenExpired(t *testing.T) {
	v := NewVerifier(map[string][]byte{"k1": []byte("secret")})
	tok, err := v.Mint("k1", "42", time.Hour)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	v.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := v.Verify(tok); err != ErrTokenExpired {
		t.Fatalf("err = %v, want ErrTokenExpired", err)
	}
}

func TestNewGuestTokenUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		tok := NewGuestToken()
		if len(tok) != 26 {
			t.Fatalf("token %q is not a ULID", tok)
		}
		if seen[tok] {
			t.Fatalf("duplicate guest token %q", tok)
		}
		seen[tok] = true
	}
}
