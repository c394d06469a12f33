// Package identity resolves callers to either an authenticated user, an
// ephemeral guest, or nobody. The room service only ever compares these
// values; it never verifies credentials itself.
package identity

type Kind int

const (
	KindAnonymous Kind = iota
	KindUser
	KindGuest
)

// Identity is a tagged union: authenticated user id, guest token, or
// anonymous. The invalid "both set" state is unrepresentable.
type Identity struct {
	kind  Kind
	value string
}

func Anonymous() Identity { return Identity{} }

func User(userID string) Identity {
	if userID == "" {
		return Identity{}
	}
	return Identity{kind: KindUser, value: userID}
}

func Guest(token string) Identity {
	if token == "" {
		return Identity{}
	}
	return Identity{kind: KindGuest, value: token}
}

func (i Identity) Kind() Kind        { return i.kind }
func (i Identity) IsAnonymous() bool { return i.kind == KindAnonymous }

func (i Identity) UserID() (string, bool) {
	return i.value, i.kind == KindUser
}

func (i Identity) GuestToken() (string, bool) {
	return i.value, i.kind == KindGuest
}

// Matches reports whether this identity owns a slot whose stored references
// are the given nullable columns.
func (i Identity) Matches(userID, guestToken *string) bool {
	switch i.kind {
	case KindUser:
		return userID != nil && *userID == i.value
	case KindGuest:
		return guestToken != nil && *guestToken == i.value
	default:
		return false
	}
}

// String is for server-side log lines only. It carries the raw value, so it
// must never land in anything served to clients; use Audit there.
func (i Identity) String() string {
	switch i.kind {
	case KindUser:
		return "user:" + i.value
	case KindGuest:
		return "guest:" + i.value
	default:
		return "anonymous"
	}
}

// Audit is the form safe to persist and serve. A guest token is a
// credential, so only a short prefix survives redaction.
func (i Identity) Audit() string {
	switch i.kind {
	case KindUser:
		return "user:" + i.value
	case KindGuest:
		prefix := i.value
		if len(prefix) > 6 {
			prefix = prefix[:6]
		}
		return "guest:" + prefix + "..."
	default:
		return "anonymous"
	}
}
