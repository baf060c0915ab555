package identity

import "strings"

// UserID identifies the account a request acts on behalf of.
type UserID string

// Anonymous is the placeholder identity used when a request carries no user id
// at all. It mirrors the frontend's guest-checkout behavior, where orders and
// carts are still keyed by a stable id.
const Anonymous UserID = "000000000000000000000000"

func (u UserID) String() string { return string(u) }

// Resolve picks the effective user id from the given candidates, in order.
// The first non-blank candidate wins; with none, Anonymous is returned.
// Handlers pass candidates in priority order: X-User-Id header first, then
// the request payload or query parameter.
func Resolve(candidates ...string) UserID {
	for _, c := range candidates {
		if s := strings.TrimSpace(c); s != "" {
			return UserID(s)
		}
	}
	return Anonymous
}
