package ledger

import "strings"

// =============================================================================
// SCOPE - Role-based campaign visibility
// =============================================================================

// Scope restricts which campaigns a viewer can see. The same pipeline serves
// the admin screens (all clients, all states) and the client screens (own
// campaigns only); the role difference is this one injected predicate rather
// than parallel filtering code.
type Scope func(Campaign) bool

// AdminScope passes every campaign.
func AdminScope(Campaign) bool { return true }

// ClientScope passes only campaigns belonging to the named client.
// Client names are matched case-insensitively; they are typed by humans on
// both sides of the comparison.
func ClientScope(client string) Scope {
	client = strings.TrimSpace(client)
	return func(c Campaign) bool {
		return strings.EqualFold(strings.TrimSpace(c.Client), client)
	}
}
