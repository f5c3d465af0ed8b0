/*
person.go - Person reference resolution

PURPOSE:
  Normalizes a loose person reference (free-text display name, or an
  already-valid identity token) into a canonical Identity before any
  other step runs. Resolution is read-only: its only side effect is an
  identity-search call, and only for free-text references.
*/
package allocation

import (
	"context"
	"errors"
	"strings"
)

// PersonResolver maps person references to canonical identities.
// Search is optional; when nil, free-text references cannot be resolved
// and fail with a capability error rather than a silent guess.
type PersonResolver struct {
	Self   Identity
	Search IdentitySearchCapability
}

// Resolve returns the Identity for a reference.
//
//   - An empty reference resolves to the caller's own configured identity.
//   - A token-shaped reference is returned unchanged, no network call.
//   - Anything else is a free-text name: exactly one search match is
//     required. Zero matches fail with PersonNotFoundError; multiple
//     matches fail with AmbiguousPersonError carrying the candidates.
func (r *PersonResolver) Resolve(ctx context.Context, ref string) (Identity, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return r.Self, nil
	}
	if IsIdentityToken(ref) {
		return Identity(ref), nil
	}

	if r.Search == nil {
		return "", &CapabilityError{
			Capability: "identity-search",
			Op:         "search by name",
			Cause:      errors.New("no search collaborator configured"),
		}
	}

	candidates, err := r.Search.SearchByName(ctx, ref)
	if err != nil {
		return "", err
	}

	switch len(candidates) {
	case 0:
		return "", &PersonNotFoundError{Reference: ref}
	case 1:
		return candidates[0].Identity, nil
	default:
		return "", &AmbiguousPersonError{Reference: ref, Candidates: candidates}
	}
}
