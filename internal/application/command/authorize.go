package command

import (
	"strings"

	"github.com/hjun-park/backend/internal/domain/place"
	"github.com/hjun-park/backend/internal/domain/shared"
)

// requireMember rejects anonymous callers of mutating commands.
func requireMember(memberID shared.ID) error {
	if memberID <= 0 {
		return shared.ErrNoViewer
	}
	return nil
}

// authorizePlaceEdit lets any member edit a place nobody registered and
// only the owner edit a registered one.
func authorizePlaceEdit(p *place.Place, memberID shared.ID) error {
	if p.MemberID != 0 && !p.IsOwnedBy(memberID) {
		return shared.ErrNotOwner
	}
	return nil
}

// nonBlank drops whitespace-only labels and keeps the rest byte for byte.
func nonBlank(labels []string) []string {
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}

func requireText(domain, op, field, value string) error {
	if strings.TrimSpace(value) == "" {
		return shared.NewDomainError(domain, op, shared.ErrEmptyValue, field+" is required")
	}
	return nil
}
