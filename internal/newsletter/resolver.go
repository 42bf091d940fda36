package newsletter

import (
	"github.com/ignite/jellyfin-newsletter/internal/config"
	"github.com/ignite/jellyfin-newsletter/internal/jellyfin"
)

// Recipient is a configured person joined with their media server
// account id.
type Recipient struct {
	Name string
	Mail string
	ID   string
}

// Resolution is the outcome of joining configured recipients against
// the server's user list.
type Resolution struct {
	Recipients []Recipient
	// Unmatched holds configured names with no server account. They are
	// never turned into recipients with an empty id.
	Unmatched []string
	// Ambiguous holds configured names matching more than one server
	// account. The first match is used; callers should warn.
	Ambiguous []string
}

// Resolve joins configured recipients against server users by exact,
// case-sensitive name match.
func Resolve(configured []config.Recipient, users []jellyfin.User) Resolution {
	var res Resolution
	for _, cu := range configured {
		var matches []jellyfin.User
		for _, u := range users {
			if u.Name == cu.Name {
				matches = append(matches, u)
			}
		}

		switch {
		case len(matches) == 0:
			res.Unmatched = append(res.Unmatched, cu.Name)
			continue
		case len(matches) > 1:
			res.Ambiguous = append(res.Ambiguous, cu.Name)
		}

		res.Recipients = append(res.Recipients, Recipient{
			Name: cu.Name,
			Mail: cu.Mail,
			ID:   matches[0].ID,
		})
	}
	return res
}
