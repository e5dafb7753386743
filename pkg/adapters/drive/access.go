package drive

import (
	"github.com/aretw0/sharewalk/pkg/domain"
	drive "google.golang.org/api/drive/v3"
)

// levelRank orders link-sharing levels from most to least restrictive.
var levelRank = map[domain.AccessLevel]int{
	domain.AccessPrivate:        0,
	domain.AccessDomainWithLink: 1,
	domain.AccessDomain:         2,
	domain.AccessAnyoneWithLink: 3,
	domain.AccessAnyone:         4,
}

// toAccess folds a file's permission list into the classification input.
func toAccess(f *drive.File) domain.Access {
	access := domain.Access{Level: domain.AccessPrivate}
	if len(f.Owners) > 0 {
		access.Owner = f.Owners[0].EmailAddress
	}
	for _, p := range f.Permissions {
		applyPermission(&access, p)
	}
	return access
}

func applyPermission(access *domain.Access, p *drive.Permission) {
	if p == nil {
		return
	}
	switch p.Type {
	case "anyone":
		raise(access, linkLevel(p, domain.AccessAnyone, domain.AccessAnyoneWithLink))
	case "domain":
		raise(access, linkLevel(p, domain.AccessDomain, domain.AccessDomainWithLink))
	case "user", "group":
		principal := p.EmailAddress
		switch p.Role {
		case "owner":
			if access.Owner == "" {
				access.Owner = principal
			}
		case "reader", "commenter":
			access.Viewers = append(access.Viewers, principal)
		case "writer", "fileOrganizer", "organizer":
			access.Editors = append(access.Editors, principal)
		}
	}
}

func linkLevel(p *drive.Permission, discoverable, withLink domain.AccessLevel) domain.AccessLevel {
	if p.AllowFileDiscovery {
		return discoverable
	}
	return withLink
}

func raise(access *domain.Access, level domain.AccessLevel) {
	if levelRank[level] > levelRank[access.Level] {
		access.Level = level
	}
}
