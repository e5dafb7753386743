package runtime

import "github.com/aretw0/sharewalk/pkg/domain"

// Classify decides whether a node is Private or Shared for the acting identity.
//
// A node is Private only when its link sharing is the most restrictive level,
// the actor owns it, and no viewer or editor is anyone but the actor.
func Classify(access domain.Access, actor string) domain.Classification {
	if access.Level != domain.AccessPrivate || access.Owner != actor {
		return domain.Shared
	}
	for _, v := range access.Viewers {
		if v != actor {
			return domain.Shared
		}
	}
	for _, e := range access.Editors {
		if e != actor {
			return domain.Shared
		}
	}
	return domain.Private
}
