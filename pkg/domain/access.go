package domain

// AccessLevel is the link-sharing setting of a node.
type AccessLevel string

const (
	// AccessPrivate is the most restrictive level: only explicit principals.
	AccessPrivate        AccessLevel = "private"
	AccessDomainWithLink AccessLevel = "domain_with_link"
	AccessDomain         AccessLevel = "domain"
	AccessAnyoneWithLink AccessLevel = "anyone_with_link"
	AccessAnyone         AccessLevel = "anyone"
)

// Access is the sharing metadata the classification predicate reads.
type Access struct {
	Level   AccessLevel
	Owner   string
	Viewers []string
	Editors []string
}
