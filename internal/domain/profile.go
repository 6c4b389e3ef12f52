package domain

// ProfileValue mirrors the {value} entries identity providers return for emails and photos.
type ProfileValue struct {
	Value string `json:"value"`
}

// ExternalProfile is the normalized identity returned by an OAuth provider.
type ExternalProfile struct {
	ID          string
	DisplayName string
	Provider    string
	Emails      []ProfileValue
	Photos      []ProfileValue
}

// PrimaryEmail returns the first non-empty email, if any.
func (p ExternalProfile) PrimaryEmail() string {
	for _, e := range p.Emails {
		if e.Value != "" {
			return e.Value
		}
	}
	return ""
}

// PrimaryPhoto returns the first non-empty photo URL, if any.
func (p ExternalProfile) PrimaryPhoto() string {
	for _, ph := range p.Photos {
		if ph.Value != "" {
			return ph.Value
		}
	}
	return ""
}

// LookupKind selects how an external identity is matched against local accounts.
type LookupKind int

const (
	LookupByEmail LookupKind = iota + 1
	LookupByProviderID
)

func (k LookupKind) String() string {
	switch k {
	case LookupByEmail:
		return "email"
	case LookupByProviderID:
		return "provider_id"
	default:
		return "unknown"
	}
}

// AccountLookup is the key used to find the local account for an external identity.
type AccountLookup struct {
	Kind     LookupKind
	Provider string
	Value    string
}

// LookupFor matches by email when the provider supplied one, else by provider id.
func LookupFor(p ExternalProfile) AccountLookup {
	if email := p.PrimaryEmail(); email != "" {
		return AccountLookup{Kind: LookupByEmail, Provider: p.Provider, Value: email}
	}
	return AccountLookup{Kind: LookupByProviderID, Provider: p.Provider, Value: p.ID}
}
