package models

// Connection links the logged-in user to a Tally company dataset.
type Connection struct {
	GUID        string     `json:"guid"`
	TallylocID  TallylocID `json:"tallyloc_id"`
	Company     string     `json:"company"`
	AccessType  string     `json:"access_type"`
	Status      string     `json:"status"`
	SharedEmail string     `json:"shared_email,omitempty"`
	ConnName    string     `json:"conn_name,omitempty"`
}

// Key returns the connection identity.
func (c Connection) Key() CompanyKey {
	return CompanyKey{GUID: c.GUID, TallylocID: c.TallylocID}
}

// IsLive reports whether the company is currently reachable.
func (c Connection) IsLive() bool {
	return c.Status == "online" || c.Status == "live" || c.Status == "connected"
}

// CompanyRef is the body the upstream expects for company-scoped calls.
type CompanyRef struct {
	TallylocID TallylocID `json:"tallyloc_id"`
	Company    string     `json:"company"`
	GUID       string     `json:"guid"`
}

// Ref builds the company-scoped request body for this connection.
func (c Connection) Ref() CompanyRef {
	return CompanyRef{TallylocID: c.TallylocID, Company: c.Company, GUID: c.GUID}
}

// FindConnection looks a connection up by identity.
func FindConnection(conns []Connection, key CompanyKey) (Connection, bool) {
	for _, c := range conns {
		if c.Key() == key {
			return c, true
		}
	}
	return Connection{}, false
}
