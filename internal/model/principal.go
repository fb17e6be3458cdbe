package model

// Principal is the authenticated caller on the protected endpoints.
type Principal struct {
	Subject string
	Role    string
}

func (p Principal) IsAdmin() bool {
	return p.Role == "admin"
}

func (p Principal) IsStaff() bool {
	return p.Role == "staff" || p.IsAdmin()
}
