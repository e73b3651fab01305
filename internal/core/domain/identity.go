package domain

// Identity is the caller as resolved by the identity provider.
// The zero value is the anonymous caller.
type Identity struct {
	UserID string
	Email  string
}

func (i Identity) Anonymous() bool {
	return i.UserID == ""
}
