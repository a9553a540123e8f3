package models

// Viewer is the identity a request acts as: either anonymous or a known user.
// The zero value is anonymous.
type Viewer struct {
	userID     uint
	identified bool
}

// AnonymousViewer is a request without credentials.
func AnonymousViewer() Viewer {
	return Viewer{}
}

// IdentifiedViewer is a request authenticated as userID.
func IdentifiedViewer(userID uint) Viewer {
	return Viewer{userID: userID, identified: true}
}

// UserID returns the viewer's user id and whether the viewer is identified.
func (v Viewer) UserID() (uint, bool) {
	return v.userID, v.identified
}

// IsAnonymous reports whether the viewer carries no identity.
func (v Viewer) IsAnonymous() bool {
	return !v.identified
}
