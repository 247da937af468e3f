package domain

// Viewer is the identity of whoever is looking at the page, as supplied by the host.
type Viewer struct {
	Authenticated bool
	Username      Username
	Privileged    bool
}

// CanModify reports whether the viewer may edit or delete content written by author.
func (v Viewer) CanModify(author Username) bool {
	if !v.Authenticated {
		return false
	}
	return v.Privileged || (v.Username != "" && v.Username == author)
}
