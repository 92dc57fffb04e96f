package entity

// Session is one connection bound to at most one symbol.
type Session struct {
	ID   string `json:"id"`
	Mark string `json:"mark,omitempty"`
}
