// Package session owns the authenticated identity of the client: the persisted session
// record (TokenStore), and the single observable Session State consulted by the rest of
// the application.
package session

// DefaultDisplayName is stored when the server returns a login without a name, so that a
// persisted record always has all four fields.
const DefaultDisplayName = "unknown user"

// Session is the authenticated identity of the current client.
// AccessToken and RefreshToken are either both present or both absent.
type Session struct {
	UserID       int64
	AccessToken  string
	RefreshToken string
	DisplayName  string
}

// Complete reports whether every field of the session is populated
func (s Session) Complete() bool {
	return s.UserID > 0 && s.AccessToken != "" && s.RefreshToken != "" && s.DisplayName != ""
}

// UserInfo is the view of the session exposed to views and the route guard.
// The refresh token is deliberately absent.
type UserInfo struct {
	UserID int64  `json:"userId"`
	Token  string `json:"token"`
	Name   string `json:"name"`
}

func (s Session) userInfo() *UserInfo {
	return &UserInfo{
		UserID: s.UserID,
		Token:  s.AccessToken,
		Name:   s.DisplayName,
	}
}

// Snapshot is a point in time copy of the Session State
type Snapshot struct {
	IsAuthenticated bool      `json:"isAuthenticated"`
	IsLoading       bool      `json:"isLoading"`
	UserInfo        *UserInfo `json:"userInfo"`
}
