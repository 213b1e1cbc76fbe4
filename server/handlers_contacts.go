package server

import (
	"net/http"
	"strconv"

	"github.com/jrsteele09/go-bizcard-client/users"
)

type contactResponse struct {
	UserID     string `json:"userId"`
	Name       string `json:"name"`
	Company    string `json:"company"`
	Department string `json:"department"`
	Position   string `json:"position,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

func toContactResponse(u *users.User) contactResponse {
	return contactResponse{
		UserID:     strconv.FormatInt(u.ID, 10),
		Name:       u.Name,
		Company:    u.Company,
		Department: u.Department,
		Position:   u.Position,
		Email:      u.Email,
		Phone:      u.Phone,
	}
}

// ListContactsHandler returns the cards the caller has exchanged
func (s *Server) ListContactsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		me, err := s.repos.Users.GetByID(claimsFrom(r).UserID)
		if err != nil {
			writeRepoError(w, err)
			return
		}

		contacts := make([]contactResponse, 0, len(me.Contacts))
		for _, id := range me.Contacts {
			u, err := s.repos.Users.GetByID(id)
			if err != nil {
				continue
			}
			contacts = append(contacts, toContactResponse(u))
		}
		writeJSON(w, http.StatusOK, map[string][]contactResponse{"contacts": contacts})
	}
}

// GetContactHandler returns one card. Only the caller's own card and exchanged cards are
// visible.
func (s *Server) GetContactHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "userId")
		if !ok {
			return
		}
		me, err := s.repos.Users.GetByID(claimsFrom(r).UserID)
		if err != nil {
			writeRepoError(w, err)
			return
		}
		if id != me.ID && !me.HasContact(id) {
			writeError(w, http.StatusNotFound, "not found")
			return
		}

		u, err := s.repos.Users.GetByID(id)
		if err != nil {
			writeRepoError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]contactResponse{"contact": toContactResponse(u)})
	}
}
