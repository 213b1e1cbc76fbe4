package api

import (
	"context"
	"net/url"
)

// Contact is a business card exchanged with the current user
type Contact struct {
	UserID     string `json:"userId"`
	Name       string `json:"name"`
	Company    string `json:"company"`
	Department string `json:"department"`
	Position   string `json:"position,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

func (c *Client) ListContacts(ctx context.Context) ([]Contact, error) {
	var resp struct {
		Contacts []Contact `json:"contacts"`
	}
	if err := c.getJSON(ctx, "/contacts", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Contacts, nil
}

func (c *Client) GetContact(ctx context.Context, userID string) (*Contact, error) {
	var resp struct {
		Contact *Contact `json:"contact"`
	}
	if err := c.getJSON(ctx, "/contacts/"+url.PathEscape(userID), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Contact == nil {
		return &Contact{UserID: userID}, nil
	}
	return resp.Contact, nil
}
