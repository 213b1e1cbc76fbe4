package api

import (
	"context"
	"fmt"
	"net/http"
)

type changePasswordRequest struct {
	CurrentPassword    string `json:"currentPassword"`
	NewPassword        string `json:"newPassword"`
	ConfirmNewPassword string `json:"confirmNewPassword"`
}

// ChangePassword returns the server's confirmation message
func (c *Client) ChangePassword(ctx context.Context, current, newPassword, confirm string) (string, error) {
	if newPassword != confirm {
		return "", fmt.Errorf("ChangePassword: new passwords do not match")
	}

	var resp struct {
		Message string `json:"message"`
	}
	req := changePasswordRequest{
		CurrentPassword:    current,
		NewPassword:        newPassword,
		ConfirmNewPassword: confirm,
	}
	if err := c.doJSON(ctx, http.MethodPut, "/users/password", req, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}
