package supabase

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/gotrue-go/types"
	"imaginx-backend/internal/apperr"
	"imaginx-backend/internal/models"
)

// Directory resolves users and proxies sign-up / sign-in to Supabase Auth.
type Directory struct {
	auth gotrue.Client
}

func NewDirectory(auth gotrue.Client) *Directory {
	return &Directory{auth: auth}
}

// LookupUser returns the contact details used for notifications.
func (d *Directory) LookupUser(ctx context.Context, userID uuid.UUID) (*models.UserContact, error) {
	resp, err := d.auth.AdminGetUser(types.AdminGetUserRequest{UserID: userID})
	if err != nil {
		if isStatus(err, 404) {
			return nil, apperr.Wrap(apperr.UnknownUser, "user not found", err)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &models.UserContact{
		ID:       resp.ID,
		Email:    resp.Email,
		FullName: metadataString(resp.UserMetadata, "full_name"),
	}, nil
}

func (d *Directory) Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResponse, error) {
	resp, err := d.auth.Signup(types.SignupRequest{
		Email:    req.Email,
		Password: req.Password,
		Data:     map[string]interface{}{"full_name": req.FullName},
	})
	if err != nil {
		if isStatus(err, 400) || isStatus(err, 422) {
			return nil, apperr.Wrap(apperr.Validation, "signup rejected", err)
		}
		return nil, apperr.Wrap(apperr.Provider, "failed to sign up", err)
	}

	out := &models.AuthResponse{
		UserID: resp.User.ID.String(),
		Email:  resp.User.Email,
	}
	// Session is empty when email confirmation is required.
	if resp.Session.AccessToken != "" {
		out.AccessToken = resp.Session.AccessToken
		out.RefreshToken = resp.Session.RefreshToken
		out.ExpiresIn = resp.Session.ExpiresIn
	}
	return out, nil
}

func (d *Directory) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	resp, err := d.auth.SignInWithEmailPassword(req.Email, req.Password)
	if err != nil {
		if isStatus(err, 400) || isStatus(err, 401) {
			return nil, apperr.Wrap(apperr.Unauthenticated, "invalid email or password", err)
		}
		return nil, apperr.Wrap(apperr.Provider, "failed to sign in", err)
	}

	return &models.AuthResponse{
		UserID:       resp.User.ID.String(),
		Email:        resp.User.Email,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
	}, nil
}

// isStatus matches the "response status code N" errors returned by gotrue-go.
func isStatus(err error, code int) bool {
	return strings.Contains(err.Error(), fmt.Sprintf("response status code %d", code))
}

func metadataString(meta map[string]interface{}, key string) string {
	if meta == nil {
		return ""
	}
	if v, ok := meta[key].(string); ok {
		return v
	}
	return ""
}
