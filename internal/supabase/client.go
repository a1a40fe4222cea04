package supabase

import (
	"fmt"

	"github.com/supabase-community/supabase-go"
	"imaginx-backend/internal/config"
)

type Client struct {
	Supabase *supabase.Client
	Config   *config.Config
}

// NewClient builds a service-role client. It must only be used server side.
func NewClient(cfg *config.Config) (*Client, error) {
	client, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}

	return &Client{
		Supabase: client,
		Config:   cfg,
	}, nil
}

// Directory returns the user directory backed by the auth admin API.
func (c *Client) Directory() *Directory {
	return NewDirectory(c.Supabase.Auth.WithToken(c.Config.SupabaseServiceRoleKey))
}
