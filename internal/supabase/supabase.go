// Package supabase backs the catalog with a Supabase project: rows go
// through PostgREST and assets through Supabase Storage.
package supabase

import (
	"fmt"

	supa "github.com/supabase-community/supabase-go"
)

// NewClient connects to a Supabase project with the service key.
func NewClient(projectURL, serviceKey string) (*supa.Client, error) {
	if projectURL == "" || serviceKey == "" {
		return nil, fmt.Errorf("supabase url and service key are required")
	}
	client, err := supa.NewClient(projectURL, serviceKey, nil)
	if err != nil {
		return nil, fmt.Errorf("create supabase client: %w", err)
	}
	return client, nil
}
