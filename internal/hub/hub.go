// Package hub authenticates with the model-hosting identity service.
package hub

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cultrix/deepresearch/internal/errs"
	"github.com/cultrix/deepresearch/internal/httpx"
)

const whoamiURL = "https://huggingface.co/api/whoami-v2"

type Account struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Login verifies the token against the hub identity endpoint and returns
// the account it resolves to. An invalid token is a configuration error.
func Login(ctx context.Context, token string) (*Account, error) {
	if strings.TrimSpace(token) == "" {
		return nil, &errs.ConfigurationError{Reason: "HF_TOKEN is empty"}
	}
	client := httpx.New(15*time.Second, 1, 0)
	var acct Account
	err := client.DoJSON(ctx, "GET", whoamiURL, map[string]string{
		"Authorization": "Bearer " + token,
	}, nil, &acct)
	if err != nil {
		return nil, &errs.ConfigurationError{Reason: fmt.Sprintf("hub token rejected: %v", err)}
	}
	return &acct, nil
}

// Require checks that every named environment variable is non-empty. It runs
// before any network call so missing credentials fail fast.
func Require(keys ...string) error {
	var missing []string
	for _, k := range keys {
		if strings.TrimSpace(os.Getenv(k)) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return &errs.ConfigurationError{Reason: "missing environment variables: " + strings.Join(missing, ", ")}
	}
	return nil
}
