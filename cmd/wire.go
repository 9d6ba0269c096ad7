package cmd

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/mwdvs/coldwatch/internal/adapters/airthings"
	"github.com/mwdvs/coldwatch/internal/adapters/ntfy"
	tomlrepo "github.com/mwdvs/coldwatch/internal/adapters/repo/toml"
	"github.com/mwdvs/coldwatch/internal/application"
	"github.com/mwdvs/coldwatch/internal/ports"
)

type app struct {
	repo     *tomlrepo.Repository
	client   *airthings.Client
	notifier *ntfy.Notifier
	poller   *application.Poller
	clock    ports.Clock
	now      func() time.Time
}

func wireApp() (*app, error) {
	repo, err := tomlrepo.NewRepository(viper.New())
	if err != nil {
		return nil, fmt.Errorf("wire inventory repository: %w", err)
	}

	client := &airthings.Client{
		AccountsURL: envOrDefault("CW_AIRTHINGS_ACCOUNTS_URL", airthings.DefaultAccountsURL),
		APIURL:      envOrDefault("CW_AIRTHINGS_API_URL", airthings.DefaultAPIURL),
		HTTPClient:  http.DefaultClient,
	}

	notifier := &ntfy.Notifier{
		BaseURL:    envOrDefault("CW_NTFY_BASE_URL", ntfy.DefaultBaseURL),
		HTTPClient: http.DefaultClient,
	}

	clock := ports.SystemClock{}

	return &app{
		repo:     repo,
		client:   client,
		notifier: notifier,
		poller:   application.NewPoller(repo, client, client, notifier, clock),
		clock:    clock,
		now:      time.Now,
	}, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
