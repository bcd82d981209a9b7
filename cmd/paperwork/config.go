// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/paperwork/internal/backend"
	"github.com/pdiddy/paperwork/internal/library"
	"github.com/pdiddy/paperwork/internal/profile"
	"github.com/pdiddy/paperwork/internal/search"
	"github.com/pdiddy/paperwork/internal/secrets"
	"github.com/pdiddy/paperwork/pkg/types"
)

// envKeyReplacer maps nested keys to env names, e.g.
// backend.base_url -> PAPERWORK_BACKEND_BASE_URL.
var envKeyReplacer = strings.NewReplacer(".", "_")

func setDefaults() {
	d := types.DefaultConfig()
	viper.SetDefault("backend.base_url", d.Backend.BaseURL)
	viper.SetDefault("backend.timeout", d.Backend.Timeout)
	viper.SetDefault("backend.user_agent", d.Backend.UserAgent)
	viper.SetDefault("backend.max_retries", d.Backend.MaxRetries)
	viper.SetDefault("backend.api_key", "")
	viper.SetDefault("search.max_results", d.Search.MaxResults)
	viper.SetDefault("search.enrich_concurrency", d.Search.EnrichConcurrency)
	viper.SetDefault("search.simulate_missing_metadata", d.Search.SimulateMissingMetadata)
	viper.SetDefault("search.arxiv_fallback", d.Search.ArxivFallback)
	viper.SetDefault("chat.expand_keywords", d.Chat.ExpandKeywords)
	viper.SetDefault("chat.paper_reference", d.Chat.PaperReference)
	viper.SetDefault("profile.path", defaultProfilePath())
}

func defaultProfilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "paperwork", "profile.db")
}

// loadConfig reads the effective configuration from viper.
func loadConfig() types.Config {
	return types.Config{
		Backend: types.BackendConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("backend.timeout"),
				UserAgent: viper.GetString("backend.user_agent"),
			},
			BaseURL:    viper.GetString("backend.base_url"),
			APIKey:     secretDefault(secrets.BackendAPIKey, viper.GetString("backend.api_key")),
			MaxRetries: viper.GetInt("backend.max_retries"),
		},
		Search: types.SearchConfig{
			MaxResults:              viper.GetInt("search.max_results"),
			EnrichConcurrency:       viper.GetInt("search.enrich_concurrency"),
			SimulateMissingMetadata: viper.GetBool("search.simulate_missing_metadata"),
			ArxivFallback:           viper.GetBool("search.arxiv_fallback"),
		},
		Chat: types.ChatConfig{
			ExpandKeywords: viper.GetBool("chat.expand_keywords"),
			PaperReference: viper.GetBool("chat.paper_reference"),
		},
		Profile: types.ProfileConfig{
			Path: viper.GetString("profile.path"),
		},
	}
}

// app bundles what every command needs.
type app struct {
	cfg     types.Config
	client  *backend.Client
	store   *profile.Store
	profile *profile.Profile
	library *library.Library
	log     *zap.Logger
}

// openApp loads configuration and opens the profile store. An empty
// profile path selects an in-memory store.
func openApp(ctx context.Context) (*app, error) {
	cfg := loadConfig()

	var b profile.Backend = profile.NewMemoryBackend()
	if cfg.Profile.Path != "" {
		sqlite, err := profile.OpenSQLite(cfg.Profile.Path)
		if err != nil {
			return nil, err
		}
		b = sqlite
	}
	store, err := profile.Open(ctx, b, logger)
	if err != nil {
		b.Close()
		return nil, err
	}
	p := profile.NewProfile(store)
	return &app{
		cfg:     cfg,
		client:  backend.New(cfg.Backend, logger),
		store:   store,
		profile: p,
		library: library.New(p, logger),
		log:     logger,
	}, nil
}

func (a *app) processor() *search.Processor {
	var enricher search.Enricher = a.client
	if a.cfg.Search.ArxivFallback {
		enricher = search.WithArxivFallback(enricher, &search.ArxivMetadata{
			Client:    a.client.HTTP,
			UserAgent: a.cfg.Backend.UserAgent,
			Logger:    a.log,
		})
	}
	return search.NewProcessor(enricher, a.cfg.Search, a.log)
}

func (a *app) Close() error {
	if err := a.store.Close(); err != nil {
		return fmt.Errorf("closing profile: %w", err)
	}
	return nil
}
