package commands

import (
	"context"
	"fmt"

	"github.com/de-tools/alm-console/pkg/adapters"
	"github.com/de-tools/alm-console/pkg/models/api"
	"github.com/de-tools/alm-console/pkg/models/domain"
	"github.com/de-tools/alm-console/pkg/services/config"
	"github.com/de-tools/alm-console/pkg/store/client"
	"github.com/spf13/cobra"
)

const defaultProfile = "DEFAULT"

// BackendFlags selects the analysis backend, either directly or through a profile.
type BackendFlags struct {
	ProfilesPath string
	Profile      string
	APIURL       string
	Token        string
}

func (b *BackendFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&b.ProfilesPath, "profiles", b.ProfilesPath, "Path to the backend profiles file")
	cmd.Flags().StringVar(&b.Profile, "profile", defaultProfile, "Backend profile to use")
	cmd.Flags().StringVar(&b.APIURL, "api-url", "", "Backend base URL, overrides the profile")
	cmd.Flags().StringVar(&b.Token, "token", "", "Bearer token sent to the backend")
}

func (b *BackendFlags) client(ctx context.Context) (*client.Client, error) {
	cfg := client.Config{BaseURL: b.APIURL, Token: b.Token}

	if cfg.BaseURL == "" {
		registry, err := config.NewRegistry(b.ProfilesPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load profiles from %s: %w", b.ProfilesPath, err)
		}
		profile, err := registry.GetProfile(ctx, b.Profile)
		if err != nil {
			return nil, err
		}
		cfg.BaseURL = profile.APIURL
		if cfg.Token == "" {
			cfg.Token = profile.Token
		}
	}

	return client.New(cfg)
}

func variations(results *api.AnalysisResults) []domain.VariationCard {
	if results == nil {
		return nil
	}

	var cards []domain.VariationCard
	if bs := results.BalanceSheet; bs != nil {
		cards = append(cards, adapters.MapBalanceSheetVariations(bs.Variations)...)
	}
	if c := results.Consumption; c != nil && c.Variations != nil {
		if card := adapters.MapVariationToCard("GLOBAL", c.Variations.Global); card != nil {
			cards = append(cards, *card)
		}
	}
	return cards
}
