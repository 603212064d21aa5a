// Package seed imports the initial card catalog from an upstream
// HTTP source at startup, and exposes an admin-triggered async
// reload of the same import.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"cardvault-backend/internal/domains/catalog"
	"cardvault-backend/internal/domains/catalog/model"

	"github.com/rs/zerolog/log"
)

type upstreamCard struct {
	Name                  string `json:"name"`
	HumanReadableCardType string `json:"humanReadableCardType"`
	Description           string `json:"desc"`
	Race                  string `json:"race"`
	Attribute             string `json:"attribute"`
	Archetype             string `json:"archetype"`
}

type upstreamResponse struct {
	Data []upstreamCard `json:"data"`
}

// Seeder fetches the catalog snapshot from a configured source URL
// and hands each entry to the catalog service's save path so cache
// eviction and event publication happen exactly as they would for an
// admin-authored write.
type Seeder struct {
	sourceURL  string
	httpClient *http.Client
	service    *catalog.Service
}

func NewSeeder(sourceURL string, timeout time.Duration, service *catalog.Service) *Seeder {
	return &Seeder{
		sourceURL: sourceURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		service: service,
	}
}

// Run performs the one-shot startup import. A missing or unreachable
// source is not fatal: the service starts with whatever the database
// already holds and logs the failure.
func (s *Seeder) Run(ctx context.Context) error {
	if s.sourceURL == "" {
		log.Info().Msg("seed: no source URL configured, skipping import")
		return nil
	}

	count, err := s.service.Count(ctx)
	if err == nil && count > 0 {
		log.Info().Int64("existing_cards", count).Msg("seed: catalog already populated, skipping import")
		return nil
	}

	return s.importFrom(ctx)
}

// ReloadAsync re-runs the import in the background, for the admin
// reload endpoint. Errors are logged, not returned, since the caller
// already received a 202 Accepted.
func (s *Seeder) ReloadAsync() {
	ctx, cancel := context.WithTimeout(context.Background(), s.httpClient.Timeout)
	defer cancel()

	if err := s.importFrom(ctx); err != nil {
		log.Error().Err(err).Msg("seed: async reload failed")
	}
}

func (s *Seeder) importFrom(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.sourceURL, nil)
	if err != nil {
		return fmt.Errorf("seed: build request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("source", s.sourceURL).Msg("seed: upstream fetch failed")
		return fmt.Errorf("seed: fetch catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("seed: upstream returned status %d", resp.StatusCode)
	}

	var payload upstreamResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("seed: decode catalog: %w", err)
	}

	imported := 0
	for _, uc := range payload.Data {
		if uc.Name == "" {
			continue
		}
		card := &model.Card{
			Name:        uc.Name,
			CardType:    uc.HumanReadableCardType,
			Description: uc.Description,
			Race:        uc.Race,
			Attribute:   uc.Attribute,
		}
		if uc.Archetype != "" {
			archetype := uc.Archetype
			card.ArchetypeName = &archetype
		}
		if _, err := s.service.Save(ctx, card); err != nil {
			log.Warn().Err(err).Str("card", uc.Name).Msg("seed: import card failed")
			continue
		}
		imported++
	}

	log.Info().Int("imported", imported).Int("total", len(payload.Data)).Msg("seed: catalog import complete")
	return nil
}
