package onboarding

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"royale/internal/domain"
	"royale/internal/ports"
)

// Result captures non-fatal onboarding outcomes.
type Result struct {
	// DisplayName is the callsign picked for the new account.
	DisplayName string
	// ProfileUpdateErr is set when the profile update failed but onboarding continued.
	ProfileUpdateErr error
}

// Service handles post-auth onboarding for new users.
type Service struct {
	accounts ports.AccountPort
	rng      *rand.Rand
}

// NewService constructs an onboarding service with the required port.
// accounts must be non-nil; rng may be nil to use a time-seeded default.
func NewService(accounts ports.AccountPort, rng *rand.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{
		accounts: accounts,
		rng:      rng,
	}
}

// OnboardNewUser initializes the profile and starter metadata for a newly
// created account. The profile update is best-effort; failing to seed the
// metadata document is the error that matters.
func (s *Service) OnboardNewUser(ctx context.Context, userID string) (Result, error) {
	if s.accounts == nil {
		return Result{}, fmt.Errorf("onboarding service not configured")
	}

	result := Result{}
	displayName := s.generateCallsign()
	result.DisplayName = displayName
	if err := s.accounts.UpdateProfile(ctx, userID, displayName, displayName); err != nil {
		result.ProfileUpdateErr = err
	}

	metadata := map[string]interface{}{
		"preferred_variant": domain.VariantStandard,
		"matches_played":    0,
	}
	if err := s.accounts.UpdateMetadata(ctx, userID, metadata); err != nil {
		return result, fmt.Errorf("failed to seed account metadata: %w", err)
	}

	return result, nil
}

func (s *Service) generateCallsign() string {
	adjectives := []string{"Rapid", "Golden", "Frozen", "Vivid", "Lucky", "Crimson", "Silent", "Stormy", "Nimble", "Bold"}
	nouns := []string{"Knight", "Archer", "Giant", "Wizard", "Goblin", "Miner", "Prince", "Hound", "Valkyrie", "Bandit"}

	adj := adjectives[s.rng.Intn(len(adjectives))]
	noun := nouns[s.rng.Intn(len(nouns))]
	num := s.rng.Intn(9000) + 1000

	return fmt.Sprintf("%s%s%d", adj, noun, num)
}
