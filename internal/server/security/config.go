package security

import "github.com/dmitrijs2005/roomkeeper/internal/server/models"

// DefaultSecurityConfig is applied to rooms without an explicit config.
func DefaultSecurityConfig() models.SecurityConfig {
	return models.SecurityConfig{
		E2EEEnabled:                 false,
		E2EEKeyRotationInterval:     60,
		RequireVerifiedParticipants: false,
		MaxLoginAttempts:            5,
		LockoutDuration:             15,
		GeoBlockEnabled:             false,
		BlockedCountries:            []string{},
	}
}

// EffectiveConfig returns the room's config or the default.
func EffectiveConfig(r *models.Room) models.SecurityConfig {
	if r == nil || r.SecurityConfig == nil {
		return DefaultSecurityConfig()
	}
	return *r.SecurityConfig
}

// ValidationResult collects every violation found, not just the first.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// ValidateSecurityConfig checks the supplied fields of a partial config.
func ValidateSecurityConfig(p models.SecurityConfigPatch) ValidationResult {
	errs := []string{}

	if p.MaxLoginAttempts != nil && *p.MaxLoginAttempts < 1 {
		errs = append(errs, "maxLoginAttempts must be at least 1")
	}
	if p.LockoutDuration != nil && *p.LockoutDuration < 1 {
		errs = append(errs, "lockoutDuration must be at least 1 minute")
	}
	if p.E2EEKeyRotationInterval != nil && *p.E2EEKeyRotationInterval < 5 {
		errs = append(errs, "e2eeKeyRotationInterval must be at least 5 minutes")
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}
