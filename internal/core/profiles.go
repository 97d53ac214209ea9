package core

import (
	"fmt"
	"strings"
	"time"
)

// Profile names a deployment posture and the probability threshold it
// applies. Lower thresholds catch more spam at the cost of more false
// positives; higher thresholds protect legitimate traffic.
type Profile struct {
	Name        string  `json:"name"`
	Threshold   float64 `json:"threshold"`
	Description string  `json:"description"`
}

// Classify turns a calibrated probability into a verdict under this
// profile. A probability exactly at the threshold is spam.
func (p Profile) Classify(probability float64) Verdict {
	label := LabelLegitimate
	if probability >= p.Threshold {
		label = LabelSpam
	}
	return Verdict{
		Label:       label,
		Probability: probability,
		Profile:     p.Name,
		Threshold:   p.Threshold,
		ScoredAt:    time.Now().UTC(),
	}
}

// DefaultProfileName is used when a caller does not pick a profile.
const DefaultProfileName = "balanced"

// The registry is fixed at build time. Threshold changes ship as new
// releases, not as configuration.
var profileRegistry = []Profile{
	{Name: "balanced", Threshold: 0.55, Description: "General-purpose default for mixed traffic"},
	{Name: "bank", Threshold: 0.65, Description: "Financial notifications where false positives are costly"},
	{Name: "marketing", Threshold: 0.45, Description: "Bulk marketing streams that tolerate aggressive filtering"},
	{Name: "telco", Threshold: 0.55, Description: "Telecom SMS traffic"},
	{Name: "conservative", Threshold: 0.60, Description: "Favours letting borderline messages through"},
	{Name: "aggressive", Threshold: 0.45, Description: "Favours catching borderline spam"},
}

// Historic profile names stay routable so existing callers keep working.
var profileAliases = map[string]string{
	"default":         "balanced",
	"financial":       "bank",
	"telecom":         "telco",
	"email_marketing": "marketing",
	"newsletter":      "marketing",
}

var profileIndex = func() map[string]Profile {
	idx := make(map[string]Profile, len(profileRegistry))
	for _, p := range profileRegistry {
		idx[p.Name] = p
	}
	return idx
}()

// LookupProfile resolves a profile name, case-insensitively and through
// the alias table. Unknown names fail with ErrUnknownProfile; there is no
// fallback to a default.
func LookupProfile(name string) (Profile, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := profileAliases[key]; ok {
		key = canonical
	}
	if p, ok := profileIndex[key]; ok {
		return p, nil
	}
	return Profile{}, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
}

// Profiles returns the registry in its canonical order.
func Profiles() []Profile {
	out := make([]Profile, len(profileRegistry))
	copy(out, profileRegistry)
	return out
}
