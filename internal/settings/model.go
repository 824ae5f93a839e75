package settings

import (
	"github.com/google/uuid"
)

// ModuleFinance is the only settings module currently in use.
const ModuleFinance = "finance"

// DefaultProfileID is the profile selected when a request names an
// unrecognized profile identifier.
const DefaultProfileID = "IN"

// ProfileIDs enumerates the recognized tenant-profile identifiers.
var ProfileIDs = map[string]bool{"IN": true, "GB": true}

// Profile identifies a country/currency sub-partition of a user's data.
type Profile struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

// ExpenseGroup is a user-defined bucket for classifying expenses by keyword.
type ExpenseGroup struct {
	ID    int      `json:"id"`
	Name  string   `json:"name"`
	Words []string `json:"words"`
}

// Settings holds a user's per-module configuration: tenant profiles, expense
// groups and payment methods.
type Settings struct {
	UserID         uuid.UUID
	Module         string
	Profiles       []Profile
	Groups         []ExpenseGroup
	PaymentMethods []string
}

// ProfileByID returns the configured profile with the given id, or nil.
func (s *Settings) ProfileByID(id string) *Profile {
	for i := range s.Profiles {
		if s.Profiles[i].ID == id {
			return &s.Profiles[i]
		}
	}
	return nil
}

// FirstProfile returns the user's first configured profile, or nil.
func (s *Settings) FirstProfile() *Profile {
	if len(s.Profiles) == 0 {
		return nil
	}
	return &s.Profiles[0]
}

// UPID builds the scoping key partitioning a user's tenant-owned records:
// uid + "-" + profile id. It is a stable partition key, not a secret.
func UPID(uid uuid.UUID, profileID string) string {
	return uid.String() + "-" + profileID
}

// DefaultSettings returns the settings a freshly registered user starts
// with: the finance module with the default India profile.
func DefaultSettings(uid uuid.UUID) *Settings {
	return &Settings{
		UserID:   uid,
		Module:   ModuleFinance,
		Profiles: []Profile{{ID: "IN", Name: "India", Currency: "INR"}},
	}
}
