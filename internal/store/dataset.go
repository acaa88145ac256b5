package store

import (
	_ "embed"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/newthinker/signalhub/internal/core"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

// Dataset is the demo data served in mock mode and loaded by `migrate --seed`.
type Dataset struct {
	Users      []UserRecord     `yaml:"users"`
	AdminUsers []AdminRecord    `yaml:"admin_users"`
	Providers  []ProviderRecord `yaml:"providers"`
	Signals    []SignalRecord   `yaml:"signals"`
}

type UserRecord struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
	Role  string `yaml:"role"`
	Plan  string `yaml:"plan"`
}

type AdminRecord struct {
	ID       string     `yaml:"id"`
	Name     string     `yaml:"name"`
	Email    string     `yaml:"email"`
	Plan     string     `yaml:"plan"`
	Status   string     `yaml:"status"`
	JoinedAt *time.Time `yaml:"joined_at"`
}

type ProviderRecord struct {
	ID           string  `yaml:"id"`
	Name         string  `yaml:"name"`
	AvatarURL    string  `yaml:"avatar_url"`
	WinRate      float64 `yaml:"win_rate"`
	Followers    int     `yaml:"followers"`
	TotalSignals int     `yaml:"total_signals"`
}

type SignalRecord struct {
	ID            string    `yaml:"id"`
	ProviderID    string    `yaml:"provider_id"`
	Pair          string    `yaml:"pair"`
	Type          string    `yaml:"type"`
	Timeframe     string    `yaml:"timeframe"`
	Entry         float64   `yaml:"entry"`
	Target        float64   `yaml:"target"`
	Stop          float64   `yaml:"stop"`
	Justification string    `yaml:"justification"`
	ImageURL      string    `yaml:"image_url"`
	CreatedAt     time.Time `yaml:"created_at"`
}

// DefaultDataset returns a fresh copy of the embedded demo data.
func DefaultDataset() *Dataset {
	ds, err := ParseDataset(defaultSeed)
	if err != nil {
		panic(fmt.Sprintf("embedded seed is invalid: %v", err))
	}
	return ds
}

// LoadDataset decodes a YAML dataset from r.
func LoadDataset(r io.Reader) (*Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}
	return ParseDataset(data)
}

// ParseDataset decodes and validates a YAML dataset.
func ParseDataset(data []byte) (*Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("decoding dataset: %w", err)
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return &ds, nil
}

// Validate checks ids are unique and every signal references a known provider.
func (d *Dataset) Validate() error {
	seen := make(map[string]struct{})
	for _, u := range d.Users {
		if u.ID == "" || u.Email == "" {
			return core.WrapError(core.ErrInvalidInput, fmt.Errorf("user without id or email"))
		}
		if _, dup := seen[u.ID]; dup {
			return core.WrapError(core.ErrInvalidInput, fmt.Errorf("duplicate user id %s", u.ID))
		}
		seen[u.ID] = struct{}{}
	}

	providers := make(map[string]struct{}, len(d.Providers))
	for _, p := range d.Providers {
		if _, dup := providers[p.ID]; dup {
			return core.WrapError(core.ErrInvalidInput, fmt.Errorf("duplicate provider id %s", p.ID))
		}
		providers[p.ID] = struct{}{}
	}

	for _, s := range d.Signals {
		if _, ok := providers[s.ProviderID]; !ok {
			return core.WrapError(core.ErrInvalidInput,
				fmt.Errorf("signal %s references unknown provider %s", s.ID, s.ProviderID))
		}
	}
	return nil
}

// CoreUsers converts the user records.
func (d *Dataset) CoreUsers() []core.User {
	out := make([]core.User, 0, len(d.Users))
	for _, u := range d.Users {
		out = append(out, core.User{
			ID:    u.ID,
			Name:  u.Name,
			Email: u.Email,
			Role:  core.Role(u.Role),
			Plan:  u.Plan,
		})
	}
	return out
}

// CoreAdminUsers converts the admin records.
func (d *Dataset) CoreAdminUsers() []core.AdminUser {
	out := make([]core.AdminUser, 0, len(d.AdminUsers))
	for _, a := range d.AdminUsers {
		out = append(out, core.AdminUser{
			ID:       a.ID,
			Name:     a.Name,
			Email:    a.Email,
			Plan:     a.Plan,
			Status:   core.UserStatus(a.Status),
			JoinedAt: a.JoinedAt,
		})
	}
	return out
}

// CoreProviders converts the provider records.
func (d *Dataset) CoreProviders() []core.SignalProvider {
	out := make([]core.SignalProvider, 0, len(d.Providers))
	for _, p := range d.Providers {
		out = append(out, p.toCore())
	}
	return out
}

// CoreSignals joins signals with their providers, newest first.
func (d *Dataset) CoreSignals() []core.Signal {
	providers := make(map[string]core.SignalProvider, len(d.Providers))
	for _, p := range d.Providers {
		providers[p.ID] = p.toCore()
	}

	out := make([]core.Signal, 0, len(d.Signals))
	for _, s := range d.Signals {
		out = append(out, core.Signal{
			ID:            s.ID,
			Provider:      providers[s.ProviderID],
			Pair:          s.Pair,
			Type:          s.Type,
			Timeframe:     s.Timeframe,
			Entry:         s.Entry,
			Target:        s.Target,
			Stop:          s.Stop,
			Justification: s.Justification,
			ImageURL:      s.ImageURL,
			CreatedAt:     s.CreatedAt,
			Timestamp:     DisplayTimestamp(s.CreatedAt),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (p ProviderRecord) toCore() core.SignalProvider {
	return core.SignalProvider{
		ID:           p.ID,
		Name:         p.Name,
		AvatarURL:    p.AvatarURL,
		WinRate:      p.WinRate,
		Followers:    p.Followers,
		TotalSignals: p.TotalSignals,
	}
}

// DisplayTimestamp formats a signal time the way the app shows it.
func DisplayTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(core.DisplayLayout)
}

// DemoPassword is the password given to seeded login identities.
const DemoPassword = "demo123"

// SeedProfile is an account row derived from the dataset for SQL backends.
type SeedProfile struct {
	ID       string
	Name     string
	Email    string
	Role     core.Role
	Plan     string
	Status   core.UserStatus
	JoinedAt *time.Time
	Login    bool // has a login identity
}

// SeedProfiles merges the login list and the admin projection into one row
// per account, keeping admin ordering first.
func (d *Dataset) SeedProfiles() []SeedProfile {
	users := make(map[string]UserRecord, len(d.Users))
	for _, u := range d.Users {
		users[u.ID] = u
	}

	out := make([]SeedProfile, 0, len(d.AdminUsers)+len(d.Users))
	seen := make(map[string]struct{})
	for _, a := range d.AdminUsers {
		p := SeedProfile{
			ID:       a.ID,
			Name:     a.Name,
			Email:    a.Email,
			Role:     core.RoleFree,
			Plan:     a.Plan,
			Status:   core.UserStatus(a.Status),
			JoinedAt: a.JoinedAt,
		}
		if a.Plan == core.PlanPremium {
			p.Role = core.RolePremium
		}
		if u, ok := users[a.ID]; ok {
			p.Role = core.Role(u.Role)
			p.Login = true
		}
		out = append(out, p)
		seen[a.ID] = struct{}{}
	}

	for _, u := range d.Users {
		if _, ok := seen[u.ID]; ok {
			continue
		}
		out = append(out, SeedProfile{
			ID:     u.ID,
			Name:   u.Name,
			Email:  u.Email,
			Role:   core.Role(u.Role),
			Plan:   u.Plan,
			Status: core.StatusActive,
			Login:  true,
		})
	}
	return out
}
