package core

import "time"

// Role is the subscription tier of an account
type Role string

const (
	RoleFree    Role = "free"
	RolePremium Role = "premium"
)

// Plan labels shown to users
const (
	PlanFree    = "Gratuito"
	PlanPremium = "Premium"
)

// UserStatus is the admin-visible account state
type UserStatus string

const (
	StatusActive    UserStatus = "Ativo"
	StatusSuspended UserStatus = "Suspenso"
)

// IsValid reports whether s is a known status.
func (s UserStatus) IsValid() bool {
	return s == StatusActive || s == StatusSuspended
}

// Trade sides and signal types
const (
	SideBuy  = "Compra"
	SideSell = "Venda"
)

// GuestID identifies the anonymous demo account.
const GuestID = "guest"

// User is the authenticated account view
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
	Plan  string `json:"plan"`
}

// IsPremium reports whether the user has a paid plan.
func (u User) IsPremium() bool {
	return u.Role == RolePremium
}

// Guest returns the anonymous account for email.
func Guest(email string) User {
	return User{
		ID:    GuestID,
		Name:  "Usuário Convidado",
		Email: email,
		Role:  RoleFree,
		Plan:  PlanFree,
	}
}

// AdminUser is the projection of an account listed in the admin panel
type AdminUser struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	Plan     string     `json:"plan"`
	Status   UserStatus `json:"status"`
	JoinedAt *time.Time `json:"joinDate,omitempty"`
}

// SignalProvider publishes trading signals
type SignalProvider struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	AvatarURL    string  `json:"avatarUrl"`
	WinRate      float64 `json:"winRate"`
	Followers    int     `json:"followers"`
	TotalSignals int     `json:"totalSignals"`
}

// Signal is a trade idea published by a provider
type Signal struct {
	ID            string         `json:"id"`
	Provider      SignalProvider `json:"provider"`
	Pair          string         `json:"pair"`
	Type          string         `json:"type"`
	Timeframe     string         `json:"timeframe"`
	Entry         float64        `json:"entry"`
	Target        float64        `json:"target"`
	Stop          float64        `json:"stop"`
	Justification string         `json:"justification"`
	ImageURL      string         `json:"imageUrl,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	Timestamp     string         `json:"timestamp"`
}

// DisplayLayout is the date format used for Signal.Timestamp.
const DisplayLayout = "02/01/2006"

// Trade is one simulated backtest trade
type Trade struct {
	Date       string  `json:"date"`
	Type       string  `json:"type"`
	EntryPrice float64 `json:"entryPrice"`
	ExitPrice  float64 `json:"exitPrice"`
	Result     float64 `json:"result"` // percent
}

// IsWin returns true if the trade was profitable
func (t Trade) IsWin() bool {
	return t.Result > 0
}

// BacktestResult holds the summary and trade log of a backtest run
type BacktestResult struct {
	TotalTrades      int     `json:"totalTrades"`
	WinRate          float64 `json:"winRate"`
	CumulativeReturn float64 `json:"cumulativeReturn"`
	MaxDrawdown      float64 `json:"maxDrawdown"`
	Trades           []Trade `json:"trades"`
}

// Page is one window of a paginated collection
type Page[T any] struct {
	Data    []T  `json:"data"`
	Total   int  `json:"total"`
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	HasMore bool `json:"hasMore"`
}

// Recommendation values returned by chart analysis
const (
	RecommendationBuy  = "ALTA"
	RecommendationSell = "BAIXA"
	RecommendationWait = "AGUARDAR"
)

// Indicators summarises visible technical indicators
type Indicators struct {
	RSI    string `json:"rsi"`
	Volume string `json:"volume"`
}

// AnalysisResult is the structured output of a chart analysis
type AnalysisResult struct {
	Patterns        []string   `json:"patterns"`
	Trend           string     `json:"trend"`
	Indicators      Indicators `json:"indicators"`
	Recommendation  string     `json:"recommendation"`
	ConfidenceScore float64    `json:"confidenceScore"`
	Summary         string     `json:"summary"`
}
