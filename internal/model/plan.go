package model

// Unlimited is the sentinel for limits with no ceiling. It is a
// distinguished value, not a large number.
const Unlimited int64 = -1

// Billing interval constants
const (
	IntervalMonthly = "monthly"
	IntervalYearly  = "yearly"
)

// Support tier constants
const (
	SupportCommunity = "community"
	SupportEmail     = "email"
	SupportPriority  = "priority"
	SupportDedicated = "dedicated"
)

// PlanLimits is the quota tuple attached to a plan
type PlanLimits struct {
	DiagnosesPerPeriod   int64  `json:"diagnoses_per_period"`
	AIDiagnosesPerPeriod int64  `json:"ai_diagnoses_per_period"`
	ReportsPerPeriod     int64  `json:"reports_per_period"`
	TeamMembers          int64  `json:"team_members"`
	SupportTier          string `json:"support_tier"`
}

// SubscriptionPlan is a purchasable plan from the static catalog
type SubscriptionPlan struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	PriceKES    int64      `json:"price_kes"`
	PriceUSD    int64      `json:"price_usd"`
	Interval    string     `json:"interval"`
	Features    []string   `json:"features"`
	Limits      PlanLimits `json:"limits"`
	IsPopular   bool       `json:"is_popular,omitempty"`
}

// LimitFor returns the plan ceiling governing the given usage kind.
func (p *SubscriptionPlan) LimitFor(kind UsageKind) int64 {
	switch kind {
	case UsageDiagnosis:
		return p.Limits.DiagnosesPerPeriod
	case UsageAIDiagnosis:
		return p.Limits.AIDiagnosesPerPeriod
	case UsageReport:
		return p.Limits.ReportsPerPeriod
	default:
		return 0
	}
}
