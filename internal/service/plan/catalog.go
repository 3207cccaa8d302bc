package plan

import (
	"math"

	"github.com/emersoneims/oracle-api/internal/model"
)

// yearlyDiscount is applied to twelve months of the monthly price.
const yearlyDiscount = 0.8

// monthlyPlans is the versioned plan catalog. It is reference data:
// there are no mutation operations, changes ship with a redeploy.
var monthlyPlans = []model.SubscriptionPlan{
	{
		ID:          model.FreePlanID,
		Name:        "Free",
		Description: "Basic access for occasional use",
		PriceKES:    0,
		PriceUSD:    0,
		Interval:    model.IntervalMonthly,
		Features: []string{
			"5 diagnoses per month",
			"Basic fault code lookup",
			"Community support",
		},
		Limits: model.PlanLimits{
			DiagnosesPerPeriod:   5,
			AIDiagnosesPerPeriod: 0,
			ReportsPerPeriod:     1,
			TeamMembers:          1,
			SupportTier:          model.SupportCommunity,
		},
	},
	{
		ID:          "basic",
		Name:        "Basic",
		Description: "For individual technicians",
		PriceKES:    1500,
		PriceUSD:    12,
		Interval:    model.IntervalMonthly,
		Features: []string{
			"50 diagnoses per month",
			"10 AI-powered diagnoses",
			"10 PDF reports",
			"Email support",
			"Offline access",
		},
		Limits: model.PlanLimits{
			DiagnosesPerPeriod:   50,
			AIDiagnosesPerPeriod: 10,
			ReportsPerPeriod:     10,
			TeamMembers:          1,
			SupportTier:          model.SupportEmail,
		},
	},
	{
		ID:          "pro",
		Name:        "Professional",
		Description: "For busy technicians & small teams",
		PriceKES:    4500,
		PriceUSD:    35,
		Interval:    model.IntervalMonthly,
		Features: []string{
			"Unlimited diagnoses",
			"100 AI-powered diagnoses",
			"Unlimited PDF reports",
			"Priority support",
			"Team access (up to 5)",
			"Parts ordering",
			"Customer database",
		},
		Limits: model.PlanLimits{
			DiagnosesPerPeriod:   model.Unlimited,
			AIDiagnosesPerPeriod: 100,
			ReportsPerPeriod:     model.Unlimited,
			TeamMembers:          5,
			SupportTier:          model.SupportPriority,
		},
		IsPopular: true,
	},
	{
		ID:          "enterprise",
		Name:        "Enterprise",
		Description: "For service companies & dealers",
		PriceKES:    15000,
		PriceUSD:    120,
		Interval:    model.IntervalMonthly,
		Features: []string{
			"Everything in Pro",
			"Unlimited AI diagnoses",
			"Unlimited team members",
			"Dedicated support",
			"Custom branding",
			"API access",
			"Analytics dashboard",
			"White-label reports",
		},
		Limits: model.PlanLimits{
			DiagnosesPerPeriod:   model.Unlimited,
			AIDiagnosesPerPeriod: model.Unlimited,
			ReportsPerPeriod:     model.Unlimited,
			TeamMembers:          model.Unlimited,
			SupportTier:          model.SupportDedicated,
		},
	},
}

var catalog = buildCatalog()

// buildCatalog derives the yearly variants from the monthly plans: same
// limits, twelve months at a 20% discount. The free plan has no yearly
// variant.
func buildCatalog() []model.SubscriptionPlan {
	plans := make([]model.SubscriptionPlan, 0, len(monthlyPlans)*2)
	plans = append(plans, monthlyPlans...)

	for _, p := range monthlyPlans {
		if p.ID == model.FreePlanID {
			continue
		}

		yearly := p
		yearly.ID = p.ID + "_yearly"
		yearly.Interval = model.IntervalYearly
		yearly.PriceKES = yearlyPrice(p.PriceKES)
		yearly.PriceUSD = yearlyPrice(p.PriceUSD)
		yearly.Features = append(append([]string{}, p.Features...), "20% yearly discount")
		plans = append(plans, yearly)
	}

	return plans
}

func yearlyPrice(monthly int64) int64 {
	return int64(math.Round(float64(monthly) * 12 * yearlyDiscount))
}

// Catalog returns every purchasable plan, monthly and yearly.
func Catalog() []model.SubscriptionPlan {
	out := make([]model.SubscriptionPlan, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup resolves a plan id to its catalog entry.
func Lookup(planID string) (*model.SubscriptionPlan, bool) {
	for i := range catalog {
		if catalog[i].ID == planID {
			p := catalog[i]
			return &p, true
		}
	}
	return nil, false
}

// Free returns the implicit free plan.
func Free() *model.SubscriptionPlan {
	p, _ := Lookup(model.FreePlanID)
	return p
}
