package engine

import (
	"strings"
	"time"

	"github.com/Meridian-Contracting/Triage/internal/enrich"
	"github.com/Meridian-Contracting/Triage/internal/opportunity"
	"github.com/Meridian-Contracting/Triage/internal/spending"
	"github.com/Meridian-Contracting/Triage/internal/store"
)

// The twelve factor identifiers, in scoring order.
var FactorNames = []string{
	"strategic_alignment",
	"capability_match",
	"market_position",
	"estimated_value",
	"profit_potential",
	"resource_requirements",
	"technical_risk",
	"schedule_risk",
	"competitive_risk",
	"past_performance",
	"eligibility_fit",
	"submission_complexity",
}

// Profile is the bidding organization's standing capability profile,
// loaded from configuration.
type Profile struct {
	Capabilities      []string
	TargetNAICS       []string
	PreferredAgencies []string
	SetAsidePrograms  []string
}

// EvalContext bundles all inputs for scoring one opportunity. History and
// Analysis are optional enrichment; nil means unavailable and the dependent
// factors fall back to the neutral default of 50.
type EvalContext struct {
	Opportunity *opportunity.Opportunity
	History     *spending.History
	Analysis    *enrich.Analysis
	Profile     Profile
	Now         time.Time
}

// missingFactor is the neutral default for an absent raw signal. Never an
// error: it lowers the record's confidence instead.
func missingFactor(name string) store.DecisionFactor {
	return store.DecisionFactor{
		Name:     name,
		Score:    50,
		Evidence: map[string]interface{}{"status": "missing"},
	}
}

// BuildFactors produces exactly twelve factors, one per FactorNames entry,
// each scored on [0,100].
func BuildFactors(ec *EvalContext) []store.DecisionFactor {
	return []store.DecisionFactor{
		StrategicAlignmentFactor(ec),
		CapabilityMatchFactor(ec),
		MarketPositionFactor(ec),
		EstimatedValueFactor(ec),
		ProfitPotentialFactor(ec),
		ResourceRequirementsFactor(ec),
		TechnicalRiskFactor(ec),
		ScheduleRiskFactor(ec),
		CompetitiveRiskFactor(ec),
		PastPerformanceFactor(ec),
		EligibilityFitFactor(ec),
		SubmissionComplexityFactor(ec),
	}
}

var strategicTerms = []string{"innovation", "emerging", "strategic", "critical", "mission"}

// StrategicAlignmentFactor blends NAICS fit, agency preference, and strategic
// keyword density from the analysis.
func StrategicAlignmentFactor(ec *EvalContext) store.DecisionFactor {
	opp := ec.Opportunity
	if opp.NAICSCode == "" && opp.Agency == "" && ec.Analysis == nil {
		return missingFactor("strategic_alignment")
	}

	naicsScore := 40.0
	if containsFold(ec.Profile.TargetNAICS, opp.NAICSCode) {
		naicsScore = 80
	}
	agencyScore := 60.0
	if containsFold(ec.Profile.PreferredAgencies, opp.Agency) {
		agencyScore = 90
	}
	keywordScore := 50.0
	keywordMatches := 0
	if ec.Analysis != nil {
		for _, kw := range ec.Analysis.Keywords {
			for _, term := range strategicTerms {
				if strings.Contains(strings.ToLower(kw), term) {
					keywordMatches++
					break
				}
			}
		}
		keywordScore = clamp(float64(keywordMatches)/5.0*100, 0, 100)
	}

	score := clamp(0.4*naicsScore+0.3*agencyScore+0.3*keywordScore, 0, 100)
	return store.DecisionFactor{
		Name:      "strategic_alignment",
		Score:     score,
		Available: true,
		Evidence: map[string]interface{}{
			"naics_code":      opp.NAICSCode,
			"agency":          opp.Agency,
			"keyword_matches": keywordMatches,
		},
	}
}

// CapabilityMatchFactor is the percentage overlap between the required
// capability tags and the organization's capability profile.
func CapabilityMatchFactor(ec *EvalContext) store.DecisionFactor {
	required := ec.Opportunity.RequiredCapabilities
	if len(required) == 0 && ec.Analysis != nil {
		// Fall back to matching profile capabilities against the analyzed
		// technical requirement text.
		reqText := strings.ToLower(strings.Join(ec.Analysis.TechnicalRequirements, " "))
		if reqText != "" {
			matched := 0
			for _, capability := range ec.Profile.Capabilities {
				if strings.Contains(reqText, strings.ToLower(capability)) {
					matched++
				}
			}
			score := clamp(float64(matched)/5.0*100, 0, 100)
			return store.DecisionFactor{
				Name:      "capability_match",
				Score:     score,
				Available: true,
				Evidence: map[string]interface{}{
					"source":               "analysis",
					"matched_capabilities": matched,
				},
			}
		}
	}
	if len(required) == 0 {
		return missingFactor("capability_match")
	}

	matched := 0
	for _, req := range required {
		if containsFold(ec.Profile.Capabilities, req) {
			matched++
		}
	}
	score := clamp(float64(matched)/float64(len(required))*100, 0, 100)
	return store.DecisionFactor{
		Name:      "capability_match",
		Score:     score,
		Available: true,
		Evidence: map[string]interface{}{
			"required": len(required),
			"matched":  matched,
		},
	}
}

// MarketPositionFactor reads the competitive landscape: fragmented markets
// and set-aside restrictions both improve position.
func MarketPositionFactor(ec *EvalContext) store.DecisionFactor {
	if ec.History == nil && ec.Opportunity.SetAside == "" {
		return missingFactor("market_position")
	}

	score := 60.0
	evidence := map[string]interface{}{}
	if ec.History != nil {
		evidence["contractor_count"] = ec.History.ContractorCount
		if ec.History.ContractorCount > 10 {
			score += 20
		} else if ec.History.ContractorCount > 0 && ec.History.ContractorCount < 5 {
			score -= 10
		}
	}
	if setAsideMatches(ec.Opportunity.SetAside, "small business") {
		score += 15
		evidence["set_aside"] = ec.Opportunity.SetAside
	}
	return store.DecisionFactor{
		Name:      "market_position",
		Score:     clamp(score, 0, 100),
		Available: true,
		Evidence:  evidence,
	}
}

// EstimatedValueFactor scores contract value attractiveness on log-scale bands.
func EstimatedValueFactor(ec *EvalContext) store.DecisionFactor {
	v := ec.Opportunity.EstimatedValue
	if v == nil {
		return missingFactor("estimated_value")
	}

	value := *v
	var score float64
	switch {
	case value >= 1_000_000_000:
		score = 100
	case value >= 100_000_000:
		score = 95
	case value >= 50_000_000:
		score = 85
	case value >= 10_000_000:
		score = 75
	case value >= 1_000_000:
		score = 65
	case value >= 500_000:
		score = 60
	default:
		score = 50
	}
	return store.DecisionFactor{
		Name:      "estimated_value",
		Score:     score,
		Available: true,
		Evidence:  map[string]interface{}{"estimated_value": value},
	}
}

// ProfitPotentialFactor favors R&D-flavored work and IDIQ vehicles, penalizes
// commoditized O&M scopes.
func ProfitPotentialFactor(ec *EvalContext) store.DecisionFactor {
	if ec.Analysis == nil && ec.Opportunity.OpportunityType == "" {
		return missingFactor("profit_potential")
	}

	score := 60.0
	evidence := map[string]interface{}{}
	if ec.Analysis != nil {
		text := strings.ToLower(strings.Join(ec.Analysis.Keywords, " "))
		if containsAny(text, "research", "development", "innovation", "prototype") {
			score += 20
			evidence["profile"] = "r&d"
		}
		if containsAny(text, "maintenance", "support", "operations") {
			score -= 10
			evidence["profile"] = "o&m"
		}
	}
	if strings.Contains(strings.ToLower(ec.Opportunity.OpportunityType), "indefinite delivery") {
		score += 10
		evidence["vehicle"] = ec.Opportunity.OpportunityType
	}
	return store.DecisionFactor{
		Name:      "profit_potential",
		Score:     clamp(score, 0, 100),
		Available: true,
		Evidence:  evidence,
	}
}

// ResourceRequirementsFactor is inverse-scored: a heavier requirement set and
// a compressed timeline both lower the score.
func ResourceRequirementsFactor(ec *EvalContext) store.DecisionFactor {
	if ec.Analysis == nil {
		return missingFactor("resource_requirements")
	}

	reqCount := len(ec.Analysis.TechnicalRequirements)
	var score float64
	switch {
	case reqCount > 15:
		score = 30
	case reqCount > 10:
		score = 50
	case reqCount > 5:
		score = 70
	default:
		score = 90
	}

	evidence := map[string]interface{}{"requirement_count": reqCount}
	if days, ok := daysToDeadline(ec); ok {
		evidence["days_to_deadline"] = days
		if days < 14 {
			score -= 20
		} else if days > 60 {
			score += 10
		}
	}
	return store.DecisionFactor{
		Name:      "resource_requirements",
		Score:     clamp(score, 10, 100),
		Available: true,
		Evidence:  evidence,
	}
}

// TechnicalRiskFactor is inverse-scored from the analysis risk flags.
func TechnicalRiskFactor(ec *EvalContext) store.DecisionFactor {
	if ec.Analysis == nil {
		return missingFactor("technical_risk")
	}
	flags := len(ec.Analysis.RiskFlags)
	score := clamp(90-float64(flags)*15, 10, 90)
	return store.DecisionFactor{
		Name:      "technical_risk",
		Score:     score,
		Available: true,
		Evidence:  map[string]interface{}{"risk_flags": ec.Analysis.RiskFlags},
	}
}

// ScheduleRiskFactor is inverse-scored from days until the response deadline.
func ScheduleRiskFactor(ec *EvalContext) store.DecisionFactor {
	days, ok := daysToDeadline(ec)
	if !ok {
		return missingFactor("schedule_risk")
	}
	var score float64
	switch {
	case days < 7:
		score = 20
	case days < 14:
		score = 40
	case days < 30:
		score = 60
	default:
		score = 80
	}
	return store.DecisionFactor{
		Name:      "schedule_risk",
		Score:     score,
		Available: true,
		Evidence:  map[string]interface{}{"days_to_deadline": days},
	}
}

// CompetitiveRiskFactor is inverse-scored: set-asides reduce competition,
// large contract values and crowded markets attract it.
func CompetitiveRiskFactor(ec *EvalContext) store.DecisionFactor {
	opp := ec.Opportunity
	if opp.SetAside == "" && opp.EstimatedValue == nil && ec.History == nil {
		return missingFactor("competitive_risk")
	}

	score := 60.0
	evidence := map[string]interface{}{}
	if opp.SetAside != "" {
		evidence["set_aside"] = opp.SetAside
		switch {
		case setAsideMatches(opp.SetAside, "hubzone"), setAsideMatches(opp.SetAside, "8(a)"):
			score += 30
		case setAsideMatches(opp.SetAside, "small business"):
			score += 20
		}
	}
	if opp.EstimatedValue != nil && *opp.EstimatedValue >= 10_000_000 {
		score -= 15
		evidence["high_value"] = true
	}
	if ec.History != nil && ec.History.ContractorCount > 10 {
		score -= 10
		evidence["contractor_count"] = ec.History.ContractorCount
	}
	return store.DecisionFactor{
		Name:      "competitive_risk",
		Score:     clamp(score, 10, 100),
		Available: true,
		Evidence:  evidence,
	}
}

// PastPerformanceFactor scores the historical win rate for the same
// agency/sector pair, pulled toward neutral when the sample is thin.
func PastPerformanceFactor(ec *EvalContext) store.DecisionFactor {
	h := ec.History
	if h == nil || h.Awards == 0 {
		return missingFactor("past_performance")
	}

	sample := float64(h.Awards)
	if sample > 10 {
		sample = 10
	}
	score := 50 + (h.WinRate*100-50)*sample/10
	return store.DecisionFactor{
		Name:      "past_performance",
		Score:     clamp(score, 0, 100),
		Available: true,
		Evidence: map[string]interface{}{
			"win_rate": h.WinRate,
			"awards":   h.Awards,
		},
	}
}

// EligibilityFitFactor checks the set-aside restriction against the programs
// the organization qualifies for. An unrestricted competition scores mid-high.
func EligibilityFitFactor(ec *EvalContext) store.DecisionFactor {
	setAside := ec.Opportunity.SetAside
	if setAside == "" {
		return store.DecisionFactor{
			Name:      "eligibility_fit",
			Score:     70,
			Available: true,
			Evidence:  map[string]interface{}{"competition": "full_and_open"},
		}
	}
	for _, program := range ec.Profile.SetAsidePrograms {
		if setAsideMatches(setAside, program) {
			return store.DecisionFactor{
				Name:      "eligibility_fit",
				Score:     90,
				Available: true,
				Evidence:  map[string]interface{}{"set_aside": setAside, "eligible": true},
			}
		}
	}
	return store.DecisionFactor{
		Name:      "eligibility_fit",
		Score:     15,
		Available: true,
		Evidence:  map[string]interface{}{"set_aside": setAside, "eligible": false},
	}
}

// SubmissionComplexityFactor is inverse-scored: more requirements and more
// attachments mean a harder submission.
func SubmissionComplexityFactor(ec *EvalContext) store.DecisionFactor {
	if ec.Analysis == nil && ec.Opportunity.AttachmentCount == nil {
		return missingFactor("submission_complexity")
	}

	points := 0
	evidence := map[string]interface{}{}
	if ec.Analysis != nil {
		points += len(ec.Analysis.TechnicalRequirements)
		evidence["requirement_count"] = len(ec.Analysis.TechnicalRequirements)
	}
	if ec.Opportunity.AttachmentCount != nil {
		points += 2 * *ec.Opportunity.AttachmentCount
		evidence["attachment_count"] = *ec.Opportunity.AttachmentCount
	}
	score := clamp(90-float64(points)*3, 10, 90)
	return store.DecisionFactor{
		Name:      "submission_complexity",
		Score:     score,
		Available: true,
		Evidence:  evidence,
	}
}

// --- helpers ---

func daysToDeadline(ec *EvalContext) (int, bool) {
	if ec.Opportunity.ResponseDeadline == nil {
		return 0, false
	}
	now := ec.Now
	if now.IsZero() {
		now = time.Now()
	}
	return int(ec.Opportunity.ResponseDeadline.Sub(now).Hours() / 24), true
}

func containsFold(haystack []string, needle string) bool {
	if needle == "" {
		return false
	}
	for _, s := range haystack {
		if strings.EqualFold(s, needle) {
			return true
		}
	}
	return false
}

func containsAny(text string, terms ...string) bool {
	for _, t := range terms {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}

func setAsideMatches(setAside, program string) bool {
	return strings.Contains(strings.ToLower(setAside), strings.ToLower(program))
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
