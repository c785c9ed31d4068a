package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/smartwatt/plan-advisor/internal/costing"
	"github.com/smartwatt/plan-advisor/internal/domain"
	"github.com/smartwatt/plan-advisor/internal/risk"
	"github.com/smartwatt/plan-advisor/internal/scoring"
	"github.com/smartwatt/plan-advisor/internal/usage"
)

// RecommendationReport is the full analysis output for one user, assembled
// for persistence and delivery by the surrounding system.
type RecommendationReport struct {
	ID          string                    `json:"id"`
	UserID      string                    `json:"user_id"`
	GeneratedAt time.Time                 `json:"generated_at"`
	ExpiresAt   time.Time                 `json:"expires_at"`
	Profile     usage.Profile             `json:"profile"`
	RankedPlans []scoring.RankedPlan      `json:"ranked_plans"`
	Savings     []costing.SavingsAnalysis `json:"savings"`
	Comparison  costing.Comparison        `json:"comparison"`
	Risks       []risk.Warning            `json:"risks"`
	RiskLevel   risk.Level                `json:"risk_level"`
	Stay        risk.StayRecommendation   `json:"stay_recommendation"`
	ReportURL   string                    `json:"report_url,omitempty"`
}

// reportTTL is how long a generated recommendation stays valid before the
// caller should re-run the analysis.
const reportTTL = 30 * 24 * time.Hour

const reportKeyPrefix = "reports/"

// ErrArchiveDisabled is returned from archive lookups when cloud services are
// not configured.
var ErrArchiveDisabled = errors.New("report archive is not enabled")

func reportKey(id string) string {
	return reportKeyPrefix + id + ".json"
}

// BuildReport runs the whole pipeline for one user: profile, ranking,
// savings, comparison, and risks. When cloud services are enabled the report
// is archived to S3 and a high-risk result raises an SNS alert.
func (s *AdvisorService) BuildReport(userID string, prefs domain.Preferences, regionalAvgKWH float64, topN int) (*RecommendationReport, error) {
	profile, err := s.AnalyzeUsage(userID, regionalAvgKWH)
	if err != nil {
		return nil, err
	}

	ranked, err := s.RankPlans(profile, prefs, topN)
	if err != nil {
		return nil, err
	}

	current, err := s.repos.GetCurrentPlan(userID)
	if err != nil {
		return nil, fmt.Errorf("load current plan: %w", err)
	}

	candidates := make([]domain.Plan, len(ranked))
	savings := make([]costing.SavingsAnalysis, len(ranked))
	for i, rp := range ranked {
		candidates[i] = rp.Plan
		savings[i] = costing.AnalyzeSavings(current, rp.Plan, profile.Projection)
	}
	comparison := costing.Compare(candidates, current, profile.Projection)

	warnings := s.detector.Detect(ranked, current, savings, profile, prefs)
	var top *scoring.RankedPlan
	var topSavings *costing.SavingsAnalysis
	if len(ranked) > 0 {
		top = &ranked[0]
		topSavings = &savings[0]
	}
	stay := s.detector.ShouldStay(current, top, topSavings, warnings, len(ranked))

	now := time.Now().UTC()
	report := &RecommendationReport{
		ID:          uuid.NewString(),
		UserID:      userID,
		GeneratedAt: now,
		ExpiresAt:   now.Add(reportTTL),
		Profile:     profile,
		RankedPlans: ranked,
		Savings:     savings,
		Comparison:  comparison,
		Risks:       warnings,
		RiskLevel:   risk.OverallLevel(warnings),
		Stay:        stay,
	}

	s.archiveAndAlert(report)
	return report, nil
}

// archiveAndAlert is best-effort: a cloud failure never fails the analysis.
func (s *AdvisorService) archiveAndAlert(report *RecommendationReport) {
	if s.s3 != nil {
		data, err := json.Marshal(report)
		if err == nil {
			if url, err := s.s3.UploadReport(reportKey(report.ID), data); err != nil {
				log.Warn().Err(err).Str("report_id", report.ID).Msg("report archive failed")
			} else {
				report.ReportURL = url
			}
		}
	}

	if s.sns != nil && report.RiskLevel == risk.LevelHigh {
		critical := 0
		for _, w := range report.Risks {
			if w.Severity == risk.SeverityCritical {
				critical++
			}
		}
		if err := s.sns.SendHighRiskAlert(report.UserID, report.ID, critical); err != nil {
			log.Warn().Err(err).Str("report_id", report.ID).Msg("risk alert failed")
		}
	}
}

// ArchivedReport fetches a previously archived recommendation by id.
func (s *AdvisorService) ArchivedReport(id string) (*RecommendationReport, error) {
	if s.s3 == nil {
		return nil, ErrArchiveDisabled
	}
	data, err := s.s3.DownloadReport(reportKey(id))
	if err != nil {
		return nil, fmt.Errorf("fetch archived report %s: %w", id, err)
	}
	var report RecommendationReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("decode archived report %s: %w", id, err)
	}
	return &report, nil
}

// ArchivedReportIDs lists the ids of all archived recommendations.
func (s *AdvisorService) ArchivedReportIDs() ([]string, error) {
	if s.s3 == nil {
		return nil, ErrArchiveDisabled
	}
	keys, err := s.s3.ListReports(reportKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("list archived reports: %w", err)
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		id := strings.TrimSuffix(strings.TrimPrefix(k, reportKeyPrefix), ".json")
		ids = append(ids, id)
	}
	return ids, nil
}
