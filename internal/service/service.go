package service

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/smartwatt/plan-advisor/internal/cloud"
	"github.com/smartwatt/plan-advisor/internal/config"
	"github.com/smartwatt/plan-advisor/internal/costing"
	"github.com/smartwatt/plan-advisor/internal/domain"
	"github.com/smartwatt/plan-advisor/internal/repository"
	"github.com/smartwatt/plan-advisor/internal/risk"
	"github.com/smartwatt/plan-advisor/internal/scoring"
	"github.com/smartwatt/plan-advisor/internal/usage"
)

type Services struct {
	Repos   *repository.Repos
	Advisor *AdvisorService
	Usage   *UsageService
}

func New(db *sqlx.DB) *Services {
	repos := repository.New(db)
	advisor := &AdvisorService{
		repos:    repos,
		analyzer: usage.NewAnalyzer(log.Logger),
		detector: risk.NewDetector(),
	}
	advisor.analyzer.HighUserKWH = config.HighUserKWH()
	advisor.detector.StaySavings = config.StaySavingsThreshold()
	advisor.detector.ExpiryWindowDays = config.ContractExpiryWindowDays()

	if config.UseCloudServices() {
		if s3c, err := cloud.NewS3Client(config.AWSRegion(), config.S3Bucket()); err != nil {
			log.Warn().Err(err).Msg("s3 client unavailable; report archiving disabled")
		} else {
			advisor.s3 = s3c
		}
		if arn := config.SNSTopicArn(); arn != "" {
			if snsc, err := cloud.NewSNSClient(config.AWSRegion(), arn); err != nil {
				log.Warn().Err(err).Msg("sns client unavailable; risk alerts disabled")
			} else {
				advisor.sns = snsc
			}
		}
	}

	return &Services{
		Repos:   repos,
		Advisor: advisor,
		Usage:   &UsageService{repos: repos},
	}
}

// AdvisorService wires the pure analysis packages to the catalog and the
// optional cloud collaborators. The analysis itself never touches I/O.
type AdvisorService struct {
	repos    *repository.Repos
	analyzer *usage.Analyzer
	detector *risk.Detector
	s3       *cloud.S3Client
	sns      *cloud.SNSClient
}

// AnalyzeUsage fetches a user's usage history and runs the profile pipeline.
func (s *AdvisorService) AnalyzeUsage(userID string, regionalAvgKWH float64) (usage.Profile, error) {
	history, err := s.repos.UsageHistory(userID)
	if err != nil {
		return usage.Profile{}, fmt.Errorf("load usage history: %w", err)
	}
	return s.analyzer.Analyze(history, userID, regionalAvgKWH), nil
}

// RankPlans scores the catalog against a profile's projection.
func (s *AdvisorService) RankPlans(profile usage.Profile, prefs domain.Preferences, topN int) ([]scoring.RankedPlan, error) {
	if topN <= 0 {
		topN = config.TopNDefault()
	}
	plans, err := s.repos.ListPlans()
	if err != nil {
		return nil, fmt.Errorf("load plan catalog: %w", err)
	}
	return scoring.Rank(plans, profile.Projection, prefs, topN), nil
}

// CalculateSavings compares one ranked plan against the user's current plan.
func (s *AdvisorService) CalculateSavings(userID string, plan scoring.RankedPlan, proj usage.Projection) (costing.SavingsAnalysis, error) {
	current, err := s.repos.GetCurrentPlan(userID)
	if err != nil {
		return costing.SavingsAnalysis{}, fmt.Errorf("load current plan: %w", err)
	}
	return costing.AnalyzeSavings(current, plan.Plan, proj), nil
}

// DetectRisks runs the rule battery over the prior outputs and derives the
// stay-vs-switch recommendation.
func (s *AdvisorService) DetectRisks(
	userID string,
	ranked []scoring.RankedPlan,
	savings []costing.SavingsAnalysis,
	profile usage.Profile,
	prefs domain.Preferences,
) ([]risk.Warning, risk.StayRecommendation, error) {
	current, err := s.repos.GetCurrentPlan(userID)
	if err != nil {
		return nil, risk.StayRecommendation{}, fmt.Errorf("load current plan: %w", err)
	}

	warnings := s.detector.Detect(ranked, current, savings, profile, prefs)

	var top *scoring.RankedPlan
	var topSavings *costing.SavingsAnalysis
	if len(ranked) > 0 {
		top = &ranked[0]
		for i := range savings {
			if savings[i].PlanID == top.ID {
				topSavings = &savings[i]
				break
			}
		}
	}
	stay := s.detector.ShouldStay(current, top, topSavings, warnings, len(ranked))
	return warnings, stay, nil
}
