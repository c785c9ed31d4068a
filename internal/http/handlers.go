package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/smartwatt/plan-advisor/internal/costing"
	"github.com/smartwatt/plan-advisor/internal/domain"
	"github.com/smartwatt/plan-advisor/internal/repository"
	"github.com/smartwatt/plan-advisor/internal/scoring"
	"github.com/smartwatt/plan-advisor/internal/service"
	"github.com/smartwatt/plan-advisor/internal/usage"
)

func Register(app *fiber.App, svcs *service.Services) {
	plans := app.Group("/plans")

	plans.Get("", func(c *fiber.Ctx) error {
		out, err := svcs.Repos.ListPlans()
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(out)
	})

	plans.Get(":id", func(c *fiber.Ctx) error {
		plan, err := svcs.Repos.GetPlan(c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(plan)
	})

	reports := app.Group("/reports")

	reports.Get("", func(c *fiber.Ctx) error {
		ids, err := svcs.Advisor.ArchivedReportIDs()
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"report_ids": ids})
	})

	reports.Get(":id", func(c *fiber.Ctx) error {
		report, err := svcs.Advisor.ArchivedReport(c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(report)
	})

	g := app.Group("/analysis")

	g.Post("usage", func(c *fiber.Ctx) error {
		var req struct {
			UserID         string  `json:"user_id"`
			RegionalAvgKWH float64 `json:"regional_avg_kwh"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		profile, err := svcs.Advisor.AnalyzeUsage(req.UserID, req.RegionalAvgKWH)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(profile)
	})

	g.Post("rank", func(c *fiber.Ctx) error {
		var req struct {
			Profile     usage.Profile      `json:"profile"`
			Preferences domain.Preferences `json:"preferences"`
			TopN        int                `json:"top_n"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		ranked, err := svcs.Advisor.RankPlans(req.Profile, req.Preferences, req.TopN)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(ranked)
	})

	g.Post("savings", func(c *fiber.Ctx) error {
		var req struct {
			UserID     string             `json:"user_id"`
			Plan       scoring.RankedPlan `json:"plan"`
			Projection usage.Projection   `json:"projection"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		analysis, err := svcs.Advisor.CalculateSavings(req.UserID, req.Plan, req.Projection)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(analysis)
	})

	g.Post("risks", func(c *fiber.Ctx) error {
		var req struct {
			UserID      string                    `json:"user_id"`
			RankedPlans []scoring.RankedPlan      `json:"ranked_plans"`
			Savings     []costing.SavingsAnalysis `json:"savings"`
			Profile     usage.Profile             `json:"profile"`
			Preferences domain.Preferences        `json:"preferences"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		warnings, stay, err := svcs.Advisor.DetectRisks(req.UserID, req.RankedPlans, req.Savings, req.Profile, req.Preferences)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"risks": warnings, "stay_recommendation": stay})
	})

	g.Post("report", func(c *fiber.Ctx) error {
		var req struct {
			UserID         string             `json:"user_id"`
			Preferences    domain.Preferences `json:"preferences"`
			RegionalAvgKWH float64            `json:"regional_avg_kwh"`
			TopN           int                `json:"top_n"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		report, err := svcs.Advisor.BuildReport(req.UserID, req.Preferences, req.RegionalAvgKWH, req.TopN)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(report)
	})
}

func fail(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, repository.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, service.ErrArchiveDisabled):
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
