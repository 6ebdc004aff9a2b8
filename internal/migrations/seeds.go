package migrations

import (
	"time"

	"gorm.io/gorm"

	"github.com/genaiplatform/backend/internal/logger"
	"github.com/genaiplatform/backend/internal/models"
)

// appliedSeed tracks which seeds already ran so each executes exactly once
// per database.
type appliedSeed struct {
	Name      string    `gorm:"primaryKey;size:100"`
	AppliedAt time.Time `gorm:"not null"`
}

func (appliedSeed) TableName() string { return "applied_seeds" }

type seed struct {
	name string
	run  func(db *gorm.DB) error
}

// seeds run in order; append only, never edit a shipped seed.
var seeds = []seed{
	{name: "2024_01_default_plans", run: seedDefaultPlans},
	{name: "2024_01_default_ai_services", run: seedDefaultAIServices},
}

// Seed applies the pending data seeds. Schema migration must have run
// first.
func Seed(db *gorm.DB) error {
	if err := db.AutoMigrate(&appliedSeed{}); err != nil {
		return err
	}

	for _, s := range seeds {
		var count int64
		if err := db.Model(&appliedSeed{}).Where("name = ?", s.name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		if err := db.Transaction(func(tx *gorm.DB) error {
			if err := s.run(tx); err != nil {
				return err
			}
			return tx.Create(&appliedSeed{Name: s.name, AppliedAt: time.Now()}).Error
		}); err != nil {
			return err
		}
		logger.Info().Str("seed", s.name).Msg("seed applied")
	}
	return nil
}

func seedDefaultPlans(db *gorm.DB) error {
	plans := []models.SubscriptionPlan{
		{
			Name:              "Starter",
			Description:       "Entry access to ChatGPT",
			Price:             9.99,
			BillingPeriod:     models.BillingMonthly,
			AIRequestsLimit:   100,
			CustomAgentsLimit: 1,
			CanUseChatGPT:     true,
			IsActive:          true,
		},
		{
			Name:              "Pro",
			Description:       "All providers with generous limits",
			Price:             29.99,
			BillingPeriod:     models.BillingMonthly,
			AIRequestsLimit:   1000,
			CustomAgentsLimit: 10,
			CanUseChatGPT:     true,
			CanUseGemini:      true,
			CanUseDeepSeek:    true,
			IsActive:          true,
		},
		{
			Name:              "Unlimited Yearly",
			Description:       "No request caps, billed yearly",
			Price:             299.99,
			BillingPeriod:     models.BillingYearly,
			AIRequestsLimit:   0,
			CustomAgentsLimit: 0,
			CanUseChatGPT:     true,
			CanUseGemini:      true,
			CanUseDeepSeek:    true,
			IsActive:          true,
		},
	}
	return db.Create(&plans).Error
}

func seedDefaultAIServices(db *gorm.DB) error {
	services := []models.AIService{
		{
			Name:           "ChatGPT",
			Provider:       "chatgpt",
			Model:          "gpt-4o-mini",
			Description:    "OpenAI chat completions",
			CostPerRequest: 0.6,
			Parameters:     models.JSONMap{"temperature": 0.7, "max_tokens": 1000},
			IsActive:       true,
		},
		{
			Name:           "Gemini",
			Provider:       "gemini",
			Model:          "gemini-1.5-flash",
			Description:    "Google generative language",
			CostPerRequest: 0.35,
			Parameters:     models.JSONMap{"temperature": 0.7, "max_tokens": 1000},
			IsActive:       true,
		},
		{
			Name:           "DeepSeek",
			Provider:       "deepseek",
			Model:          "deepseek-chat",
			Description:    "DeepSeek chat completions",
			CostPerRequest: 0.27,
			Parameters:     models.JSONMap{"temperature": 0.7, "max_tokens": 1000},
			IsActive:       true,
		},
	}
	return db.Create(&services).Error
}
