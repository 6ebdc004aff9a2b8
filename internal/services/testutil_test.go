package services

import (
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/genaiplatform/backend/internal/auth"
	"github.com/genaiplatform/backend/internal/logger"
	"github.com/genaiplatform/backend/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	logger.Init(logger.Config{Level: "error", Output: io.Discard})

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.UserProfile{},
		&auth.RefreshToken{},
		&models.SubscriptionPlan{},
		&models.Payment{},
		&models.AIService{},
		&models.CustomAgent{},
		&models.AIInteraction{},
	)
	if err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func createUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	user := &models.User{
		Email:        uuid.New().String() + "@example.com",
		PasswordHash: "x",
		Name:         "Test User",
		IsActive:     true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func createPlan(t *testing.T, db *gorm.DB, mutate func(*models.SubscriptionPlan)) *models.SubscriptionPlan {
	t.Helper()
	plan := &models.SubscriptionPlan{
		Name:              "Pro",
		Price:             29.99,
		BillingPeriod:     models.BillingMonthly,
		AIRequestsLimit:   100,
		CustomAgentsLimit: 5,
		CanUseChatGPT:     true,
		CanUseGemini:      true,
		IsActive:          true,
	}
	if mutate != nil {
		mutate(plan)
	}
	if err := db.Create(plan).Error; err != nil {
		t.Fatalf("create plan: %v", err)
	}
	return plan
}

func createApprovedPayment(t *testing.T, db *gorm.DB, user *models.User, plan *models.SubscriptionPlan, endsAt time.Time) *models.Payment {
	t.Helper()
	now := time.Now()
	payment := &models.Payment{
		UserID:               user.ID,
		SubscriptionPlanID:   plan.ID,
		Amount:               plan.Price,
		PaymentMethod:        "mercadopago",
		Status:               models.PaymentApproved,
		PaidAt:               &now,
		SubscriptionStartsAt: endsAt.AddDate(0, -1, 0),
		SubscriptionEndsAt:   endsAt,
	}
	if err := db.Create(payment).Error; err != nil {
		t.Fatalf("create payment: %v", err)
	}
	return payment
}

func createAIService(t *testing.T, db *gorm.DB, provider string, costPerRequest float64) *models.AIService {
	t.Helper()
	service := &models.AIService{
		Name:           provider,
		Provider:       provider,
		Model:          "test-model",
		CostPerRequest: costPerRequest,
		Parameters:     models.JSONMap{"temperature": 0.5, "max_tokens": 256},
		IsActive:       true,
	}
	if err := db.Create(service).Error; err != nil {
		t.Fatalf("create ai service: %v", err)
	}
	return service
}

func createInteraction(t *testing.T, db *gorm.DB, user *models.User, service *models.AIService, createdAt time.Time, successful bool) *models.AIInteraction {
	t.Helper()
	interaction := &models.AIInteraction{
		UserID:       user.ID,
		AIServiceID:  service.ID,
		Prompt:       "hello there, test prompt",
		IsSuccessful: successful,
	}
	if err := db.Create(interaction).Error; err != nil {
		t.Fatalf("create interaction: %v", err)
	}
	// bypass gorm's autoUpdateTime to pin the row into a window
	if err := db.Model(interaction).UpdateColumn("created_at", createdAt).Error; err != nil {
		t.Fatalf("pin interaction time: %v", err)
	}
	return interaction
}
