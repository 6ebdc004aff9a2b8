package services

import (
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"github.com/genaiplatform/backend/internal/auth"
	"github.com/genaiplatform/backend/internal/config"
	"github.com/genaiplatform/backend/internal/locks"
	"github.com/genaiplatform/backend/internal/mercadopago"
	"github.com/genaiplatform/backend/internal/providers"
	"github.com/genaiplatform/backend/internal/websocket"
)

// Container wires every service with its dependencies. Handlers and jobs
// only ever see the container.
type Container struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client
	Hub    *websocket.Hub

	Providers *providers.Registry
	Gateway   *mercadopago.Client

	Auth        *auth.Service
	Entitlement *EntitlementService
	Usage       *UsageService
	Interaction *InteractionService
	Agent       *AgentService
	Payment     *PaymentService
	Plan        *PlanService
	Catalog     *CatalogService
	Dashboard   *DashboardService
	Profile     *ProfileService
	RateLimiter *RateLimiter
}

// NewContainer builds the full service graph. The hub may be nil when the
// caller runs without a websocket layer.
func NewContainer(cfg *config.Config, db *gorm.DB, rdb *redis.Client, hub *websocket.Hub) *Container {
	c := &Container{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
		Hub:    hub,
	}

	c.Providers = providers.NewRegistry(cfg, providers.ConfigCredentials(cfg))
	c.Gateway = mercadopago.NewClient(cfg)

	c.Auth = auth.NewService(db, cfg.JWTSecret)
	c.Entitlement = NewEntitlementService(db)
	c.Usage = NewUsageService(db, c.Entitlement)
	c.Interaction = NewInteractionService(db, c.Providers, c.Entitlement, c.Usage, hub)
	c.Agent = NewAgentService(db, c.Usage, c.Interaction)
	c.Payment = NewPaymentService(db, cfg, c.Gateway, hub, locks.NewManager(rdb))
	c.Plan = NewPlanService(db)
	c.Catalog = NewCatalogService(db)
	c.Dashboard = NewDashboardService(db, c.Entitlement, c.Usage)
	c.Profile = NewProfileService(db)
	c.RateLimiter = NewRateLimiter(rdb)

	return c
}
