package application

import (
	"time"

	"github.com/dackJaniel/bogof-engine/internal/ports"
)

type Config struct {
	ServiceName            string
	EnableEventConsumption bool
}

// Service holds the campaign registry and the collaborator ports. One
// instance serves the whole process; per-request state lives in the
// Reconciliation tokens it hands out.
type Service struct {
	cfg      Config
	registry *Registry
	carts    ports.CartStore
	catalog  ports.Catalog
	notices  ports.NoticeSink
	nowFn    func() time.Time
}

type Dependencies struct {
	Config   Config
	Registry *Registry
	Carts    ports.CartStore
	Catalog  ports.Catalog
	Notices  ports.NoticeSink
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.ServiceName == "" {
		cfg.ServiceName = "bogof-engine"
	}
	registry := deps.Registry
	if registry == nil {
		registry = NewRegistry(nil)
	}
	return &Service{
		cfg:      cfg,
		registry: registry,
		carts:    deps.Carts,
		catalog:  deps.Catalog,
		notices:  deps.Notices,
		nowFn:    time.Now,
	}
}
