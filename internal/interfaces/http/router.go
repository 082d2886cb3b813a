package httpinterface

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/paystell/paystell-daemon/internal/core/application"
	"github.com/paystell/paystell-daemon/internal/core/application/pubsub"
	"github.com/paystell/paystell-daemon/pkg/stats"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterOpts holds the application services exposed over HTTP.
type RouterOpts struct {
	DepositSvc     application.DepositService
	MonitoringSvc  application.MonitoringService
	TransactionSvc application.TransactionService
	Monitor        application.TransactionMonitor
	PubSubSvc      *pubsub.Service

	// AllowedOrigins defaults to any origin.
	AllowedOrigins []string
	EnableProfiler bool
}

func (o RouterOpts) validate() error {
	if o.DepositSvc == nil {
		return fmt.Errorf("deposit app service must not be null")
	}
	if o.MonitoringSvc == nil {
		return fmt.Errorf("monitoring app service must not be null")
	}
	if o.TransactionSvc == nil {
		return fmt.Errorf("transaction app service must not be null")
	}
	if o.Monitor == nil {
		return fmt.Errorf("transaction monitor must not be null")
	}
	if o.PubSubSvc == nil {
		return fmt.Errorf("pubsub app service must not be null")
	}
	return nil
}

// NewRouter returns the handler serving the JSON API, the health check and
// the prometheus metrics.
func NewRouter(opts RouterOpts) (http.Handler, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	stats.Init()

	h := &handler{
		depositSvc:     opts.DepositSvc,
		monitoringSvc:  opts.MonitoringSvc,
		transactionSvc: opts.TransactionSvc,
		monitor:        opts.Monitor,
		pubsubSvc:      opts.PubSubSvc,
	}

	origins := opts.AllowedOrigins
	if len(origins) <= 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept", "Authorization", "Content-Type", UserIDHeader,
			UserAddressHeader,
		},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(withMetrics)

	r.Get("/healthz", health)
	r.Handle("/metrics", promhttp.Handler())
	if opts.EnableProfiler {
		r.Mount("/debug", middleware.Profiler())
	}

	r.Group(func(pr chi.Router) {
		pr.Use(withRequester)

		pr.Route("/deposit", func(dr chi.Router) {
			dr.Post("/", h.createDeposit)
			dr.Get("/", h.listDeposits)

			dr.Post("/monitor", h.startMonitoring)
			dr.Get("/monitor", h.listMonitoring)
			dr.Delete("/monitor", h.stopMonitoring)

			dr.Get("/{id}", h.getDeposit)
			dr.Put("/{id}", h.updateDeposit)
			dr.Delete("/{id}", h.deleteDeposit)
		})

		pr.Route("/transactions", func(tr chi.Router) {
			tr.Post("/", h.submitTransaction)
			tr.Get("/", h.listTransactions)
		})

		pr.Get("/monitor", h.monitorView)

		pr.Route("/webhooks", func(wr chi.Router) {
			wr.Post("/", h.addWebhook)
			wr.Get("/", h.listWebhooks)
			wr.Delete("/{id}", h.removeWebhook)
		})
	})

	return r, nil
}
