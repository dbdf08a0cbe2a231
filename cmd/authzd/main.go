// Command authzd is the authorization daemon's composition root: it wires
// persistence, cache, audit, metrics, tracing and eventing adapters behind
// the core's ports and serves the orchestrator through a diagnostic
// /v1/evaluate route. cmd/authzctl does not talk to it; it builds its own
// engine and orchestrator.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"hodei-authz/internal/audit"
	"hodei-authz/internal/authz"
	"hodei-authz/internal/cache"
	"hodei-authz/internal/config"
	"hodei-authz/internal/db"
	"hodei-authz/internal/engine"
	"hodei-authz/internal/events"
	"hodei-authz/internal/hrn"
	"hodei-authz/internal/iam"
	"hodei-authz/internal/logger"
	"hodei-authz/internal/metrics"
	"hodei-authz/internal/observability"
	"hodei-authz/internal/org"
	"hodei-authz/internal/orchestrator"
	"hodei-authz/internal/repository"
)

const defaultGracefulTimeout = 15 * time.Second

var rootCmd = &cobra.Command{
	Use:   "authzd",
	Short: "Runs the hierarchical authorization daemon",
	RunE:  runServe,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(*cobra.Command, []string) error {
	logger.Init(logger.DefaultConfig())
	log := logger.WithComponent("main")

	cfg := config.Load()
	log.Info("configuration loaded", "config", cfg.Snapshot())

	metricsCollector := metrics.NewCollector()

	database, driverUsed, err := db.NewWithFallback(db.Config{Driver: cfg.DBDriver, DSN: cfg.DBDSN})
	if err != nil {
		log.Error("database connection failed", err)
		return err
	}
	defer database.Close()
	if driverUsed != cfg.DBDriver {
		log.Warn("using fallback database driver", "requested", cfg.DBDriver, "actual", driverUsed)
	}
	if err := database.RunMigrations(); err != nil {
		log.Error("database migrations failed", err)
		return err
	}
	log.Info("database connected", "driver", driverUsed)

	repo := repository.New(database)

	decisionCache := buildDecisionCache(cfg, log)
	defer decisionCache.backend.Close()

	auditLogger := audit.NewLogger(database.DB(), audit.DefaultConfig())
	auditSink := audit.NewSink(auditLogger)
	log.Info("audit logging initialized")

	if cfg.OtlpEndpoint != "" {
		tp, err := observability.InitTracer("hodei-authzd", cfg.OtlpEndpoint)
		if err != nil {
			log.Warn("tracer initialization failed, continuing without tracing", "error", err.Error())
		} else {
			log.Info("tracing initialized", "endpoint", cfg.OtlpEndpoint)
			defer tp.Shutdown(context.Background())
		}
	} else {
		log.Info("otlp endpoint not configured, tracing disabled")
	}

	var decisionEvents *events.DecisionSink
	if len(cfg.KafkaBrokers) > 0 {
		p, err := events.NewPublisher(cfg.KafkaBrokers)
		if err != nil {
			log.Warn("kafka publisher initialization failed, decision/mutation events disabled", "error", err.Error())
		} else {
			defer p.Close()
			decisionEvents = events.NewDecisionSink(p)
			log.Info("decision event publisher initialized", "brokers", cfg.KafkaBrokers)
		}
	} else {
		log.Info("no kafka brokers configured, decision/mutation events disabled")
	}

	iepr := iam.NewResolver(repo, repo, repo)
	oesr := org.NewResolver(repo, repo, repo, org.WithDepthLimit(cfg.OuDepthLimit))

	pe, err := engine.Build(engine.DefaultSchema())
	if err != nil {
		log.Error("schema bootstrap failed", err)
		return err
	}
	log.Info("schema bootstrapped")

	orchestratorOpts := []orchestrator.Option{
		orchestrator.WithCache(decisionCache, cfg.DecisionCacheTTL),
		orchestrator.WithAudit(auditSink),
		orchestrator.WithMetrics(metricsCollector),
	}
	if decisionEvents != nil {
		orchestratorOpts = append(orchestratorOpts, orchestrator.WithEvents(decisionEvents))
	}
	authorizer := orchestrator.New(iepr, oesr, pe, orchestratorOpts...)

	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", metricsCollector.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := database.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	// Diagnostic surface only: the HTTP/API surface proper is out of scope
	// (spec §1) and belongs to whatever embeds this daemon as a library.
	mux.HandleFunc("/v1/evaluate", evaluateHandler(authorizer))

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("authzd listening", "addr", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), defaultGracefulTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", err)
		return err
	}
	log.Info("shutdown complete")
	return nil
}

// evaluateRequest/evaluateResponse are the wire shapes for the diagnostic
// /v1/evaluate endpoint.
type evaluateRequest struct {
	PrincipalHRN string         `json:"principal_hrn"`
	Action       string         `json:"action"`
	ResourceHRN  string         `json:"resource_hrn"`
	Context      map[string]any `json:"context,omitempty"`
}

type evaluateResponse struct {
	Decision            string   `json:"decision"`
	Explicit            bool     `json:"explicit"`
	Reason              string   `json:"reason,omitempty"`
	DeterminingPolicies []string `json:"determining_policies,omitempty"`
}

func evaluateHandler(authorizer authz.Authorizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req evaluateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		principalHRN, err := hrn.Parse(req.PrincipalHRN)
		if err != nil {
			http.Error(w, "invalid principal_hrn: "+err.Error(), http.StatusBadRequest)
			return
		}
		resourceHRN, err := hrn.Parse(req.ResourceHRN)
		if err != nil {
			http.Error(w, "invalid resource_hrn: "+err.Error(), http.StatusBadRequest)
			return
		}

		resp, err := authorizer.Evaluate(r.Context(), authz.AuthorizationRequest{
			PrincipalHRN: principalHRN,
			Action:       req.Action,
			ResourceHRN:  resourceHRN,
			Context:      req.Context,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(evaluateResponse{
			Decision:            string(resp.Decision),
			Explicit:            resp.Explicit,
			Reason:              resp.Reason,
			DeterminingPolicies: resp.DeterminingPolicies,
		})
	}
}

// decisionCacheHandle lets main() close whichever backend was selected
// without the rest of the wiring caring which one it is.
type decisionCacheHandle struct {
	*cache.DecisionCache
	backend cache.Cache
}

func buildDecisionCache(cfg config.Config, log interface {
	Info(string, ...any)
	Warn(string, ...any)
}) *decisionCacheHandle {
	if cfg.RedisAddr != "" {
		redisConfig := cache.DefaultGoRedisConfig()
		redisConfig.Addr = cfg.RedisAddr
		redisCache, err := cache.NewGoRedis(redisConfig)
		if err != nil {
			log.Warn("redis connection failed, falling back to in-memory decision cache", "error", err.Error())
		} else {
			log.Info("decision cache backed by redis", "addr", cfg.RedisAddr)
			return &decisionCacheHandle{DecisionCache: cache.NewDecisionCache(redisCache), backend: redisCache}
		}
	}
	log.Info("decision cache backed by memory")
	mem := cache.NewMemoryCache()
	return &decisionCacheHandle{DecisionCache: cache.NewDecisionCache(mem), backend: mem}
}
