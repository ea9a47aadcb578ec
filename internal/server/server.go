package server

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"hostpool/internal/backend"
	"hostpool/internal/config"
	"hostpool/internal/directory"
	"hostpool/internal/handler"
	"hostpool/internal/provision"
	"hostpool/internal/service"
	"hostpool/internal/util"
)

func Start(cfg *config.Config, version string, logger *zap.Logger) error {
	inv, err := backend.Open(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open inventory backend: %w", err)
	}

	driver, err := provision.Open(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open provisioning driver: %w", err)
	}

	var dir *directory.Client
	if cfg.LDAP.Enabled {
		dir = directory.NewClient(cfg.LDAP)
		logger.Info("directory validation enabled", zap.String("url", cfg.LDAP.URL))
	}

	pool, err := service.New(context.Background(), inv, driver, dir, logger)
	if err != nil {
		return fmt.Errorf("failed to init pool: %w", err)
	}

	hostH := handler.NewHostHandler(pool, logger)
	cloudH := handler.NewCloudHandler(pool, logger)
	schedH := handler.NewScheduleHandler(pool, logger)
	reportH := handler.NewReportHandler(pool, logger)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /hosts", hostH.List)
	mux.HandleFunc("GET /hosts/{host}", hostH.Get)
	mux.HandleFunc("PUT /hosts/{host}", hostH.Put)
	mux.HandleFunc("DELETE /hosts/{host}", hostH.Delete)

	mux.HandleFunc("POST /hosts/{host}/schedule", schedH.Add)
	mux.HandleFunc("PATCH /hosts/{host}/schedule/{id}", schedH.Modify)
	mux.HandleFunc("DELETE /hosts/{host}/schedule/{id}", schedH.Remove)

	mux.HandleFunc("GET /clouds", cloudH.List)
	mux.HandleFunc("GET /clouds/{cloud}", cloudH.Get)
	mux.HandleFunc("PUT /clouds/{cloud}", cloudH.Put)
	mux.HandleFunc("DELETE /clouds/{cloud}", cloudH.Delete)

	mux.HandleFunc("GET /summary", reportH.Summary)
	mux.HandleFunc("GET /grid", reportH.Grid)
	mux.HandleFunc("GET /moves", reportH.PlanMoves)
	mux.HandleFunc("POST /moves", reportH.ApplyMoves)

	mux.HandleFunc("GET /version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, "{\"version\":%q}\n", version)
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("hostpool server starting", zap.String("addr", addr))
	return http.ListenAndServe(addr, logRequests(logger, mux))
}

func logRequests(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("client", util.GetClientIP(r)))
	})
}
