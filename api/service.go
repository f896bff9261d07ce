package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"KastleBackOffice/internal/serviceiface"
)

type GatewayService struct {
	config     map[string]interface{}
	handler    http.Handler
	server     *http.Server
	onShutdown []func()
}

// NewGatewayService reads "port" (default 8080) and read_timeout_sec
// from its services.yaml block. onShutdown hooks run when Stop begins; use
// them to end long-lived streams that would otherwise hold Shutdown open.
func NewGatewayService(cfg map[string]interface{}, handler http.Handler, onShutdown ...func()) serviceiface.Service {
	return &GatewayService{config: cfg, handler: handler, onShutdown: onShutdown}
}

func (s *GatewayService) Name() string {
	return "gateway"
}

func (s *GatewayService) Addr() string {
	port := serviceiface.IntFromConfig(s.config, "port", 8080)
	return fmt.Sprintf(":%d", port)
}

func (s *GatewayService) Start() error {
	s.server = &http.Server{
		Addr:        s.Addr(),
		Handler:     s.handler,
		ReadTimeout: time.Duration(serviceiface.IntFromConfig(s.config, "read_timeout_sec", 10)) * time.Second,
		// SSE connections stay open, so no WriteTimeout.
		IdleTimeout: 120 * time.Second,
	}
	for _, fn := range s.onShutdown {
		s.server.RegisterOnShutdown(fn)
	}
	go func() {
		log.Println("API Gateway started on", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Gateway server failed: %v", err)
		}
	}()
	return nil
}

func (s *GatewayService) Stop() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}
