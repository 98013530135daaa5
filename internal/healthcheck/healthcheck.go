// Package healthcheck exposes the standard gRPC health service next to the
// HTTP listeners so orchestrators can probe the binaries.
package healthcheck

import (
	"fmt"
	"log"
	"net"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Server is a gRPC server carrying only the health service.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
}

// New registers the health service and marks services as serving.
func New(enableReflection bool, services ...string) *Server {
	gs := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(gs, hs)

	hs.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	for _, name := range services {
		hs.SetServingStatus(name, grpc_health_v1.HealthCheckResponse_SERVING)
	}

	if enableReflection {
		reflection.Register(gs)
		log.Println("gRPC reflection enabled (disable in production)")
	}
	return &Server{grpc: gs, health: hs}
}

// Serve accepts connections on lis until Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	return s.grpc.Serve(lis)
}

// ListenAndServe listens on the given TCP port.
func (s *Server) ListenAndServe(port string) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", port))
	if err != nil {
		return fmt.Errorf("listen on %s: %w", port, err)
	}
	log.Printf("💓 gRPC health service listening on port %s", port)
	return s.Serve(lis)
}

// Stop reports every service as not serving and drains the server.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
