package api

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// RoomStoreService is the health service name the server reports durable
// room storage under.
const RoomStoreService = "roomkeeper.RoomStore"

const healthTimeout = 5 * time.Second

// Health is the server's health as seen over gRPC.
type Health struct {
	Serving        bool
	StoreDurable   bool
	StoreStatusRaw string
}

// CheckHealth queries the gRPC health endpoint at addr.
func CheckHealth(ctx context.Context, addr string) (*Health, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	return checkHealth(ctx, healthpb.NewHealthClient(conn))
}

func checkHealth(ctx context.Context, hc healthpb.HealthClient) (*Health, error) {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	overall, err := hc.Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		return nil, mapGRPCError(err)
	}
	store, err := hc.Check(ctx, &healthpb.HealthCheckRequest{Service: RoomStoreService})
	if err != nil {
		return nil, mapGRPCError(err)
	}

	return &Health{
		Serving:        overall.GetStatus() == healthpb.HealthCheckResponse_SERVING,
		StoreDurable:   store.GetStatus() == healthpb.HealthCheckResponse_SERVING,
		StoreStatusRaw: store.GetStatus().String(),
	}, nil
}

func mapGRPCError(err error) error {
	st, ok := status.FromError(err)
	if ok && (st.Code() == codes.Unavailable || st.Code() == codes.DeadlineExceeded) {
		return ErrUnavailable
	}
	return err
}
