package v1

import (
	"context"

	"google.golang.org/grpc"

	healthv1 "google.golang.org/grpc/health/grpc_health_v1"
)

type ClientV1 struct {
	client healthv1.HealthClient
}

// Check reports the serving status of service, or of the whole server when service is empty
func (c *ClientV1) Check(ctx context.Context, service string) (healthv1.HealthCheckResponse_ServingStatus, error) {
	res, err := c.client.Check(ctx, &healthv1.HealthCheckRequest{Service: service})
	if err != nil {
		return healthv1.HealthCheckResponse_UNKNOWN, err
	}
	return res.GetStatus(), nil
}

func NewClientV1WithConn(conn grpc.ClientConnInterface) *ClientV1 {
	return &ClientV1{
		client: healthv1.NewHealthClient(conn),
	}
}
