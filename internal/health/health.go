// Package health tracks store reachability and publishes it through the
// standard gRPC health service.
package health

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Service is the name reported to gRPC health clients alongside the
// server-wide "" entry.
const Service = "skillshub.api"

// Pinger checks a dependency, typically the MongoDB primary.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Checker periodically pings the store and records the result.
type Checker struct {
	pinger   Pinger
	interval time.Duration
	timeout  time.Duration
	healthy  atomic.Bool
	server   *health.Server
}

// NewChecker returns a Checker that starts out healthy; callers only build one
// after the initial connection succeeded.
func NewChecker(p Pinger, interval time.Duration) *Checker {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	c := &Checker{
		pinger:   p,
		interval: interval,
		timeout:  interval / 2,
		server:   health.NewServer(),
	}
	c.set(true)
	return c
}

// Server returns the gRPC health server to register on a grpc.Server.
func (c *Checker) Server() *health.Server {
	return c.server
}

// Healthy reports the outcome of the last ping.
func (c *Checker) Healthy() bool {
	return c.healthy.Load()
}

// Check pings once and records the result.
func (c *Checker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.pinger.Ping(ctx)
	c.set(err == nil)
	return err
}

// Run checks on every tick until ctx is cancelled, then reports NOT_SERVING so
// load balancers drain the instance during shutdown.
func (c *Checker) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.server.Shutdown()
			c.healthy.Store(false)
			return
		case <-ticker.C:
			if err := c.Check(ctx); err != nil && ctx.Err() == nil {
				log.Printf("health: store ping failed: %v", err)
			}
		}
	}
}

func (c *Checker) set(ok bool) {
	prev := c.healthy.Swap(ok)
	if prev != ok {
		if ok {
			log.Printf("health: store reachable")
		} else {
			log.Printf("health: store unreachable")
		}
	}

	status := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		status = healthpb.HealthCheckResponse_SERVING
	}
	c.server.SetServingStatus("", status)
	c.server.SetServingStatus(Service, status)
}
