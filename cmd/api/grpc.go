package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/PaulBabatuyi/skillshub/internal/config"
	"github.com/PaulBabatuyi/skillshub/internal/health"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// newGRPCServer returns a gRPC server exposing only the standard health
// service backed by checker. TLS is enabled when a certificate pair is set.
func newGRPCServer(checker *health.Checker, tlsCfg config.TLSConfig) (*grpc.Server, error) {
	var opts []grpc.ServerOption
	if tlsCfg.Enabled() {
		creds, err := credentials.NewServerTLSFromFile(tlsCfg.CertFile, tlsCfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("load TLS certs: %w", err)
		}
		opts = append(opts, grpc.Creds(creds))
	}
	opts = append(opts,
		grpc.ChainUnaryInterceptor(recoverUnaryInterceptor, logUnaryInterceptor),
		grpc.ChainStreamInterceptor(recoverStreamInterceptor),
	)

	srv := grpc.NewServer(opts...)
	healthpb.RegisterHealthServer(srv, checker.Server())
	return srv, nil
}

// logUnaryInterceptor logs failed calls; probes succeed too often to log them all.
func logUnaryInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	if err != nil {
		log.Printf("grpc %s: %s after %s", info.FullMethod, status.Code(err), time.Since(start))
	}
	return resp, err
}

func recoverUnaryInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
	defer func() {
		if p := recover(); p != nil {
			log.Printf("grpc %s: panic: %v", info.FullMethod, p)
			err = status.Errorf(codes.Internal, "internal error")
		}
	}()
	return handler(ctx, req)
}

// recoverStreamInterceptor covers Watch, the streaming health method.
func recoverStreamInterceptor(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) (err error) {
	defer func() {
		if p := recover(); p != nil {
			log.Printf("grpc %s: panic: %v", info.FullMethod, p)
			err = status.Errorf(codes.Internal, "internal error")
		}
	}()
	return handler(srv, ss)
}
