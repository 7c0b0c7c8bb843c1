package grpc

import (
	"google.golang.org/grpc"

	"github.com/0xsj/overwatch-pkg/grpc/middleware"
	"github.com/0xsj/overwatch-pkg/log"
)

// BuildUnaryInterceptors builds the unary interceptor chain.
// The health service is public, so there is no auth stage.
func BuildUnaryInterceptors(logger log.Logger) []grpc.UnaryServerInterceptor {
	return []grpc.UnaryServerInterceptor{
		middleware.UnaryServerRecoveryWithLogger(logger), // 1. Outermost - catch panics
		middleware.UnaryServerRequestID(),                // 2. Generate/extract request ID
		middleware.UnaryServerLogging(logger),            // 3. Log with request ID
	}
}

// BuildStreamInterceptors builds the stream interceptor chain (health Watch).
func BuildStreamInterceptors(logger log.Logger) []grpc.StreamServerInterceptor {
	return []grpc.StreamServerInterceptor{
		middleware.StreamServerRecoveryWithLogger(logger),
		middleware.StreamServerRequestID(),
		middleware.StreamServerLogging(logger),
	}
}
