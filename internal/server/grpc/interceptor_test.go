package grpc

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/catalog/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestRecoverInterceptor_Panic(t *testing.T) {
	s := NewGRPCServer("", logging.Nop())
	info := &grpc.UnaryServerInfo{FullMethod: "/pkg.Service/Method"}

	resp, err := s.recoverInterceptor(context.Background(), nil, info, func(context.Context, any) (any, error) {
		panic("kaput")
	})

	assert.Nil(t, resp)
	require.Error(t, err)
	assert.Equal(t, codes.Internal, status.Code(err))
}

func TestRecoverInterceptor_PassesThrough(t *testing.T) {
	s := NewGRPCServer("", logging.Nop())
	info := &grpc.UnaryServerInfo{FullMethod: "/pkg.Service/Method"}

	resp, err := s.recoverInterceptor(context.Background(), "req", info, func(_ context.Context, req any) (any, error) {
		return req, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "req", resp)

	boom := status.Error(codes.NotFound, "nope")
	_, err = s.loggingInterceptor(context.Background(), nil, info, func(context.Context, any) (any, error) {
		return nil, boom
	})
	assert.True(t, errors.Is(err, boom))
}
