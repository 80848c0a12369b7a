package app

import (
	"context"
	"fmt"
	"net"

	grpc_middleware "github.com/grpc-ecosystem/go-grpc-middleware"
	grpc_recovery "github.com/grpc-ecosystem/go-grpc-middleware/recovery"
	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/tendermint/tendermint/abci/server"
	abci "github.com/tendermint/tendermint/abci/types"
	tmlog "github.com/tendermint/tendermint/libs/log"
	tmnet "github.com/tendermint/tendermint/libs/net"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Nish0483/NFT-market/libs/log"
)

// Server serves an ABCI application until its context ends.
type Server interface {
	Run(ctx context.Context) error
}

// NewServer returns a server for app listening on addr. transport is
// "socket" or "grpc".
func NewServer(addr, transport string, app abci.Application, logger log.Logger) (Server, error) {
	switch transport {
	case "socket":
		srv, err := server.NewServer(addr, transport, app)
		if err != nil {
			return nil, err
		}
		srv.SetLogger(tmLogger{logger})
		return &socketServer{srv: srv}, nil
	case "grpc":
		return &grpcServer{addr: addr, app: app, logger: logger}, nil
	default:
		return nil, fmt.Errorf("unknown server type %q", transport)
	}
}

type socketServer struct {
	srv interface {
		Start() error
		Stop() error
	}
}

func (s *socketServer) Run(ctx context.Context) error {
	if err := s.srv.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	return s.srv.Stop()
}

type grpcServer struct {
	addr   string
	app    abci.Application
	logger log.Logger
}

// Run serves the application over gRPC. Handler panics are recovered and
// reported to the client as internal errors.
func (s *grpcServer) Run(ctx context.Context) error {
	proto, addr := tmnet.ProtocolAndAddress(s.addr)
	ln, err := net.Listen(proto, addr)
	if err != nil {
		return err
	}

	srv := grpc.NewServer(
		grpc.UnaryInterceptor(grpc_middleware.ChainUnaryServer(
			grpc_prometheus.UnaryServerInterceptor,
			grpc_recovery.UnaryServerInterceptor(grpc_recovery.WithRecoveryHandler(func(p interface{}) error {
				s.logger.Error("recovered from panic in ABCI handler", "panic", p)
				return status.Errorf(codes.Internal, "%v", p)
			})),
		)),
	)
	abci.RegisterABCIApplicationServer(srv, abci.NewGRPCApplication(s.app))
	grpc_prometheus.Register(srv)

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.logger.Info("serving ABCI over gRPC", "addr", s.addr)

	select {
	case <-ctx.Done():
		srv.GracefulStop()
		return nil
	case err := <-errc:
		return err
	}
}

// tmLogger lets tendermint services log through our logger.
type tmLogger struct {
	log.Logger
}

func (l tmLogger) With(keyVals ...interface{}) tmlog.Logger {
	return tmLogger{l.Logger.With(keyVals...)}
}
