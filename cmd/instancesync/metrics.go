package main

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"go.uber.org/zap"

	"github.com/hanfei1991/instancesync/pkg/promutil"
)

const metricsShutdownTimeout = 3 * time.Second

// metricsServer exposes the process registry while a command runs.
type metricsServer struct {
	srv  *http.Server
	addr net.Addr
	done chan struct{}
}

func startMetricsServer(addr string) (*metricsServer, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Annotatef(err, "listen metrics address %s", addr)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promutil.HTTPHandlerForMetric())
	s := &metricsServer{
		srv:  &http.Server{Handler: mux},
		addr: lis.Addr(),
		done: make(chan struct{}),
	}
	go func() {
		defer close(s.done)
		if err := s.srv.Serve(lis); err != nil && err != http.ErrServerClosed {
			log.L().Warn("metrics server exited", zap.Error(err))
		}
	}()
	log.L().Info("metrics server started", zap.Stringer("addr", s.addr))
	return s, nil
}

func (s *metricsServer) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
	defer cancel()
	err := s.srv.Shutdown(ctx)
	<-s.done
	return errors.Trace(err)
}
