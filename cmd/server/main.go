// Command server runs the internal/httpapi JSON surface over an
// *engine.Engine, with a pprof listener alongside and a graceful
// shutdown on interrupt.
package main

import (
	"context"
	"flag"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/oceanbook/matching-engine/internal/httpapi"
	"github.com/oceanbook/matching-engine/pkg/config"
	"github.com/oceanbook/matching-engine/pkg/engine"
	"github.com/oceanbook/matching-engine/pkg/logging"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	pprofAddr := flag.String("pprof-addr", ":6060", "pprof listen address")
	symbols := flag.String("symbols", "AAPL", "comma-separated symbols to pre-register")
	cfg := config.Default()
	cfg.RegisterFlags(flag.CommandLine)
	flag.Parse()
	cfg.EnvOverride()

	log := logging.New(cfg.EnableLogging)
	eng := engine.New(cfg, log, nil)
	eng.Start()

	for _, sym := range strings.Split(*symbols, ",") {
		sym = strings.TrimSpace(sym)
		if sym == "" {
			continue
		}
		if err := eng.AddSymbol(sym); err != nil {
			log.WithError(err).WithField("symbol", sym).Warn("failed to pre-register symbol")
		}
	}

	go func() {
		log.WithField("addr", *pprofAddr).Info("pprof server starting")
		if err := http.ListenAndServe(*pprofAddr, nil); err != nil {
			log.WithError(err).Warn("pprof listener stopped")
		}
	}()

	srv := &http.Server{
		Addr:         *addr,
		Handler:      httpapi.New(eng, log).Routes(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("addr", *addr).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("listen failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	log.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("server shutdown failed")
	}
	log.Info("server stopped")
}
