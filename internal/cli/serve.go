package cli

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rahul/planwise/internal/gateway"
	"github.com/rahul/planwise/internal/observability"
	"github.com/rahul/planwise/internal/plan"
	"github.com/spf13/cobra"
)

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (and the Telegram bot when enabled)",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "listen address, overrides server.listen")
}

func runServe(cmd *cobra.Command, args []string) error {
	observability.PrintBanner(cmd.OutOrStdout())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	addr := a.cfg.Server.Listen
	if listenAddr != "" {
		addr = listenAddr
	}

	gateways := []gateway.Gateway{
		gateway.NewHTTPGateway(addr, a.pipeline, a.plans, a.logger),
	}
	log.Printf("Restored %d plans, serving on %s", len(a.plans.Plans()), addr)

	if tgCfg, ok := a.cfg.GetTelegramConfig(); ok {
		tg, err := gateway.NewTelegramGateway(tgCfg.Token, &gateway.Commands{
			Planner:      a.pipeline,
			Plans:        a.plans,
			DefaultRole:  plan.Role(a.cfg.Plans.DefaultRole),
			DefaultFocus: a.cfg.Plans.DefaultFocus,
		})
		if err != nil {
			return err
		}
		var messenger gateway.Messenger = tg
		gateways = append(gateways, messenger)
	}

	errs := make(chan error, len(gateways))
	for _, g := range gateways {
		go func(g gateway.Gateway) {
			if err := g.Start(); err != nil {
				errs <- err
			}
		}(g)
	}

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				observability.Heartbeat()
				a.logger.LogHeartbeat()
			}
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errs:
		log.Printf("Gateway failed: %v", runErr)
	}

	for _, g := range gateways {
		if err := g.Stop(); err != nil {
			log.Printf("Error stopping gateway: %v", err)
		}
	}
	log.Println("Shut down.")
	return runErr
}
