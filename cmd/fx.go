package cmd

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/fx"

	grpcsrvinfra "github.com/nexosim/nexosim-go/infra/server/grpc"
	"github.com/nexosim/nexosim-go/internal/config"
	"github.com/nexosim/nexosim-go/internal/examplemodels"
	"github.com/nexosim/nexosim-go/internal/httpapi"
	"github.com/nexosim/nexosim-go/internal/obslog"
	"github.com/nexosim/nexosim-go/internal/rpc"
	"github.com/nexosim/nexosim-go/internal/rpc/grpcsrv"
	"github.com/nexosim/nexosim-go/internal/rpc/ws"
	"github.com/nexosim/nexosim-go/internal/simulation"
	"github.com/nexosim/nexosim-go/internal/sinkbus"
)

// NewApp wires the whole runtime behind fx, the same dependency-injection
// shape the teacher uses to assemble its own handler/service/transport
// graph (cmd/fx.go, internal/service/di, infra/client/di): one fx.Module
// per concern, each providing its own constructors and registering
// lifecycle hooks instead of leaving Run to sequence everything by hand.
func NewApp(cfg *config.Config) *fx.App {
	return fx.New(
		fx.Provide(func() *config.Config { return cfg }),
		fx.Provide(ProvideLogger),
		simulationModule,
		controlPlaneModule,
		sinkBusModule,
	)
}

// ProvideLogger builds the process-wide structured logger at the
// configured level, the same slog.Logger every other constructor in this
// graph takes as a plain dependency rather than reaching for a global.
func ProvideLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	jsonHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(obslog.New(ServiceName, level, jsonHandler))
}

// simulationModule provides the SimGen the control plane drives. It
// defaults to internal/examplemodels' demo graph; swapping in a
// user-authored model package only means replacing this one provider.
var simulationModule = fx.Module(
	"simulation",
	fx.Provide(func(cfg *config.Config, bus *sinkbus.Bus) rpc.SimGen {
		return func() *simulation.SimInit {
			return examplemodels.Build(cfg.MailboxCapacity, bus)
		}
	}),
	fx.Provide(rpc.NewGenericServer),
	// A default simulation starts running immediately at process startup,
	// at the monotonic epoch; a wire InitRequest later replaces it, same
	// as any other Init call (generic_server.rs documents Init as
	// always-replace, never first-time-only).
	fx.Invoke(func(generic *rpc.GenericServer) {
		generic.Init(&rpc.InitRequest{})
	}),
)

// controlPlaneModule wires the three surfaces every GenericServer is
// exposed through: gRPC (authoritative, streaming), websocket (same
// envelope, browser/CLI-friendly) and HTTP (health/debug only). It
// mirrors the teacher's split between infra/server/grpc (transport) and
// internal/handler/grpc (the registered service).
var controlPlaneModule = fx.Module(
	"control-plane",
	fx.Provide(func(logger *slog.Logger, cfg *config.Config) *grpcsrvinfra.Server {
		return grpcsrvinfra.New(logger, cfg.GRPCAddr)
	}),
	fx.Provide(grpcsrv.New),
	fx.Provide(ws.New),
	fx.Provide(newHTTPServer),
	fx.Invoke(registerGRPCControlService),
	fx.Invoke(runGRPCServer),
	fx.Invoke(runHTTPServer),
)

func registerGRPCControlService(server *grpcsrvinfra.Server, srv *grpcsrv.Server) {
	grpcsrv.Register(server.Server, srv)
}

func runGRPCServer(lc fx.Lifecycle, server *grpcsrvinfra.Server) {
	lc.Append(fx.Hook{
		OnStart: server.Start,
		OnStop:  server.Stop,
	})
}

// httpServer bundles the websocket control endpoint and internal/httpapi's
// health/debug router behind one net/http.Server, the same way the
// teacher folds its ws handler and REST debug routes onto a single mux
// rather than opening a third listener per concern.
type httpServer struct {
	logger *slog.Logger
	srv    *http.Server
}

func newHTTPServer(logger *slog.Logger, cfg *config.Config, wsHandler *ws.Handler, generic *rpc.GenericServer) *httpServer {
	mux := http.NewServeMux()
	mux.Handle("/control/ws", wsHandler)
	mux.Handle("/", httpapi.Router(logger, generic, generic.Ready))

	return &httpServer{
		logger: logger,
		srv:    &http.Server{Addr: cfg.HTTPAddr, Handler: mux},
	}
}

func runHTTPServer(lc fx.Lifecycle, hs *httpServer) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := hs.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					hs.logger.Error("http server stopped", slog.Any("err", err))
				}
			}()
			hs.logger.Info("http debug/ws server listening", slog.String("addr", hs.srv.Addr))
			return nil
		},
		OnStop: hs.srv.Shutdown,
	})
}

// sinkBusModule is only populated with a live publisher/subscriber pair
// when cfg.AMQPURL is set; an empty URL leaves the simulation running
// purely in-process, matching internal/config's documented fallback.
var sinkBusModule = fx.Module(
	"sinkbus",
	fx.Provide(func(cfg *config.Config, logger *slog.Logger) (message.Publisher, error) {
		if cfg.AMQPURL == "" {
			return nil, nil
		}
		return sinkbus.NewAmqpPublisher(cfg.AMQPURL, logger)
	}),
	fx.Provide(func(cfg *config.Config, logger *slog.Logger) (message.Subscriber, error) {
		if cfg.AMQPURL == "" {
			return nil, nil
		}
		return sinkbus.NewAmqpSubscriber(cfg.AMQPURL, logger)
	}),
	fx.Provide(func(logger *slog.Logger, pub message.Publisher) *sinkbus.Bus {
		if pub == nil {
			return nil
		}
		return sinkbus.New(logger, pub)
	}),
	fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger, pub message.Publisher, sub message.Subscriber, generic *rpc.GenericServer) error {
		if cfg.AMQPURL == "" || pub == nil || sub == nil {
			return nil
		}
		router, err := message.NewRouter(message.RouterConfig{}, watermill.NewSlogLogger(logger))
		if err != nil {
			return err
		}

		ingest := sinkbus.NewAmqpEventSource(logger)
		bindings := map[string]string{"nexosim.ingest.counter.add": "counter.add"}
		if err := ingest.RegisterHandlers(router, sub, generic.Simulation(), bindings); err != nil {
			return err
		}

		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				go func() {
					if err := router.Run(context.Background()); err != nil {
						logger.Error("sinkbus router stopped", slog.Any("err", err))
					}
				}()
				return nil
			},
			OnStop: func(context.Context) error {
				return router.Close()
			},
		})
		return nil
	}),
)
