package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	general_i "github.com/beka-birhanu/vinom-common/interfaces/general"
	logger "github.com/beka-birhanu/vinom-common/log"
	"github.com/beka-birhanu/wam-game-server/api"
	"github.com/beka-birhanu/wam-game-server/config"
	"github.com/beka-birhanu/wam-game-server/service"
	"github.com/beka-birhanu/wam-game-server/telemetry"
	"github.com/beka-birhanu/wam-game-server/transport"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

const serviceName = "wam-game-server"

// Global variables for dependencies
var (
	args               config.Args
	envs               config.Config
	appLogger          general_i.Logger
	gameSessionManager *service.GameSessionManager
	grpcServer         *grpc.Server
	grpcHealth         *health.Server
	httpServer         *api.HTTPServer
	gameListener       net.Listener
	shutdownTelemetry  func(context.Context) error
)

func newLogger(prefix, color string) general_i.Logger {
	l, err := logger.New(prefix, color, os.Stdout)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating %s logger: %v", prefix, err))
		os.Exit(1)
	}
	return l
}

func initConfig() {
	var err error
	args, err = config.ParseArgs(os.Args[1:])
	if err != nil {
		if !errors.Is(err, config.ErrUsage) {
			fmt.Fprintln(os.Stderr, err)
		}
		fmt.Fprintln(os.Stderr, config.Usage)
		os.Exit(1)
	}

	envs, err = config.Load()
	if err != nil {
		appLogger.Error(fmt.Sprintf("Loading config: %v", err))
		os.Exit(1)
	}
}

func initTelemetry() {
	var err error
	shutdownTelemetry, err = telemetry.Setup(context.Background(), serviceName, envs.OtelEndpoint)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Setting up telemetry: %v", err))
		os.Exit(1)
	}
	if envs.OtelEndpoint != "" {
		appLogger.Info(fmt.Sprintf("Exporting traces to %s", envs.OtelEndpoint))
	}
}

func initGameSessionManager() {
	manager, err := service.NewGameSessionManager(
		&service.Config{
			Rows:     args.Rows,
			Columns:  args.Columns,
			Players:  args.Players,
			Duration: args.Duration,
			Timing: service.MoleTiming{
				IdleMin: envs.MoleIdleMin,
				IdleMax: envs.MoleIdleMax,
				UpMin:   envs.MoleUpMin,
				UpMax:   envs.MoleUpMax,
			},
			OutboxSize:     envs.PlayerOutboxSize,
			RepeatSessions: envs.RepeatSessions,
			Logger:         newLogger("GAME-MANAGER", config.ColorCyan),
			GameLogger:     newLogger("GAME", config.ColorYellow),
			PlayerLogger:   newLogger("PLAYER", config.ColorPurple),
		},
	)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating game session manager: %v", err))
		os.Exit(1)
	}
	gameSessionManager = manager
	appLogger.Info("Game Session Manager initialized")
}

func initSessionController() {
	grpcServer = grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	hs, err := api.RegisterNewSessionController(grpcServer, gameSessionManager)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating and Registering session controller: %v", err))
		os.Exit(1)
	}
	grpcHealth = hs
	appLogger.Info("Session controller initialized")
}

func initHTTPServer() {
	httpServer = api.NewHTTPServer(api.HTTPConfig{
		Addr:         fmt.Sprintf("%s:%d", envs.HostIP, envs.HTTPPort),
		Enroll:       gameSessionManager.Enroll,
		Logger:       newLogger("HTTP", config.ColorBlue),
		MaxLineBytes: envs.MaxLineBytes,
		WriteTimeout: envs.PlayerWriteTimeout,
	})
	appLogger.Info("HTTP server initialized")
}

func serveGRPC() {
	addr := fmt.Sprintf("%s:%d", envs.HostIP, envs.GrpcPort)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Listening tcp for gRPC: %v", err))
		os.Exit(1)
	}
	appLogger.Info(fmt.Sprintf("Serving gRPC at: %s", addr))
	go func() {
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			appLogger.Error(fmt.Sprintf("Serving gRPC: %v", err))
		}
	}()
}

func serveGame() {
	var err error
	addr := fmt.Sprintf("%s:%d", envs.HostIP, args.Port)
	gameListener, err = net.Listen("tcp", addr)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Listening tcp: %v", err))
		os.Exit(1)
	}

	server := &transport.Server{
		Listener:     gameListener,
		Enroll:       gameSessionManager.Enroll,
		Logger:       newLogger("SERVER-SOCKET", config.ColorBlue),
		MaxLineBytes: envs.MaxLineBytes,
		WriteTimeout: envs.PlayerWriteTimeout,
	}
	appLogger.Info(fmt.Sprintf("Serving game at: %s", addr))
	go func() {
		if err := server.Serve(); err != nil {
			appLogger.Error(fmt.Sprintf("Serving game: %v", err))
		}
	}()
}

func setServing(serving bool) {
	st := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if serving {
		st = grpc_health_v1.HealthCheckResponse_SERVING
	}
	grpcHealth.SetServingStatus("", st)
	grpcHealth.SetServingStatus(api.SessionServiceName, st)
	httpServer.SetReady(serving)
}

func shutdown() {
	setServing(false)
	_ = gameListener.Close()
	gameSessionManager.StopAll()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Stop(ctx); err != nil {
		appLogger.Warning(fmt.Sprintf("Stopping HTTP server: %v", err))
	}
	grpcServer.GracefulStop()
	if err := shutdownTelemetry(ctx); err != nil {
		appLogger.Warning(fmt.Sprintf("Flushing traces: %v", err))
	}
	appLogger.Info("Server stopped")
}

func main() {
	appLogger, _ = logger.New("APP", config.ColorGreen, os.Stdout)
	initConfig()
	initTelemetry()
	initGameSessionManager()
	initSessionController()
	initHTTPServer()

	serveGRPC()
	httpServer.Start()
	serveGame()
	setServing(true)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-gameSessionManager.Done():
		appLogger.Info("Session finished, exiting")
	case s := <-sig:
		appLogger.Info(fmt.Sprintf("Received %s, shutting down", s))
	}
	shutdown()
}
