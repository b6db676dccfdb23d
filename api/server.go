package api

import (
	"context"
	"errors"
	"time"

	"github.com/beka-birhanu/wam-game-server/service"
	"github.com/beka-birhanu/wam-game-server/service/i"
	"github.com/google/uuid"
	grpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type Server struct {
	gameSessionManager i.GameSessionManager
}

// RegisterNewSessionController registers the session service and a health
// service on gsr. The returned health server starts NOT_SERVING.
func RegisterNewSessionController(gsr grpc.ServiceRegistrar, gsm i.GameSessionManager) (*health.Server, error) {
	if gsm == nil {
		return nil, errors.New("nil game session manager")
	}
	server := &Server{
		gameSessionManager: gsm,
	}
	RegisterSessionServer(gsr, server)

	healthServer := health.NewServer()
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	healthServer.SetServingStatus(SessionServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	grpc_health_v1.RegisterHealthServer(gsr, healthServer)
	return healthServer, nil
}

func (s *Server) ListSessions(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	infos := s.gameSessionManager.Sessions()
	sessions := make([]any, 0, len(infos))
	for _, info := range infos {
		sessions = append(sessions, sessionFields(info))
	}
	out, err := structpb.NewStruct(map[string]any{
		"sessions": sessions,
		"pending":  s.gameSessionManager.Pending(),
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding sessions: %s", err)
	}
	return out, nil
}

func (s *Server) GetSession(ctx context.Context, r *wrapperspb.StringValue) (*structpb.Struct, error) {
	id, err := uuid.Parse(r.GetValue())
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "parsing session id: %s", err)
	}

	info, err := s.gameSessionManager.SessionInfo(id)
	if errors.Is(err, service.ErrNoSession) {
		return nil, status.Errorf(codes.NotFound, "session %s", id)
	}
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}

	out, err := structpb.NewStruct(sessionFields(info))
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding session: %s", err)
	}
	return out, nil
}

func sessionFields(info i.SessionInfo) map[string]any {
	g := info.Game
	scores := make([]any, len(g.Scores))
	for n, v := range g.Scores {
		scores[n] = v
	}
	connected := make([]any, len(g.Connected))
	for n, v := range g.Connected {
		connected[n] = v
	}
	molesUp := make([]any, len(g.MolesUp))
	for n, v := range g.MolesUp {
		molesUp[n] = v
	}
	outcomes := make([]any, len(g.Outcomes))
	for n, v := range g.Outcomes {
		outcomes[n] = v
	}

	remaining := time.Duration(0)
	if !g.StartedAt.IsZero() && !g.Over {
		remaining = max(g.Duration-time.Since(g.StartedAt), 0)
	}

	return map[string]any{
		"id":                info.ID.String(),
		"rows":              g.Rows,
		"columns":           g.Columns,
		"scores":            scores,
		"connected":         connected,
		"moles_up":          molesUp,
		"over":              g.Over,
		"outcomes":          outcomes,
		"remaining_seconds": remaining.Seconds(),
		"started_at":        formatTime(g.StartedAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
