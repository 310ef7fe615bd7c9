package server

import (
	"context"
	"errors"
	"os"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/hassdesk/hassdesk/internal/buildinfo"
	"github.com/hassdesk/hassdesk/internal/config"
	"github.com/hassdesk/hassdesk/internal/rpc"
)

type settingsService struct {
	settings Settings
	session  Session
}

func (s *settingsService) GetSettings(ctx context.Context, req *structpb.ListValue) (*structpb.Struct, error) {
	keys, err := rpc.KeysFromList(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	values, err := s.settings.GetMany(keys)
	if err != nil {
		return nil, settingsError(err)
	}
	out, err := rpc.SettingsToStruct(values)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func (s *settingsService) SetSetting(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	key, value, err := rpc.ParseSetRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := s.settings.Set(key, value); err != nil {
		return nil, settingsError(err)
	}
	if s.session != nil {
		s.session.SettingsChanged()
	}
	return &emptypb.Empty{}, nil
}

// settingsError maps store errors to status codes.
func settingsError(err error) error {
	if errors.Is(err, config.ErrUnknownKey) || errors.Is(err, config.ErrInvalidValue) {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

type daemonService struct {
	server *Server
}

func (s *daemonService) GetStatus(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	st := rpc.Status{
		Version:   buildinfo.Version,
		PID:       os.Getpid(),
		Port:      s.server.port,
		StartedAt: s.server.startedAt,
	}
	if s.server.opts.Session != nil {
		st.DaemonStatus = s.server.opts.Session.Status()
	}
	out, err := rpc.StatusToStruct(st)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func (s *daemonService) Shutdown(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	// Let the response go out before the process starts shutting down.
	go func() {
		time.Sleep(100 * time.Millisecond)
		s.server.opts.Shutdown()
	}()
	return &emptypb.Empty{}, nil
}

type homeAssistantService struct {
	session Session
}

func (s *homeAssistantService) ListEntities(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	if s.session == nil {
		return nil, status.Error(codes.Unavailable, "no Home Assistant session")
	}
	out, err := rpc.EntitiesToStruct(s.session.Entities())
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}
