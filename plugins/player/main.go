package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-plugin"

	"stillpoint/internal/modules/practice/adapter/out/playerrpc"
)

// server launches an external command per playback. The command comes from
// STILLPOINT_PLAYER_COMMAND, e.g. "mpv --no-video {url}"; without a {url}
// placeholder the url is appended.
type server struct {
	command string

	mu      sync.Mutex
	running map[string]*exec.Cmd
}

func newServer(command string) *server {
	return &server{command: strings.TrimSpace(command), running: map[string]*exec.Cmd{}}
}

func (s *server) GetMetadata(_ context.Context, _ *playerrpc.Empty) (*playerrpc.Metadata, error) {
	return &playerrpc.Metadata{
		Name:     "player",
		Version:  "1.0.0",
		Channels: []string{"audio", "video"},
	}, nil
}

func (s *server) Play(_ context.Context, in *playerrpc.PlayRequest) (*playerrpc.PlayResponse, error) {
	if strings.TrimSpace(in.URL) == "" {
		return nil, fmt.Errorf("url is required")
	}
	argv, err := commandLine(s.command, in.URL)
	if err != nil {
		return nil, err
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", argv[0], err)
	}
	id := uuid.NewString()
	s.mu.Lock()
	s.running[id] = cmd
	s.mu.Unlock()
	go func() {
		_ = cmd.Wait()
		s.mu.Lock()
		delete(s.running, id)
		s.mu.Unlock()
	}()
	return &playerrpc.PlayResponse{PlaybackID: id}, nil
}

func (s *server) Stop(_ context.Context, in *playerrpc.StopRequest) (*playerrpc.Empty, error) {
	s.mu.Lock()
	cmd, ok := s.running[in.PlaybackID]
	s.mu.Unlock()
	if !ok {
		return &playerrpc.Empty{}, nil
	}
	if cmd.Process != nil {
		if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			return nil, fmt.Errorf("kill playback %s: %w", in.PlaybackID, err)
		}
	}
	return &playerrpc.Empty{}, nil
}

func commandLine(template, url string) ([]string, error) {
	fields := strings.Fields(template)
	if len(fields) == 0 {
		return nil, fmt.Errorf("no player command configured, set %s", playerrpc.CommandEnv)
	}
	substituted := false
	for i, field := range fields {
		if strings.Contains(field, "{url}") {
			fields[i] = strings.ReplaceAll(field, "{url}", url)
			substituted = true
		}
	}
	if !substituted {
		fields = append(fields, url)
	}
	return fields, nil
}

func main() {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: playerrpc.HandshakeConfig,
		Plugins:         playerrpc.PluginMap(newServer(os.Getenv(playerrpc.CommandEnv))),
		GRPCServer:      plugin.DefaultGRPCServer,
	})
}
