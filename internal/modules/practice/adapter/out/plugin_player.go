package out

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
	"go.uber.org/zap"

	"stillpoint/internal/modules/practice/adapter/out/playerrpc"
	"stillpoint/internal/modules/practice/domain"
	practiceout "stillpoint/internal/modules/practice/port/out"
	"stillpoint/internal/modules/practice/service"
)

const (
	defaultStartTimeout = 3 * time.Second
	defaultCallTimeout  = 5 * time.Second
)

type PluginPlayerConfig struct {
	Binary       string
	SHA256       string
	Command      string
	StartTimeout time.Duration
	CallTimeout  time.Duration
	Logger       *zap.Logger
}

// PluginPlayer starts one plugin process per playback and kills it on Stop.
type PluginPlayer struct {
	cfg    PluginPlayerConfig
	logger *zap.Logger
}

var (
	_ practiceout.MediaPlayer = (*PluginPlayer)(nil)
	_ practiceout.PlayerHost  = (*PluginPlayer)(nil)
)

func NewPluginPlayer(cfg PluginPlayerConfig) *PluginPlayer {
	if cfg.StartTimeout <= 0 {
		cfg.StartTimeout = defaultStartTimeout
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = defaultCallTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PluginPlayer{cfg: cfg, logger: logger}
}

func (p *PluginPlayer) Binary() string         { return p.cfg.Binary }
func (p *PluginPlayer) ExpectedSHA256() string { return p.cfg.SHA256 }

func (p *PluginPlayer) Handshake(ctx context.Context) (domain.PlayerMetadata, error) {
	rpcClient, closeFn, err := p.connect()
	if err != nil {
		return domain.PlayerMetadata{}, err
	}
	defer closeFn()

	callCtx, cancel := p.callContext(ctx)
	defer cancel()
	meta, err := rpcClient.GetMetadata(callCtx)
	if err != nil {
		return domain.PlayerMetadata{}, fmt.Errorf("get metadata: %w", err)
	}
	channels := make([]domain.MediaChannel, 0, len(meta.Channels))
	for _, channel := range meta.Channels {
		channels = append(channels, domain.MediaChannel(channel))
	}
	return domain.PlayerMetadata{Name: meta.Name, Version: meta.Version, Channels: channels}, nil
}

func (p *PluginPlayer) Play(ctx context.Context, request domain.MediaRequest) (practiceout.Playback, error) {
	if strings.TrimSpace(p.cfg.SHA256) != "" {
		if err := service.ChecksumMatches(p.cfg.Binary, p.cfg.SHA256); err != nil {
			return nil, err
		}
	}
	rpcClient, closeFn, err := p.connect()
	if err != nil {
		return nil, err
	}
	callCtx, cancel := p.callContext(ctx)
	defer cancel()
	resp, err := rpcClient.Play(callCtx, &playerrpc.PlayRequest{
		Channel: string(request.Channel),
		URL:     request.URL,
		Title:   request.Title,
	})
	if err != nil {
		closeFn()
		return nil, fmt.Errorf("play %s: %w", request.Channel, err)
	}
	p.logger.Debug("plugin playback started",
		zap.String("channel", string(request.Channel)),
		zap.String("playback_id", resp.PlaybackID))
	return &pluginPlayback{
		rpc:        rpcClient,
		closeFn:    closeFn,
		playbackID: resp.PlaybackID,
		timeout:    p.cfg.CallTimeout,
	}, nil
}

func (p *PluginPlayer) connect() (playerrpc.MediaPlayerClient, func(), error) {
	if strings.TrimSpace(p.cfg.Binary) == "" {
		return nil, nil, errors.New("player binary is not configured")
	}
	cmd := exec.Command(p.cfg.Binary)
	cmd.Env = append(os.Environ(), playerrpc.CommandEnv+"="+p.cfg.Command)
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  playerrpc.HandshakeConfig,
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolGRPC},
		Plugins:          playerrpc.PluginMap(nil),
		Cmd:              cmd,
		Managed:          true,
		StartTimeout:     p.cfg.StartTimeout,
		Logger: hclog.New(&hclog.LoggerOptions{
			Name:   "player",
			Output: zap.NewStdLog(p.logger).Writer(),
			Level:  hclog.Warn,
		}),
	})
	closeFn := func() { client.Kill() }

	protocol, err := client.Client()
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("start player plugin: %w", err)
	}
	raw, err := protocol.Dispense(playerrpc.PluginMapKey)
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("dispense player plugin: %w", err)
	}
	typed, ok := raw.(playerrpc.MediaPlayerClient)
	if !ok {
		closeFn()
		return nil, nil, fmt.Errorf("player rpc client type mismatch")
	}
	return typed, closeFn, nil
}

func (p *PluginPlayer) callContext(parent context.Context) (context.Context, context.CancelFunc) {
	if _, ok := parent.Deadline(); ok {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, p.cfg.CallTimeout)
}

type pluginPlayback struct {
	rpc        playerrpc.MediaPlayerClient
	closeFn    func()
	playbackID string
	timeout    time.Duration
	once       sync.Once
	err        error
}

// Stop asks the plugin to stop and then kills the plugin process, so
// playback ends even when the stop call fails.
func (p *pluginPlayback) Stop() error {
	p.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		if err := p.rpc.Stop(ctx, &playerrpc.StopRequest{PlaybackID: p.playbackID}); err != nil {
			p.err = fmt.Errorf("stop playback %s: %w", p.playbackID, err)
		}
		p.closeFn()
	})
	return p.err
}
