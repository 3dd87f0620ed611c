// Package playerrpc is the wire contract between stillpoint and media player
// plugins: gRPC with a JSON codec, served through hashicorp/go-plugin.
package playerrpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-plugin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

const (
	PluginMapKey   = "player"
	CommandEnv     = "STILLPOINT_PLAYER_COMMAND"
	serviceName    = "stillpoint.player.v1.MediaPlayer"
	codecName      = "json"
	methodMetadata = "/" + serviceName + "/GetMetadata"
	methodPlay     = "/" + serviceName + "/Play"
	methodStop     = "/" + serviceName + "/Stop"
)

var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "STILLPOINT_PLAYER",
	MagicCookieValue: "stillpoint",
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return codecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type Empty struct{}

type Metadata struct {
	Name     string   `json:"name"`
	Version  string   `json:"version"`
	Channels []string `json:"channels"`
}

type PlayRequest struct {
	Channel string `json:"channel"`
	URL     string `json:"url"`
	Title   string `json:"title"`
}

type PlayResponse struct {
	PlaybackID string `json:"playback_id"`
}

type StopRequest struct {
	PlaybackID string `json:"playback_id"`
}

type MediaPlayerServer interface {
	GetMetadata(ctx context.Context, in *Empty) (*Metadata, error)
	Play(ctx context.Context, in *PlayRequest) (*PlayResponse, error)
	Stop(ctx context.Context, in *StopRequest) (*Empty, error)
}

type MediaPlayerClient interface {
	GetMetadata(ctx context.Context) (*Metadata, error)
	Play(ctx context.Context, in *PlayRequest) (*PlayResponse, error)
	Stop(ctx context.Context, in *StopRequest) error
}

type mediaPlayerClient struct {
	conn *grpc.ClientConn
}

func NewMediaPlayerClient(conn *grpc.ClientConn) MediaPlayerClient {
	return &mediaPlayerClient{conn: conn}
}

func (c *mediaPlayerClient) GetMetadata(ctx context.Context) (*Metadata, error) {
	out := &Metadata{}
	if err := c.conn.Invoke(ctx, methodMetadata, &Empty{}, out, grpc.CallContentSubtype(codecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *mediaPlayerClient) Play(ctx context.Context, in *PlayRequest) (*PlayResponse, error) {
	out := &PlayResponse{}
	if err := c.conn.Invoke(ctx, methodPlay, in, out, grpc.CallContentSubtype(codecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *mediaPlayerClient) Stop(ctx context.Context, in *StopRequest) error {
	return c.conn.Invoke(ctx, methodStop, in, &Empty{}, grpc.CallContentSubtype(codecName))
}

// unary builds a method descriptor for a handler taking *Req.
func unary[Req any](name string, call func(ctx context.Context, in *Req) (any, error)) grpc.MethodDesc {
	fullMethod := "/" + serviceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				typed, ok := req.(*Req)
				if !ok {
					return nil, fmt.Errorf("invalid request type %T for %s", req, fullMethod)
				}
				return call(ctx, typed)
			})
		},
	}
}

func RegisterMediaPlayerServer(server grpc.ServiceRegistrar, impl MediaPlayerServer) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*MediaPlayerServer)(nil),
		Methods: []grpc.MethodDesc{
			unary("GetMetadata", func(ctx context.Context, in *Empty) (any, error) { return impl.GetMetadata(ctx, in) }),
			unary("Play", func(ctx context.Context, in *PlayRequest) (any, error) { return impl.Play(ctx, in) }),
			unary("Stop", func(ctx context.Context, in *StopRequest) (any, error) { return impl.Stop(ctx, in) }),
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "schemas/player-rpc-v1.proto",
	}, impl)
}

type GRPCPlugin struct {
	plugin.NetRPCUnsupportedPlugin
	Impl MediaPlayerServer
}

func (p *GRPCPlugin) GRPCServer(_ *plugin.GRPCBroker, server *grpc.Server) error {
	RegisterMediaPlayerServer(server, p.Impl)
	return nil
}

func (p *GRPCPlugin) GRPCClient(_ context.Context, _ *plugin.GRPCBroker, conn *grpc.ClientConn) (any, error) {
	return NewMediaPlayerClient(conn), nil
}

func PluginMap(impl MediaPlayerServer) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		PluginMapKey: &GRPCPlugin{Impl: impl},
	}
}
