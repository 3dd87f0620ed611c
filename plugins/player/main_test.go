package main

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"stillpoint/internal/modules/practice/adapter/out/playerrpc"
)

func TestCommandLine(t *testing.T) {
	t.Parallel()
	got, err := commandLine("mpv --no-video {url}", "https://cdn/a.mp3")
	if err != nil {
		t.Fatalf("command line: %v", err)
	}
	if diff := cmp.Diff([]string{"mpv", "--no-video", "https://cdn/a.mp3"}, got); diff != "" {
		t.Fatalf("argv mismatch (-want +got):\n%s", diff)
	}
	got, err = commandLine("afplay", "/tmp/a.mp3")
	if err != nil {
		t.Fatalf("command line: %v", err)
	}
	if diff := cmp.Diff([]string{"afplay", "/tmp/a.mp3"}, got); diff != "" {
		t.Fatalf("argv mismatch (-want +got):\n%s", diff)
	}
	if _, err := commandLine("   ", "x"); err == nil {
		t.Fatalf("expected error for empty command")
	}
}

func TestServerPlayWithoutCommandFails(t *testing.T) {
	t.Parallel()
	s := newServer("")
	if _, err := s.Play(context.Background(), &playerrpc.PlayRequest{Channel: "audio", URL: "https://cdn/a.mp3"}); err == nil {
		t.Fatalf("expected error without configured command")
	}
	if _, err := s.Stop(context.Background(), &playerrpc.StopRequest{PlaybackID: "unknown"}); err != nil {
		t.Fatalf("stopping unknown playback should be a no-op: %v", err)
	}
}
