package service_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"stillpoint/internal/modules/practice/domain"
	"stillpoint/internal/modules/practice/service"
)

type fakeHost struct {
	binary     string
	sha        string
	meta       domain.PlayerMetadata
	err        error
	handshakes int
}

func (f *fakeHost) Binary() string         { return f.binary }
func (f *fakeHost) ExpectedSHA256() string { return f.sha }
func (f *fakeHost) Handshake(context.Context) (domain.PlayerMetadata, error) {
	f.handshakes++
	return f.meta, f.err
}

func writeBinary(t *testing.T) (string, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "player")
	payload := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(path, payload, 0o755); err != nil {
		t.Fatalf("write binary: %v", err)
	}
	sum := sha256.Sum256(payload)
	return path, hex.EncodeToString(sum[:])
}

func TestPlayerDoctorHealthy(t *testing.T) {
	t.Parallel()
	path, sum := writeBinary(t)
	host := &fakeHost{binary: path, sha: sum, meta: domain.PlayerMetadata{Name: "player", Version: "1.0.0", Channels: []domain.MediaChannel{domain.ChannelAudio}}}
	result, err := service.NewPlayerDoctor(host).Doctor(context.Background())
	if err != nil {
		t.Fatalf("doctor: %v", err)
	}
	if !result.BinaryReachable || !result.ChecksumChecked || !result.ChecksumValid || !result.HandshakeOK {
		t.Fatalf("expected healthy result, got %+v", result)
	}
	if result.PlayerName != "player" || len(result.Channels) != 1 || result.Channels[0] != "audio" {
		t.Fatalf("unexpected metadata %+v", result)
	}
}

func TestPlayerDoctorChecksumMismatchSkipsHandshake(t *testing.T) {
	t.Parallel()
	path, _ := writeBinary(t)
	host := &fakeHost{binary: path, sha: "deadbeef"}
	result, err := service.NewPlayerDoctor(host).Doctor(context.Background())
	if err != nil {
		t.Fatalf("doctor: %v", err)
	}
	if result.ChecksumValid || result.HandshakeOK || host.handshakes != 0 {
		t.Fatalf("expected checksum failure without handshake, got %+v", result)
	}
}

func TestPlayerDoctorMissingBinary(t *testing.T) {
	t.Parallel()
	host := &fakeHost{binary: filepath.Join(t.TempDir(), "missing")}
	result, err := service.NewPlayerDoctor(host).Doctor(context.Background())
	if err != nil {
		t.Fatalf("doctor: %v", err)
	}
	if result.BinaryReachable || result.Error == "" {
		t.Fatalf("expected missing binary error, got %+v", result)
	}
}

func TestPlayerDoctorHandshakeFailure(t *testing.T) {
	t.Parallel()
	path, _ := writeBinary(t)
	host := &fakeHost{binary: path, err: errors.New("handshake refused")}
	result, err := service.NewPlayerDoctor(host).Doctor(context.Background())
	if err != nil {
		t.Fatalf("doctor: %v", err)
	}
	if result.ChecksumChecked || result.HandshakeOK || result.Error != "handshake refused" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestPlayerDoctorNotConfigured(t *testing.T) {
	t.Parallel()
	if _, err := service.NewPlayerDoctor(&fakeHost{}).Doctor(context.Background()); !errors.Is(err, service.ErrPlayerNotConfigured) {
		t.Fatalf("expected ErrPlayerNotConfigured, got %v", err)
	}
}
