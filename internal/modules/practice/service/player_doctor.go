package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"stillpoint/internal/modules/practice/dto"
	practiceout "stillpoint/internal/modules/practice/port/out"
)

var (
	ErrPlayerNotConfigured = errors.New("media player plugin is not configured")
	ErrChecksumMismatch    = errors.New("player checksum mismatch")
)

type PlayerDoctor struct {
	host practiceout.PlayerHost
}

func NewPlayerDoctor(host practiceout.PlayerHost) *PlayerDoctor {
	return &PlayerDoctor{host: host}
}

func (d *PlayerDoctor) Doctor(ctx context.Context) (dto.DoctorResult, error) {
	if d.host == nil || strings.TrimSpace(d.host.Binary()) == "" {
		return dto.DoctorResult{}, ErrPlayerNotConfigured
	}
	result := dto.DoctorResult{Binary: d.host.Binary()}
	if !fileExists(result.Binary) {
		result.Error = fmt.Sprintf("binary does not exist: %s", result.Binary)
		return result, nil
	}
	result.BinaryReachable = true

	if expected := strings.TrimSpace(d.host.ExpectedSHA256()); expected != "" {
		result.ChecksumChecked = true
		if err := ChecksumMatches(result.Binary, expected); err != nil {
			result.Error = err.Error()
			return result, nil
		}
		result.ChecksumValid = true
	}

	meta, err := d.host.Handshake(ctx)
	if err != nil {
		result.Error = err.Error()
		return result, nil
	}
	result.HandshakeOK = true
	result.PlayerName = meta.Name
	result.PlayerVersion = meta.Version
	for _, channel := range meta.Channels {
		result.Channels = append(result.Channels, string(channel))
	}
	return result, nil
}

func ChecksumMatches(path string, expected string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read player binary: %w", err)
	}
	hash := sha256.Sum256(payload)
	if actual := hex.EncodeToString(hash[:]); !strings.EqualFold(actual, strings.TrimSpace(expected)) {
		return fmt.Errorf("%w: %s", ErrChecksumMismatch, filepath.Base(path))
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
