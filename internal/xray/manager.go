// Package xray supervises the external xray-core process and its JSON
// config file.
package xray

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/valyala/fastjson"
	"go.uber.org/fx"

	"one-ui-backend/config"
	"one-ui-backend/internal/dto"
	"one-ui-backend/internal/telegram"
)

// Manager supervises the xray-core process. Config changes go through
// ValidateConfig or ApplyConfig; a failed apply rolls back to the previous
// config file.
type Manager interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Restart(ctx context.Context) error
	Status() dto.XrayStatusResponse
	CurrentConfig() ([]byte, error)
	ValidateConfig(ctx context.Context, cfg []byte) error
	ApplyConfig(ctx context.Context, cfg []byte) error
}

type procHandle struct {
	cmd  *exec.Cmd
	done chan struct{}

	// stopping marks a supervised shutdown so reap can tell an operator
	// stop from a crash. Written under the manager mutex.
	stopping bool
}

type processManager struct {
	bin            string
	configPath     string
	restartTimeout time.Duration
	notifier       telegram.Notifier

	mu          sync.Mutex
	proc        *procHandle
	startedAt   time.Time
	version     string
	lastExitErr string
}

// NewProcessManager builds the supervisor and hooks it into the application
// lifecycle. A missing or broken xray binary keeps the panel up; the status
// endpoint reports the failure instead.
func NewProcessManager(lc fx.Lifecycle, cfg *config.Config, notifier telegram.Notifier) Manager {
	m := &processManager{
		bin:            cfg.Xray.BinaryPath,
		configPath:     cfg.Xray.ConfigPath,
		restartTimeout: cfg.Xray.RestartTimeout,
		notifier:       notifier,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := m.Start(ctx); err != nil {
				log.Warn().Err(err).Msg("xray-core did not start, panel continues without it")
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return m.Stop(ctx)
		},
	})
	return m
}

func (m *processManager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.proc != nil {
		return errors.New("xray-core is already running")
	}
	if _, err := os.Stat(m.configPath); err != nil {
		return fmt.Errorf("xray config not readable: %w", err)
	}

	cmd := exec.Command(m.bin, "run", "-c", m.configPath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start xray-core: %w", err)
	}

	h := &procHandle{cmd: cmd, done: make(chan struct{})}
	recovered := m.lastExitErr != ""
	m.proc = h
	m.startedAt = time.Now()
	m.lastExitErr = ""
	if m.version == "" {
		m.version = probeVersion(ctx, m.bin)
	}
	go m.reap(h, &stderr)

	log.Info().
		Int("pid", cmd.Process.Pid).
		Str("config", m.configPath).
		Str("version", m.version).
		Msg("xray-core started")
	if recovered {
		m.notify("One-UI: xray-core is running again")
	}
	return nil
}

// reap waits for the process to exit and records why it died. Stop waits on
// the handle's done channel, which closes only after the state update.
func (m *processManager) reap(h *procHandle, stderr *bytes.Buffer) {
	err := h.cmd.Wait()
	crashed := false
	m.mu.Lock()
	if m.proc == h {
		m.proc = nil
		if err != nil {
			crashed = !h.stopping
			detail := strings.TrimSpace(stderr.String())
			if len(detail) > 512 {
				detail = detail[:512]
			}
			if detail != "" {
				m.lastExitErr = fmt.Sprintf("%v: %s", err, detail)
			} else {
				m.lastExitErr = err.Error()
			}
		}
	}
	exitErr := m.lastExitErr
	m.mu.Unlock()

	if err != nil {
		log.Warn().Err(err).Msg("xray-core exited")
	} else {
		log.Info().Msg("xray-core exited")
	}
	if crashed {
		m.notify("One-UI: xray-core crashed: " + exitErr)
	}
	close(h.done)
}

// notify sends an xray lifecycle notice without blocking the supervisor.
func (m *processManager) notify(text string) {
	if m.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := m.notifier.NotifyXray(ctx, text); err != nil {
			log.Warn().Err(err).Msg("Failed to send xray notification")
		}
	}()
}

func (m *processManager) Stop(ctx context.Context) error {
	m.mu.Lock()
	h := m.proc
	if h != nil {
		h.stopping = true
	}
	m.mu.Unlock()
	if h == nil {
		return nil
	}

	_ = h.cmd.Process.Signal(syscall.SIGTERM)

	timeout := m.restartTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	select {
	case <-h.done:
		return nil
	case <-time.After(timeout):
		log.Warn().Msg("xray-core ignored SIGTERM, killing")
		_ = h.cmd.Process.Kill()
		<-h.done
		return nil
	case <-ctx.Done():
		_ = h.cmd.Process.Kill()
		return ctx.Err()
	}
}

func (m *processManager) Restart(ctx context.Context) error {
	if err := m.Stop(ctx); err != nil {
		return err
	}
	return m.Start(ctx)
}

func (m *processManager) Status() dto.XrayStatusResponse {
	m.mu.Lock()
	defer m.mu.Unlock()
	status := dto.XrayStatusResponse{
		ConfigPath:    m.configPath,
		Version:       m.version,
		LastExitError: m.lastExitErr,
	}
	if m.proc != nil {
		status.Running = true
		status.PID = m.proc.cmd.Process.Pid
		status.UptimeSeconds = int64(time.Since(m.startedAt).Seconds())
	}
	return status
}

func (m *processManager) CurrentConfig() ([]byte, error) {
	return os.ReadFile(m.configPath)
}

// ValidateConfig checks the candidate config structurally, then asks the
// binary itself via `xray run -test`.
func (m *processManager) ValidateConfig(ctx context.Context, cfg []byte) error {
	if err := checkConfigShape(cfg); err != nil {
		return err
	}

	tmp, err := os.CreateTemp("", "xray-config-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp config: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(cfg); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	testCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	out, err := exec.CommandContext(testCtx, m.bin, "run", "-test", "-c", tmp.Name()).CombinedOutput()
	if err != nil {
		detail := strings.TrimSpace(string(out))
		if len(detail) > 512 {
			detail = detail[:512]
		}
		if detail == "" {
			detail = err.Error()
		}
		return fmt.Errorf("xray rejected the config: %s", detail)
	}
	return nil
}

// ApplyConfig validates, writes and restarts. If the restart fails the
// previous config is restored and xray-core restarted on it.
func (m *processManager) ApplyConfig(ctx context.Context, cfg []byte) error {
	if err := m.ValidateConfig(ctx, cfg); err != nil {
		return err
	}

	previous, readErr := os.ReadFile(m.configPath)
	if err := os.MkdirAll(filepath.Dir(m.configPath), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(m.configPath, cfg, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	if err := m.Restart(ctx); err != nil {
		if readErr == nil {
			_ = os.WriteFile(m.configPath, previous, 0o644)
			if rbErr := m.Restart(ctx); rbErr != nil {
				log.Error().Err(rbErr).Msg("Rollback restart failed, xray-core is down")
			} else {
				log.Warn().Msg("New config failed to apply, rolled back to previous config")
			}
		}
		return fmt.Errorf("failed to restart with new config: %w", err)
	}
	log.Info().Str("config", m.configPath).Msg("Applied new xray config")
	return nil
}

// checkConfigShape rejects configs that are structurally not an xray config
// before the more expensive binary test run.
func checkConfigShape(cfg []byte) error {
	v, err := fastjson.ParseBytes(cfg)
	if err != nil {
		return fmt.Errorf("config is not valid JSON: %w", err)
	}
	if v.Type() != fastjson.TypeObject {
		return errors.New("config root must be a JSON object")
	}
	for _, section := range []string{"inbounds", "outbounds"} {
		arr := v.Get(section)
		if arr == nil {
			return fmt.Errorf("config is missing the %q section", section)
		}
		if arr.Type() != fastjson.TypeArray {
			return fmt.Errorf("config section %q must be an array", section)
		}
	}
	return nil
}

func probeVersion(ctx context.Context, bin string) string {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	out, err := exec.CommandContext(probeCtx, bin, "version").Output()
	if err != nil {
		return ""
	}
	// First line reads like "Xray 1.8.24 (Xray, Penetrates Everything.)".
	line := strings.SplitN(string(out), "\n", 2)[0]
	fields := strings.Fields(line)
	if len(fields) >= 2 {
		return fields[1]
	}
	return strings.TrimSpace(line)
}
