package xray

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckConfigShape(t *testing.T) {
	testCases := []struct {
		name    string
		config  string
		wantErr string
	}{
		{
			name:   "Minimal Valid Config",
			config: `{"inbounds":[{"port":443,"protocol":"vless"}],"outbounds":[{"protocol":"freedom"}]}`,
		},
		{
			name:   "Empty Sections Are Structurally Fine",
			config: `{"inbounds":[],"outbounds":[]}`,
		},
		{
			name:    "Not JSON",
			config:  `{"inbounds": [`,
			wantErr: "not valid JSON",
		},
		{
			name:    "Root Is An Array",
			config:  `[1,2,3]`,
			wantErr: "must be a JSON object",
		},
		{
			name:    "Missing Inbounds",
			config:  `{"outbounds":[]}`,
			wantErr: `missing the "inbounds" section`,
		},
		{
			name:    "Missing Outbounds",
			config:  `{"inbounds":[]}`,
			wantErr: `missing the "outbounds" section`,
		},
		{
			name:    "Inbounds Not An Array",
			config:  `{"inbounds":{"port":443},"outbounds":[]}`,
			wantErr: `section "inbounds" must be an array`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := checkConfigShape([]byte(tc.config))
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

type xrayNotifierSpy struct {
	mu    sync.Mutex
	texts []string
}

func (n *xrayNotifierSpy) NotifyBackup(context.Context, string, string) error { return nil }
func (n *xrayNotifierSpy) NotifySecurity(context.Context, string) error       { return nil }

func (n *xrayNotifierSpy) NotifyXray(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.texts = append(n.texts, text)
	return nil
}

func (n *xrayNotifierSpy) snapshot() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.texts...)
}

// fakeBinary writes an executable shell script standing in for xray-core.
func fakeBinary(t *testing.T, dir, script string) string {
	t.Helper()
	path := filepath.Join(dir, "xray")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755))
	return path
}

func testManager(t *testing.T, script string) (*processManager, *xrayNotifierSpy) {
	t.Helper()
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(configPath, []byte(`{"inbounds":[],"outbounds":[]}`), 0o644))
	spy := &xrayNotifierSpy{}
	return &processManager{
		bin:            fakeBinary(t, dir, script),
		configPath:     configPath,
		restartTimeout: 2 * time.Second,
		notifier:       spy,
	}, spy
}

func TestCrashSendsNotification(t *testing.T) {
	m, spy := testManager(t, "echo boom >&2; exit 23")

	require.NoError(t, m.Start(context.Background()))

	require.Eventually(t, func() bool {
		return len(spy.snapshot()) == 1
	}, 3*time.Second, 10*time.Millisecond, "unexpected exit must produce a notice")
	assert.Contains(t, spy.snapshot()[0], "crashed")
	assert.Contains(t, spy.snapshot()[0], "boom")

	status := m.Status()
	assert.False(t, status.Running)
	assert.Contains(t, status.LastExitError, "boom")
}

func TestSupervisedStopDoesNotNotify(t *testing.T) {
	m, spy := testManager(t, "sleep 60")

	require.NoError(t, m.Start(context.Background()))
	require.NoError(t, m.Stop(context.Background()))

	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, spy.snapshot(), "an operator stop is not a crash")
	assert.Empty(t, m.Status().LastExitError)
}

func TestRestartAfterCrashSendsRecoveryNotice(t *testing.T) {
	m, spy := testManager(t, "exit 23")

	require.NoError(t, m.Start(context.Background()))
	require.Eventually(t, func() bool {
		return m.Status().LastExitError != ""
	}, 3*time.Second, 10*time.Millisecond)

	// Second launch stays up; a recorded crash before it yields a
	// recovery notice.
	m.bin = fakeBinary(t, t.TempDir(), "sleep 60")
	require.NoError(t, m.Start(context.Background()))
	defer m.Stop(context.Background())

	require.Eventually(t, func() bool {
		for _, text := range spy.snapshot() {
			if strings.Contains(text, "running again") {
				return true
			}
		}
		return false
	}, 3*time.Second, 10*time.Millisecond)
}

func TestStatusWhenNotRunning(t *testing.T) {
	m := &processManager{configPath: "/etc/xray/config.json", lastExitErr: "exit status 23"}

	status := m.Status()
	assert.False(t, status.Running)
	assert.Zero(t, status.PID)
	assert.Equal(t, "/etc/xray/config.json", status.ConfigPath)
	assert.Equal(t, "exit status 23", status.LastExitError)
}
