package clients

import (
	"fmt"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/mirrorops/settings-bot/internal/log"
)

// RcloneServe manages a single `rclone serve` child process. Settings
// changes restart it with the new flags; at most one instance runs.
type RcloneServe struct {
	Binary string // defaults to "rclone"

	mu  sync.Mutex
	cmd *exec.Cmd
}

// ServeOptions are the flags the panel controls.
type ServeOptions struct {
	Protocol   string // http, webdav, ftp
	Remote     string // remote:path to serve
	Port       int64
	User       string
	Pass       string
	ConfigPath string
}

// Restart stops any running serve process and starts a new one with the
// given options. A zero Remote just stops.
func (r *RcloneServe) Restart(opts ServeOptions) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
	if opts.Remote == "" {
		return nil
	}
	bin := r.Binary
	if bin == "" {
		bin = "rclone"
	}
	proto := opts.Protocol
	if proto == "" {
		proto = "http"
	}
	args := []string{"serve", proto, opts.Remote,
		"--addr", ":" + strconv.FormatInt(opts.Port, 10)}
	if opts.ConfigPath != "" {
		args = append(args, "--config", opts.ConfigPath)
	}
	if opts.User != "" {
		args = append(args, "--user", opts.User, "--pass", opts.Pass)
	}
	cmd := exec.Command(bin, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("rclone: start serve: %w", err)
	}
	r.cmd = cmd
	log.Info("rclone").Str("protocol", proto).Int64("port", opts.Port).Msg("serve started")
	go func() {
		err := cmd.Wait()
		r.mu.Lock()
		if r.cmd == cmd {
			r.cmd = nil
		}
		r.mu.Unlock()
		if err != nil {
			log.Warn("rclone").Err(err).Msg("serve exited")
		}
	}()
	return nil
}

// Stop terminates the running serve process, if any.
func (r *RcloneServe) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
}

func (r *RcloneServe) stopLocked() {
	if r.cmd == nil || r.cmd.Process == nil {
		return
	}
	proc := r.cmd.Process
	r.cmd = nil
	if err := proc.Kill(); err != nil {
		log.Warn("rclone").Err(err).Msg("kill serve process")
		return
	}
	// Give the reaper goroutine a moment so the pid is collected.
	time.Sleep(50 * time.Millisecond)
	log.Info("rclone").Msg("serve stopped")
}
