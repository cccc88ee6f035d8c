package report

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

// RsyncConfig describes the optional mirror of the loop-data file on a
// remote web server. Transfers ride on the system rsync binary over
// passwordless ssh.
type RsyncConfig struct {
	RemoteServer    string
	RemotePort      int
	RemoteUser      string
	RemoteDir       string
	Compress        bool
	LogSuccess      bool
	SSHOptions      string
	Timeout         int
	SkipIfOlderThan int
}

// Rsyncer uploads the loop-data file after each write. Consecutive
// failures trip a circuit breaker so a dead remote does not hold every
// snapshot hostage to a doomed ssh attempt.
type Rsyncer struct {
	cfg     RsyncConfig
	local   string
	circuit *gobreaker.CircuitBreaker
	now     func() time.Time
}

func NewRsyncer(cfg RsyncConfig, localPath string) *Rsyncer {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "rsync",
		MaxRequests: 1,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("report: %s circuit %s -> %s", name, from, to)
		},
	})

	return &Rsyncer{
		cfg:     cfg,
		local:   localPath,
		circuit: cb,
		now:     time.Now,
	}
}

var statsBytesRe = regexp.MustCompile(`Total bytes sent:\s+([0-9,]+)`)

// Upload mirrors the loop-data file to the remote. pktTime is the packet
// timestamp behind the current file contents; a packet already older than
// SkipIfOlderThan seconds is not worth shipping.
func (r *Rsyncer) Upload(ctx context.Context, pktTime int64) error {
	if r.cfg.SkipIfOlderThan != 0 {
		age := r.now().Unix() - pktTime
		if age > int64(r.cfg.SkipIfOlderThan) {
			log.Printf("report: skipping rsync, packet dateTime=%d is %ds old", pktTime, age)
			return nil
		}
	}

	start := r.now()
	result, err := r.circuit.Execute(func() (interface{}, error) {
		return r.run(ctx)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			// Stay quiet until the breaker lets a probe through.
			return nil
		}
		return fmt.Errorf("rsync upload: %w", err)
	}

	if r.cfg.LogSuccess {
		out, _ := result.([]byte)
		log.Printf("report: rsync'd %s bytes in %.2f seconds",
			statsBytes(out), r.now().Sub(start).Seconds())
	}
	return nil
}

// run executes one rsync invocation, assembling the command line the way
// the stock weewx uploader does.
func (r *Rsyncer) run(ctx context.Context) ([]byte, error) {
	timeout := r.cfg.Timeout
	if timeout <= 0 {
		timeout = 1
	}
	ctx, cancel := context.WithTimeout(ctx, time.Duration(timeout+1)*time.Second)
	defer cancel()

	args := []string{"--archive", "--stats", fmt.Sprintf("--timeout=%d", timeout)}
	rsh := "ssh"
	if r.cfg.RemotePort > 0 {
		rsh += fmt.Sprintf(" -p %d", r.cfg.RemotePort)
	}
	if r.cfg.SSHOptions != "" {
		rsh += " " + r.cfg.SSHOptions
	}
	args = append(args, "-e", rsh)
	if r.cfg.Compress {
		args = append(args, "--compress")
	}
	args = append(args, r.local, r.remoteTarget())

	out, err := exec.CommandContext(ctx, "rsync", args...).CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("rsync: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return out, nil
}

func (r *Rsyncer) remoteTarget() string {
	host := r.cfg.RemoteServer
	if r.cfg.RemoteUser != "" {
		host = r.cfg.RemoteUser + "@" + host
	}
	return host + ":" + filepath.Join(r.cfg.RemoteDir, filepath.Base(r.local))
}

func statsBytes(out []byte) string {
	m := statsBytesRe.FindSubmatch(out)
	if m == nil {
		return "?"
	}
	return strings.ReplaceAll(string(m[1]), ",", "")
}
