package controller

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"text/template"
	"time"
	"unicode/utf8"

	"github.com/TarasYkv/shop-mirror-daemon/app/entity"
	"github.com/google/shlex"
	"go.uber.org/zap"
)

var ErrCommandEmpty = errors.New("command is empty")
var ErrProcessCmdFailed = errors.New("process cmd failed")
var ErrExecuteCmdFailed = errors.New("execute cmd failed")

const hookOutputTail = 2000

// CommandExecutor runs the operator supplied command after a backup run finished.
type CommandExecutor interface {
	RunHook(ctx context.Context, run entity.BackupRun, archive *entity.ExportArchive) error
}

type Executor struct {
	hookCmdTemplate string
	timeout         time.Duration
	logger          *zap.SugaredLogger
}

// NewExecutor takes a text/template command line such as
// "/opt/notify.sh --run {{.run_id}} --status {{.status}} {{.archive}}". An empty template disables the hook.
func NewExecutor(hookCmdTemplate string, timeout time.Duration, logger *zap.SugaredLogger) CommandExecutor {
	return &Executor{
		hookCmdTemplate: strings.TrimSpace(hookCmdTemplate),
		timeout:         timeout,
		logger:          logger.With(zap.String("component", "hook")),
	}
}

func (e *Executor) RunHook(ctx context.Context, run entity.BackupRun, archive *entity.ExportArchive) error {
	if e.hookCmdTemplate == "" {
		return nil
	}
	cmdProcessed, err := e.processCmd(run, archive)
	if err != nil {
		return fmt.Errorf("%w: run=%s err=%v", ErrProcessCmdFailed, run.ID, err)
	}
	if len(cmdProcessed) == 0 {
		return fmt.Errorf("%w: run=%s", ErrCommandEmpty, run.ID)
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	var output bytes.Buffer
	cmd := exec.CommandContext(ctx, cmdProcessed[0], cmdProcessed[1:]...)
	cmd.Stdout = &output
	cmd.Stderr = &output

	e.logger.Infow("executing post-backup hook", "run", run.ID, "cmd", cmdProcessed)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: run=%s cmd=%q output=%q err=%v", ErrExecuteCmdFailed, run.ID,
			strings.Join(cmdProcessed, " "), tail(output.String(), hookOutputTail), err)
	}
	e.logger.Infow("post-backup hook finished", "run", run.ID, "output", tail(output.String(), hookOutputTail))
	return nil
}

func (e *Executor) processCmd(run entity.BackupRun, archive *entity.ExportArchive) ([]string, error) {
	cmdOptions := map[string]string{
		"run_id":  run.ID,
		"shop":    run.Shop,
		"status":  string(run.Status),
		"items":   strconv.Itoa(run.Total()),
		"size":    strconv.FormatInt(run.TotalSize, 10),
		"error":   shellQuote(run.ErrorMessage),
		"archive": "",
	}
	if archive != nil {
		cmdOptions["archive"] = archive.Path
	}

	tmpl, err := template.New("cmd").Option("missingkey=error").Parse(e.hookCmdTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, cmdOptions); err != nil {
		return nil, fmt.Errorf("execute template: %w", err)
	}
	cmdProcessed, err := shlex.Split(sb.String())
	if err != nil {
		return nil, fmt.Errorf("failed to parse command: %w", err)
	}
	return cmdProcessed, nil
}

// shellQuote keeps free text in one argument after shlex splitting.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[len(runes)-n:])
}
