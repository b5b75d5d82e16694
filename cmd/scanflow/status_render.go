package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"scanflow/internal/ipc"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
)

const (
	ansiReset  = "\x1b[0m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 20
	statusIndent     = "  "
)

func renderStatus(stdout io.Writer, resp *ipc.StatusResponse) {
	colorize := shouldColorize(stdout)

	for _, line := range renderSectionHeader("Station Status", colorize) {
		fmt.Fprintln(stdout, line)
	}
	running := statusWarn
	runningDetail := "stopped"
	if resp.Running {
		running = statusOK
		runningDetail = fmt.Sprintf("running (pid %d)", resp.PID)
	}
	fmt.Fprintln(stdout, renderStatusLine("Pipeline", running, runningDetail, colorize))
	fmt.Fprintln(stdout, renderStatusLine("Audit log", statusInfo, resp.AuditLogPath, colorize))
	fmt.Fprintln(stdout, renderStatusLine("Uploads this run", statusInfo, fmt.Sprintf("%d", resp.Processed), colorize))
	fmt.Fprintln(stdout)

	for _, line := range renderSectionHeader("Readiness", colorize) {
		fmt.Fprintln(stdout, line)
	}
	for _, check := range resp.Preflight {
		kind := statusWarn
		if check.Passed {
			kind = statusOK
		}
		fmt.Fprintln(stdout, renderStatusLine(check.Name, kind, check.Detail, colorize))
	}
	fmt.Fprintln(stdout)

	for _, line := range renderSectionHeader("Stages", colorize) {
		fmt.Fprintln(stdout, line)
	}
	rows := stageRows(resp.StageCounts)
	if len(rows) == 0 {
		fmt.Fprintln(stdout, "No stage directories found")
		return
	}
	fmt.Fprintln(stdout, renderTable([]string{"Stage", "Documents"}, rows, []columnAlignment{alignLeft, alignRight}))
}

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := fmt.Sprintf("[%s]", statusKindLabel(kind))
	if message != "" {
		statusText += " " + message
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
