package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

var (
	// Primary colors
	clrDim    = color.New(color.FgHiBlack)
	clrSubtle = color.New(color.FgWhite)

	// Accent colors
	clrPrimary = color.New(color.FgGreen, color.Bold)
	clrAccent  = color.New(color.FgHiGreen, color.Bold)

	// Status colors
	clrSuccess = color.New(color.FgGreen)
	clrError   = color.New(color.FgRed)
	clrWarning = color.New(color.FgYellow)
	clrInfo    = color.New(color.FgBlue)

	badgePrimary = color.New(color.BgGreen, color.FgBlack, color.Bold)
)

// Box-drawing characters
const (
	boxTopLeft     = "╭"
	boxTopRight    = "╮"
	boxBottomLeft  = "╰"
	boxBottomRight = "╯"
	boxHorizontal  = "─"
	boxVertical    = "│"
)

var (
	outMu   sync.Mutex
	out     io.Writer = color.Error
	debugOn bool
)

// SetOutput redirects all log output, which goes to stderr by default so
// command output on stdout stays clean. Tests use it to capture lines.
func SetOutput(w io.Writer) {
	outMu.Lock()
	defer outMu.Unlock()
	out = w
}

// SetDebug enables or suppresses "debug" status lines.
func SetDebug(on bool) {
	outMu.Lock()
	defer outMu.Unlock()
	debugOn = on
}

func writeLine(line string) {
	outMu.Lock()
	defer outMu.Unlock()
	fmt.Fprintln(out, line)
}

// PrintBanner displays the service header
func PrintBanner(version string) {
	badge := badgePrimary.Sprint(" ✿ FLORA ")
	ver := clrDim.Sprint(version)
	title := " " + badge + " " + ver
	subtitle := " Plant matchmaking for your house color"

	inner := 60
	pad := func(s string) string {
		n := inner - VisibleWidth(s)
		if n < 0 {
			n = 0
		}
		return s + spaces(n)
	}

	writeLine("")
	writeLine(clrDim.Sprint(boxTopLeft + strings.Repeat(boxHorizontal, inner) + boxTopRight))
	writeLine(clrDim.Sprint(boxVertical) + pad(title) + clrDim.Sprint(boxVertical))
	writeLine(clrDim.Sprint(boxVertical) + clrSubtle.Sprint(pad(subtitle)) + clrDim.Sprint(boxVertical))
	writeLine(clrDim.Sprint(boxBottomLeft + strings.Repeat(boxHorizontal, inner) + boxBottomRight))
	writeLine("")
}

// LogStatus displays a status message with appropriate styling
func LogStatus(category, message string) {
	if category == "debug" {
		outMu.Lock()
		on := debugOn
		outMu.Unlock()
		if !on {
			return
		}
	}

	ts := clrDim.Sprint(time.Now().Format("15:04:05"))

	var icon string
	var styledMsg string

	switch category {
	case "success":
		icon = clrSuccess.Sprint("✔")
		styledMsg = clrSuccess.Sprint(message)
	case "error":
		icon = clrError.Sprint("✖")
		styledMsg = clrError.Sprint(message)
	case "warn", "warning":
		icon = clrWarning.Sprint("⚠")
		styledMsg = clrWarning.Sprint(message)
	case "info":
		icon = clrInfo.Sprint("ℹ")
		styledMsg = clrSubtle.Sprint(message)
	case "debug":
		icon = clrDim.Sprint("·")
		styledMsg = clrDim.Sprint(message)
	default:
		icon = clrDim.Sprint("●")
		styledMsg = clrSubtle.Sprint(message)
	}

	writeLine(fmt.Sprintf("%s  %s  %s", ts, icon, styledMsg))
}

// LogSection creates a section header
func LogSection(title string) {
	writeLine("")
	n := 50 - VisibleWidth(title)
	if n < 2 {
		n = 2
	}
	writeLine(fmt.Sprintf("%s %s %s",
		clrDim.Sprint("──"),
		clrAccent.Sprint(title),
		clrDim.Sprint(strings.Repeat("─", n))))
}

// LogRequest prints one access-log line for an HTTP request.
func LogRequest(method, path string, status int, elapsed time.Duration, remote string) {
	ts := clrDim.Sprint(time.Now().Format("15:04:05"))

	statusClr := clrSuccess
	switch {
	case status >= 500:
		statusClr = clrError
	case status >= 400:
		statusClr = clrWarning
	}

	writeLine(fmt.Sprintf("%s  %s  %s %s  %s  %s  %s",
		ts,
		clrPrimary.Sprint("→"),
		clrAccent.Sprintf("%-6s", method),
		clrSubtle.Sprintf("%-32s", path),
		statusClr.Sprintf("%d", status),
		clrDim.Sprintf("%-8s", elapsed.Round(time.Millisecond)),
		clrDim.Sprint(remote)))
}

// LogSearch summarizes one recommendation run.
func LogSearch(baseHex, scheme string, colors []string, plants int, elapsed time.Duration) {
	ts := clrDim.Sprint(time.Now().Format("15:04:05"))
	writeLine(fmt.Sprintf("%s  %s  %s %s %s %s  %s",
		ts,
		clrPrimary.Sprint("✿"),
		clrAccent.Sprint("#"+strings.TrimPrefix(baseHex, "#")),
		clrSubtle.Sprint(scheme),
		clrDim.Sprint("→"),
		clrSubtle.Sprint(strings.Join(colors, ", ")),
		clrDim.Sprintf("%d plants in %s", plants, elapsed.Round(time.Millisecond))))
}

// LogGracefulShutdown announces that the service is stopping.
func LogGracefulShutdown() {
	LogStatus("warn", "Shutdown signal received, finishing in-flight requests...")
}

// PrintFooter displays a footer message
func PrintFooter(message string) {
	writeLine("")
	writeLine(fmt.Sprintf("  %s %s", clrDim.Sprint("▸"), clrDim.Sprint(message)))
}
