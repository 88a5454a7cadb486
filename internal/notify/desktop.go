package notify

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

var ErrUnsupportedPlatform = errors.New("notify: desktop notifications unsupported on this platform")

// ExecDisplayer shells out to notify-send on Linux and osascript on macOS.
type ExecDisplayer struct{}

func (ExecDisplayer) Display(ctx context.Context, n Notification) error {
	switch runtime.GOOS {
	case "linux":
		args := []string{"--urgency=critical", "--app-name=mindsync"}
		if n.Icon != "" {
			args = append(args, "--icon="+n.Icon)
		}
		args = append(args, n.Title, n.Body)
		return exec.CommandContext(ctx, "notify-send", args...).Run()
	case "darwin":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`, escapeAppleScript(n.Body), escapeAppleScript(n.Title))
		return exec.CommandContext(ctx, "osascript", "-e", script).Run()
	default:
		return ErrUnsupportedPlatform
	}
}

// ExecPlayer plays File, or the platform's stock alert sound when File is empty.
type ExecPlayer struct {
	File string
}

func (p ExecPlayer) Play(ctx context.Context) error {
	switch runtime.GOOS {
	case "linux":
		if p.File == "" {
			return exec.CommandContext(ctx, "canberra-gtk-play", "--id=message-new-instant").Run()
		}
		return exec.CommandContext(ctx, "paplay", "--volume=32768", p.File).Run()
	case "darwin":
		file := p.File
		if file == "" {
			file = "/System/Library/Sounds/Glass.aiff"
		}
		return exec.CommandContext(ctx, "afplay", "-v", "0.5", file).Run()
	default:
		return ErrUnsupportedPlatform
	}
}

// DesktopCapable reports whether the platform notifier binary is installed.
func DesktopCapable() bool {
	name := ""
	switch runtime.GOOS {
	case "linux":
		name = "notify-send"
	case "darwin":
		name = "osascript"
	default:
		return false
	}
	_, err := exec.LookPath(name)
	return err == nil
}

func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
