package notify

import (
	"fmt"
	"log"
	"os/exec"
)

func init() {
	_ = Register("desktop", func(logger *log.Logger) Backend {
		return &DesktopBackend{logger: logger}
	})
}

// DesktopBackend shells out to notify-send for desktop notifications.
type DesktopBackend struct {
	logger *log.Logger
}

func (b *DesktopBackend) Name() string { return "desktop" }

func (b *DesktopBackend) IsEnabled() bool {
	_, err := exec.LookPath("notify-send")
	return err == nil
}

func (b *DesktopBackend) Deliver(content Content) error {
	cmd := exec.Command("notify-send", "--app-name=pulse", content.Title, content.Body)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("notify-send: %w (%s)", err, string(out))
	}
	return nil
}
