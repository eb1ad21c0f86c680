//go:build windows

package main

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os/exec"
	"runtime"
	"time"

	ico "github.com/Kodeworks/golang-image-ico"
	"github.com/getlantern/systray"

	"sysbar/internal/version"
	"sysbar/ui"
)

// startTray runs the status indicator: a tray icon whose title shows current
// throughput and whose tooltip carries CPU/memory/disk. Blocks until exit.
func startTray(app *App) {
	iconICO, _ := ui.Assets.ReadFile("static/sysbar.ico")
	iconPNG, _ := ui.Assets.ReadFile("static/sysbar.png")

	onReady := func() {
		if len(iconICO) > 0 {
			systray.SetIcon(iconICO)
		} else if len(iconPNG) > 0 {
			// systray expects .ico bytes on Windows; convert the embedded PNG.
			if img, err := png.Decode(bytes.NewReader(iconPNG)); err == nil {
				var buf bytes.Buffer
				if err := encodeICO(&buf, img); err == nil {
					systray.SetIcon(buf.Bytes())
				}
			}
		}
		systray.SetTitle("sysbar")
		systray.SetTooltip(fmt.Sprintf("sysbar %s", version.String()))

		mOpen := systray.AddMenuItem("Open Panel", "Open the sysbar panel")
		mLogs := systray.AddMenuItem("Open Logs Folder", "Open logs directory")
		systray.AddSeparator()
		mQuit := systray.AddMenuItem("Quit", "Stop sysbar")

		// Refresh the indicator text from the latest snapshot once per tick.
		go func() {
			ticker := time.NewTicker(time.Second)
			defer ticker.Stop()
			for range ticker.C {
				snap := app.monitor.Snapshot()
				if snap == nil {
					continue
				}
				systray.SetTitle(fmt.Sprintf("\u2193%.1f \u2191%.1f MiB/s", snap.DownloadMiBps, snap.UploadMiBps))
				systray.SetTooltip(fmt.Sprintf("CPU %.0f%%  Mem %.0f%%  Disk %.0f%%",
					snap.CPUPercent, snap.MemoryPercent, snap.DiskPercent))
			}
		}()

		go func() {
			for {
				select {
				case <-mOpen.ClickedCh:
					proto := "http"
					if app.monitor.TLSEnabled {
						proto = "https"
					}
					url := fmt.Sprintf("%s://localhost:%d", proto, app.monitor.Port)
					if app.monitor.Log != nil {
						app.monitor.Log.Write("Tray: Open Panel")
					}
					_ = launchBrowser(url)
				case <-mLogs.ClickedCh:
					if app.monitor.Paths != nil {
						if app.monitor.Log != nil {
							app.monitor.Log.Write("Tray: Open Logs Folder")
						}
						_ = openPath(app.monitor.Paths.LogsDir())
					}
				case <-mQuit.ClickedCh:
					if app.monitor.Log != nil {
						app.monitor.Log.Write("Tray: Quit")
					}
					systray.Quit()
				}
			}
		}()
	}

	systray.Run(onReady, func() {})
}

// trayQuit asks the tray loop to exit, unblocking startTray.
func trayQuit() {
	systray.Quit()
}

func encodeICO(buf *bytes.Buffer, img image.Image) error {
	return ico.Encode(buf, img)
}

func launchBrowser(url string) error {
	if runtime.GOOS != "windows" {
		return nil
	}
	cmd := exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	return cmd.Start()
}

func openPath(path string) error {
	if runtime.GOOS != "windows" {
		return nil
	}
	cmd := exec.Command("explorer", path)
	return cmd.Start()
}
