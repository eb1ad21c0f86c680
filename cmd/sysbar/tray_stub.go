//go:build !windows

package main

// startTray is a no-op on non-Windows platforms; main waits on signals instead.
func startTray(app *App) {}

// trayQuit is a no-op on non-Windows platforms.
func trayQuit() {}
