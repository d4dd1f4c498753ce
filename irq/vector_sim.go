//go:build !arm

package irq

// InstallVectorTable is a no-op on hosted builds: there is no VBAR to
// program. It exists so kernel.Run can call it unconditionally
// regardless of build target.
func InstallVectorTable() {}
