//go:build arm

package irq

// Enable and Disable are implemented in mask_arm.s: CPSIE i / CPSID i,
// toggling the CPU's IRQ mask bit directly. They replace the original's
// enable_irq/disable_irq inline-asm macros.

//go:noescape
func Enable()

//go:noescape
func Disable()
