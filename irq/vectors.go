package irq

// The ARMv7-A exception vector table is eight consecutive one-word
// branch instructions, indexed by exception type. VBAR (Vector Base
// Address Register) tells the core where this table starts; the boot
// loader enters kernel_main with the default low-vectors table still in
// effect, so bring-up must install its own table before unmasking IRQs.
const (
	VectorReset       = 0x00
	VectorUndef       = 0x04
	VectorSVC         = 0x08
	VectorPrefetchAbt = 0x0C
	VectorDataAbt     = 0x10
	VectorReserved    = 0x14
	VectorIRQ         = 0x18
	VectorFIQ         = 0x1C

	// VectorTableSize is the table's footprint in bytes.
	VectorTableSize = 0x20
)

// Only VectorIRQ is wired to Go code in this kernel: its entry branches
// to irqEntry (entry_arm.s), which saves the interrupted task's full
// register frame (the same r0-r12/lr/cpsr/pc shape sched.buildInitialFrame
// constructs), calls Dispatch with the saved stack pointer, and restores
// whichever frame Dispatch returns — either the one it was just handed
// back, or a different task's. InstallVectorTable (vector_arm.go) installs
// the assembled table (vectors_arm.s); every other vector has no recovery
// path in this kernel and spins in place rather than falling back to the
// boot loader's default handler.
