package sched

import "unsafe"

// Stack frame layout for a task that is not currently running. From
// low address to high address: r0..r12, lr, cpsr, pc. A
// task's saved stack pointer always points at the r0 slot; restoring a
// task means popping these words, in this order, into the matching CPU
// registers, ending with a branch to pc.
//
// The original assembly-language convention only ever pops r0-r12/lr/pc
// (no cpsr restore) because context_switch is a plain function call, not
// an exception return. This port uses one frame shape everywhere —
// including the one a task is first created with — so a saved sp is
// interchangeable regardless of whether it was suspended by a
// cooperative yield, a sleep, or a preemption. cpsr is carried in the
// frame for the preemptive path (which does need a mode/interrupt-mask
// restore on return from the IRQ trampoline) and is simply ignored by
// the cooperative path's restore sequence.
const (
	frameR0    = 0
	frameR12   = 12
	frameLR    = 13
	frameCPSR  = 14
	framePC    = 15
	frameWords = 16
)

// cpsrSupervisorIRQEnabled is the initial saved program status word for a
// freshly created task: ARM mode bits for supervisor mode with IRQs
// unmasked.
const cpsrSupervisorIRQEnabled = 0x13

// buildInitialFrame lays out a fresh task's stack so that resuming it for
// the first time invokes trampoline with r0 holding a token identifying
// the task (the trampoline looks the task up and calls its TaskFunc,
// then calls Exit on return). It returns
// the stack pointer value to save into Task.sp: the address, within
// t.stack, of the r0 slot.
//
// stack is addressed as an array of words; the frame is placed at the
// top (high end) of the array, matching "stack grows down from the high
// end of the buffer" 
func buildInitialFrame(stack *[StackWords]uint32, token uint32, trampoline uint32) uintptr {
	top := StackWords
	base := top - frameWords

	for i := 0; i < frameWords; i++ {
		stack[base+i] = 0
	}
	stack[base+frameR0] = token
	stack[base+frameLR] = 0
	stack[base+frameCPSR] = cpsrSupervisorIRQEnabled
	stack[base+framePC] = trampoline

	return wordIndexToSP(stack, base)
}

// wordIndexToSP returns the address of stack[i] as a uintptr. Task.sp is
// stored as a uintptr (rather than a *uint32) so it has the same type on
// every build: the arm Switcher dereferences it as a raw pointer, while
// the goroutine Switcher never dereferences it at all and only uses it
// as an opaque "does this match what I handed out" token.
func wordIndexToSP(stack *[StackWords]uint32, i int) uintptr {
	return uintptr(unsafe.Pointer(&stack[i]))
}
