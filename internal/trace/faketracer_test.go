package trace

import "syscall"

// fakeTracer is a byte-addressable, in-memory stand-in for a ptraced
// inferior, letting register and memory logic be exercised without a real
// process (the reason Tracer is an interface at all).
type fakeTracer struct {
	regs syscall.PtraceRegs
	mem  map[uintptr]byte
}

func newFakeTracer() *fakeTracer {
	return &fakeTracer{mem: make(map[uintptr]byte)}
}

func (f *fakeTracer) PID() int { return 4242 }

func (f *fakeTracer) GetRegs() (*syscall.PtraceRegs, error) {
	regs := f.regs
	return &regs, nil
}

func (f *fakeTracer) SetRegs(regs *syscall.PtraceRegs) error {
	f.regs = *regs
	return nil
}

func (f *fakeTracer) PeekData(addr uintptr, out []byte) (int, error) {
	for i := range out {
		out[i] = f.mem[addr+uintptr(i)]
	}
	return len(out), nil
}

func (f *fakeTracer) PokeData(addr uintptr, data []byte) (int, error) {
	for i, b := range data {
		f.mem[addr+uintptr(i)] = b
	}
	return len(data), nil
}

func (f *fakeTracer) SingleStep() error { return nil }

func (f *fakeTracer) Cont(sig int) error { return nil }

func (f *fakeTracer) Wait() (syscall.WaitStatus, error) { return 0, nil }

func (f *fakeTracer) Siginfo() (int32, error) { return 0, nil }
