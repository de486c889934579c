package trace

import "encoding/binary"

// WordSize is the machine word size assumed throughout the engine
// (§4.7's frame-pointer discipline is defined in terms of it).
const WordSize = 8

// ReadWord reads one machine word from the inferior's address space (C2).
// No alignment adjustment is performed; the caller is responsible (§4.2).
func ReadWord(t Tracer, addr uint64) (uint64, error) {
	buf := make([]byte, WordSize)
	if _, err := t.PeekData(uintptr(addr), buf); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf), nil
}

// WriteWord writes one machine word to the inferior's address space (C2).
func WriteWord(t Tracer, addr uint64, value uint64) error {
	buf := make([]byte, WordSize)
	binary.LittleEndian.PutUint64(buf, value)
	_, err := t.PokeData(uintptr(addr), buf)
	return err
}
