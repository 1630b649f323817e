package symexpr

import (
	"fmt"
	"strings"
)

// DomainError reports a non-finite or out-of-domain evaluation, such as
// the logarithm of a non-positive number or division by zero.
type DomainError struct {
	Op      string
	Operand float64
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("domain error: %s of %v", e.Op, e.Operand)
}

// MissingBindingError reports a variable with no entry in the
// name-to-index map and no state-variable binding.
type MissingBindingError struct {
	Name string
}

func (e *MissingBindingError) Error() string {
	return fmt.Sprintf("no binding for variable %q", e.Name)
}

// UnknownSymbolError reports a SymbolRef absent from the symbol table.
type UnknownSymbolError struct {
	Name string
}

func (e *UnknownSymbolError) Error() string {
	return fmt.Sprintf("unknown symbol %q", e.Name)
}

// SymbolCycleError reports a cyclic chain of symbol references.
type SymbolCycleError struct {
	Chain []string
}

func (e *SymbolCycleError) Error() string {
	return fmt.Sprintf("symbol cycle: %s", strings.Join(e.Chain, " -> "))
}
