// internal/event/signature.go
package event

import (
	"reflect"
	"strings"
)

// MaxArity - наибольшее число аргументов события.
const MaxArity = 4

// Signature - упорядоченные типы аргументов события. Сигнатуры равны, только
// если совпадают арность и каждый тип, поэтому имя, переиспользованное с
// другой формой, не дойдет до чужих колбэков.
type Signature struct {
	arity int
	types [MaxArity]reflect.Type
}

func signatureOf(types ...reflect.Type) Signature {
	var sig Signature
	sig.arity = len(types)
	copy(sig.types[:], types)
	return sig
}

// Arity возвращает число аргументов.
func (s Signature) Arity() int {
	return s.arity
}

// String выводит сигнатуру как "(float64, string)".
func (s Signature) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i := 0; i < s.arity; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(s.types[i].String())
	}
	b.WriteByte(')')
	return b.String()
}

// SignatureOf0 .. SignatureOf4 возвращают сигнатуру, которую используют
// Register и Trigger с такими параметрами типов.
func SignatureOf0() Signature { return signatureOf() }

func SignatureOf1[A any]() Signature { return signatureOf(reflect.TypeFor[A]()) }

func SignatureOf2[A, B any]() Signature {
	return signatureOf(reflect.TypeFor[A](), reflect.TypeFor[B]())
}

func SignatureOf3[A, B, C any]() Signature {
	return signatureOf(reflect.TypeFor[A](), reflect.TypeFor[B](), reflect.TypeFor[C]())
}

func SignatureOf4[A, B, C, D any]() Signature {
	return signatureOf(reflect.TypeFor[A](), reflect.TypeFor[B](), reflect.TypeFor[C](), reflect.TypeFor[D]())
}
