package typepool

import "testing"

// TestInterningIsStable verifies spec.md property 1: re-invoking the same
// constructor with equal arguments returns the same TypeID.
func TestInterningIsStable(t *testing.T) {
	p := NewPool()
	i32 := p.BuiltinID(I32)

	a := p.MakeBorrow(i32, true)
	b := p.MakeBorrow(i32, true)
	if a != b {
		t.Fatalf("MakeBorrow(i32, true) not stable: %d != %d", a, b)
	}

	c := p.MakeBorrow(i32, false)
	if c == a {
		t.Fatalf("MakeBorrow(i32, true) and MakeBorrow(i32, false) must differ")
	}

	opt1 := p.MakeOptional(i32)
	opt2 := p.MakeOptional(i32)
	if opt1 != opt2 {
		t.Fatalf("MakeOptional not stable")
	}

	n1 := p.MakeNamedUserPath([]string{"Foo", "Bar"}, nil)
	n2 := p.MakeNamedUserPath([]string{"Foo", "Bar"}, nil)
	if n1 != n2 {
		t.Fatalf("MakeNamedUserPath not stable")
	}
}

func TestErrorIsIDZero(t *testing.T) {
	p := NewPool()
	if p.Error() != 0 {
		t.Fatalf("Error() = %d, want 0", p.Error())
	}
}

func TestPrettyPrint(t *testing.T) {
	p := NewPool()
	i32 := p.BuiltinID(I32)
	mutBorrow := p.MakeBorrow(i32, true)
	if got := p.Print(mutBorrow, false); got != "&mut i32" {
		t.Fatalf("Print(&mut i32) = %q", got)
	}
	esc := p.MakeEscape(i32)
	if got := p.Print(esc, false); got != "^&i32" {
		t.Fatalf("Print(^&i32) = %q", got)
	}
	fn := p.MakeFn(i32, []FnParam{{Type: i32, Label: "x"}}, 0)
	if got := p.Print(fn, true); got != "fn(i32) -> i32" {
		t.Fatalf("export Print(fn) = %q", got)
	}
	if got := p.Print(fn, false); got != "fn(x: i32) -> i32" {
		t.Fatalf("Print(fn) = %q", got)
	}
}

func TestInternIdentFallsBackToNamedUser(t *testing.T) {
	p := NewPool()
	s := p.InternIdent("string")
	if p.Get(s).Kind != KindNamedUser {
		t.Fatalf("expected NamedUser for unrecognized ident")
	}
	i32 := p.InternIdent("i32")
	if i32 != p.BuiltinID(I32) {
		t.Fatalf("expected builtin lookup for i32")
	}
}
