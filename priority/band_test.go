package priority

import "testing"

func TestResolveSaturates(t *testing.T) {
	const min, max = 1, 99

	if got := Max().Resolve(min, max); got != max {
		t.Fatalf("Max().Resolve = %d, want %d", got, max)
	}
	if got := Min().Resolve(min, max); got != min {
		t.Fatalf("Min().Resolve = %d, want %d", got, min)
	}
	if got := Max().Minus(3).Resolve(min, max); got != max-3 {
		t.Fatalf("Max()-3 = %d, want %d", got, max-3)
	}
	if got := Min().Plus(1).Resolve(min, max); got != min+1 {
		t.Fatalf("Min()+1 = %d, want %d", got, min+1)
	}
	// Saturation: a chain of decrements past the floor must not wrap.
	if got := Max().Minus(1000).Resolve(min, max); got != min {
		t.Fatalf("Max()-1000 = %d, want saturated %d", got, min)
	}
}

func TestStrictlyDecreasingChain(t *testing.T) {
	const min, max = 0, 100
	prio := Max().Minus(3)
	var prev int
	for i := 0; i < 5; i++ {
		v := prio.Resolve(min, max)
		if i > 0 && v >= prev {
			t.Fatalf("priority chain not strictly decreasing: %d then %d", prev, v)
		}
		prev = v
		prio = prio.Minus(1)
	}
}
