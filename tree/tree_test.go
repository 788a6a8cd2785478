package tree

import (
	"errors"
	"math/rand"
	"strings"
	"testing"

	icza "github.com/icza/huffman"
)

func frequenciesOf(s string) []uint64 {
	freqs := make([]uint64, Symbols)
	for i := 0; i < len(s); i++ {
		freqs[s[i]]++
	}
	return freqs
}

func mustBuild(t *testing.T, freqs []uint64) *Tree {
	t.Helper()
	tr, err := Build(freqs)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return tr
}

func mustCodes(t *testing.T, tr *Tree) *CodeTable {
	t.Helper()
	ct, err := tr.Codes()
	if err != nil {
		t.Fatalf("Codes: %v", err)
	}
	return ct
}

func assertPrefixFree(t *testing.T, ct *CodeTable) {
	t.Helper()
	var codes []string
	for _, c := range ct {
		if c.Len > 0 {
			codes = append(codes, c.String())
		}
	}
	for i := range codes {
		for j := range codes {
			if i != j && strings.HasPrefix(codes[j], codes[i]) {
				t.Fatalf("code %q is a prefix of %q", codes[i], codes[j])
			}
		}
	}
}

func TestBuildAbracadabra(t *testing.T) {
	tr := mustBuild(t, frequenciesOf("abracadabra"))
	if got := tr.Freq(); got != 11 {
		t.Fatalf("root frequency: got %d want 11", got)
	}
	if got := tr.Leaves(); got != 5 {
		t.Fatalf("leaves: got %d want 5", got)
	}
	if got := tr.Len(); got != 9 {
		t.Fatalf("nodes: got %d want 9", got)
	}

	ct := mustCodes(t, tr)
	want := map[byte]string{
		'a': "0",
		'c': "100",
		'd': "101",
		'b': "110",
		'r': "111",
	}
	for sym, code := range want {
		c, ok := ct.Lookup(sym)
		if !ok {
			t.Fatalf("missing code for %q", sym)
		}
		if c.String() != code {
			t.Errorf("code for %q: got %q want %q", sym, c.String(), code)
		}
	}
	if ct.Len() != len(want) {
		t.Fatalf("code count: got %d want %d", ct.Len(), len(want))
	}
	assertPrefixFree(t, ct)
}

func TestBuildSingleSymbol(t *testing.T) {
	tr := mustBuild(t, frequenciesOf("aaaa"))
	if !tr.Single() {
		t.Fatalf("expected single-leaf tree")
	}
	if got := tr.Freq(); got != 4 {
		t.Fatalf("root frequency: got %d want 4", got)
	}
	ct := mustCodes(t, tr)
	c, ok := ct.Lookup('a')
	if !ok || c.Len != 1 || c.Bits != 0 {
		t.Fatalf("single symbol code: got %+v ok=%v want {0 1}", c, ok)
	}
	if _, ok := tr.Step(tr.Root(), false); ok {
		t.Fatalf("step from a leaf must fail")
	}
}

func TestBuildErrors(t *testing.T) {
	if _, err := Build(make([]uint64, Symbols)); !errors.Is(err, ErrNoSymbols) {
		t.Fatalf("all-zero frequencies: got %v want ErrNoSymbols", err)
	}
	if _, err := Build(make([]uint64, Symbols+1)); !errors.Is(err, ErrTooManySymbols) {
		t.Fatalf("oversized frequencies: got %v want ErrTooManySymbols", err)
	}
}

func TestBuildTieBreakIsDeterministic(t *testing.T) {
	// All frequencies equal: FIFO tie-break must give the same shape every time.
	freqs := make([]uint64, Symbols)
	for i := range freqs {
		freqs[i] = 7
	}
	first := mustCodes(t, mustBuild(t, freqs))
	for i := 0; i < 10; i++ {
		again := mustCodes(t, mustBuild(t, freqs))
		if *again != *first {
			t.Fatalf("build %d produced a different code table", i)
		}
	}
	for sym, c := range first {
		if c.Len != 8 {
			t.Fatalf("uniform 256 symbols: code for %d has length %d, want 8", sym, c.Len)
		}
	}
}

func TestRootFrequencyEqualsTotal(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		freqs := make([]uint64, Symbols)
		var total uint64
		present := 1 + rng.Intn(Symbols)
		for s := 0; s < present; s++ {
			f := uint64(rng.Intn(1000))
			freqs[rng.Intn(Symbols)] += f
			total += f
		}
		if total == 0 {
			continue
		}
		tr := mustBuild(t, freqs)
		if tr.Freq() != total {
			t.Fatalf("iteration %d: root frequency %d, total %d", i, tr.Freq(), total)
		}
		assertPrefixFree(t, mustCodes(t, tr))
	}
}

func TestCodesMatchIndependentHuffmanCost(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 30; i++ {
		freqs := make([]uint64, Symbols)
		var leaves []*icza.Node
		n := 2 + rng.Intn(60)
		for s := 0; s < n; s++ {
			freqs[s] = uint64(1 + rng.Intn(500))
			leaves = append(leaves, &icza.Node{Value: icza.ValueType(s), Count: int(freqs[s])})
		}
		icza.Build(append([]*icza.Node(nil), leaves...))

		var want uint64
		for _, leaf := range leaves {
			_, bits := leaf.Code()
			want += uint64(leaf.Count) * uint64(bits)
		}

		ct := mustCodes(t, mustBuild(t, freqs))
		var got uint64
		for s, f := range freqs {
			got += f * uint64(ct[s].Len)
		}
		if got != want {
			t.Fatalf("iteration %d: weighted code length %d, reference %d", i, got, want)
		}
	}
}

func TestCodesTooLong(t *testing.T) {
	// Fibonacci weights force a maximally skewed tree.
	freqs := make([]uint64, Symbols)
	a, b := uint64(1), uint64(1)
	for s := 0; s < 70; s++ {
		freqs[s] = a
		a, b = b, a+b
	}
	if _, err := mustBuild(t, freqs).Codes(); !errors.Is(err, ErrCodeTooLong) {
		t.Fatalf("skewed tree: got %v want ErrCodeTooLong", err)
	}
}

func TestStep(t *testing.T) {
	tr := mustBuild(t, frequenciesOf("abracadabra"))
	// "110" walks to 'b'.
	h := tr.Root()
	for _, bit := range []bool{true, true, false} {
		var ok bool
		h, ok = tr.Step(h, bit)
		if !ok {
			t.Fatalf("step failed")
		}
	}
	n := tr.Node(h)
	if !n.IsLeaf() || n.Symbol != 'b' {
		t.Fatalf("walk 110: got %+v want leaf 'b'", n)
	}
	if _, ok := tr.Step(-1, false); ok {
		t.Fatalf("step from invalid handle must fail")
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	inputs := []string{"a", "ab", "abracadabra", "the quick brown fox jumps over the lazy dog"}
	for _, in := range inputs {
		tr := mustBuild(t, frequenciesOf(in))
		payload, err := tr.MarshalBinary()
		if err != nil {
			t.Fatalf("%q: marshal: %v", in, err)
		}
		back, err := UnmarshalTree(payload)
		if err != nil {
			t.Fatalf("%q: unmarshal: %v", in, err)
		}
		if back.Len() != tr.Len() {
			t.Fatalf("%q: nodes: got %d want %d", in, back.Len(), tr.Len())
		}
		if *mustCodes(t, back) != *mustCodes(t, tr) {
			t.Fatalf("%q: code tables differ after round trip", in)
		}
	}
}

func TestMarshalSingleLeaf(t *testing.T) {
	payload, err := mustBuild(t, frequenciesOf("zzz")).MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	// 1 + 'z' (0x7a) = 1011 1101 0 -> 0xbd 0x00
	if len(payload) != 2 || payload[0] != 0xbd || payload[1] != 0x00 {
		t.Fatalf("single leaf payload: got %x", payload)
	}
}

func TestUnmarshalRejectsMalformed(t *testing.T) {
	valid, err := mustBuild(t, frequenciesOf("abracadabra")).MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}

	cases := map[string][]byte{
		"empty":     nil,
		"truncated": valid[:len(valid)-2],
		"trailing":  append(append([]byte(nil), valid...), 0x00),
		// internal, leaf 'a', leaf 'a'
		"duplicate": {0x58, 0x6c, 0x20},
		// an endless chain of internal tags
		"too deep": make([]byte, 128),
	}
	for name, payload := range cases {
		if _, err := UnmarshalTree(payload); !errors.Is(err, ErrMalformed) {
			t.Errorf("%s: got %v want ErrMalformed", name, err)
		}
	}
}
