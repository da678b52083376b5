package cs

import (
	"context"
	"testing"
	"time"
)

func TestPKRTableBlocksWhenExhausted(t *testing.T) {
	p := newPKRTable()
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		if err := p.acquire(ctx); err != nil {
			t.Fatalf("acquire %d: %v", i, err)
		}
		p.reserve(uint32(i))
	}

	shortCtx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := p.acquire(shortCtx); err == nil {
		t.Fatal("expected acquire to block until ctx deadline with all 8 slots held")
	}
}

func TestPKRResolveReleasesSlot(t *testing.T) {
	p := newPKRTable()
	ctx := context.Background()

	if err := p.acquire(ctx); err != nil {
		t.Fatal(err)
	}
	seq := p.reserve(7)

	tid, ok := p.resolve(seq)
	if !ok || tid != 7 {
		t.Fatalf("resolve: got tid=%d ok=%v, want 7,true", tid, ok)
	}

	if err := p.acquire(ctx); err != nil {
		t.Fatal("expected the released slot to be immediately acquirable")
	}
}
