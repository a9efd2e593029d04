package channelmap

import (
	"errors"
	"testing"
)

func TestResolveAllChannels(t *testing.T) {
	for channel := MinChannel; channel <= MaxChannel; channel++ {
		resolved, err := Resolve(channel)
		if err != nil {
			t.Fatalf("resolve %d: %v", channel, err)
		}
		wantPosition := ((channel - 1) % BankSize) + 1
		if resolved.PositionInBank != wantPosition {
			t.Fatalf("channel %d: expected position %d, got %d", channel, wantPosition, resolved.PositionInBank)
		}
		wantBank := BankA
		if channel > BankSize {
			wantBank = BankB
		}
		if resolved.Bank != wantBank {
			t.Fatalf("channel %d: expected bank %s, got %s", channel, wantBank, resolved.Bank)
		}
		if resolved.Index != channel {
			t.Fatalf("channel %d: index mismatch %d", channel, resolved.Index)
		}
	}
}

func TestResolveSharedReferenceTable(t *testing.T) {
	// Channels at the same in-bank position share the reference resistance.
	for position := 1; position <= BankSize; position++ {
		a, err := Resolve(position)
		if err != nil {
			t.Fatalf("resolve bank A position %d: %v", position, err)
		}
		b, err := Resolve(position + BankSize)
		if err != nil {
			t.Fatalf("resolve bank B position %d: %v", position, err)
		}
		if a.Reference != b.Reference {
			t.Fatalf("position %d: bank A reference %f != bank B reference %f", position, a.Reference, b.Reference)
		}
		want, ok := ReferenceForPosition(position)
		if !ok || a.Reference != want {
			t.Fatalf("position %d: reference table mismatch", position)
		}
	}
}

func TestResolveOutOfRange(t *testing.T) {
	for _, channel := range []int{0, 33, -1, 100} {
		if _, err := Resolve(channel); !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("resolve %d: expected ErrOutOfRange, got %v", channel, err)
		}
	}
}

func TestReferenceForPositionBounds(t *testing.T) {
	if _, ok := ReferenceForPosition(0); ok {
		t.Fatal("expected position 0 to be invalid")
	}
	if _, ok := ReferenceForPosition(17); ok {
		t.Fatal("expected position 17 to be invalid")
	}
	if value, ok := ReferenceForPosition(1); !ok || value != 300 {
		t.Fatalf("expected first reference 300, got %f", value)
	}
	if value, ok := ReferenceForPosition(16); !ok || value != 15000 {
		t.Fatalf("expected last reference 15000, got %f", value)
	}
}
