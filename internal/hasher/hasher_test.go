package hasher

import (
	"bytes"
	"testing"

	"lukechampine.com/blake3"
)

func TestTaggedHashMatchesManualConstruction(t *testing.T) {
	data := []byte("some output data")
	got := Hashed(TagDerive, data)

	h := blake3.New(OutputBytesLen, nil)
	h.Write([]byte{'D'})
	h.Write(data)
	want := h.Sum(nil)

	if !bytes.Equal(got[:], want) {
		t.Fatalf("tagged hash mismatch: got %x want %x", got, want)
	}
}

func TestTagsAreDomainSeparated(t *testing.T) {
	tags := []Tag{TagAddress, TagBlind, TagDerive, TagNonce, TagOutKey,
		TagSendKey, TagViewTag, TagNonceMask, TagValueMask}
	data := []byte("same input")

	seen := make(map[[OutputBytesLen]byte]Tag)
	for _, tag := range tags {
		sum := Hashed(tag, data)
		if prev, ok := seen[sum]; ok {
			t.Fatalf("tags %c and %c collide", prev, tag)
		}
		seen[sum] = tag
	}

	untagged := New()
	untagged.Write(data)
	if sum := untagged.Sum(); seen[sum] != 0 {
		t.Fatal("untagged hash collides with a tagged one")
	}
}

func TestIncrementalWritesEqualOneShot(t *testing.T) {
	hs := NewTagged(TagSendKey)
	hs.Write([]byte("part one "))
	hs.Write([]byte("part two"))
	got := hs.Sum()

	want := Hashed(TagSendKey, []byte("part one part two"))
	if got != want {
		t.Fatalf("incremental hash mismatch: got %x want %x", got, want)
	}
}
