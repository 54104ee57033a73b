package raritystaking

import "testing"

func TestBuildRarityTreeProofsVerify(t *testing.T) {
	for _, size := range []int{1, 2, 3, 5, 8, 13} {
		entries := make([]RarityEntry, size)
		for i := range entries {
			entries[i] = RarityEntry{TokenID: uint64(i + 1), Score: uint64(300_000 + i*7)}
		}
		root, proven := BuildRarityTree(entries)
		if root == ([32]byte{}) {
			t.Fatalf("size %d: empty root", size)
		}
		for _, entry := range proven {
			leaf := RarityLeaf(entry.TokenID, entry.Score)
			if !VerifyRarityProof(root, leaf, entry.Proof) {
				t.Fatalf("size %d: proof for token %d does not verify", size, entry.TokenID)
			}
			tampered := RarityLeaf(entry.TokenID, entry.Score+1)
			if VerifyRarityProof(root, tampered, entry.Proof) {
				t.Fatalf("size %d: tampered score verified for token %d", size, entry.TokenID)
			}
		}
	}
}

func TestBuildRarityTreeSingleLeaf(t *testing.T) {
	root, proven := BuildRarityTree([]RarityEntry{{TokenID: 7, Score: 42}})
	if root != RarityLeaf(7, 42) {
		t.Fatalf("single entry root must equal its leaf")
	}
	if len(proven[0].Proof) != 0 {
		t.Fatalf("single entry needs no proof")
	}
}

func TestBuildRarityTreeEmpty(t *testing.T) {
	root, proven := BuildRarityTree(nil)
	if root != ([32]byte{}) || len(proven) != 0 {
		t.Fatalf("empty dataset must yield zero root")
	}
}

func TestHashPairIsOrderIndependent(t *testing.T) {
	a := RarityLeaf(1, 1)
	b := RarityLeaf(2, 2)
	if hashPair(a, b) != hashPair(b, a) {
		t.Fatalf("pair hashing must sort inputs")
	}
}
