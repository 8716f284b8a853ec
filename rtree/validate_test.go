package rtree

import "testing"

func TestValidateHealthyTree(t *testing.T) {
	tree := newTestTree(t, smallCapacityConfig(4))

	for i := int64(0); i < 50; i++ {
		x := float64(i % 10)
		y := float64(i / 10)
		if err := tree.Insert(i, unitSquare(x*2, y*2), nil); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}
	for i := int64(0); i < 50; i += 3 {
		if err := tree.Delete(i, unitSquare(float64(i%10)*2, float64(i/10)*2)); err != nil {
			t.Fatalf("Delete(%d): %v", i, err)
		}
	}

	if err := tree.Validate(); err != nil {
		t.Fatalf("Validate() on a healthy tree: %v", err)
	}
}

func TestValidateDetectsStaleParentMBR(t *testing.T) {
	tree := newTestTree(t, smallCapacityConfig(4))
	for i := int64(0); i < 8; i++ {
		if err := tree.Insert(i, unitSquare(float64(i)*2, 0), nil); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}

	root, err := tree.readNode(tree.header.rootID)
	if err != nil {
		t.Fatalf("readNode(root): %v", err)
	}
	if len(root.Entries) == 0 {
		t.Fatal("expected a populated root")
	}
	root.Entries[0].MBR = unitSquare(1000, 1000)
	if err := tree.writeNode(root); err != nil {
		t.Fatalf("writeNode: %v", err)
	}

	if err := tree.Validate(); err == nil {
		t.Fatal("expected Validate to detect the corrupted parent-recorded child MBR")
	}
}
