package world

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/thebreadishard/CosmicNetworkSim1/internal/core/ecs"
)

func addStars(st *State, n int) []ecs.EntityID {
	ids := make([]ecs.EntityID, n)
	for i := range ids {
		ids[i] = st.AddStar(&Star{Position: mgl64.Vec3{float64(i), 0, 0}, Lifetime: 100})
	}
	return ids
}

func TestAddConnectionIsIdempotentPerUnorderedPair(t *testing.T) {
	st := NewState()
	ids := addStars(st, 2)
	if !st.AddConnection(ids[0], ids[1], 0, 1) {
		t.Fatal("first creation failed")
	}
	if st.AddConnection(ids[0], ids[1], 0, 1) {
		t.Fatal("duplicate creation succeeded")
	}
	if st.AddConnection(ids[1], ids[0], 0, 1) {
		t.Fatal("reversed duplicate creation succeeded")
	}
	if st.ConnectionCount() != 1 {
		t.Fatalf("count = %d", st.ConnectionCount())
	}
	if st.AddConnection(ids[0], ids[0], 0, 0) {
		t.Fatal("self connection created")
	}
	if st.AddConnection(ids[0], ecs.NewEntityID(999, 0), 0, 0) {
		t.Fatal("connection to unknown star created")
	}
}

func TestRemoveStarLeavesOtherConnections(t *testing.T) {
	st := NewState()
	ids := addStars(st, 4)
	st.AddConnection(ids[0], ids[1], 0, 1)
	st.AddConnection(ids[1], ids[2], 0, 1)
	st.AddConnection(ids[2], ids[3], 0, 1)

	for _, k := range st.LinksOf(ids[1]) {
		st.RemoveConnection(k)
	}
	if !st.RemoveStar(ids[1]) {
		t.Fatal("remove failed")
	}
	if st.Star(ids[1]) != nil {
		t.Fatal("star still present")
	}
	if st.ConnectionCount() != 1 || !st.Connected(ids[2], ids[3]) {
		t.Fatal("unrelated connection disturbed")
	}
	if len(st.LinksOf(ids[0])) != 0 || len(st.LinksOf(ids[2])) != 1 {
		t.Fatal("adjacency not updated")
	}
	if st.RemoveStar(ids[1]) {
		t.Fatal("second removal reported success")
	}
}

func TestRemoveStarDropsLeftoverConnections(t *testing.T) {
	st := NewState()
	ids := addStars(st, 3)
	st.AddConnection(ids[0], ids[1], 0, 1)
	st.AddConnection(ids[0], ids[2], 0, 1)
	st.RemoveStar(ids[0])
	if st.ConnectionCount() != 0 {
		t.Fatalf("connections outlived their endpoint: %d", st.ConnectionCount())
	}
}

func TestPairKeyIsOrderIndependent(t *testing.T) {
	a, b := ecs.NewEntityID(3, 0), ecs.NewEntityID(1, 2)
	if MakePairKey(a, b) != MakePairKey(b, a) {
		t.Fatal("pair key depends on order")
	}
	k := MakePairKey(a, b)
	if k.Lo > k.Hi {
		t.Fatal("pair key not sorted")
	}
}
