package game

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/degenlabs/purge-predictor-go/pkg/storage"
)

func TestArgmaxKeepsFirstMaximum(t *testing.T) {
	if got := argmax([]uint32{5, 5, 3}); got != 0 {
		t.Errorf("argmax([5,5,3]) = %d, want 0", got)
	}
	if got := argmax([]uint32{0, 0, 0}); got != 0 {
		t.Errorf("argmax(all zero) = %d, want 0", got)
	}
	if got := argmax([]uint32{1, 9, 9, 2}); got != 1 {
		t.Errorf("argmax([1,9,9,2]) = %d, want 1", got)
	}
}

func TestWinningTraitsSlot3PureRandom(t *testing.T) {
	// low 6 bits after the 6-bit shift all set
	var counts [80]uint32
	w := WinningTraits(uint256.NewInt(0xFFFF), counts)
	if w[3] != 192+63 {
		t.Errorf("slot 3 id = %d, want 255", w[3])
	}
}

func TestWinningTraitsFromCounts(t *testing.T) {
	var counts [80]uint32
	counts[3] = 9  // symbol 3 most burned
	counts[12] = 4 // color 4 most burned
	counts[20] = 2 // full trait 4 most burned

	rng := uint256.MustFromHex("0xabcdef12345678")
	w := WinningTraits(rng, counts)

	want := [4]uint16{3, 103, 132, 217}
	if w != want {
		t.Errorf("winning traits = %v, want %v", w, want)
	}
}

func TestEndgameBoostedShare(t *testing.T) {
	r := newFakeReader()

	exterminator := common.HexToAddress("0x1111111111111111111111111111111111111111")
	winner := common.HexToAddress("0x2222222222222222222222222222222222222222")

	// prevLevel 14: exterminator is element 13 of the level exterminators array
	r.setAddr(storage.DynamicArrayElemSlot(storage.Slot(slotLevelExterminators), 13), exterminator)

	// one burn ticket for trait 17 in level 14: winner index is 0 regardless
	// of entropy
	lenSlot := storage.NestedTicketSlot(storage.Slot(slotTraitBurnTicket), 14, 17)
	r.set(lenSlot, uint256.NewInt(1))
	r.setAddr(storage.DynamicArrayElemSlot(lenSlot, 0), winner)

	st := &State{
		Level:                 15,
		Phase:                 PhaseEndgame,
		LastExterminatedTrait: 17,
		CurrentPrizePool:      uint256.MustFromDecimal("100000000000000000000"),
	}

	rng := uint256.MustFromHex("0xabcdef0123456789abcdef0123456789abcdef0123456789abcdef0123456789")
	p, err := Predict(context.Background(), r, st, rng)
	if err != nil {
		t.Fatal(err)
	}
	eg := p.Endgame
	if eg == nil {
		t.Fatal("no endgame prediction")
	}

	// 14 % 10 == 4 and 14 != 4: boosted 40% share
	if !eg.Boosted {
		t.Error("expected boosted share at prevLevel 14")
	}
	if eg.ExterminatorShare.Dec() != "40000000000000000000" {
		t.Errorf("exterminator share = %s", eg.ExterminatorShare.Dec())
	}
	if eg.JackpotPool.Dec() != "60000000000000000000" {
		t.Errorf("jackpot pool = %s", eg.JackpotPool.Dec())
	}
	if !eg.HasExterminator || eg.Exterminator != exterminator {
		t.Errorf("exterminator = %s", eg.Exterminator.Hex())
	}
	if eg.Jackpot == nil || !eg.Jackpot.HasWinner {
		t.Fatal("expected a bucket-0 winner")
	}
	if eg.Jackpot.Winner != winner || eg.Jackpot.WinnerIndex != 0 {
		t.Errorf("winner = %s (index %d)", eg.Jackpot.Winner.Hex(), eg.Jackpot.WinnerIndex)
	}
	// bucket share is 2000 bps of the jackpot pool
	if eg.Jackpot.Share.Dec() != "12000000000000000000" {
		t.Errorf("bucket share = %s", eg.Jackpot.Share.Dec())
	}
}

func TestEndgameUnboostedShare(t *testing.T) {
	r := newFakeReader()
	lenSlot := storage.NestedTicketSlot(storage.Slot(slotTraitBurnTicket), 12, 5)
	r.set(lenSlot, uint256.NewInt(1))

	st := &State{
		Level:                 13,
		Phase:                 PhaseEndgame,
		LastExterminatedTrait: 5,
		CurrentPrizePool:      uint256.MustFromDecimal("100000000000000000000"),
	}
	p, err := Predict(context.Background(), r, st, uint256.NewInt(1))
	if err != nil {
		t.Fatal(err)
	}
	if p.Endgame.Boosted {
		t.Error("prevLevel 12 must not be boosted")
	}
	if p.Endgame.ExterminatorShare.Dec() != "30000000000000000000" {
		t.Errorf("share = %s", p.Endgame.ExterminatorShare.Dec())
	}
}

// Level 4 is carved out of the boost rule even though 4 % 10 == 4.
func TestEndgameLevelFourNotBoosted(t *testing.T) {
	st := &State{
		Level:                 5,
		Phase:                 PhaseEndgame,
		LastExterminatedTrait: 1,
		CurrentPrizePool:      uint256.NewInt(1000),
	}
	p, err := Predict(context.Background(), newFakeReader(), st, uint256.NewInt(1))
	if err != nil {
		t.Fatal(err)
	}
	if p.Endgame.Boosted {
		t.Error("prevLevel 4 must not be boosted")
	}
}

// A timed-out level performs no lookups at all: no exterminator read, no
// ticket read.
func TestEndgameTimeoutSkipsLookups(t *testing.T) {
	st := &State{
		Level:                 21,
		Phase:                 PhaseEndgame,
		LastExterminatedTrait: TraitTimeout,
		CurrentPrizePool:      uint256.MustFromDecimal("5000000000000000000"),
	}
	p, err := Predict(context.Background(), failReader{t}, st, uint256.NewInt(1))
	if err != nil {
		t.Fatal(err)
	}
	eg := p.Endgame
	if !eg.TimedOut {
		t.Error("expected timeout")
	}
	if eg.Jackpot != nil || eg.HasExterminator {
		t.Error("timeout must not produce payouts")
	}
	// prevLevel 20: the BAF distribution depends on external contract state
	if len(eg.Limitations) != 1 || eg.Limitations[0].Name != "BAF jackpot" {
		t.Errorf("limitations = %+v", eg.Limitations)
	}
}

func TestEndgameDecimatorLimitation(t *testing.T) {
	st := &State{
		Level:                 26, // prevLevel 25
		Phase:                 PhaseEndgame,
		LastExterminatedTrait: TraitTimeout,
		CurrentPrizePool:      uint256.NewInt(0),
	}
	p, err := Predict(context.Background(), failReader{t}, st, uint256.NewInt(1))
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Endgame.Limitations) != 1 || p.Endgame.Limitations[0].Name != "Decimator jackpot" {
		t.Errorf("limitations = %+v", p.Endgame.Limitations)
	}
}

// Winner selection: slice mod candidate count picks the list index. With a
// crafted entropy value the slice is exactly 23, so 7 candidates select
// index 2, the third address.
func TestResolveBucketWinnerModulo(t *testing.T) {
	r := newFakeReader()
	third := common.HexToAddress("0x3333333333333333333333333333333333333333")

	lenSlot := storage.NestedTicketSlot(storage.Slot(slotTraitBurnTicket), 3, 5)
	r.set(lenSlot, uint256.NewInt(7))
	r.setAddr(storage.DynamicArrayElemSlot(lenSlot, 2), third)

	// e ^ (trait<<128) ^ (salt<<192) == 23
	e := new(uint256.Int).Lsh(uint256.NewInt(5), 128)
	e.Xor(e, new(uint256.Int).Lsh(uint256.NewInt(200), 192))
	e.Xor(e, uint256.NewInt(23))

	out, err := resolveBucketWinner(context.Background(), r, 3, 5, 0, uint256.NewInt(0), e)
	if err != nil {
		t.Fatal(err)
	}
	if !out.HasWinner || out.WinnerIndex != 2 || out.Winner != third {
		t.Errorf("outcome = %+v", out)
	}
}

func TestResolveBucketWinnerEmptyList(t *testing.T) {
	out, err := resolveBucketWinner(context.Background(), newFakeReader(), 3, 5, 0, uint256.NewInt(0), uint256.NewInt(1))
	if err != nil {
		t.Fatal(err)
	}
	if out.HasWinner {
		t.Error("empty candidate list must not produce a winner")
	}
	if !out.Candidates.IsZero() {
		t.Errorf("candidates = %s", out.Candidates.Dec())
	}
}

// Full daily flow against a reference trace: the entropy state threads
// across buckets with each bucket's share folded in before selection.
func TestPredictDailyReferenceTrace(t *testing.T) {
	r := newFakeReader()

	addrs := map[int]common.Address{
		0: common.HexToAddress("0xaaa0000000000000000000000000000000000000"),
		2: common.HexToAddress("0xaaa2000000000000000000000000000000000000"),
		3: common.HexToAddress("0xaaa3000000000000000000000000000000000000"),
	}

	// expected traits for this rng/count combination: [3, 103, 132, 217]
	lengths := map[uint16]uint64{3: 5, 103: 0, 132: 3, 217: 7}
	winnerIdx := map[uint16]uint64{3: 0, 132: 1, 217: 5}
	bucketOf := map[uint16]int{3: 0, 132: 2, 217: 3}

	for trait, n := range lengths {
		lenSlot := storage.NestedTicketSlot(storage.Slot(slotTraitBurnTicket), 7, uint64(trait))
		r.set(lenSlot, uint256.NewInt(n))
		if n > 0 {
			r.setAddr(storage.DynamicArrayElemSlot(lenSlot, winnerIdx[trait]), addrs[bucketOf[trait]])
		}
	}

	st := &State{
		Level:            7,
		Phase:            PhaseBurn,
		JackpotCounter:   2,
		CurrentPrizePool: uint256.MustFromDecimal("1000000000000000000"),
	}
	st.DailyBurnCounts[3] = 9
	st.DailyBurnCounts[12] = 4
	st.DailyBurnCounts[20] = 2

	rng := uint256.MustFromHex("0xabcdef12345678")
	p, err := Predict(context.Background(), r, st, rng)
	if err != nil {
		t.Fatal(err)
	}
	d := p.Daily
	if d == nil {
		t.Fatal("no daily prediction")
	}

	if d.WinningTraits != [4]uint16{3, 103, 132, 217} {
		t.Fatalf("winning traits = %v", d.WinningTraits)
	}
	// counter 2 selects 746 bps of the prize pool
	if d.DailyAmount.Dec() != "74600000000000000" {
		t.Errorf("daily amount = %s", d.DailyAmount.Dec())
	}

	for _, b := range d.Buckets {
		if b.Share.Dec() != "14920000000000000" {
			t.Errorf("bucket %d share = %s", b.Bucket, b.Share.Dec())
		}
	}

	if !d.Buckets[0].HasWinner || d.Buckets[0].WinnerIndex != 0 || d.Buckets[0].Winner != addrs[0] {
		t.Errorf("bucket 0 = %+v", d.Buckets[0])
	}
	if d.Buckets[1].HasWinner {
		t.Errorf("bucket 1 has no candidates, got %+v", d.Buckets[1])
	}
	if !d.Buckets[2].HasWinner || d.Buckets[2].WinnerIndex != 1 || d.Buckets[2].Winner != addrs[2] {
		t.Errorf("bucket 2 = %+v", d.Buckets[2])
	}
	if !d.Buckets[3].HasWinner || d.Buckets[3].WinnerIndex != 5 || d.Buckets[3].Winner != addrs[3] {
		t.Errorf("bucket 3 = %+v", d.Buckets[3])
	}
}

func TestPredictPurchaseNotImplemented(t *testing.T) {
	st := &State{Phase: PhasePurchase}
	p, err := Predict(context.Background(), failReader{t}, st, uint256.NewInt(1))
	if err != nil {
		t.Fatal(err)
	}
	if p.NotImplemented == "" || p.Endgame != nil || p.Daily != nil {
		t.Errorf("prediction = %+v", p)
	}
}

func TestPredictUnrecognizedPhase(t *testing.T) {
	st := &State{Phase: Phase(9)}
	p, err := Predict(context.Background(), failReader{t}, st, uint256.NewInt(1))
	if err != nil {
		t.Fatal(err)
	}
	if !p.Unrecognized {
		t.Error("phase 9 must be reported as unrecognized")
	}
}
