// Package game reconstructs the game contract's internal state from raw
// storage words and predicts the winners and transfers of the next
// state-advancing transaction.
package game

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/degenlabs/purge-predictor-go/pkg/storage"
)

// Fixed storage slots of the game contract (DegenerusGameStorage layout).
const (
	slotLevelGameState       = 0
	slotJackpotCounter       = 1
	slotLastPrizePool        = 4
	slotCurrentPrizePool     = 5
	slotRewardPool           = 7
	slotDecimatorHundredPool = 9
	slotBafHundredPool       = 10
	slotLevelExterminators   = 20
	slotTraitBurnTicket      = 24
	slotDailyBurnCount       = 25 // first of 10 packed count words
)

// TraitTimeout is the lastExterminatedTrait sentinel for a level that timed
// out with no exterminator.
const TraitTimeout = 420

// Phase is the contract's gameState enum.
type Phase uint8

const (
	PhaseUnknown Phase = iota
	PhaseEndgame
	PhasePurchase
	PhaseBurn
)

func (p Phase) String() string {
	switch p {
	case PhaseUnknown:
		return "Unknown"
	case PhaseEndgame:
		return "Endgame"
	case PhasePurchase:
		return "Purchase"
	case PhaseBurn:
		return "Burn"
	}
	return fmt.Sprintf("Phase(%d)", uint8(p))
}

// Slot 0 packs the level/phase scalars.
var slot0Layout = storage.Layout{
	{Name: "levelStartTime", Bits: 48, Shift: 0},
	{Name: "dailyIdx", Bits: 48, Shift: 48},
	{Name: "rngRequestTime", Bits: 48, Shift: 96},
	{Name: "airdropMapsProcessedCount", Bits: 32, Shift: 144},
	{Name: "airdropIndex", Bits: 32, Shift: 176},
	{Name: "level", Bits: 24, Shift: 208},
	{Name: "lastExterminatedTrait", Bits: 16, Shift: 232},
	{Name: "gameState", Bits: 8, Shift: 248},
}

// Slot 1 packs the airdrop/jackpot counters.
var slot1Layout = storage.Layout{
	{Name: "traitRebuildCursor", Bits: 32, Shift: 0},
	{Name: "airdropMultiplier", Bits: 32, Shift: 32},
	{Name: "jackpotCounter", Bits: 8, Shift: 64},
}

// Each daily burn count word packs 8 uint32 tallies; field j of word i
// covers bucket 8*i + j.
var burnCountLayout = func() storage.Layout {
	l := make(storage.Layout, 8)
	for j := range l {
		l[j] = storage.Field{Name: fmt.Sprintf("count%d", j), Bits: 32, Shift: uint(j) * 32}
	}
	return l
}()

// WordReader is the chain-data source the engine reads raw words through.
type WordReader interface {
	Word(ctx context.Context, slot *uint256.Int) (*uint256.Int, error)
}

// State is the decoded, read-only snapshot of the contract's game state.
// It is recomputed fresh for every prediction run.
type State struct {
	Level                 uint32
	Phase                 Phase
	LastExterminatedTrait uint16
	JackpotCounter        uint8
	LevelStartTime        uint64
	DailyIdx              uint64

	CurrentPrizePool     *uint256.Int
	RewardPool           *uint256.Int
	LastPrizePool        *uint256.Int
	DecimatorHundredPool *uint256.Int
	BafHundredPool       *uint256.Int

	// DailyBurnCounts holds the burn tally for each (symbol, color, trait)
	// bucket: 0..7 symbols, 8..15 colors, 16..79 full traits.
	DailyBurnCounts [80]uint32
}

// LoadState assembles a State snapshot from the reader. Layouts are
// validated first; a violation means the decoder tables no longer match the
// deployed contract version and is fatal.
func LoadState(ctx context.Context, r WordReader) (*State, error) {
	for _, l := range []storage.Layout{slot0Layout, slot1Layout, burnCountLayout} {
		if err := l.Validate(); err != nil {
			return nil, err
		}
	}

	st := &State{}

	word0, err := r.Word(ctx, storage.Slot(slotLevelGameState))
	if err != nil {
		return nil, err
	}
	f0 := storage.Decode(word0, slot0Layout)
	st.Level = uint32(f0["level"].Uint64())
	st.Phase = Phase(f0["gameState"].Uint64())
	st.LastExterminatedTrait = uint16(f0["lastExterminatedTrait"].Uint64())
	st.LevelStartTime = f0["levelStartTime"].Uint64()
	st.DailyIdx = f0["dailyIdx"].Uint64()

	word1, err := r.Word(ctx, storage.Slot(slotJackpotCounter))
	if err != nil {
		return nil, err
	}
	f1 := storage.Decode(word1, slot1Layout)
	st.JackpotCounter = uint8(f1["jackpotCounter"].Uint64())

	pools := []struct {
		slot uint64
		dst  **uint256.Int
	}{
		{slotCurrentPrizePool, &st.CurrentPrizePool},
		{slotRewardPool, &st.RewardPool},
		{slotLastPrizePool, &st.LastPrizePool},
		{slotDecimatorHundredPool, &st.DecimatorHundredPool},
		{slotBafHundredPool, &st.BafHundredPool},
	}
	for _, p := range pools {
		w, err := r.Word(ctx, storage.Slot(p.slot))
		if err != nil {
			return nil, err
		}
		*p.dst = w
	}

	for i := 0; i < 10; i++ {
		w, err := r.Word(ctx, storage.Slot(slotDailyBurnCount+uint64(i)))
		if err != nil {
			return nil, err
		}
		fields := storage.Decode(w, burnCountLayout)
		for j := 0; j < 8; j++ {
			st.DailyBurnCounts[8*i+j] = uint32(fields[fmt.Sprintf("count%d", j)].Uint64())
		}
	}

	return st, nil
}
