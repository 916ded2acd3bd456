package game

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/degenlabs/purge-predictor-go/pkg/entropy"
	"github.com/degenlabs/purge-predictor-go/pkg/storage"
)

// DailyJackpotBps is the per-day prize-pool slice schedule, indexed by the
// jackpot counter (basis points of currentPrizePool).
var DailyJackpotBps = [10]uint64{610, 677, 746, 813, 881, 949, 1017, 1085, 1153, 1225}

// Each trait bucket of a jackpot receives 2000 bps of the jackpot amount.
const traitBucketBps = 2000

// Winner-selection salts start at 200 and increment per bucket index on the
// shared _resolveTraitWinners path.
const bucketSaltBase = 200

// Limitation is a distribution whose outcome depends on state this engine
// cannot reconstruct from the game contract's storage alone. It is a
// reported result, not an error.
type Limitation struct {
	Name   string
	Reason string
}

const externalJackpotState = "winners depend on the external jackpot contract's state, which is not reconstructable from this contract's storage"

// BucketOutcome is the predicted result of one trait bucket: the monetary
// share folded into the entropy, the candidate ticket count, and the chosen
// winner when any candidates exist.
type BucketOutcome struct {
	Bucket      int
	TraitID     uint16
	Share       *uint256.Int
	Candidates  *uint256.Int
	HasWinner   bool
	WinnerIndex uint64
	Winner      common.Address
}

// EndgamePrediction is the outcome of advancing out of the Endgame phase.
type EndgamePrediction struct {
	PrevLevel         uint32
	TimedOut          bool
	Boosted           bool
	ExterminatorShare *uint256.Int
	JackpotPool       *uint256.Int
	HasExterminator   bool
	Exterminator      common.Address
	Jackpot           *BucketOutcome
	Limitations       []Limitation
}

// DailyPrediction is the outcome of a daily-jackpot advance in the Burn
// phase.
type DailyPrediction struct {
	JackpotCounter uint8
	DailyAmount    *uint256.Int
	WinningTraits  [4]uint16
	Buckets        [4]BucketOutcome
}

// Prediction is the full structured answer for one run. Exactly one of
// Endgame/Daily is set for a supported phase; NotImplemented and
// Unrecognized cover the rest.
type Prediction struct {
	State          *State
	RngWord        *uint256.Int
	Endgame        *EndgamePrediction
	Daily          *DailyPrediction
	NotImplemented string
	Unrecognized   bool
}

// Predict classifies the observed phase and computes what the contract's
// advance transaction would do with the given revealed rng word. It never
// transitions state itself.
func Predict(ctx context.Context, r WordReader, st *State, rngWord *uint256.Int) (*Prediction, error) {
	p := &Prediction{State: st, RngWord: rngWord}

	switch st.Phase {
	case PhaseEndgame:
		eg, err := predictEndgame(ctx, r, st, rngWord)
		if err != nil {
			return nil, err
		}
		p.Endgame = eg
	case PhaseBurn:
		d, err := predictDaily(ctx, r, st, rngWord)
		if err != nil {
			return nil, err
		}
		p.Daily = d
	case PhasePurchase:
		p.NotImplemented = "Purchase phase map drops are not implemented"
	default:
		p.Unrecognized = true
	}
	return p, nil
}

func bpsOf(amount *uint256.Int, bps uint64) *uint256.Int {
	s := new(uint256.Int).Mul(amount, uint256.NewInt(bps))
	return s.Div(s, uint256.NewInt(10000))
}

func predictEndgame(ctx context.Context, r WordReader, st *State, rngWord *uint256.Int) (*EndgamePrediction, error) {
	prev := uint64(0)
	if st.Level > 0 {
		prev = uint64(st.Level) - 1
	}

	eg := &EndgamePrediction{PrevLevel: uint32(prev)}

	if st.LastExterminatedTrait != TraitTimeout {
		// (prevLevel % 10 == 4 && prevLevel != 4) pays 40%, otherwise 30%.
		eg.Boosted = prev%10 == 4 && prev != 4
		pct := uint64(30)
		if eg.Boosted {
			pct = 40
		}
		share := new(uint256.Int).Mul(st.CurrentPrizePool, uint256.NewInt(pct))
		share.Div(share, uint256.NewInt(100))
		eg.ExterminatorShare = share
		eg.JackpotPool = new(uint256.Int).Sub(st.CurrentPrizePool, share)

		if prev > 0 {
			exSlot := storage.DynamicArrayElemSlot(storage.Slot(slotLevelExterminators), prev-1)
			exWord, err := r.Word(ctx, exSlot)
			if err != nil {
				return nil, err
			}
			eg.HasExterminator = true
			eg.Exterminator = common.Address(exWord.Bytes20())

			// Extermination jackpot, bucket 0: fold the bucket share into
			// the entropy before selecting a ticket, matching the contract's
			// call order.
			bucketShare := bpsOf(eg.JackpotPool, traitBucketBps)
			e := new(uint256.Int).Lsh(uint256.NewInt(prev), 192)
			e.Xor(e, rngWord)
			e.Xor(e, bucketShare)
			e = entropy.Advance(e)

			out, err := resolveBucketWinner(ctx, r, prev, st.LastExterminatedTrait, 0, bucketShare, e)
			if err != nil {
				return nil, err
			}
			eg.Jackpot = &out
		}
	} else {
		eg.TimedOut = true
	}

	if prev%10 == 0 {
		eg.Limitations = append(eg.Limitations, Limitation{Name: "BAF jackpot", Reason: externalJackpotState})
	}
	if prev%10 == 5 && prev >= 15 && prev%100 != 95 {
		eg.Limitations = append(eg.Limitations, Limitation{Name: "Decimator jackpot", Reason: externalJackpotState})
	}

	return eg, nil
}

func predictDaily(ctx context.Context, r WordReader, st *State, rngWord *uint256.Int) (*DailyPrediction, error) {
	d := &DailyPrediction{
		JackpotCounter: st.JackpotCounter,
		WinningTraits:  WinningTraits(rngWord, st.DailyBurnCounts),
	}

	bps := DailyJackpotBps[int(st.JackpotCounter)%len(DailyJackpotBps)]
	d.DailyAmount = bpsOf(st.CurrentPrizePool, bps)

	// The entropy state threads across buckets in contract call order, and
	// each step folds in the bucket's monetary share before the ticket is
	// selected, so trait selection and pool math cannot be separated.
	level := uint64(st.Level)
	e := new(uint256.Int).Lsh(uint256.NewInt(level), 192)
	e.Xor(e, rngWord)

	for idx := 0; idx < 4; idx++ {
		share := bpsOf(d.DailyAmount, traitBucketBps)

		mix := new(uint256.Int).Lsh(uint256.NewInt(uint64(idx)), 64)
		mix.Xor(mix, e)
		mix.Xor(mix, share)
		e = entropy.Advance(mix)

		out, err := resolveBucketWinner(ctx, r, level, d.WinningTraits[idx], idx, share, e)
		if err != nil {
			return nil, err
		}
		d.Buckets[idx] = out
	}

	return d, nil
}

// WinningTraits selects the four daily winning trait ids from the 80 burn
// tallies and the revealed rng word. Bucket 0 is the most-burned symbol with
// a random color, bucket 1 the most-burned color with a random symbol,
// bucket 2 the most-burned full trait, bucket 3 purely random.
func WinningTraits(rngWord *uint256.Int, counts [80]uint32) [4]uint16 {
	r := rngWord.Uint64()

	var w [4]uint16
	sym := argmax(counts[0:8])
	w[0] = uint16((r&7)<<3 | sym)

	maxColor := argmax(counts[8:16])
	w[1] = uint16(64 + (maxColor<<3 | (r>>3)&7))

	w[2] = uint16(128 + argmax(counts[16:80]))

	w[3] = uint16(192 + (r>>6)&63)
	return w
}

// argmax returns the offset of the first maximum, scanning left to right.
func argmax(counts []uint32) uint64 {
	best := counts[0]
	bestIdx := uint64(0)
	for i := 1; i < len(counts); i++ {
		if counts[i] > best {
			best = counts[i]
			bestIdx = uint64(i)
		}
	}
	return bestIdx
}

// resolveBucketWinner picks the winning ticket holder for one bucket from a
// finalized entropy value: slice = e ^ (trait << 128) ^ (salt << 192),
// winner index = slice mod candidate count. An empty candidate list means no
// winner, which is a reported outcome rather than an error.
func resolveBucketWinner(ctx context.Context, r WordReader, level uint64, trait uint16, bucket int, share, e *uint256.Int) (BucketOutcome, error) {
	out := BucketOutcome{Bucket: bucket, TraitID: trait, Share: share}

	lenSlot := storage.NestedTicketSlot(storage.Slot(slotTraitBurnTicket), level, uint64(trait))
	count, err := r.Word(ctx, lenSlot)
	if err != nil {
		return out, err
	}
	out.Candidates = count
	if count.IsZero() {
		return out, nil
	}

	slice := new(uint256.Int).Lsh(uint256.NewInt(uint64(trait)), 128)
	slice.Xor(slice, e)
	salt := new(uint256.Int).Lsh(uint256.NewInt(uint64(bucketSaltBase+bucket)), 192)
	slice.Xor(slice, salt)

	idx := new(uint256.Int).Mod(slice, count)
	winnerSlot := storage.DynamicArrayDataSlot(lenSlot)
	winnerSlot.Add(winnerSlot, idx)

	winnerWord, err := r.Word(ctx, winnerSlot)
	if err != nil {
		return out, err
	}
	out.HasWinner = true
	out.WinnerIndex = idx.Uint64()
	out.Winner = common.Address(winnerWord.Bytes20())
	return out, nil
}
