package game

import (
	"fmt"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"
)

func weiToEther(v *uint256.Int) string {
	f := new(big.Float).SetInt(v.ToBig())
	f.Quo(f, big.NewFloat(params.Ether))
	return f.Text('f', 6)
}

func fmtAmount(v *uint256.Int) string {
	return fmt.Sprintf("%s wei (%s ETH)", v.Dec(), weiToEther(v))
}

// Render writes the human-readable prediction report.
func Render(w io.Writer, p *Prediction) {
	st := p.State
	fmt.Fprintf(w, "Predicting advanceGame for RNG: %s\n", p.RngWord.Hex())
	fmt.Fprintf(w, "Current Level: %d\n", st.Level)
	fmt.Fprintf(w, "Game State: %s\n", st.Phase)
	fmt.Fprintf(w, "Current Prize Pool: %s\n", fmtAmount(st.CurrentPrizePool))
	fmt.Fprintf(w, "Reward Pool: %s\n", fmtAmount(st.RewardPool))
	fmt.Fprintf(w, "Last Prize Pool: %s\n", fmtAmount(st.LastPrizePool))
	fmt.Fprintf(w, "BAF Hundred Pool: %s\n", fmtAmount(st.BafHundredPool))
	fmt.Fprintf(w, "Decimator Hundred Pool: %s\n", fmtAmount(st.DecimatorHundredPool))

	switch {
	case p.Endgame != nil:
		renderEndgame(w, st, p.Endgame)
	case p.Daily != nil:
		renderDaily(w, p.Daily)
	case p.NotImplemented != "":
		fmt.Fprintf(w, "\n%s.\n", p.NotImplemented)
	case p.Unrecognized:
		fmt.Fprintf(w, "\nUnrecognized game state %d; no prediction possible.\n", uint8(st.Phase))
	}
}

func renderEndgame(w io.Writer, st *State, eg *EndgamePrediction) {
	fmt.Fprintf(w, "\n--- Endgame Prediction ---\n")

	if eg.TimedOut {
		fmt.Fprintf(w, "Level timed out (no exterminator).\n")
	} else {
		fmt.Fprintf(w, "Trait Exterminated: %d\n", st.LastExterminatedTrait)
		pct := 30
		if eg.Boosted {
			pct = 40
		}
		fmt.Fprintf(w, "Exterminator Share (%d%%): %s\n", pct, fmtAmount(eg.ExterminatorShare))
		fmt.Fprintf(w, "Jackpot Pool: %s\n", fmtAmount(eg.JackpotPool))
		if eg.HasExterminator {
			fmt.Fprintf(w, "Exterminator (Level %d): %s\n", eg.PrevLevel, eg.Exterminator.Hex())
		}
		if eg.Jackpot != nil {
			renderBucket(w, "Extermination Jackpot", *eg.Jackpot)
		}
	}

	for _, lim := range eg.Limitations {
		fmt.Fprintf(w, "\nCannot predict %s: %s.\n", lim.Name, lim.Reason)
	}
}

func renderDaily(w io.Writer, d *DailyPrediction) {
	fmt.Fprintf(w, "\n--- Daily Jackpot Prediction ---\n")
	fmt.Fprintf(w, "Jackpot Counter: %d\n", d.JackpotCounter)
	fmt.Fprintf(w, "Daily Amount: %s\n", fmtAmount(d.DailyAmount))
	fmt.Fprintf(w, "Winning Traits: %v\n", d.WinningTraits)
	for _, b := range d.Buckets {
		renderBucket(w, fmt.Sprintf("Bucket %d (trait %d)", b.Bucket, b.TraitID), b)
	}
}

func renderBucket(w io.Writer, label string, b BucketOutcome) {
	fmt.Fprintf(w, "  %s: share %s, candidates %s\n", label, fmtAmount(b.Share), b.Candidates.Dec())
	if b.HasWinner {
		fmt.Fprintf(w, "    Predicted Winner: %s (index %d)\n", b.Winner.Hex(), b.WinnerIndex)
	} else {
		fmt.Fprintf(w, "    No candidates; no winner.\n")
	}
}
