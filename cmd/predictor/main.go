package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	"github.com/degenlabs/purge-predictor-go/pkg/chain"
	"github.com/degenlabs/purge-predictor-go/pkg/game"
)

// Config is built once at startup; core packages never read the
// environment themselves.
type Config struct {
	RPCURL      string `env:"RPC_URL" envDefault:"http://localhost:8545"`
	GameAddress string `env:"GAME_ADDRESS"`
}

func loadConfig(rpcOverride string) (Config, common.Address, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, common.Address{}, fmt.Errorf("parse environment: %w", err)
	}
	if rpcOverride != "" {
		cfg.RPCURL = rpcOverride
	}
	if cfg.GameAddress == "" {
		return cfg, common.Address{}, fmt.Errorf("GAME_ADDRESS environment variable not set")
	}
	if !common.IsHexAddress(cfg.GameAddress) {
		return cfg, common.Address{}, fmt.Errorf("GAME_ADDRESS %q is not a valid address", cfg.GameAddress)
	}
	return cfg, common.HexToAddress(cfg.GameAddress), nil
}

func parseSeed(arg string) (*uint256.Int, error) {
	s := strings.TrimPrefix(strings.TrimPrefix(arg, "0x"), "0X")
	if s == "" || len(s) > 64 {
		return nil, fmt.Errorf("seed must be 1-64 hex digits, got %q", arg)
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("malformed seed %q: %w", arg, err)
	}
	return new(uint256.Int).SetBytes(b), nil
}

func main() {
	_ = godotenv.Load()

	rpcOverride := flag.String("rpc", "", "override the RPC endpoint")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: predictor [--rpc URL] <RNG_WORD_HEX>")
		os.Exit(1)
	}

	seed, err := parseSeed(flag.Arg(0))
	if err != nil {
		log.Fatal("invalid rng word", "err", err)
	}

	cfg, contract, err := loadConfig(*rpcOverride)
	if err != nil {
		log.Fatal("configuration", "err", err)
	}

	ctx := context.Background()

	reader, err := chain.NewReader(ctx, cfg.RPCURL, contract)
	if err != nil {
		log.Fatal("connect", "rpc", cfg.RPCURL, "err", err)
	}
	defer reader.Close()
	log.Info("snapshot pinned", "contract", contract.Hex(), "block", reader.BlockNumber())

	st, err := game.LoadState(ctx, reader)
	if err != nil {
		log.Fatal("load game state", "err", err)
	}

	pred, err := game.Predict(ctx, reader, st, seed)
	if err != nil {
		log.Fatal("predict", "err", err)
	}

	fmt.Printf("Contract: %s (block %d)\n", contract.Hex(), reader.BlockNumber())
	game.Render(os.Stdout, pred)
}
