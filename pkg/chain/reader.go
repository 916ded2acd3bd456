// Package chain is the engine's only I/O boundary: it fetches raw 256-bit
// storage words for one contract over JSON-RPC.
package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/holiman/uint256"
)

// ErrNoContractCode means the target address holds no code. That is a
// configuration error, not a transient condition, so it is never retried.
var ErrNoContractCode = errors.New("no contract code at target address")

// Reader serves byte-exact storage words for a single contract. All reads
// are pinned to the block observed at construction time, so one prediction
// run sees a single consistent state snapshot; a transport failure aborts
// the run rather than risk mixing two chain states.
type Reader struct {
	ethClient *ethclient.Client
	rpcClient *rpc.Client
	contract  common.Address
	blockNum  *big.Int
}

// NewReader dials the endpoint, checks the contract exists, and pins the
// current block number for all subsequent reads.
func NewReader(ctx context.Context, rpcURL string, contract common.Address) (*Reader, error) {
	ethClient, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", rpcURL, err)
	}
	rpcClient, err := rpc.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", rpcURL, err)
	}

	num, err := ethClient.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch block number: %w", err)
	}
	blockNum := new(big.Int).SetUint64(num)

	code, err := ethClient.CodeAt(ctx, contract, blockNum)
	if err != nil {
		return nil, fmt.Errorf("fetch code at %s: %w", contract.Hex(), err)
	}
	if len(code) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoContractCode, contract.Hex())
	}

	return &Reader{
		ethClient: ethClient,
		rpcClient: rpcClient,
		contract:  contract,
		blockNum:  blockNum,
	}, nil
}

// Word fetches the raw 256-bit word at the given slot address, interpreted
// big-endian. It performs no decoding.
func (r *Reader) Word(ctx context.Context, slot *uint256.Int) (*uint256.Int, error) {
	key := common.Hash(slot.Bytes32())
	blockHex := fmt.Sprintf("0x%x", r.blockNum.Uint64())

	var result hexutil.Bytes
	err := r.rpcClient.CallContext(ctx, &result, "eth_getStorageAt", r.contract.Hex(), key.Hex(), blockHex)
	if err != nil {
		return nil, fmt.Errorf("read slot %s: %w", key.Hex(), err)
	}
	return new(uint256.Int).SetBytes(result), nil
}

// BlockNumber reports the block the snapshot is pinned to.
func (r *Reader) BlockNumber() uint64 {
	return r.blockNum.Uint64()
}

// Contract reports the contract address being read.
func (r *Reader) Contract() common.Address {
	return r.contract
}

// Close releases the underlying RPC connections.
func (r *Reader) Close() {
	r.rpcClient.Close()
	r.ethClient.Close()
}
