package funding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bubelovv/bounty-board/internal/domain"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
)

var (
	ErrMalformedTx = fmt.Errorf("%w: malformed transaction hash", domain.ErrFundingTxRejected)
	ErrTxNotFound  = fmt.Errorf("%w: transaction not found", domain.ErrFundingTxRejected)
	ErrTxFailed    = fmt.Errorf("%w: transaction reverted", domain.ErrFundingTxRejected)
	ErrTxPending   = fmt.Errorf("%w: transaction not yet confirmed", domain.ErrFundingTxRejected)
)

// ParseTxHash accepts a 0x-prefixed 32-byte hex transaction hash.
func ParseTxHash(txID string) (common.Hash, error) {
	raw, err := hexutil.Decode(strings.TrimSpace(txID))
	if err != nil || len(raw) != common.HashLength {
		return common.Hash{}, ErrMalformedTx
	}
	return common.BytesToHash(raw), nil
}

// FormatVerifier only checks that the id is a well-formed transaction hash.
type FormatVerifier struct{}

func (FormatVerifier) VerifyFunding(_ context.Context, txID string, _ decimal.Decimal) error {
	_, err := ParseTxHash(txID)
	return err
}

type ReceiptClient interface {
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

// ChainVerifier accepts a funding transaction once it has succeeded on chain
// with at least minConfirmations blocks.
type ChainVerifier struct {
	client           ReceiptClient
	minConfirmations uint64
	closer           func()
}

func NewChainVerifier(client ReceiptClient, minConfirmations uint64) *ChainVerifier {
	if minConfirmations == 0 {
		minConfirmations = 1
	}
	return &ChainVerifier{client: client, minConfirmations: minConfirmations}
}

func Dial(ctx context.Context, rpcURL string, minConfirmations uint64) (*ChainVerifier, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial chain rpc: %w", err)
	}
	v := NewChainVerifier(client, minConfirmations)
	v.closer = client.Close
	return v, nil
}

func (v *ChainVerifier) VerifyFunding(ctx context.Context, txID string, _ decimal.Decimal) error {
	hash, err := ParseTxHash(txID)
	if err != nil {
		return err
	}

	receipt, err := v.client.TransactionReceipt(ctx, hash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return ErrTxNotFound
		}
		return fmt.Errorf("fetch receipt: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return ErrTxFailed
	}

	head, err := v.client.BlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("fetch block number: %w", err)
	}
	if receipt.BlockNumber == nil || !receipt.BlockNumber.IsUint64() {
		return ErrTxPending
	}
	mined := receipt.BlockNumber.Uint64()
	if head < mined || head-mined+1 < v.minConfirmations {
		return ErrTxPending
	}

	return nil
}

func (v *ChainVerifier) Close() {
	if v.closer != nil {
		v.closer()
	}
}
