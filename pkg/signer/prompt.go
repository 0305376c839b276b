package signer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math/big"
	"sort"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/flowstate-hq/flowstate-intents/pkg/models"
)

// PromptSigner asks a person to approve every signature before delegating
// to the wrapped signer. Anything other than y or yes declines.
type PromptSigner struct {
	inner Signer
	in    *bufio.Reader
	out   io.Writer
	mu    sync.Mutex
	// lines holds at most one answer; reading is true while a read is in flight
	lines   chan lineResult
	reading bool
}

type lineResult struct {
	line string
	err  error
}

var _ Signer = (*PromptSigner)(nil)

// NewPromptSigner wraps inner, reading answers from in and writing prompts to out
func NewPromptSigner(inner Signer, in io.Reader, out io.Writer) *PromptSigner {
	return &PromptSigner{
		inner: inner,
		in:    bufio.NewReader(in),
		out:   out,
		lines: make(chan lineResult, 1),
	}
}

func (p *PromptSigner) Address() common.Address {
	return p.inner.Address()
}

// SignTypedData shows the message and waits for an answer or cancellation
func (p *PromptSigner) SignTypedData(ctx context.Context, data apitypes.TypedData) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.out, "\nSignature request from %s (chain %s)\n", data.Domain.Name, chainIDString(data.Domain))
	fmt.Fprintf(p.out, "  verifying contract: %s\n", data.Domain.VerifyingContract)
	keys := make([]string, 0, len(data.Message))
	for k := range data.Message {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(p.out, "  %-18s %v\n", k+":", data.Message[k])
	}
	fmt.Fprintf(p.out, "Sign with %s? [y/N]: ", p.inner.Address().Hex())

	res, err := p.answer(ctx)
	if err != nil {
		fmt.Fprintln(p.out)
		return nil, err
	}
	if res.err != nil && res.line == "" {
		return nil, fmt.Errorf("%w: %v", models.ErrSignatureRejected, res.err)
	}
	answer := strings.ToLower(strings.TrimSpace(res.line))
	if answer != "y" && answer != "yes" {
		return nil, models.ErrSignatureRejected
	}

	return p.inner.SignTypedData(ctx, data)
}

// answer waits for the next line typed after the current prompt was shown.
// A line that arrived for a cancelled prompt is discarded, never reused.
// The caller holds p.mu.
func (p *PromptSigner) answer(ctx context.Context) (lineResult, error) {
	if p.reading {
		select {
		case <-p.lines:
			p.reading = false
		default:
		}
	}
	if !p.reading {
		p.reading = true
		go p.readLine()
	}

	select {
	case <-ctx.Done():
		return lineResult{}, ctx.Err()
	case res := <-p.lines:
		p.reading = false
		return res, nil
	}
}

// readLine reads one answer. Only one runs at a time and lines has room for
// its result, so it always exits.
func (p *PromptSigner) readLine() {
	line, err := p.in.ReadString('\n')
	p.lines <- lineResult{line: line, err: err}
}

func chainIDString(d apitypes.TypedDataDomain) string {
	if d.ChainId == nil {
		return "?"
	}
	return (*big.Int)(d.ChainId).String()
}
