package signer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math/big"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowstate-hq/flowstate-intents/pkg/models"
	"github.com/flowstate-hq/flowstate-intents/pkg/poolkey"
)

var testHook = common.HexToAddress("0xb5f4c4286c77695577f0aB434487d58969BF8880")

func testIntent(user common.Address) models.Intent {
	return models.Intent{
		User:       user,
		StreamID:   big.NewInt(12),
		Amount:     big.NewInt(0),
		MinBlock:   1000,
		MaxBlock:   1150,
		Nonce:      9000,
		IsSwap:     false,
		TargetPool: models.PoolKey{
			Currency1:   common.HexToAddress("0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238"),
			Fee:         3000,
			TickSpacing: 60,
			Hooks:       testHook,
		},
	}
}

func newTestSigner(t *testing.T) *KeySigner {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return NewKeySigner(key)
}

func TestTypedData(t *testing.T) {
	user := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	td, err := TypedData(testIntent(user), NewDomain(big.NewInt(11155111), testHook))
	require.NoError(t, err)

	assert.Equal(t, PrimaryType, td.PrimaryType)
	assert.Equal(t, "FlowState", td.Domain.Name)
	assert.Equal(t, "1", td.Domain.Version)
	assert.Equal(t, testHook.Hex(), td.Domain.VerifyingContract)
	assert.Equal(t, "12", td.Message["streamId"])
	assert.Equal(t, "0", td.Message["amount"])
	assert.Equal(t, "1150", td.Message["maxBlock"])
	assert.Equal(t, false, td.Message["isSwap"])
	assert.Equal(t, poolkey.Hash(testIntent(user).TargetPool).Hex(), td.Message["targetPoolKeyHash"])

	var fields []string
	for _, f := range td.Types[PrimaryType] {
		fields = append(fields, f.Type+" "+f.Name)
	}
	assert.Equal(t,
		"address user,uint256 streamId,uint256 amount,uint256 minBlock,uint256 maxBlock,uint256 nonce,bool isSwap,bytes32 targetPoolKeyHash",
		strings.Join(fields, ","))
}

func TestDigest(t *testing.T) {
	user := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	domain := NewDomain(big.NewInt(11155111), testHook)

	a, err := Digest(testIntent(user), domain)
	require.NoError(t, err)
	b, err := Digest(testIntent(user), domain)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	mutations := map[string]func(*models.Intent){
		"nonce":    func(in *models.Intent) { in.Nonce++ },
		"isSwap":   func(in *models.Intent) { in.IsSwap = true },
		"maxBlock": func(in *models.Intent) { in.MaxBlock++ },
		"amount":   func(in *models.Intent) { in.Amount = big.NewInt(1) },
		"pool":     func(in *models.Intent) { in.TargetPool.Fee = 500 },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			in := testIntent(user)
			mutate(&in)
			d, err := Digest(in, domain)
			require.NoError(t, err)
			assert.NotEqual(t, a, d)
		})
	}

	t.Run("domain chain id", func(t *testing.T) {
		d, err := Digest(testIntent(user), NewDomain(big.NewInt(1), testHook))
		require.NoError(t, err)
		assert.NotEqual(t, a, d)
	})

	t.Run("missing chain id", func(t *testing.T) {
		_, err := Digest(testIntent(user), Domain{Name: "FlowState", Version: "1"})
		assert.Error(t, err)
	})

	t.Run("values outside their solidity types", func(t *testing.T) {
		tooWide := new(big.Int).Lsh(big.NewInt(1), 256)
		invalid := map[string]func(*models.Intent){
			"amount":       func(in *models.Intent) { in.Amount = tooWide },
			"stream id":    func(in *models.Intent) { in.StreamID = tooWide },
			"negative":     func(in *models.Intent) { in.Amount = big.NewInt(-1) },
			"fee":          func(in *models.Intent) { in.TargetPool.Fee = 1 << 24 },
			"tick spacing": func(in *models.Intent) { in.TargetPool.TickSpacing = 1 << 23 },
		}
		for name, mutate := range invalid {
			t.Run(name, func(t *testing.T) {
				in := testIntent(user)
				mutate(&in)
				_, err := Digest(in, domain)
				assert.Error(t, err)
			})
		}
	})
}

func TestKeySigner(t *testing.T) {
	ctx := context.Background()
	s := newTestSigner(t)
	domain := NewDomain(big.NewInt(11155111), testHook)
	intent := testIntent(s.Address())

	signed, err := Sign(ctx, s, intent, domain)
	require.NoError(t, err)
	require.Len(t, signed.Signature, 65)
	v := signed.Signature[64]
	assert.True(t, v == 27 || v == 28, "v = %d", v)

	recovered, err := Recover(intent, domain, signed.Signature)
	require.NoError(t, err)
	assert.Equal(t, s.Address(), recovered)

	t.Run("recovers someone else for another intent", func(t *testing.T) {
		other := intent
		other.Nonce++
		recovered, err := Recover(other, domain, signed.Signature)
		require.NoError(t, err)
		assert.NotEqual(t, s.Address(), recovered)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := Sign(cctx, s, intent, domain)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestNewKeySignerFromHex(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	hexKey := common.Bytes2Hex(crypto.FromECDSA(key))

	for _, in := range []string{hexKey, "0x" + hexKey, " " + hexKey + "\n"} {
		s, err := NewKeySignerFromHex(in)
		require.NoError(t, err)
		assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), s.Address())
	}

	_, err = NewKeySignerFromHex("not-a-key")
	assert.Error(t, err)
}

func TestNewKeystoreSigner(t *testing.T) {
	dir := t.TempDir()
	ks := keystore.NewKeyStore(dir, keystore.LightScryptN, keystore.LightScryptP)
	account, err := ks.NewAccount("secret")
	require.NoError(t, err)

	s, err := NewKeystoreSigner(account.URL.Path, "secret")
	require.NoError(t, err)
	assert.Equal(t, account.Address, s.Address())

	_, err = NewKeystoreSigner(account.URL.Path, "wrong")
	assert.Error(t, err)

	_, err = NewKeystoreSigner(filepath.Join(dir, "missing.json"), "secret")
	assert.Error(t, err)
}

func TestPromptSigner(t *testing.T) {
	domain := NewDomain(big.NewInt(11155111), testHook)

	t.Run("approve then decline", func(t *testing.T) {
		inner := newTestSigner(t)
		var out bytes.Buffer
		p := NewPromptSigner(inner, strings.NewReader("y\nno\n"), &out)
		intent := testIntent(inner.Address())

		signed, err := Sign(context.Background(), p, intent, domain)
		require.NoError(t, err)
		recovered, err := Recover(intent, domain, signed.Signature)
		require.NoError(t, err)
		assert.Equal(t, inner.Address(), recovered)
		assert.Contains(t, out.String(), "targetPoolKeyHash")

		_, err = Sign(context.Background(), p, intent, domain)
		assert.True(t, errors.Is(err, models.ErrSignatureRejected))
	})

	t.Run("end of input declines", func(t *testing.T) {
		inner := newTestSigner(t)
		p := NewPromptSigner(inner, strings.NewReader(""), &bytes.Buffer{})
		_, err := Sign(context.Background(), p, testIntent(inner.Address()), domain)
		assert.True(t, errors.Is(err, models.ErrSignatureRejected))
	})

	t.Run("cancellation aborts the prompt", func(t *testing.T) {
		inner := newTestSigner(t)
		blocked, w := io.Pipe()
		defer w.Close()
		p := NewPromptSigner(inner, blocked, &bytes.Buffer{})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Sign(ctx, p, testIntent(inner.Address()), domain)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("answer to a cancelled prompt is not reused", func(t *testing.T) {
		inner := newTestSigner(t)
		r, w := io.Pipe()
		defer w.Close()
		p := NewPromptSigner(inner, r, &bytes.Buffer{})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Sign(ctx, p, testIntent(inner.Address()), domain)
		require.ErrorIs(t, err, context.Canceled)

		// the answer meant for the cancelled prompt arrives late
		_, err = io.WriteString(w, "y\n")
		require.NoError(t, err)
		require.Eventually(t, func() bool { return len(p.lines) == 1 }, time.Second, time.Millisecond)

		go func() { _, _ = io.WriteString(w, "n\n") }()
		next := testIntent(inner.Address())
		next.Nonce++
		_, err = Sign(context.Background(), p, next, domain)
		assert.ErrorIs(t, err, models.ErrSignatureRejected)
	})
}
