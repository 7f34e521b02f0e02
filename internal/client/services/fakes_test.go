package services

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"slices"
	"sort"
	"sync"
	"testing"

	"github.com/dmitrijs2005/vibedtracker/internal/client/client"
	"github.com/dmitrijs2005/vibedtracker/internal/client/models"
	"github.com/dmitrijs2005/vibedtracker/internal/client/passkey"
	"github.com/dmitrijs2005/vibedtracker/internal/client/session"
	"github.com/dmitrijs2005/vibedtracker/internal/codec"
	"github.com/dmitrijs2005/vibedtracker/internal/common"
	"github.com/dmitrijs2005/vibedtracker/internal/cryptox"
	"github.com/dmitrijs2005/vibedtracker/internal/logging"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory stand-in for the server. It implements both
// client.Client and client.PasskeyClient.
type fakeStore struct {
	mu    sync.Mutex
	items map[models.RecordType]map[string]client.Item
	seq   int

	fetchErr error
	putErr   error
	puts     int
	lastPut  *models.EncryptedBlob

	keyInfo       *models.KeyInfo
	getKeyInfoErr error
	setKeyInfoErr error
	recoveryCodes []string
	codeSeq       int

	remotePasskeys []client.RemotePasskey
	deletedPasskey []string

	beginRegErr error
	registered  []*passkey.AttestationResponse
	finishAuthN int
	wrappedKeys map[string]*models.WrappedKey
	updateWKErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		items:       map[models.RecordType]map[string]client.Item{},
		wrappedKeys: map[string]*models.WrappedKey{},
	}
}

func (f *fakeStore) Ping(ctx context.Context) error { return nil }

func (f *fakeStore) FetchItems(ctx context.Context, t models.RecordType) ([]client.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	out := make([]client.Item, 0, len(f.items[t]))
	for _, it := range f.items[t] {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) PutItem(ctx context.Context, blob *models.EncryptedBlob, expectedVersion int64) (*client.SaveAck, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	if f.putErr != nil {
		return nil, f.putErr
	}
	if f.items[blob.RecordType] == nil {
		f.items[blob.RecordType] = map[string]client.Item{}
	}

	old, exists := f.items[blob.RecordType][blob.LocalID]
	if expectedVersion > 0 && (!exists || old.Version != expectedVersion) {
		return nil, &common.RemoteError{Status: http.StatusConflict, Message: "version mismatch"}
	}

	it := client.Item{
		ID:            old.ID,
		DataType:      string(blob.RecordType),
		LocalID:       blob.LocalID,
		EncryptedBlob: codec.Encode(blob.Ciphertext),
		Nonce:         codec.Encode(blob.Nonce),
		Version:       old.Version + 1,
	}
	if !exists {
		f.seq++
		it.ID = fmt.Sprintf("srv-%03d", f.seq)
	}
	f.items[blob.RecordType][blob.LocalID] = it
	f.lastPut = blob
	return &client.SaveAck{LocalID: blob.LocalID, Version: it.Version}, nil
}

func (f *fakeStore) DeleteItem(ctx context.Context, t models.RecordType, localID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[t][localID]; !ok {
		return &common.RemoteError{Status: http.StatusNotFound, Message: "not found"}
	}
	delete(f.items[t], localID)
	return nil
}

func (f *fakeStore) GetKeyInfo(ctx context.Context) (*models.KeyInfo, error) {
	if f.getKeyInfoErr != nil {
		return nil, f.getKeyInfoErr
	}
	if f.keyInfo == nil {
		return nil, &common.RemoteError{Status: http.StatusNotFound, Message: "no key info"}
	}
	return f.keyInfo, nil
}

func (f *fakeStore) SetKeyInfo(ctx context.Context, info *models.KeyInfo) ([]string, error) {
	if f.setKeyInfoErr != nil {
		return nil, f.setKeyInfoErr
	}
	f.keyInfo = info
	return f.issueCodes(), nil
}

func (f *fakeStore) issueCodes() []string {
	f.codeSeq++
	f.recoveryCodes = []string{
		fmt.Sprintf("code-%d-a", f.codeSeq),
		fmt.Sprintf("code-%d-b", f.codeSeq),
		fmt.Sprintf("code-%d-c", f.codeSeq),
	}
	return slices.Clone(f.recoveryCodes)
}

func (f *fakeStore) RecoveryStatus(ctx context.Context) (int, error) {
	return len(f.recoveryCodes), nil
}

func (f *fakeStore) RegenerateRecoveryCodes(ctx context.Context) ([]string, error) {
	if f.keyInfo == nil {
		return nil, &common.RemoteError{Status: http.StatusNotFound, Message: "encryption not set up"}
	}
	return f.issueCodes(), nil
}

func (f *fakeStore) ResetKeyInfo(ctx context.Context, code string, info *models.KeyInfo) ([]string, error) {
	idx := slices.Index(f.recoveryCodes, code)
	if idx < 0 {
		return nil, &common.RemoteError{Status: http.StatusForbidden, Message: "invalid recovery code"}
	}
	f.keyInfo = info
	return f.issueCodes(), nil
}

func (f *fakeStore) ListPasskeys(ctx context.Context) ([]client.RemotePasskey, error) {
	return slices.Clone(f.remotePasskeys), nil
}

func (f *fakeStore) DeletePasskey(ctx context.Context, id string) error {
	idx := slices.IndexFunc(f.remotePasskeys, func(p client.RemotePasskey) bool { return p.ID == id })
	if idx < 0 {
		return &common.RemoteError{Status: http.StatusNotFound, Message: "passkey not found"}
	}
	f.remotePasskeys = slices.Delete(f.remotePasskeys, idx, idx+1)
	f.deletedPasskey = append(f.deletedPasskey, id)
	return nil
}

func (f *fakeStore) BeginRegistration(ctx context.Context) (*passkey.CreationOptionsJSON, error) {
	if f.beginRegErr != nil {
		return nil, f.beginRegErr
	}
	return &passkey.CreationOptionsJSON{
		Challenge:  "AQID",
		RP:         passkey.RelyingParty{ID: "example.org", Name: "VibedTracker"},
		User:       passkey.UserEntityJSON{ID: "dXNlcg", Name: "u", DisplayName: "U"},
		Extensions: &passkey.ExtensionsJSON{PRF: &passkey.PRFInputsJSON{}},
	}, nil
}

func (f *fakeStore) FinishRegistration(ctx context.Context, resp *passkey.AttestationResponse) error {
	f.registered = append(f.registered, resp)
	return nil
}

func (f *fakeStore) BeginAuthentication(ctx context.Context) (*passkey.RequestOptionsJSON, error) {
	return &passkey.RequestOptionsJSON{
		Challenge:  "BAUG",
		Extensions: &passkey.ExtensionsJSON{PRF: &passkey.PRFInputsJSON{Eval: &passkey.PRFValuesJSON{First: "c2FsdA"}}},
	}, nil
}

func (f *fakeStore) FinishAuthentication(ctx context.Context, resp *passkey.AssertionResponse) (*client.AuthenticationResult, error) {
	f.finishAuthN++
	res := &client.AuthenticationResult{}
	if wk, ok := f.wrappedKeys[resp.RawID]; ok {
		res.WrappedKey = bytes.Clone(wk.WrappedKey)
		res.KeyNonce = bytes.Clone(wk.Nonce)
	}
	return res, nil
}

func (f *fakeStore) UpdateWrappedKey(ctx context.Context, wk *models.WrappedKey) error {
	if f.updateWKErr != nil {
		return f.updateWKErr
	}
	f.wrappedKeys[wk.CredentialID] = wk
	return nil
}

// storedVersion returns the server version of an item.
func (f *fakeStore) storedVersion(t models.RecordType, localID string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items[t][localID].Version
}

type fakePlatform struct {
	createRet *passkey.AttestationCredential
	createErr error
	getRet    *passkey.AssertionCredential
	getErr    error
	gets      int
}

func (p *fakePlatform) Create(ctx context.Context, opts *passkey.CreationOptions) (*passkey.AttestationCredential, error) {
	return p.createRet, p.createErr
}

func (p *fakePlatform) Get(ctx context.Context, opts *passkey.RequestOptions) (*passkey.AssertionCredential, error) {
	p.gets++
	if p.getRet == nil {
		return nil, p.getErr
	}
	c := *p.getRet
	c.PRFFirst = bytes.Clone(p.getRet.PRFFirst)
	return &c, p.getErr
}

func randomKey(t *testing.T) *cryptox.SymmetricKey {
	t.Helper()
	k, err := cryptox.NewSymmetricKey(common.GenerateRandByteArray(cryptox.KeySize))
	require.NoError(t, err)
	return k
}

func unlockedSession(t *testing.T) (*session.Session, []byte) {
	t.Helper()
	s := session.New()
	k := randomKey(t)
	raw := bytes.Clone(k.Bytes())
	s.SetKey(k, session.UnlockPassphrase)
	return s, raw
}

func testRepos(t *testing.T) *client.Repositories {
	t.Helper()
	repos, err := client.InitDatabase(context.Background(), filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.Close() })
	return repos
}

func nopLogger() logging.Logger { return logging.NewNop() }
