package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/vibedtracker/internal/client/models"
	"github.com/dmitrijs2005/vibedtracker/internal/client/passkey"
	"github.com/dmitrijs2005/vibedtracker/internal/codec"
	"github.com/dmitrijs2005/vibedtracker/internal/common"
)

// HTTPClient talks JSON to the VibedTracker server. It never retries.
type HTTPClient struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewHTTPClient builds a client for baseURL (e.g. "https://tracker.example/web/api").
// token, when set, is sent as a bearer token on every request.
func NewHTTPClient(baseURL, token string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

func itemPath(t models.RecordType) (string, error) {
	switch t {
	case models.RecordTypeWorkEntry:
		return "/entry", nil
	case models.RecordTypeVacation:
		return "/vacation", nil
	}
	return "", fmt.Errorf("%q: %w", t, common.ErrUnknownRecordType)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return remoteError(resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func remoteError(status int, body []byte) error {
	var er errorResponse
	msg := ""
	if err := json.Unmarshal(body, &er); err == nil && er.Error != "" {
		msg = er.Error
	} else {
		msg = strings.TrimSpace(string(body))
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &common.RemoteError{Status: status, Message: msg}
}

// Ping checks that the server answers on /health.
func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

// FetchItems lists every live item of type t. Tombstones are dropped.
func (c *HTTPClient) FetchItems(ctx context.Context, t models.RecordType) ([]Item, error) {
	var resp itemsResponse
	if err := c.do(ctx, http.MethodGet, "/data?type="+url.QueryEscape(string(t)), nil, &resp); err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(resp.Items))
	for _, it := range resp.Items {
		if it.Deleted {
			continue
		}
		if it.DataType == "" {
			it.DataType = string(t)
		}
		items = append(items, it)
	}
	return items, nil
}

// PutItem stores blob under its local id. A positive expectedVersion asks
// the server to reject the write unless the stored version still matches.
func (c *HTTPClient) PutItem(ctx context.Context, blob *models.EncryptedBlob, expectedVersion int64) (*SaveAck, error) {
	path, err := itemPath(blob.RecordType)
	if err != nil {
		return nil, err
	}

	req := saveRequest{
		LocalID:       blob.LocalID,
		EncryptedBlob: codec.Encode(blob.Ciphertext),
		Nonce:         codec.Encode(blob.Nonce),
		DataType:      string(blob.RecordType),
	}
	if expectedVersion > 0 {
		req.ExpectedVersion = &expectedVersion
	}

	var resp saveResponse
	if err := c.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = "save not acknowledged"
		}
		return nil, &common.RemoteError{Status: http.StatusOK, Message: msg}
	}

	localID := resp.LocalID
	if localID == "" {
		localID = blob.LocalID
	}
	return &SaveAck{LocalID: localID, Version: resp.Version}, nil
}

// DeleteItem removes the item with localID.
func (c *HTTPClient) DeleteItem(ctx context.Context, t models.RecordType, localID string) error {
	path, err := itemPath(t)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, path+"/"+url.PathEscape(localID), nil, nil)
}

// GetKeyInfo returns the passphrase salt and verification hash. A 404 means
// encryption was never set up and matches common.ErrNotFound.
func (c *HTTPClient) GetKeyInfo(ctx context.Context) (*models.KeyInfo, error) {
	var dto keyInfoDTO
	if err := c.do(ctx, http.MethodGet, "/keys", nil, &dto); err != nil {
		return nil, err
	}
	if dto.KeySalt == "" || dto.KeyVerificationHash == "" {
		return nil, common.ErrNotFound
	}

	salt, err := codec.Decode(dto.KeySalt)
	if err != nil {
		return nil, fmt.Errorf("key salt: %w", err)
	}
	hash, err := codec.Decode(dto.KeyVerificationHash)
	if err != nil {
		return nil, fmt.Errorf("key verification hash: %w", err)
	}
	return &models.KeyInfo{Salt: salt, VerificationHash: hash}, nil
}

func (c *HTTPClient) SetKeyInfo(ctx context.Context, info *models.KeyInfo) ([]string, error) {
	var resp setKeyResponse
	err := c.do(ctx, http.MethodPut, "/keys", keyInfoDTO{
		KeySalt:             codec.Encode(info.Salt),
		KeyVerificationHash: codec.Encode(info.VerificationHash),
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.RecoveryCodes, nil
}

// RecoveryStatus returns the number of unused passphrase recovery codes.
func (c *HTTPClient) RecoveryStatus(ctx context.Context) (int, error) {
	var resp recoveryStatusResponse
	if err := c.do(ctx, http.MethodGet, "/passphrase/recovery/status", nil, &resp); err != nil {
		return 0, err
	}
	return resp.RemainingCodes, nil
}

// RegenerateRecoveryCodes invalidates the unused codes and returns new ones.
func (c *HTTPClient) RegenerateRecoveryCodes(ctx context.Context) ([]string, error) {
	var resp recoveryCodesResponse
	if err := c.do(ctx, http.MethodPost, "/passphrase/recovery/regenerate", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Codes, nil
}

// ResetKeyInfo replaces key info with info, authorised by recoveryCode. A
// rejected code matches common.ErrWrongSecret, throttling matches
// common.ErrTooManyAttempts.
func (c *HTTPClient) ResetKeyInfo(ctx context.Context, recoveryCode string, info *models.KeyInfo) ([]string, error) {
	var resp setKeyResponse
	err := c.do(ctx, http.MethodPost, "/passphrase/recovery/reset", resetKeyRequest{
		RecoveryCode:           recoveryCode,
		NewKeySalt:             codec.Encode(info.Salt),
		NewKeyVerificationHash: codec.Encode(info.VerificationHash),
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.RecoveryCodes, nil
}

func (c *HTTPClient) BeginRegistration(ctx context.Context) (*passkey.CreationOptionsJSON, error) {
	var env creationOptionsEnvelope
	if err := c.do(ctx, http.MethodPost, "/passkey/register/begin", nil, &env); err != nil {
		return nil, err
	}
	if env.PublicKey == nil {
		return nil, errors.New("registration options missing publicKey")
	}
	return env.PublicKey, nil
}

func (c *HTTPClient) FinishRegistration(ctx context.Context, resp *passkey.AttestationResponse) error {
	return c.do(ctx, http.MethodPost, "/passkey/register/finish", resp, nil)
}

func (c *HTTPClient) BeginAuthentication(ctx context.Context) (*passkey.RequestOptionsJSON, error) {
	var env requestOptionsEnvelope
	if err := c.do(ctx, http.MethodPost, "/passkey/authenticate/begin", nil, &env); err != nil {
		return nil, err
	}
	if env.PublicKey == nil {
		return nil, errors.New("authentication options missing publicKey")
	}
	return env.PublicKey, nil
}

// FinishAuthentication posts the assertion; the answer may carry the
// credential's wrapped key.
func (c *HTTPClient) FinishAuthentication(ctx context.Context, resp *passkey.AssertionResponse) (*AuthenticationResult, error) {
	var out authenticationFinishResponse
	if err := c.do(ctx, http.MethodPost, "/passkey/authenticate/finish", resp, &out); err != nil {
		return nil, err
	}

	res := &AuthenticationResult{}
	if out.WrappedKey == "" || out.KeyNonce == "" {
		return res, nil
	}
	wk, err := codec.Decode(out.WrappedKey)
	if err != nil {
		return nil, fmt.Errorf("wrapped key: %w", err)
	}
	nonce, err := codec.Decode(out.KeyNonce)
	if err != nil {
		return nil, fmt.Errorf("key nonce: %w", err)
	}
	res.WrappedKey = wk
	res.KeyNonce = nonce
	return res, nil
}

// UpdateWrappedKey stores the wrapped account key for a credential.
func (c *HTTPClient) UpdateWrappedKey(ctx context.Context, wk *models.WrappedKey) error {
	return c.do(ctx, http.MethodPut, "/passkey/"+url.PathEscape(wk.CredentialID)+"/wrapped-key", wrappedKeyRequest{
		WrappedKey: codec.Encode(wk.WrappedKey),
		KeyNonce:   codec.Encode(wk.Nonce),
	}, nil)
}

// ListPasskeys returns the credentials registered for the account.
func (c *HTTPClient) ListPasskeys(ctx context.Context) ([]RemotePasskey, error) {
	var resp passkeysResponse
	if err := c.do(ctx, http.MethodGet, "/passkey/list", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Passkeys == nil {
		return []RemotePasskey{}, nil
	}
	return resp.Passkeys, nil
}

// DeletePasskey removes the credential with server id id.
func (c *HTTPClient) DeletePasskey(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/passkey/"+url.PathEscape(id), nil, nil)
}
