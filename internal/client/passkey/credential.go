package passkey

import "github.com/dmitrijs2005/vibedtracker/internal/codec"

// AttestationCredential is what a Platform returns from Create.
type AttestationCredential struct {
	ID                string
	RawID             []byte
	Type              string
	ClientDataJSON    []byte
	AttestationObject []byte
	// PRFEnabled mirrors the prf.enabled client extension result.
	PRFEnabled bool
}

// AssertionCredential is what a Platform returns from Get.
type AssertionCredential struct {
	ID                string
	RawID             []byte
	Type              string
	ClientDataJSON    []byte
	AuthenticatorData []byte
	Signature         []byte
	UserHandle        []byte
	// PRFFirst is prf.results.first, nil when the extension did not run.
	PRFFirst []byte
}

type AttestationPayload struct {
	ClientDataJSON    string `json:"clientDataJSON"`
	AttestationObject string `json:"attestationObject"`
}

// AttestationResponse is the body sent to /passkey/register/finish.
type AttestationResponse struct {
	ID         string             `json:"id"`
	RawID      string             `json:"rawId"`
	Type       string             `json:"type"`
	Response   AttestationPayload `json:"response"`
	Name       string             `json:"name"`
	PRFEnabled bool               `json:"prfEnabled,omitempty"`
}

type AssertionPayload struct {
	ClientDataJSON    string  `json:"clientDataJSON"`
	AuthenticatorData string  `json:"authenticatorData"`
	Signature         string  `json:"signature"`
	UserHandle        *string `json:"userHandle"`
}

// AssertionResponse is the body sent to /passkey/authenticate/finish.
type AssertionResponse struct {
	ID       string           `json:"id"`
	RawID    string           `json:"rawId"`
	Type     string           `json:"type"`
	Response AssertionPayload `json:"response"`
}

// AssertionResult pairs the server-bound response with the PRF output,
// which never leaves the client.
type AssertionResult struct {
	Response  *AssertionResponse
	PRFOutput []byte
}

// CredentialID is the base64url raw id used to address the credential.
func (r *AssertionResult) CredentialID() string {
	return r.Response.RawID
}

func newAttestationResponse(c *AttestationCredential, name string) *AttestationResponse {
	if name == "" {
		name = "Passkey"
	}
	return &AttestationResponse{
		ID:    c.ID,
		RawID: codec.EncodeURL(c.RawID),
		Type:  c.Type,
		Response: AttestationPayload{
			ClientDataJSON:    codec.EncodeURL(c.ClientDataJSON),
			AttestationObject: codec.EncodeURL(c.AttestationObject),
		},
		Name:       name,
		PRFEnabled: c.PRFEnabled,
	}
}

func newAssertionResult(c *AssertionCredential) *AssertionResult {
	resp := &AssertionResponse{
		ID:    c.ID,
		RawID: codec.EncodeURL(c.RawID),
		Type:  c.Type,
		Response: AssertionPayload{
			ClientDataJSON:    codec.EncodeURL(c.ClientDataJSON),
			AuthenticatorData: codec.EncodeURL(c.AuthenticatorData),
			Signature:         codec.EncodeURL(c.Signature),
		},
	}
	if len(c.UserHandle) > 0 {
		h := codec.EncodeURL(c.UserHandle)
		resp.Response.UserHandle = &h
	}

	res := &AssertionResult{Response: resp}
	if len(c.PRFFirst) > 0 {
		res.PRFOutput = append([]byte(nil), c.PRFFirst...)
	}
	return res
}
