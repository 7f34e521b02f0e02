// Package passkey runs WebAuthn ceremonies through a host-provided Platform
// and converts between the server's base64url JSON options and the binary
// values authenticators work with.
package passkey

import (
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/vibedtracker/internal/codec"
)

// Server-side JSON forms. Binary members are base64url strings.

type RelyingParty struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

type UserEntityJSON struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

type CredentialParameter struct {
	Type string `json:"type"`
	Alg  int    `json:"alg"`
}

type CredentialDescriptorJSON struct {
	Type       string   `json:"type"`
	ID         string   `json:"id"`
	Transports []string `json:"transports,omitempty"`
}

type PRFValuesJSON struct {
	First  string `json:"first"`
	Second string `json:"second,omitempty"`
}

type PRFInputsJSON struct {
	Eval *PRFValuesJSON `json:"eval,omitempty"`
}

type ExtensionsJSON struct {
	PRF *PRFInputsJSON `json:"prf,omitempty"`
}

type CreationOptionsJSON struct {
	Challenge              string                     `json:"challenge"`
	RP                     RelyingParty               `json:"rp"`
	User                   UserEntityJSON             `json:"user"`
	PubKeyCredParams       []CredentialParameter      `json:"pubKeyCredParams,omitempty"`
	Timeout                int                        `json:"timeout,omitempty"`
	ExcludeCredentials     []CredentialDescriptorJSON `json:"excludeCredentials,omitempty"`
	AuthenticatorSelection json.RawMessage            `json:"authenticatorSelection,omitempty"`
	Attestation            string                     `json:"attestation,omitempty"`
	Extensions             *ExtensionsJSON            `json:"extensions,omitempty"`
}

type RequestOptionsJSON struct {
	Challenge        string                     `json:"challenge"`
	Timeout          int                        `json:"timeout,omitempty"`
	RPID             string                     `json:"rpId,omitempty"`
	AllowCredentials []CredentialDescriptorJSON `json:"allowCredentials,omitempty"`
	UserVerification string                     `json:"userVerification,omitempty"`
	Extensions       *ExtensionsJSON            `json:"extensions,omitempty"`
}

// Binary forms handed to the Platform.

type UserEntity struct {
	ID          []byte
	Name        string
	DisplayName string
}

type CredentialDescriptor struct {
	Type       string
	ID         []byte
	Transports []string
}

// PRFInputs is the PRF extension request. A non-nil value with empty First
// asks the authenticator to report PRF support without evaluating.
type PRFInputs struct {
	First  []byte
	Second []byte
}

type CreationOptions struct {
	Challenge              []byte
	RP                     RelyingParty
	User                   UserEntity
	PubKeyCredParams       []CredentialParameter
	Timeout                int
	ExcludeCredentials     []CredentialDescriptor
	AuthenticatorSelection json.RawMessage
	Attestation            string
	PRF                    *PRFInputs
}

type RequestOptions struct {
	Challenge        []byte
	Timeout          int
	RPID             string
	AllowCredentials []CredentialDescriptor
	UserVerification string
	PRF              *PRFInputs
}

func decodeDescriptors(in []CredentialDescriptorJSON) ([]CredentialDescriptor, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]CredentialDescriptor, len(in))
	for i, d := range in {
		id, err := codec.DecodeURL(d.ID)
		if err != nil {
			return nil, fmt.Errorf("credential %d id: %w", i, err)
		}
		out[i] = CredentialDescriptor{Type: d.Type, ID: id, Transports: d.Transports}
	}
	return out, nil
}

func decodePRF(ext *ExtensionsJSON) (*PRFInputs, error) {
	if ext == nil || ext.PRF == nil {
		return nil, nil
	}
	in := &PRFInputs{}
	if ext.PRF.Eval == nil {
		return in, nil
	}
	first, err := codec.DecodeURL(ext.PRF.Eval.First)
	if err != nil {
		return nil, fmt.Errorf("prf eval first: %w", err)
	}
	in.First = first
	if ext.PRF.Eval.Second != "" {
		second, err := codec.DecodeURL(ext.PRF.Eval.Second)
		if err != nil {
			return nil, fmt.Errorf("prf eval second: %w", err)
		}
		in.Second = second
	}
	return in, nil
}

// PrepareCreationOptions decodes the base64url members of registration
// options: challenge, user id, excluded credential ids and PRF inputs.
func PrepareCreationOptions(o *CreationOptionsJSON) (*CreationOptions, error) {
	if o == nil {
		return nil, fmt.Errorf("missing creation options")
	}
	challenge, err := codec.DecodeURL(o.Challenge)
	if err != nil {
		return nil, fmt.Errorf("challenge: %w", err)
	}
	userID, err := codec.DecodeURL(o.User.ID)
	if err != nil {
		return nil, fmt.Errorf("user id: %w", err)
	}
	exclude, err := decodeDescriptors(o.ExcludeCredentials)
	if err != nil {
		return nil, err
	}
	prf, err := decodePRF(o.Extensions)
	if err != nil {
		return nil, err
	}

	return &CreationOptions{
		Challenge:              challenge,
		RP:                     o.RP,
		User:                   UserEntity{ID: userID, Name: o.User.Name, DisplayName: o.User.DisplayName},
		PubKeyCredParams:       o.PubKeyCredParams,
		Timeout:                o.Timeout,
		ExcludeCredentials:     exclude,
		AuthenticatorSelection: o.AuthenticatorSelection,
		Attestation:            o.Attestation,
		PRF:                    prf,
	}, nil
}

// PrepareRequestOptions decodes the base64url members of authentication
// options: challenge, allowed credential ids and the PRF evaluation input.
func PrepareRequestOptions(o *RequestOptionsJSON) (*RequestOptions, error) {
	if o == nil {
		return nil, fmt.Errorf("missing request options")
	}
	challenge, err := codec.DecodeURL(o.Challenge)
	if err != nil {
		return nil, fmt.Errorf("challenge: %w", err)
	}
	allow, err := decodeDescriptors(o.AllowCredentials)
	if err != nil {
		return nil, err
	}
	prf, err := decodePRF(o.Extensions)
	if err != nil {
		return nil, err
	}

	return &RequestOptions{
		Challenge:        challenge,
		Timeout:          o.Timeout,
		RPID:             o.RPID,
		AllowCredentials: allow,
		UserVerification: o.UserVerification,
		PRF:              prf,
	}, nil
}
