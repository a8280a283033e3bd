package models

import (
	"bytes"
	"encoding/json"
	"strings"

	id "mcpgate/pkg/domain"
	dErrors "mcpgate/pkg/domain-errors"
	"mcpgate/pkg/validation"
)

// CreateRequest carries everything the gateway knows about a client when it
// asks for a new session. The credential has already been authenticated.
type CreateRequest struct {
	CredentialID   id.CredentialID `json:"credential_id"`
	PrincipalID    id.PrincipalID  `json:"principal_id"`
	ClientInfo     json.RawMessage `json:"client_info"`
	Capabilities   json.RawMessage `json:"capabilities"`
	ConnectionType ConnectionType  `json:"connection_type"`
	ClientIP       string          `json:"client_ip,omitempty"`
	UserAgent      string          `json:"user_agent,omitempty"`
}

// Normalize trims provenance fields and caps the user agent length.
func (r *CreateRequest) Normalize() {
	if r == nil {
		return
	}
	r.ConnectionType = ConnectionType(strings.ToLower(strings.TrimSpace(string(r.ConnectionType))))
	r.ClientIP = strings.TrimSpace(r.ClientIP)
	r.UserAgent = validation.Truncate(strings.TrimSpace(r.UserAgent), validation.MaxUserAgentLength)
}

// Validate checks every field that creation depends on. Client info and
// capabilities are checked independently so each reports its own code.
func (r *CreateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.CredentialID.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "credential_id is required")
	}
	if err := validation.CheckStringLength("credential_id", string(r.CredentialID), validation.MaxCredentialIDLength); err != nil {
		return err
	}
	if _, err := ValidateClientInfo(r.ClientInfo); err != nil {
		return err
	}
	if _, err := ValidateCapabilities(r.Capabilities); err != nil {
		return err
	}
	if !r.ConnectionType.IsValid() {
		return dErrors.New(dErrors.CodeInvalidConnectionType, "connection_type must be one of [http sse websocket]")
	}
	return nil
}

// ClientInfo is the connection descriptor a client sends during initialize.
type ClientInfo struct {
	Name    string `json:"name" validate:"required,notblank,max=256"`
	Version string `json:"version" validate:"required,notblank,max=64"`
	Title   string `json:"title,omitempty" validate:"max=256"`
}

// Capabilities is the declared capability set. Unknown keys are tolerated;
// the known ones must have the right shape.
type Capabilities struct {
	Roots        *RootsCapability          `json:"roots,omitempty"`
	Sampling     map[string]any            `json:"sampling,omitempty"`
	Elicitation  map[string]any            `json:"elicitation,omitempty"`
	Experimental map[string]map[string]any `json:"experimental,omitempty"`
}

type RootsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// ValidateClientInfo checks that raw is a well-formed client descriptor.
func ValidateClientInfo(raw json.RawMessage) (*ClientInfo, error) {
	var info ClientInfo
	if err := decodeObject(dErrors.CodeInvalidClientInfo, "client_info", raw, validation.MaxClientInfoSize, &info); err != nil {
		return nil, err
	}
	if err := validation.ValidateWithCode(dErrors.CodeInvalidClientInfo, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// ValidateCapabilities checks that raw is a well-formed capability declaration.
func ValidateCapabilities(raw json.RawMessage) (*Capabilities, error) {
	var caps Capabilities
	if err := decodeObject(dErrors.CodeInvalidCapabilities, "capabilities", raw, validation.MaxCapabilitiesSize, &caps); err != nil {
		return nil, err
	}
	return &caps, nil
}

func decodeObject(code dErrors.Code, field string, raw json.RawMessage, maxSize int, dst any) error {
	if err := validation.CheckSize(code, field, len(raw), maxSize); err != nil {
		return err
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return dErrors.New(code, field+" must be a JSON object")
	}
	if err := json.Unmarshal(trimmed, dst); err != nil {
		return dErrors.Wrap(err, code, field+" is malformed")
	}
	return nil
}
