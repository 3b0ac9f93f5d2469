package editor

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
)

// ErrUnknownMessage is returned when an inbound envelope has a type the
// bridge does not route
var ErrUnknownMessage = errors.New("unknown message type")

// Envelope is the wire shape shared by both directions
type Envelope struct {
	Type     string          `json:"type"`
	Internal bool            `json:"internal,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// Marshal encodes the envelope as JSON
func (e Envelope) Marshal() ([]byte, error) {
	return sonic.Marshal(e)
}

// UnmarshalEnvelope decodes a JSON envelope
func UnmarshalEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := sonic.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("failed to decode envelope: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("envelope has no type")
	}
	return env, nil
}

// DocumentMeta describes the file handed to the editor
type DocumentMeta struct {
	Name         string `json:"name"`
	ContentType  string `json:"contentType,omitempty"`
	Size         int64  `json:"size,omitempty"`
	Created      int64  `json:"created,omitempty"`
	LastModified int64  `json:"lastModified,omitempty"`
	Perm         string `json:"perm,omitempty"`
}

// Outbound is a message sent to the frame. The set of implementations is
// closed.
type Outbound interface {
	messageType() string
	internal() bool
}

// Init injects the editor's bootstrap markup and script
type Init struct {
	HTML   string `json:"html"`
	Script string `json:"script"`
}

// SetTheme syncs the host theme into the frame
type SetTheme struct {
	Theme string `json:"theme"`
}

// FileOpen hands a document to the editor
type FileOpen struct {
	Data []byte       `json:"data"`
	Meta DocumentMeta `json:"meta"`
}

// FileUpdate replaces the open document's content
type FileUpdate struct {
	Data []byte       `json:"data"`
	Meta DocumentMeta `json:"meta"`
}

// RequestSave asks the editor to report its content with file-saved. It is
// a public message: editor code answers it, not the frame skeleton.
type RequestSave struct{}

// Focus moves keyboard focus into the editor. Public, so editor code
// rather than the skeleton handles it.
type Focus struct{}

// SyscallResponse answers a syscall. Exactly one of Result and Error is set.
type SyscallResponse struct {
	ID     string `json:"id"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Public is an arbitrary editor-domain message
type Public struct {
	Type string
	Data any
}

func (Init) messageType() string            { return "init" }
func (SetTheme) messageType() string        { return "set-theme" }
func (FileOpen) messageType() string        { return "file-open" }
func (FileUpdate) messageType() string      { return "file-update" }
func (RequestSave) messageType() string     { return "request-save" }
func (Focus) messageType() string           { return "focus" }
func (SyscallResponse) messageType() string { return "syscall-response" }
func (p Public) messageType() string        { return p.Type }

func (Init) internal() bool            { return true }
func (SetTheme) internal() bool        { return true }
func (FileOpen) internal() bool        { return false }
func (FileUpdate) internal() bool      { return false }
func (RequestSave) internal() bool     { return false }
func (Focus) internal() bool           { return false }
func (SyscallResponse) internal() bool { return true }
func (Public) internal() bool          { return false }

// Encode wraps msg in an envelope
func Encode(msg Outbound) (Envelope, error) {
	env := Envelope{Type: msg.messageType(), Internal: msg.internal()}

	var payload any
	switch m := msg.(type) {
	case RequestSave, Focus:
	case Public:
		payload = m.Data
	default:
		payload = m
	}
	if payload == nil {
		return env, nil
	}

	data, err := sonic.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to encode %s: %w", env.Type, err)
	}
	env.Data = data
	return env, nil
}

// Inbound is a message received from the frame. The set of implementations
// is closed.
type Inbound interface {
	inbound()
}

// FileChanged reports that the document was edited
type FileChanged struct{}

// FileSaved carries the document content in reply to request-save
type FileSaved struct {
	Data []byte `json:"data"`
}

// Syscall asks the host to run a named capability
type Syscall struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Args []any  `json:"args"`
}

func (FileChanged) inbound() {}
func (FileSaved) inbound()   {}
func (Syscall) inbound()     {}

// Decode interprets an envelope received from the frame. Frames are
// untrusted: anything malformed or unknown is an error.
func Decode(env Envelope) (Inbound, error) {
	switch env.Type {
	case "file-changed":
		return FileChanged{}, nil
	case "file-saved":
		var m FileSaved
		if err := decodeData(env, &m); err != nil {
			return nil, err
		}
		return m, nil
	case "syscall":
		var m Syscall
		if err := decodeData(env, &m); err != nil {
			return nil, err
		}
		if m.ID == "" || m.Name == "" {
			return nil, fmt.Errorf("syscall requires id and name")
		}
		return m, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, env.Type)
	}
}

func decodeData(env Envelope, v any) error {
	if len(env.Data) == 0 {
		return fmt.Errorf("%s message has no data", env.Type)
	}
	if err := sonic.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", env.Type, err)
	}
	return nil
}
