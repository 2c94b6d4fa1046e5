package transfer

import (
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/existflow/irontrack/internal/codec"
	"github.com/existflow/irontrack/internal/logger"
	"github.com/existflow/irontrack/internal/model"
)

var (
	// ErrMismatch means the payload does not match the task signature
	ErrMismatch = errors.New("transfer: payload does not match task signature")
	// ErrPassword means the envelope is sealed and the password is missing or wrong
	ErrPassword = errors.New("transfer: invalid password or corrupted data")
)

// Envelope is the on-disk form of a handoff file
type Envelope struct {
	ID        string    `yaml:"id"`
	Signature string    `yaml:"signature"`
	CreatedAt time.Time `yaml:"created_at"`
	Encrypted bool      `yaml:"encrypted"`
	Salt      string    `yaml:"salt,omitempty"`
	Payload   string    `yaml:"payload"`
}

// Pack encodes tasks into a YAML envelope. A non-empty password seals the
// payload.
func Pack(tasks []*model.Task, password string) ([]byte, error) {
	payload, err := codec.EncodeList(tasks)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tasks: %w", err)
	}

	env := Envelope{
		ID:        uuid.NewString(),
		Signature: codec.Signature(),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}

	if password != "" {
		salt, err := generateSalt()
		if err != nil {
			return nil, err
		}
		payload, err = newSealer(password, salt).seal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to seal payload: %w", err)
		}
		env.Encrypted = true
		env.Salt = base64.StdEncoding.EncodeToString(salt)
	}
	env.Payload = base64.StdEncoding.EncodeToString(payload)

	logger.Debug("Envelope packed",
		logger.F("envelope_id", env.ID),
		logger.F("tasks", len(tasks)),
		logger.F("encrypted", env.Encrypted))

	return yaml.Marshal(&env)
}

// ReadEnvelope parses an envelope without opening its payload
func ReadEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := yaml.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to parse envelope: %w", err)
	}
	if _, err := uuid.Parse(env.ID); err != nil {
		return nil, fmt.Errorf("invalid envelope id %q: %w", env.ID, err)
	}
	return &env, nil
}

// Unpack opens an envelope produced by Pack
func Unpack(data []byte, password string) ([]*model.Task, error) {
	env, err := ReadEnvelope(data)
	if err != nil {
		return nil, err
	}
	if env.Signature != codec.Signature() {
		return nil, fmt.Errorf("signature %q: %w", env.Signature, ErrMismatch)
	}

	payload, err := base64.StdEncoding.DecodeString(env.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}

	if env.Encrypted {
		if password == "" {
			return nil, ErrPassword
		}
		salt, err := base64.StdEncoding.DecodeString(env.Salt)
		if err != nil {
			return nil, fmt.Errorf("failed to decode salt: %w", err)
		}
		payload, err = newSealer(password, salt).open(payload)
		if err != nil {
			return nil, err
		}
	}

	tasks, ok := codec.DecodeList(payload)
	if !ok {
		return nil, ErrMismatch
	}
	return tasks, nil
}
