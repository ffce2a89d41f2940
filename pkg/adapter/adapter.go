package adapter

import (
	"encoding/hex"
	"strings"
)

// KeyAdapter is used to construct etcd like key
type KeyAdapter interface {
	Encode(keys ...string) string
	Decode(key string) []string
	Path() string
}

// Keys of the namespaces persisted in the meta KV.
var (
	// FeatureFlagKey is the namespace of feature flag records, keyed by flag name.
	FeatureFlagKey KeyAdapter = keyHexEncoderDecoder("/instancesync/feature-flag")
	// InfraMappingKey is keyed by account id and infrastructure mapping id.
	InfraMappingKey KeyAdapter = keyHexEncoderDecoder("/instancesync/infra-mapping")
	// InstanceKey is keyed by infrastructure mapping id and instance id.
	InstanceKey KeyAdapter = keyHexEncoderDecoder("/instancesync/instance")
)

type keyHexEncoderDecoder string

// Encode hex-encodes every segment and terminates the key with '/', so the
// encoding of a shorter key list is a prefix of every longer one sharing it.
func (prefix keyHexEncoderDecoder) Encode(keys ...string) string {
	var b strings.Builder
	b.WriteString(string(prefix))
	b.WriteString("/")
	for _, k := range keys {
		b.WriteString(hex.EncodeToString([]byte(k)))
		b.WriteString("/")
	}
	return b.String()
}

func (prefix keyHexEncoderDecoder) Decode(key string) []string {
	trimmed := strings.Trim(strings.TrimPrefix(key, string(prefix)), "/")
	if trimmed == "" {
		return nil
	}
	v := strings.Split(trimmed, "/")
	for i, k := range v {
		dec, err := hex.DecodeString(k)
		if err != nil {
			return nil
		}
		v[i] = string(dec)
	}
	return v
}

func (prefix keyHexEncoderDecoder) Path() string {
	return string(prefix)
}
