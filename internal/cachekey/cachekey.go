// Package cachekey derives deterministic, content-addressed cache keys.
package cachekey

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Delimiter joins key parts.
const Delimiter = ":"

// Key prefixes for the two response cache tiers and the query embedding cache.
const (
	GenerationPrefix = "gen"
	RetrievalPrefix  = "ret"
	EmbeddingPrefix  = "emb"
)

// Hash returns the hex SHA-256 digest of v. Strings and byte slices are hashed
// as-is, everything else is hashed over its JSON encoding. Callers that hash
// maps or structs own field ordering; Hash does not canonicalize.
func Hash(v any) string {
	var data []byte
	switch t := v.(type) {
	case string:
		data = []byte(t)
	case []byte:
		data = t
	default:
		b, err := json.Marshal(v)
		if err != nil {
			b = []byte(fmt.Sprintf("%#v", v))
		}
		data = b
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Build joins parts with Delimiter. Nil parts become the empty string so the
// number of segments never depends on which optional parts are present.
func Build(parts ...any) string {
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = stringify(p)
	}
	return strings.Join(out, Delimiter)
}

func stringify(p any) string {
	switch t := p.(type) {
	case nil:
		return ""
	case string:
		return t
	case *string:
		if t == nil {
			return ""
		}
		return *t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// NormalizeQuestion trims the question and flattens newlines to spaces.
func NormalizeQuestion(q string) string {
	return strings.ReplaceAll(strings.TrimSpace(q), "\n", " ")
}

// GenerationKey addresses a cached answer:
// gen:<botID>:<modelID>:<promptHash>:<questionHash>:<historyWindow>.
func GenerationKey(botID, modelID, promptTemplate, question string, historyWindow int) string {
	return Build(
		GenerationPrefix,
		botID,
		modelID,
		Hash(promptTemplate),
		Hash(NormalizeQuestion(question)),
		historyWindow,
	)
}

// RetrievalKey addresses a cached document set:
// ret:<botID>:<questionHash>:<hybrid>:<rerank>.
func RetrievalKey(botID, question string, hybrid, rerank bool) string {
	return Build(
		RetrievalPrefix,
		botID,
		Hash(NormalizeQuestion(question)),
		hybrid,
		rerank,
	)
}

// EmbeddingKey addresses a cached query vector: emb:<model>:<textHash>.
func EmbeddingKey(model, text string) string {
	return Build(EmbeddingPrefix, model, Hash(text))
}

// Tier returns the prefix segment of key, used as a metrics label.
func Tier(key string) string {
	tier, _, found := strings.Cut(key, Delimiter)
	if !found {
		return "other"
	}
	switch tier {
	case GenerationPrefix, RetrievalPrefix, EmbeddingPrefix:
		return tier
	default:
		return "other"
	}
}
