package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"sort"
	"strings"
)

var (
	ErrMalformedSignature = errors.New("malformed signature")
	ErrSignatureMismatch  = errors.New("signature mismatch")
)

// Param is one key/value pair of a query string. Params keeps the order in which
// pairs were received, duplicates included.
type Param struct {
	Key   string
	Value string
}

type Params []Param

// ParseParams parses a raw query string without losing pair order.
func ParseParams(rawQuery string) (Params, error) {
	var out Params
	for rawQuery != "" {
		var pair string
		pair, rawQuery, _ = strings.Cut(rawQuery, "&")
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(k)
		if err != nil {
			return nil, err
		}
		val, err := url.QueryUnescape(v)
		if err != nil {
			return nil, err
		}
		out = append(out, Param{Key: key, Value: val})
	}
	return out, nil
}

// ParamsFromValues flattens url.Values. Keys come out sorted; values keep their per-key order.
func ParamsFromValues(values url.Values) Params {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out Params
	for _, k := range keys {
		for _, v := range values[k] {
			out = append(out, Param{Key: k, Value: v})
		}
	}
	return out
}

// Get returns the first value for key.
func (p Params) Get(key string) string {
	for _, kv := range p {
		if kv.Key == key {
			return kv.Value
		}
	}
	return ""
}

// Canonicalize builds the message the platform signs: hmac and signature removed,
// pairs stable-sorted by key (byte order), each key and value query-escaped, joined by &.
func Canonicalize(params Params) string {
	kept := make(Params, 0, len(params))
	for _, kv := range params {
		if kv.Key == "hmac" || kv.Key == "signature" {
			continue
		}
		kept = append(kept, kv)
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Key < kept[j].Key })

	var b strings.Builder
	for i, kv := range kept {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(kv.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(kv.Value))
	}
	return b.String()
}

// Sign returns the lowercase hex HMAC-SHA256 of the canonical message.
func Sign(params Params, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(Canonicalize(params)))
	return hex.EncodeToString(mac.Sum(nil))
}

// checkSignature reports why a signature is rejected, or nil when it is valid.
func checkSignature(params Params, signature, secret string) error {
	if signature == "" || secret == "" {
		return ErrMalformedSignature
	}
	given, err := hex.DecodeString(signature)
	if err != nil {
		return ErrMalformedSignature
	}
	if len(given) != sha256.Size {
		return ErrSignatureMismatch
	}

	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(Canonicalize(params)))
	if !hmac.Equal(mac.Sum(nil), given) {
		return ErrSignatureMismatch
	}
	return nil
}

// Verify recomputes the platform signature over params and compares it to signature
// in constant time. Any malformed input yields false.
func Verify(params Params, signature, secret string) bool {
	return checkSignature(params, signature, secret) == nil
}

// VerifyOAuthHMAC verifies a callback query using its own hmac parameter.
func VerifyOAuthHMAC(params Params, apiSecret string) bool {
	return Verify(params, params.Get("hmac"), apiSecret)
}
