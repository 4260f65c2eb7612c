package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
)

const (
	signAlgorithm  = "TC3-HMAC-SHA256"
	signScopeEnd   = "tc3_request"
	signedHeaders  = "content-type;host"
	signContenType = "application/json"
)

// CanonicalRequest builds the canonical request string the signature
// covers. For GET requests the query parameters are canonicalized and
// the body hash is that of the empty string; for any other method the
// exact payload bytes are hashed and the query line stays empty.
func CanonicalRequest(host, method string, query url.Values, payload []byte) string {
	queryString := ""
	bodyHash := sha256Hex(nil)
	if method == "GET" {
		queryString = canonicalQuery(query)
	} else {
		bodyHash = sha256Hex(payload)
	}

	return strings.Join([]string{
		method,
		"/",
		queryString,
		"content-type:" + signContenType,
		"host:" + host,
		"",
		signedHeaders,
		bodyHash,
	}, "\n")
}

// StringToSign derives the signing payload for a canonical request at
// the given UNIX timestamp, scoped to one product.
func StringToSign(productID string, timestamp int64, canonicalRequest string) string {
	return strings.Join([]string{
		signAlgorithm,
		fmt.Sprintf("%d", timestamp),
		credentialScope(productID, timestamp),
		sha256Hex([]byte(canonicalRequest)),
	}, "\n")
}

// Sign computes the hex signature for a string-to-sign using the
// TC3 key derivation chain: secret key -> date -> product -> request.
func (s Secret) Sign(productID string, timestamp int64, stringToSign string) string {
	date := signDate(timestamp)
	keyDate := hmacSHA256([]byte("TC3"+s.Key), date)
	keyProduct := hmacSHA256(keyDate, productID)
	keyRequest := hmacSHA256(keyProduct, signScopeEnd)
	return hex.EncodeToString(hmacSHA256(keyRequest, stringToSign))
}

// Authorization assembles the Authorization header value for an
// already computed signature.
func (s Secret) Authorization(productID string, timestamp int64, signature string) string {
	return fmt.Sprintf("%s Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		signAlgorithm, s.ID, credentialScope(productID, timestamp), signedHeaders, signature)
}

// SignRequest canonicalizes, signs and returns the Authorization
// header value for one Cloud API request.
func (s Secret) SignRequest(host, method string, payload []byte, productID string, timestamp int64) string {
	canonical := CanonicalRequest(host, method, nil, payload)
	signature := s.Sign(productID, timestamp, StringToSign(productID, timestamp, canonical))
	return s.Authorization(productID, timestamp, signature)
}

func credentialScope(productID string, timestamp int64) string {
	return signDate(timestamp) + "/" + productID + "/" + signScopeEnd
}

func signDate(timestamp int64) string {
	return time.Unix(timestamp, 0).UTC().Format("2006-01-02")
}

func canonicalQuery(query url.Values) string {
	if len(query) == 0 {
		return ""
	}
	keys := make([]string, 0, len(query))
	for key := range query {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		for _, value := range query[key] {
			pairs = append(pairs, url.QueryEscape(key)+"="+url.QueryEscape(value))
		}
	}
	return strings.Join(pairs, "&")
}

func sha256Hex(data []byte) string {
	digest := sha256.Sum256(data)
	return hex.EncodeToString(digest[:])
}

func hmacSHA256(key []byte, data string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(data))
	return mac.Sum(nil)
}
