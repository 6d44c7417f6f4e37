package binance

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
)

// Sign authenticates request parameters the way the exchange verifies
// them: drop any pre-existing signature, HMAC-SHA256 the alphabetically
// sorted URL-encoded parameter string with the secret key, and append
// the hex digest as the signature parameter.
//
// url.Values.Encode sorts by key, which is exactly the ordering the
// exchange signs against.
func Sign(params url.Values, secret string) url.Values {
	params.Del("signature")

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(params.Encode()))

	params.Set("signature", hex.EncodeToString(mac.Sum(nil)))
	return params
}
