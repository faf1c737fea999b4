// Package webhook verifies Contentstack webhook deliveries.
//
// A delivery is accepted when its triggered_at timestamp falls inside the
// replay window and its X-Contentstack-Request-Signature header carries a
// valid RSA-PSS (SHA-256) signature over the request body, checked against
// the signing key published for the configured region:
//
//	body, _ := io.ReadAll(r.Body)
//	err := webhook.Verify(ctx, r.Header.Get(webhook.SignatureHeader), body,
//		webhook.WithRegion(webhook.RegionEU),
//	)
//
// The signing key is fetched on every call. Every failure is an *Error whose
// Kind names the rejected stage.
package webhook

// SignatureHeader is the request header carrying the delivery signature.
const SignatureHeader = "X-Contentstack-Request-Signature"
