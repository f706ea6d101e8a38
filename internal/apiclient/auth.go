// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package apiclient

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// APIKeyWarning describes an upcoming or past API key expiry, surfaced at
// startup so an operator notices before the worker starts failing every
// request with 401s.
type APIKeyWarning struct {
	ExpiresAt time.Time
	Expired   bool
}

// CheckAPIKeyExpiry inspects apiKey as a JWT and returns a warning if it
// expires within warnWithin, or has already expired. Keys that are not
// JWTs (opaque API tokens) are not inspectable and produce no warning —
// this is not an error, just a no-op, since most orchestration deployments
// use opaque keys.
func CheckAPIKeyExpiry(apiKey string, warnWithin time.Duration) (*APIKeyWarning, error) {
	if apiKey == "" {
		return nil, nil
	}

	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	_, _, err := parser.ParseUnverified(apiKey, claims)
	if err != nil {
		// Not a parseable JWT; treat as an opaque key and skip the check.
		return nil, nil
	}

	expFloat, ok := claims["exp"]
	if !ok {
		return nil, nil
	}
	exp, ok := expFloat.(float64)
	if !ok {
		return nil, fmt.Errorf("apiclient: unexpected exp claim type %T", expFloat)
	}
	expiresAt := time.Unix(int64(exp), 0)

	now := time.Now()
	if expiresAt.Before(now) {
		return &APIKeyWarning{ExpiresAt: expiresAt, Expired: true}, nil
	}
	if expiresAt.Sub(now) <= warnWithin {
		return &APIKeyWarning{ExpiresAt: expiresAt, Expired: false}, nil
	}
	return nil, nil
}
