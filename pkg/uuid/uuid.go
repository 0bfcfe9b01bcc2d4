// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package uuid generates the portal's identifiers.

Request ids, device ids and assessment attempt ids are all UUID version 7, so
journal rows and log lines sort by creation time.
*/
package uuid

import "github.com/google/uuid"

// New returns a UUIDv7 string.
//
// When the v7 generator cannot read entropy, it falls back to a random v4 so
// request handling never panics on id generation.
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Canonical parses raw and returns its lowercase hyphenated form.
//
// Client-supplied ids (device cookie, X-Request-ID) go through here before
// they are used as Redis keys or log attributes.
func Canonical(raw string) (string, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", false
	}
	return id.String(), true
}
