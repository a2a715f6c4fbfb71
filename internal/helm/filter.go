/*
Copyright (c) 2025 Mike Lane

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

package helm

import (
	"strings"
	"time"
)

// naiveTimeLayout handles timestamps without a zone offset; they are
// interpreted as UTC.
const naiveTimeLayout = "2006-01-02T15:04:05.999999999"

// FilterByAge reports whether a release is a stale candidate: it has a
// non-empty name starting with prefix and a parseable Updated timestamp
// strictly earlier than cutoff. Missing fields or an unparseable timestamp
// exclude the release; they are never an error.
func FilterByAge(release Release, prefix string, cutoff time.Time) bool {
	if release.Name == "" || release.Updated == "" {
		return false
	}

	if !strings.HasPrefix(release.Name, prefix) {
		return false
	}

	updated, err := parseUpdated(release.Updated)
	if err != nil {
		return false
	}

	return updated.Before(cutoff.UTC())
}

// ExtractName returns the release's identifying key, the name. The second
// return value is false when the release carries no name, signaling skip.
func ExtractName(release Release) (string, bool) {
	if release.Name == "" {
		return "", false
	}
	return release.Name, true
}

// parseUpdated parses a release timestamp, normalizing to UTC. Naive
// timestamps are assumed UTC.
func parseUpdated(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.UTC(), nil
	}

	t, err := time.Parse(naiveTimeLayout, value)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
