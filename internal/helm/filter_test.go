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
	"testing"
	"time"
)

func TestFilterByAge(t *testing.T) {
	cutoff := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		release Release
		prefix  string
		want    bool
	}{
		{
			name:    "Old release with matching prefix",
			release: Release{Name: "pr-123", Updated: "2020-01-01T00:00:00Z"},
			prefix:  "pr-",
			want:    true,
		},
		{
			name:    "Prefix mismatch",
			release: Release{Name: "pr-123", Updated: "2020-01-01T00:00:00Z"},
			prefix:  "rel-",
			want:    false,
		},
		{
			name:    "Unparseable timestamp",
			release: Release{Name: "pr-123", Updated: "not-a-date"},
			prefix:  "pr-",
			want:    false,
		},
		{
			name:    "Updated after cutoff",
			release: Release{Name: "pr-123", Updated: "2024-06-01T00:00:00Z"},
			prefix:  "pr-",
			want:    false,
		},
		{
			name:    "Updated exactly at cutoff is kept",
			release: Release{Name: "pr-123", Updated: "2024-01-01T00:00:00Z"},
			prefix:  "pr-",
			want:    false,
		},
		{
			name:    "Missing name",
			release: Release{Updated: "2020-01-01T00:00:00Z"},
			prefix:  "pr-",
			want:    false,
		},
		{
			name:    "Missing timestamp",
			release: Release{Name: "pr-123"},
			prefix:  "pr-",
			want:    false,
		},
		{
			name:    "Naive timestamp assumed UTC",
			release: Release{Name: "pr-42", Updated: "2020-01-01T00:00:00"},
			prefix:  "pr-",
			want:    true,
		},
		{
			name: "Zoned timestamp normalized to UTC",
			// 2023-12-31T20:00:00-05:00 is 2024-01-01T01:00:00Z, after cutoff.
			release: Release{Name: "pr-7", Updated: "2023-12-31T20:00:00-05:00"},
			prefix:  "pr-",
			want:    false,
		},
		{
			name: "Zoned timestamp just before cutoff",
			// 2023-12-31T18:00:00-05:00 is 2023-12-31T23:00:00Z.
			release: Release{Name: "pr-7", Updated: "2023-12-31T18:00:00-05:00"},
			prefix:  "pr-",
			want:    true,
		},
		{
			name:    "Empty prefix matches any name",
			release: Release{Name: "anything", Updated: "2020-01-01T00:00:00Z"},
			prefix:  "",
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FilterByAge(tt.release, tt.prefix, cutoff); got != tt.want {
				t.Errorf("FilterByAge(%+v, %q) = %v, want %v", tt.release, tt.prefix, got, tt.want)
			}
		})
	}
}

func TestExtractName(t *testing.T) {
	if name, ok := ExtractName(Release{Name: "pr-123"}); !ok || name != "pr-123" {
		t.Errorf("ExtractName() = (%q, %v), want (\"pr-123\", true)", name, ok)
	}

	if _, ok := ExtractName(Release{}); ok {
		t.Error("ExtractName() on a nameless release must signal skip")
	}
}
