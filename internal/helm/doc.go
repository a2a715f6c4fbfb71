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

// Package helm lists and uninstalls Helm releases and classifies them as
// stale.
//
// The Client drives the helm binary through a Runner interface so tests can
// substitute canned output. Listing requests JSON with a pinned timestamp
// layout, making the Updated field parseable regardless of the helm
// version's default time format.
//
// Staleness classification is split into two small, pluggable pieces that
// the cleanup orchestrator feeds to the batch engine:
//   - FilterByAge: name prefix match plus Updated strictly before a cutoff
//   - ExtractName: the release's identifying key, or skip when absent
//
// Both pieces treat malformed records as "not a candidate" rather than as
// errors: a release with a missing name or an unparseable timestamp is
// excluded and the run continues.
package helm
