//go:build tools

// Package tools pins build tooling. gomobile needs golang.org/x/mobile/bind
// in the module graph to run `gomobile bind ./mobile`.
package tools

import _ "golang.org/x/mobile/bind"
