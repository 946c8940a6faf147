package models

import (
	"fmt"
	"strings"
)

// Arch identifies a target instruction-set architecture
// Only the two architectures lipo is asked to fuse are supported
type Arch string

const (
	// ArchX86_64 is the Intel 64-bit architecture
	ArchX86_64 Arch = "x86_64"
	// ArchARM64 is the Apple silicon 64-bit architecture
	ArchARM64 Arch = "arm64"
)

// ParseArch parses an architecture name
func ParseArch(s string) (Arch, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "x86_64", "x86-64", "amd64":
		return ArchX86_64, nil
	case "arm64", "aarch64":
		return ArchARM64, nil
	default:
		return "", fmt.Errorf("unsupported architecture: %q (valid: x86_64, arm64)", s)
	}
}

// Valid reports whether a is one of the supported architectures
func (a Arch) Valid() bool {
	return a == ArchX86_64 || a == ArchARM64
}

// Other returns the opposite architecture of the pair
func (a Arch) Other() Arch {
	if a == ArchARM64 {
		return ArchX86_64
	}
	return ArchARM64
}

func (a Arch) String() string {
	return string(a)
}

// Classification is the outcome of inspecting a file for one architecture
type Classification string

const (
	// HasArchitecture means the file already contains the architecture
	HasArchitecture Classification = "has_arch"
	// MissingArchitecture means the file is a binary container lacking the architecture
	MissingArchitecture Classification = "missing_arch"
	// NotBinary means the file is not a recognized binary container
	NotBinary Classification = "not_binary"
	// InspectionFailed means the inspection tool could not be run to completion
	InspectionFailed Classification = "inspection_failed"
)
