// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package posix

import (
	"os"
	"strings"
)

// DefaultExecutableName is reported when the process has no usable argv[0].
const DefaultExecutableName = "x509-artifact-builder"

// GetExecutableName returns the executable name without extension, cross-platform compatible.
// It takes the last path component of os.Args[0], splitting on both '/' and '\'
// so that a Windows path is handled on any host, and drops a trailing ".exe".
//
// Examples:
//   - Linux/macOS: "myapp" from "/usr/local/bin/myapp"
//   - Windows: "myapp" from "C:\bin\myapp.exe"
//   - Fallback: [DefaultExecutableName] if os.Args[0] is unavailable
func GetExecutableName() string {
	if len(os.Args) == 0 {
		return DefaultExecutableName
	}
	return executableName(os.Args[0])
}

func executableName(arg0 string) string {
	name := arg0
	if i := strings.LastIndexAny(arg0, `/\`); i >= 0 {
		name = arg0[i+1:]
	}
	name = strings.TrimSuffix(name, ".exe")
	if name == "" || name == "." {
		return DefaultExecutableName
	}
	return name
}
