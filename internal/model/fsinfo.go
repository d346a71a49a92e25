// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package model

// FSInfo links a parsed definition back to the file it was declared in.
type FSInfo struct {
	FilePath string
}

// NewFSInfo creates an FSInfo for filePath.
func NewFSInfo(filePath string) *FSInfo {
	return &FSInfo{
		FilePath: filePath,
	}
}
