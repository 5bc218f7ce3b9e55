// Package dumpstore implements the content-addressed, per-user dump
// storage described in spec.md §4.1: upload, format/architecture
// detection, metadata persistence and sweeping of orphaned directories.
package dumpstore

import "time"

// Format is the detected dump container format.
type Format string

const (
	FormatWindowsMinidump Format = "Windows minidump"
	FormatLinuxELFCore    Format = "Linux ELF core"
	FormatMachOCore       Format = "macOS Mach-O core"
	FormatUnknown         Format = "unknown"
)

// Arch is the detected target processor architecture.
type Arch string

const (
	ArchX64     Arch = "x64"
	ArchARM64   Arch = "arm64"
	ArchX86     Arch = "x86"
	ArchARM     Arch = "arm"
	ArchUnknown Arch = "unknown"
)

// DumpInfo is the persisted and returned metadata for one dump, mirroring
// spec.md §3's Dump attributes.
type DumpInfo struct {
	SchemaVersion  int       `json:"schemaVersion"`
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	FileName       string    `json:"fileName"`
	Size           int64     `json:"size"`
	Format         Format    `json:"format"`
	Arch           Arch      `json:"arch"`
	IsMusl         *bool     `json:"isMusl,omitempty"`
	RuntimeVersion string    `json:"runtimeVersion,omitempty"`
	ExecutableName string    `json:"executableName,omitempty"`
	Description    string    `json:"description,omitempty"`
	ContentHash    string    `json:"contentHash"`
	UploadedAt     time.Time `json:"uploadedAt"`
}

const currentSchemaVersion = 1

// Stats aggregates counters across every stored dump, for the
// GET /api/dumps/stats endpoint.
type Stats struct {
	TotalDumps int            `json:"totalDumps"`
	TotalUsers int            `json:"totalUsers"`
	TotalBytes int64          `json:"totalBytes"`
	ByFormat   map[Format]int `json:"byFormat"`
	ByArch     map[Arch]int   `json:"byArch"`
}
