// Copyright 2026 Google LLC
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package executor

import (
	"os"
	"regexp"
	"strings"

	"github.com/wirednil/noctra-sub000/internal/util"
)

// maxImportFileSize is the 100 MiB cap IMPORT enforces before reading a file.
const maxImportFileSize = 100 * 1024 * 1024

var deniedPathPrefixes = []string{
	"/etc/", "/sys/", "/proc/", "/dev/", "/root/", "/boot/",
	`C:\Windows\`, `C:\Program Files\`,
}

var tableNamePattern = regexp.MustCompile(`^[A-Za-z0-9_\-]+$`)

// validateImportExportPath rejects paths under a sensitive prefix or
// containing "..", and asserts an existing path is a regular file.
func validateImportExportPath(path string) error {
	if strings.Contains(path, "..") {
		return util.NewSandboxViolation(path, "path contains \"..\"")
	}
	for _, prefix := range deniedPathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return util.NewSandboxViolation(path, "path falls under a denied prefix")
		}
	}
	if info, err := os.Stat(path); err == nil && !info.Mode().IsRegular() {
		return util.NewSandboxViolation(path, "path is not a regular file")
	}
	return nil
}

// validateTableName rejects table names IMPORT/EXPORT would otherwise
// interpolate directly into generated SQL.
func validateTableName(name string) error {
	if !tableNamePattern.MatchString(name) {
		return util.NewSandboxViolation(name, "table name must match [A-Za-z0-9_-]+")
	}
	return nil
}
