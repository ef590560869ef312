package testutil

import (
	"os"
	"path/filepath"
)

// CleanDir makes sure that dirname exists and removes everything in it except for the entries
// named by keeps.
func CleanDir(dirname string, keeps []string) error {
	err := os.MkdirAll(dirname, 0755)
	if err != nil {
		return err
	}
	entries, err := os.ReadDir(dirname)
	if err != nil {
		return err
	}

	m := map[string]struct{}{}
	for _, k := range keeps {
		m[k] = struct{}{}
	}

	for _, entry := range entries {
		if _, found := m[entry.Name()]; found {
			continue
		}
		err = os.RemoveAll(filepath.Join(dirname, entry.Name()))
		if err != nil {
			return err
		}
	}
	return nil
}
