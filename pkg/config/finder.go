package config

import (
	"os"
	"path/filepath"
)

// DefaultFileName - имя конфига, который ищется автоматически.
const DefaultFileName = "config.yaml"

// PathFinder ищет config.yaml для CLI.
//
// Порядок:
//  1. Флаг -config (относительный путь разворачивается в абсолютный)
//  2. config.yaml в текущей директории
//  3. config.yaml рядом с бинарником
//
// Если ничего не найдено, возвращается "" и утилита работает на Default().
type PathFinder struct {
	// ConfigFlag - значение флага -config, если указан
	ConfigFlag string
}

// FindConfigPath возвращает путь к конфигу или "".
func (f PathFinder) FindConfigPath() string {
	if f.ConfigFlag != "" {
		return resolveAbsPath(f.ConfigFlag)
	}

	if _, err := os.Stat(DefaultFileName); err == nil {
		return resolveAbsPath(DefaultFileName)
	}

	if execPath, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(execPath), DefaultFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return ""
}

func resolveAbsPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
