// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestSettingsFile_LockUnlock(t *testing.T) {
	tempDir := t.TempDir()
	settingsPath := filepath.Join(tempDir, "settings.yaml")

	sf, err := NewSettingsFile(settingsPath)
	if err != nil {
		t.Fatalf("NewSettingsFile() error = %v", err)
	}

	if err := sf.Lock(); err != nil {
		t.Fatalf("Lock() error = %v", err)
	}

	if err := sf.Unlock(); err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
}

func TestSettingsFile_ConcurrentAccess(t *testing.T) {
	tempDir := t.TempDir()
	settingsPath := filepath.Join(tempDir, "settings.yaml")

	sf1, err := NewSettingsFile(settingsPath)
	if err != nil {
		t.Fatalf("NewSettingsFile() sf1 error = %v", err)
	}

	sf2, err := NewSettingsFile(settingsPath)
	if err != nil {
		t.Fatalf("NewSettingsFile() sf2 error = %v", err)
	}

	if err := sf1.Lock(); err != nil {
		t.Fatalf("sf1.Lock() error = %v", err)
	}
	defer sf1.Unlock()

	errChan := make(chan error, 1)
	go func() {
		errChan <- sf2.Lock()
	}()

	select {
	case err := <-errChan:
		if err != ErrLockTimeout {
			t.Errorf("Expected ErrLockTimeout, got %v", err)
		}
	case <-time.After(7 * time.Second):
		t.Fatal("Lock timeout did not occur within expected time")
	}
}

func TestSettingsFile_SaveLoad(t *testing.T) {
	tempDir := t.TempDir()
	settingsPath := filepath.Join(tempDir, "settings.yaml")

	sf, err := NewSettingsFile(settingsPath)
	if err != nil {
		t.Fatalf("NewSettingsFile() error = %v", err)
	}

	testCfg := &Config{
		Version: 1,
		Pool: PoolConfig{
			Name:             "default-pool",
			WorkerType:       "process",
			ConcurrencyLimit: 5,
		},
		Poll: PollConfig{
			IntervalSeconds:  15,
			PrefetchSeconds:  10,
			HeartbeatSeconds: 30,
		},
	}

	err = sf.WithLock(func() error {
		return sf.Save(testCfg)
	})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if _, err := os.Stat(settingsPath); os.IsNotExist(err) {
		t.Fatal("Settings file was not created")
	}

	var loadedCfg *Config
	err = sf.WithLock(func() error {
		var loadErr error
		loadedCfg, loadErr = sf.Load()
		return loadErr
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if loadedCfg.Version != testCfg.Version {
		t.Errorf("Version mismatch: got %d, want %d", loadedCfg.Version, testCfg.Version)
	}
	if loadedCfg.Pool.Name != testCfg.Pool.Name {
		t.Errorf("Pool.Name mismatch: got %q, want %q", loadedCfg.Pool.Name, testCfg.Pool.Name)
	}
	if loadedCfg.Pool.ConcurrencyLimit != testCfg.Pool.ConcurrencyLimit {
		t.Errorf("Pool.ConcurrencyLimit mismatch: got %d, want %d", loadedCfg.Pool.ConcurrencyLimit, testCfg.Pool.ConcurrencyLimit)
	}
}

func TestSettingsFile_AtomicWrite(t *testing.T) {
	tempDir := t.TempDir()
	settingsPath := filepath.Join(tempDir, "settings.yaml")

	sf, err := NewSettingsFile(settingsPath)
	if err != nil {
		t.Fatalf("NewSettingsFile() error = %v", err)
	}

	initialCfg := &Config{
		Version: 1,
		Pool:    PoolConfig{Name: "initial-pool", WorkerType: "process"},
	}

	err = sf.WithLock(func() error {
		return sf.Save(initialCfg)
	})
	if err != nil {
		t.Fatalf("Initial Save() error = %v", err)
	}

	var wg sync.WaitGroup
	errors := make(chan error, 2)

	for i := 0; i < 2; i++ {
		wg.Add(1)
		poolName := "pool-" + string(rune('A'+i))
		go func(name string) {
			defer wg.Done()

			sf2, err := NewSettingsFile(settingsPath)
			if err != nil {
				errors <- err
				return
			}

			cfg := &Config{
				Version: 1,
				Pool:    PoolConfig{Name: name, WorkerType: "process"},
			}

			err = sf2.WithLock(func() error {
				return sf2.Save(cfg)
			})
			if err != nil {
				errors <- err
			}
		}(poolName)
	}

	wg.Wait()
	close(errors)

	for err := range errors {
		if err != nil {
			t.Errorf("Concurrent write error: %v", err)
		}
	}

	finalCfg, err := LoadSettings(settingsPath)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}

	if finalCfg.Version != 1 {
		t.Errorf("Final config version = %d, want 1", finalCfg.Version)
	}
	if finalCfg.Pool.Name == "" {
		t.Error("Final config should have a pool name set by one of the concurrent writers")
	}
}

func TestLoadSettings_NonExistent(t *testing.T) {
	tempDir := t.TempDir()
	settingsPath := filepath.Join(tempDir, "nonexistent.yaml")

	cfg, err := LoadSettings(settingsPath)
	if err != nil {
		t.Fatalf("LoadSettings() on non-existent file should not error, got %v", err)
	}

	if cfg.Version != 1 {
		t.Errorf("Default config version = %d, want 1", cfg.Version)
	}
	if cfg.Pool.ConcurrencyLimit != 10 {
		t.Errorf("Default concurrency limit = %d, want 10", cfg.Pool.ConcurrencyLimit)
	}
}

func TestSaveSettings_CreatesDirectory(t *testing.T) {
	tempDir := t.TempDir()
	settingsPath := filepath.Join(tempDir, "subdir", "settings.yaml")

	testCfg := &Config{
		Version: 1,
		Pool:    PoolConfig{Name: "test-pool", WorkerType: "process"},
	}

	err := SaveSettings(settingsPath, testCfg)
	if err != nil {
		t.Fatalf("SaveSettings() error = %v", err)
	}

	if _, err := os.Stat(filepath.Dir(settingsPath)); os.IsNotExist(err) {
		t.Fatal("Directory was not created")
	}

	if _, err := os.Stat(settingsPath); os.IsNotExist(err) {
		t.Fatal("Settings file was not created")
	}

	info, err := os.Stat(settingsPath)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}

	mode := info.Mode().Perm()
	if mode != 0600 {
		t.Errorf("File permissions = %o, want 0600", mode)
	}
}
